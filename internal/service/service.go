// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"

	"github.com/wneessen/geonear/internal/config"
	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/geobus"
	"github.com/wneessen/geonear/internal/geocode"
	"github.com/wneessen/geonear/internal/job"
	"github.com/wneessen/geonear/internal/logger"
	"github.com/wneessen/geonear/internal/nearby"
	"github.com/wneessen/geonear/internal/presenter"
)

// DeviceKey is the geobus key the device position is tracked under.
const DeviceKey = "geonear"

// Service follows the device position, resolves its address and periodically prints the
// candidates near it as JSON lines.
type Service struct {
	config     *config.Config
	geobus     *geobus.GeoBus
	logger     *logger.Logger
	lookup     *geocode.CachedLookup
	resolver   *geocode.Resolver
	ranker     *nearby.Ranker
	presenter  *presenter.Presenter
	scheduler  gocron.Scheduler
	providers  []geobus.Provider
	candidates []nearby.Candidate
	policy     geocode.FailurePolicy
	pruneJob   *job.Job

	outputLock sync.Mutex
	output     io.Writer

	locationLock sync.RWMutex
	location     *geocode.ResolvedLocation
	source       string
	updated      time.Time
}

func New(conf *config.Config, log *logger.Logger, lang *spreak.Localizer) (*Service, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	pres, err := presenter.New(conf, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}

	lookup, err := SelectGeocodeProvider(conf, log)
	if err != nil {
		return nil, err
	}

	providers, err := SelectGeobusProviders(conf, log)
	if err != nil {
		return nil, err
	}

	candidates, err := loadCandidatesFile(conf.Nearby.CandidatesFile)
	if err != nil {
		return nil, err
	}

	policy := geocode.FailHard
	if conf.Geocoder.FallbackToCoordinates {
		policy = geocode.FallbackToCoordinates
	}

	service := &Service{
		config:     conf,
		geobus:     geobus.New(log),
		logger:     log,
		lookup:     lookup,
		resolver:   geocode.NewResolver(lookup, log),
		ranker:     &nearby.Ranker{Extractor: nearby.DefaultExtractor, MaxDistance: conf.Nearby.MaxDistance},
		presenter:  pres,
		scheduler:  scheduler,
		providers:  providers,
		candidates: candidates,
		policy:     policy,
		output:     os.Stdout,
	}
	service.pruneJob = job.New(conf.Cache.PruneInterval, service.pruneCache, job.WithStartImmediately())
	return service, nil
}

func (s *Service) Run(ctx context.Context) error {
	// Start scheduled jobs
	if err := s.createScheduledJob(ctx, s.config.Intervals.Output, s.printOutput,
		"nearby_output_job"); err != nil {
		return err
	}
	s.scheduler.Start()
	go s.pruneJob.Start(ctx)

	// Subscribe to geolocation updates from the geobus
	orchestrator := s.geobus.NewOrchestrator(s.providers)
	sub, unsub := s.geobus.Subscribe(DeviceKey, 32)
	go s.processLocationUpdates(ctx, sub)
	go orchestrator.Track(ctx, DeviceKey)

	// Wait for the context to cancel
	<-ctx.Done()
	if unsub != nil {
		unsub()
	}
	return s.scheduler.Shutdown()
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// printOutput ranks the candidates around the current location and writes the result as JSON
// line. Nothing is printed until a location has been resolved.
func (s *Service) printOutput(context.Context) {
	s.locationLock.RLock()
	if s.location == nil {
		s.locationLock.RUnlock()
		s.logger.Debug("no location resolved yet, skipping output")
		return
	}
	location, source, updated := *s.location, s.source, s.updated
	s.locationLock.RUnlock()

	ranked, err := s.ranker.Rank(location.Coordinate(), s.candidates)
	if err != nil {
		s.logger.Error("failed to rank nearby candidates", logger.Err(err))
		return
	}

	output, err := s.presenter.Output(s.presenter.BuildContext(location, ranked, source, updated))
	if err != nil {
		s.logger.Error("failed to render output", logger.Err(err))
		return
	}

	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	if err = json.NewEncoder(s.output).Encode(output); err != nil {
		s.logger.Error("failed to encode output", logger.Err(err))
	}
}

// updateLocation resolves the address of the given position and stores it as current location.
func (s *Service) updateLocation(ctx context.Context, result geobus.Result) error {
	locations, err := s.resolver.ResolveAll(ctx, []geo.Coordinate{result.Coordinate()}, 1, s.policy)
	if err != nil {
		return fmt.Errorf("failed to resolve device position: %w", err)
	}

	s.locationLock.Lock()
	s.location = &locations[0]
	s.source = result.Source
	s.updated = time.Now()
	s.locationLock.Unlock()

	s.printOutput(ctx)
	return nil
}

// processLocationUpdates consumes position updates from the geobus until the context is done
// or the subscription is closed.
func (s *Service) processLocationUpdates(ctx context.Context, sub <-chan geobus.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-sub:
			if !ok {
				return
			}
			s.logger.Debug("received geolocation update",
				slog.Float64("lat", r.Lat), slog.Float64("lon", r.Lon), slog.String("source", r.Source))
			if err := s.updateLocation(ctx, r); err != nil {
				s.logger.Error("failed to apply geo update", logger.Err(err), slog.String("source", r.Source))
			}
		}
	}
}

func (s *Service) pruneCache(context.Context) {
	if removed := s.lookup.Prune(); removed > 0 {
		s.logger.Debug("pruned expired geocode cache entries", slog.Int("removed", removed),
			slog.Int64("run", s.pruneJob.Runs()))
	}
}

func loadCandidatesFile(path string) ([]nearby.Candidate, error) {
	if path == "" {
		return []nearby.Candidate{}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open candidates file: %w", err)
	}
	defer func() { _ = file.Close() }()

	candidates, err := nearby.LoadCandidates(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates from %s: %w", path, err)
	}
	return candidates, nil
}
