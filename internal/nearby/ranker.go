// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package nearby ranks candidate locations by their great-circle distance to a user.
package nearby

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"github.com/wneessen/geonear/internal/geo"
)

// DefaultMaxDistance is the search radius in kilometers used by NewRanker.
const DefaultMaxDistance = 50.0

// RankedCandidate is a candidate within the search radius, annotated with its distance.
type RankedCandidate struct {
	Candidate    Candidate
	Coordinate   geo.Coordinate
	Distance     float64
	DistanceText string
}

// MarshalJSON renders the candidate payload with the distance and distanceText keys added.
func (r RankedCandidate) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Candidate)+2)
	for key, val := range r.Candidate {
		out[key] = val
	}
	out["distance"] = r.Distance
	out["distanceText"] = r.DistanceText
	return json.Marshal(out)
}

// Ranker filters and sorts candidates by distance. It holds no mutable state and is safe for
// concurrent use.
type Ranker struct {
	Extractor   CoordinateExtractor
	MaxDistance float64
}

// NewRanker returns a Ranker using the DefaultExtractor and the DefaultMaxDistance.
func NewRanker() *Ranker {
	return &Ranker{
		Extractor:   DefaultExtractor,
		MaxDistance: DefaultMaxDistance,
	}
}

// Rank ranks the candidates using the radius configured on the Ranker.
func (r *Ranker) Rank(user geo.Coordinate, candidates []Candidate) ([]RankedCandidate, error) {
	return r.FindNearby(user, candidates, r.MaxDistance)
}

// FindNearby returns the candidates within maxDistance kilometers of user, nearest first.
// Candidates without a valid coordinate are left out. Candidates at the same distance keep their
// input order. An empty result is not an error.
func (r *Ranker) FindNearby(user geo.Coordinate, candidates []Candidate, maxDistance float64) ([]RankedCandidate, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(maxDistance) || maxDistance < 0 {
		return nil, &geo.InputError{Field: "maxDistance", Value: maxDistance}
	}
	extractor := r.Extractor
	if extractor == nil {
		extractor = DefaultExtractor
	}

	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		coord, ok := extractor.Extract(candidate)
		if !ok {
			continue
		}
		distance := geo.Distance(user, coord)
		if distance > maxDistance {
			continue
		}
		ranked = append(ranked, RankedCandidate{
			Candidate:    candidate,
			Coordinate:   coord,
			Distance:     distance,
			DistanceText: FormatDistance(distance),
		})
	}
	slices.SortStableFunc(ranked, func(a, b RankedCandidate) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return ranked, nil
}

// FindNearby ranks the candidates with the DefaultExtractor.
func FindNearby(user geo.Coordinate, candidates []Candidate, maxDistance float64) ([]RankedCandidate, error) {
	return NewRanker().FindNearby(user, candidates, maxDistance)
}

// FormatDistance renders a distance in kilometers as whole meters below one kilometer and as
// kilometers otherwise.
func FormatDistance(km float64) string {
	if km < 1 {
		return strconv.FormatInt(int64(math.Round(km*1000)), 10) + "m"
	}
	return strconv.FormatFloat(km, 'f', -1, 64) + "km"
}
