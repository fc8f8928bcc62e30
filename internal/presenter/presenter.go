// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"

	"github.com/wneessen/geonear/internal/config"
	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/geocode"
	"github.com/wneessen/geonear/internal/i18n"
	"github.com/wneessen/geonear/internal/nearby"
)

// TemplateContext is the data available to the text template.
type TemplateContext struct {
	Location   geocode.ResolvedLocation
	Nearby     []nearby.RankedCandidate
	Source     string
	UpdateTime time.Time
}

// Output is a single machine readable result line.
type Output struct {
	Text      string                   `json:"text"`
	Location  geocode.ResolvedLocation `json:"location"`
	Nearby    []nearby.RankedCandidate `json:"nearby"`
	MapsURL   string                   `json:"mapsUrl"`
	Source    string                   `json:"source,omitempty"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

type Presenter struct {
	text      *template.Template
	humanizer *humanize.Humanizer
	localizer *spreak.Localizer
}

func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	collection, err := humanize.New(humanize.WithLocale(de.New()))
	if err != nil {
		return nil, fmt.Errorf("failed to create humanizer: %w", err)
	}
	pres := &Presenter{
		humanizer: collection.CreateHumanizer(i18n.Tag(conf.Locale)),
		localizer: loc,
	}

	tpl, err := template.New("text").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	pres.text = tpl

	return pres, nil
}

func (p *Presenter) BuildContext(loc geocode.ResolvedLocation, ranked []nearby.RankedCandidate, source string,
	updated time.Time,
) TemplateContext {
	if ranked == nil {
		ranked = []nearby.RankedCandidate{}
	}
	return TemplateContext{
		Location:   loc,
		Nearby:     ranked,
		Source:     source,
		UpdateTime: updated,
	}
}

// Render executes the text template for the given context.
func (p *Presenter) Render(ctx TemplateContext) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := p.text.Execute(buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Output renders the context into a machine readable result.
func (p *Presenter) Output(ctx TemplateContext) (Output, error) {
	text, err := p.Render(ctx)
	if err != nil {
		return Output{}, fmt.Errorf("failed to render text template: %w", err)
	}
	return Output{
		Text:      text,
		Location:  ctx.Location,
		Nearby:    ctx.Nearby,
		MapsURL:   geo.MapsURL(ctx.Location.Coordinate(), ""),
		Source:    ctx.Source,
		UpdatedAt: ctx.UpdateTime,
	}, nil
}
