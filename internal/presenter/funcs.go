// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"

	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/geocode"
	"github.com/wneessen/geonear/internal/nearby"
)

// nameKeys are the candidate payload fields used as display name, in order of precedence.
var nameKeys = []string{"name", "shop_name", "service_name", "title"}

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":    p.timeFormat,
		"localizedTime": p.localizedTime,
		"since":         p.since,
		"floatFormat":   p.floatFormat,
		"loc":           p.loc,
		"lc":            strings.ToLower,
		"uc":            strings.ToUpper,
		"pad":           pad,
		"name":          candidateName,
		"mapsURL":       candidateMapsURL,
		"directionsURL": directionsURL,
	}
}

func (p *Presenter) loc(val string) string {
	val = strings.ToLower(val)
	if raw, ok := i18nVars[val]; ok {
		return p.localizer.Get(raw)
	}
	return val
}

func (p *Presenter) localizedTime(val time.Time) string {
	return p.humanizer.FormatTime(val, humanize.TimeFormat)
}

func (p *Presenter) since(val time.Time) string {
	return p.humanizer.NaturalTime(val)
}

func (p *Presenter) timeFormat(val time.Time, fmt string) string {
	return val.Format(fmt)
}

func (p *Presenter) floatFormat(val float64, precision int) string {
	pow := math.Pow(10, float64(precision))
	return fmt.Sprintf("%.*f", precision, math.Trunc(val*pow)/pow)
}

// pad truncates or fills s to exactly width terminal cells.
func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

// candidateName returns the display name of a candidate.
func candidateName(r nearby.RankedCandidate) string {
	for _, key := range nameKeys {
		if val, ok := r.Candidate[key].(string); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return r.Coordinate.String()
}

func candidateMapsURL(r nearby.RankedCandidate) string {
	return geo.MapsURL(r.Coordinate, candidateName(r))
}

func directionsURL(r nearby.RankedCandidate, from geocode.ResolvedLocation) string {
	origin := from.Coordinate()
	return geo.DirectionsURL(r.Coordinate, &origin)
}
