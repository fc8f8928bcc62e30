// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import "github.com/vorlif/spreak/localize"

// i18nVars maps the template label keys to their translatable messages.
var i18nVars = map[string]localize.MsgID{
	"address":     "address",
	"accuracy":    "accuracy",
	"coordinates": "coordinates",
	"directions":  "directions",
	"distance":    "distance",
	"map":         "map",
	"nearby":      "nearby",
	"nonearby":    "no locations nearby",
	"unknown":     "unknown",
	"updated":     "updated",
}
