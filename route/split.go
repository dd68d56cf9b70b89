// route/split.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package route

import (
	"strings"

	"github.com/mmp/routeplan/navgraph"
)

func isRouteSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// Split breaks route text into upper-case tokens. "DCT" tokens are
// dropped since direct legs are implied between consecutive waypoints,
// and coordinates are converted to five character waypoint identifiers
// (e.g. "47N180E" becomes "47E80"). A token that looks like a coordinate
// but can't be converted gives a *CoordinateError.
func Split(text string) ([]string, error) {
	var tokens []string
	for _, f := range strings.FieldsFunc(text, isRouteSeparator) {
		f = strings.ToUpper(f)
		if f == navgraph.Direct {
			continue
		}

		id, _, err := navgraph.NormalizeCoordinateToken(f)
		if err != nil {
			return nil, &CoordinateError{Token: f, Err: err}
		}
		tokens = append(tokens, id)
	}
	return tokens, nil
}
