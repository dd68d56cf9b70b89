// route/route.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package route parses and formats route text and finds shortest routes
// through a navigation graph.
package route

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmp/routeplan/navgraph"
)

var (
	ErrMalformedCoordinate = errors.New("malformed coordinate")
	ErrNoRoute             = errors.New("no route found")
	ErrNotOnAirway         = errors.New("waypoint not found along airway")
	ErrEmptyRoute          = errors.New("route has fewer than two waypoints")
	ErrInvalidRoute        = errors.New("route legs are not connected")
)

// CoordinateError is returned for tokens that look like coordinates but
// are not in a supported form or are out of range.
type CoordinateError struct {
	Token string
	Err   error
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Token, ErrMalformedCoordinate, e.Err)
}

func (e *CoordinateError) Unwrap() []error { return []error{ErrMalformedCoordinate, e.Err} }

// TokenError reports a problem with a specific token of route text; Pos
// is its index in the result of Split.
type TokenError struct {
	Token string
	Pos   int
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s (token %d): %v", e.Token, e.Pos+1, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// SearchError is returned when no route can be found between two
// waypoints. It may succeed after procedures or tracks are changed.
type SearchError struct {
	From, To string
	Detail   string
}

func (e *SearchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s to %s: %v: %s", e.From, e.To, ErrNoRoute, e.Detail)
	}
	return fmt.Sprintf("%s to %s: %v", e.From, e.To, ErrNoRoute)
}

func (e *SearchError) Unwrap() error { return ErrNoRoute }

// Point is a waypoint along a route. Edge is the leg to the following
// point; it is the zero Edge for the last point.
type Point struct {
	Index    int
	Waypoint navgraph.Waypoint
	Edge     navgraph.Edge
}

type Route struct {
	Points []Point
}

// Validate checks that the route has at least two points and that each
// point's edge leads to the next point.
func (r Route) Validate() error {
	if len(r.Points) < 2 {
		return ErrEmptyRoute
	}
	for i, p := range r.Points[:len(r.Points)-1] {
		if p.Edge.From != p.Index || p.Edge.To != r.Points[i+1].Index {
			return fmt.Errorf("%s-%s: %w", p.Waypoint.ID, r.Points[i+1].Waypoint.ID, ErrInvalidRoute)
		}
	}
	return nil
}

func (r Route) Origin() Point      { return r.Points[0] }
func (r Route) Destination() Point { return r.Points[len(r.Points)-1] }

// Distance returns the total length of the route in nautical miles.
func (r Route) Distance() float32 {
	var d float32
	for _, p := range r.Points[:max(0, len(r.Points)-1)] {
		d += p.Edge.Distance
	}
	return d
}

// DirectLegs returns the number of direct legs in the route.
func (r Route) DirectLegs() int {
	n := 0
	for _, p := range r.Points[:max(0, len(r.Points)-1)] {
		if p.Edge.IsDirect() {
			n++
		}
	}
	return n
}

// Format returns the route as text. Consecutive legs along the same
// airway are written once, as the airway followed by the waypoint where
// the route leaves it. Direct legs are written as "DCT" if full is true
// and are otherwise implied.
func (r Route) Format(full bool) string {
	if len(r.Points) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(r.Points[0].Waypoint.ID)
	for i := 0; i+1 < len(r.Points); i++ {
		e := r.Points[i].Edge
		if e.IsDirect() {
			if full {
				b.WriteString(" " + navgraph.Direct)
			}
		} else {
			b.WriteString(" " + e.Airway)
			for i+2 < len(r.Points) && r.Points[i+1].Edge.Airway == e.Airway {
				i++
			}
		}
		b.WriteString(" " + r.Points[i+1].Waypoint.ID)
	}
	return b.String()
}

func (r Route) String() string { return r.Format(true) }

// Expanded returns all of the route's waypoints, including those inside
// procedure and track legs.
func (r Route) Expanded(net navgraph.Network) []navgraph.Waypoint {
	var wps []navgraph.Waypoint
	for _, p := range r.Points {
		wps = append(wps, p.Waypoint)
		for _, v := range p.Edge.Via {
			wps = append(wps, net.Waypoint(v))
		}
	}
	return wps
}

// ExportText returns the route in the form used by external flight
// planners: procedures are replaced with direct legs, giving
// "ORIG DCT ... DCT DEST", or just "ORIG DEST" for a direct route.
func (r Route) ExportText() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	tokens := strings.Fields(r.Format(true))
	from, to := tokens[0], tokens[len(tokens)-1]
	mid := tokens[1 : len(tokens)-1]
	if len(mid) == 1 {
		if mid[0] == navgraph.Direct {
			return from + " " + to, nil
		}
		return "", fmt.Errorf("%s: no waypoints between the departure and arrival legs", r.Format(true))
	}

	return from + " DCT " + strings.Join(mid[1:len(mid)-1], " ") + " DCT " + to, nil
}
