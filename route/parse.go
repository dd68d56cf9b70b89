// route/parse.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package route

import (
	"errors"
	gomath "math"
	"slices"

	"github.com/mmp/routeplan/math"
	"github.com/mmp/routeplan/navgraph"
)

// waypointAdder is implemented by networks that can add waypoints for
// coordinates that aren't in the graph.
type waypointAdder interface {
	FindOrAddWaypoint(navgraph.Waypoint) int
}

// Parse parses route text of the form
//
//	WPT { [AWY] WPT }
//
// against the network. An airway between two waypoints is expanded into
// the airway's legs between them; waypoints without an airway between
// them are joined by a direct leg. Identifiers that name more than one
// waypoint are resolved to the candidate closest to the preceding
// waypoint; for the first waypoint the following token is used instead.
func Parse(text string, net navgraph.Network) (Route, error) {
	tokens, err := Split(text)
	if err != nil {
		return Route{}, err
	}
	if len(tokens) < 2 {
		return Route{}, ErrEmptyRoute
	}

	cur, err := resolveFirst(net, tokens)
	if err != nil {
		return Route{}, &TokenError{Token: tokens[0], Pos: 0, Err: err}
	}

	r := Route{Points: []Point{{Index: cur, Waypoint: net.Waypoint(cur)}}}
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]

		if i+1 < len(tokens) && hasAirway(net, cur, tok) {
			legs, err := followAirway(net, cur, tok, tokens[i+1])
			if err != nil {
				return Route{}, &TokenError{Token: tokens[i+1], Pos: i + 1, Err: err}
			}
			for _, e := range legs {
				r.Points[len(r.Points)-1].Edge = e
				r.Points = append(r.Points, Point{Index: e.To, Waypoint: net.Waypoint(e.To)})
			}
			cur = legs[len(legs)-1].To
			i++
			continue
		}

		near := net.Waypoint(cur).Location
		next, err := lookup(net, tok, &near)
		if err != nil {
			return Route{}, &TokenError{Token: tok, Pos: i, Err: err}
		}
		r.Points[len(r.Points)-1].Edge = directEdge(net, cur, next)
		r.Points = append(r.Points, Point{Index: next, Waypoint: net.Waypoint(next)})
		cur = next
	}

	return r, nil
}

func directEdge(net navgraph.Network, a, b int) navgraph.Edge {
	return navgraph.Edge{
		From:     a,
		To:       b,
		Airway:   navgraph.Direct,
		Distance: math.NMDistance2LL(net.Waypoint(a).Location, net.Waypoint(b).Location),
	}
}

// lookup resolves a waypoint identifier, adding a waypoint for a
// coordinate that isn't in the graph if the network allows it.
func lookup(net navgraph.Network, id string, near *math.Point2LL) (int, error) {
	idx, err := navgraph.Resolve(net, id, near)
	if errors.Is(err, navgraph.ErrWaypointNotFound) {
		if p, ok := navgraph.ParseLatLonID(id); ok {
			if adder, ok := net.(waypointAdder); ok {
				return adder.FindOrAddWaypoint(navgraph.Waypoint{ID: id, Location: p, Type: navgraph.LatLon}), nil
			}
		}
	}
	return idx, err
}

// resolveFirst resolves the first token, using the second to choose
// between multiple candidates: either the candidates on the airway it
// names or the candidate closest to one of its candidates.
func resolveFirst(net navgraph.Network, tokens []string) (int, error) {
	idx, err := lookup(net, tokens[0], nil)
	var lerr *navgraph.LookupError
	if !errors.As(err, &lerr) || !errors.Is(err, navgraph.ErrAmbiguousWaypoint) {
		return idx, err
	}
	cand := lerr.Candidates

	if len(tokens) > 2 {
		var onAirway []int
		for _, c := range cand {
			if hasAirway(net, c, tokens[1]) {
				onAirway = append(onAirway, c)
			}
		}
		if len(onAirway) == 1 {
			return onAirway[0], nil
		} else if len(onAirway) > 1 {
			return 0, &navgraph.LookupError{ID: tokens[0], Index: -1, Candidates: onAirway, Err: navgraph.ErrAmbiguousWaypoint}
		}
	}

	next := net.FindByIdentifier(tokens[1])
	if len(next) == 0 {
		return 0, err
	}
	if c, ok := closestPair(net, cand, next); ok {
		return c, nil
	}
	return 0, err
}

// closestPair returns the element of a that is closest to some element of
// b. It fails if two elements of a are equally close.
func closestPair(net navgraph.Network, a, b []int) (int, bool) {
	best, bestDist, tie := 0, float32(gomath.MaxFloat32), false
	for _, ai := range a {
		pa := net.Waypoint(ai).Location
		d := float32(gomath.MaxFloat32)
		for _, bi := range b {
			d = min(d, math.NMDistance2LL(pa, net.Waypoint(bi).Location))
		}
		if d < bestDist {
			best, bestDist, tie = ai, d, false
		} else if d == bestDist {
			tie = true
		}
	}
	return best, !tie
}

func hasAirway(net navgraph.Network, from int, airway string) bool {
	if airway == navgraph.Direct {
		return false
	}
	for _, n := range net.Neighbors(from) {
		if n.Edge.Airway == airway {
			return true
		}
	}
	return false
}

// followAirway returns the legs along the airway from the waypoint at
// index from to the nearest waypoint (in legs) with identifier to.
func followAirway(net navgraph.Network, from int, airway, to string) ([]navgraph.Edge, error) {
	prev := map[int]navgraph.Edge{from: {}}
	frontier := []int{from}
	for len(frontier) > 0 {
		var next []int
		for _, wp := range frontier {
			for _, n := range net.Neighbors(wp) {
				if n.Edge.Airway != airway {
					continue
				}
				if _, ok := prev[n.Index]; ok {
					continue
				}
				prev[n.Index] = n.Edge

				if n.Waypoint.ID == to {
					var legs []navgraph.Edge
					for i := n.Index; i != from; i = prev[i].From {
						legs = append(legs, prev[i])
					}
					slices.Reverse(legs)
					return legs, nil
				}
				next = append(next, n.Index)
			}
		}
		frontier = next
	}
	return nil, ErrNotOnAirway
}
