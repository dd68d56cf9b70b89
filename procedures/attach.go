// procedures/attach.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package procedures

import (
	"fmt"
	"log/slog"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/math"
	"github.com/mmp/routeplan/navgraph"
)

type Options struct {
	// When no procedure is applicable, the airport is connected by direct
	// legs to the waypoints within DirectRadiusNM of it.
	DirectRadiusNM float32
	// MaxDirect limits the number of those direct legs; zero is no limit.
	MaxDirect int
}

var DefaultOptions = Options{DirectRadiusNM: 60, MaxDirect: 30}

// Result summarizes what Attach added to the view.
type Result struct {
	Tag      string
	Attached []string
	// Direct lists the waypoints the airport was directly connected to.
	Direct []int
	// Skipped holds the procedures that couldn't be attached and why.
	Skipped map[string]error
}

// EdgeSetTag returns the tag of the view edge set that holds the
// procedures for the given airport and runway.
func EdgeSetTag(kind Kind, airport, runway string) string {
	return fmt.Sprintf("%s %s %s", kind, airport, runway)
}

// Attach adds the procedures in procs that serve the given airport and
// runway and that the filter allows to the view. Each becomes a single
// edge between the airport and the procedure's last (SID) or first
// (STAR) fix, named after the procedure, with the remaining fixes in
// Edge.Via. Any procedures previously attached for the airport and runway
// are replaced.
func Attach(v *navgraph.View, airport int, runway string, kind Kind, procs []Procedure,
	filter *Filter, opts Options, lg *log.Logger) (Result, error) {
	ap := v.Waypoint(airport)
	r := Result{
		Tag:     EdgeSetTag(kind, ap.ID, runway),
		Skipped: make(map[string]error),
	}
	lg = lg.With(slog.String("airport", ap.ID), slog.String("runway", runway), slog.String("kind", kind.String()))

	var edges []navgraph.Edge
	for _, p := range procs {
		if p.Kind != kind || p.Airport != ap.ID || !p.Serves(runway) {
			continue
		}
		if !filter.Allowed(ap.ID, runway, kind, p.Name) {
			lg.Debugf("%s: excluded by filter", p.Name)
			continue
		}

		e, err := procedureEdge(v, airport, p)
		if err != nil {
			lg.Warnf("%s: %v", p.Name, err)
			r.Skipped[p.Name] = err
			continue
		}
		edges = append(edges, e)
		r.Attached = append(r.Attached, p.Name)
	}

	if len(edges) == 0 {
		edges, r.Direct = directEdges(v, airport, kind, opts)
		lg.Debugf("no procedures; connected directly to %d waypoints", len(r.Direct))
	}

	if err := v.ReplaceEdgeSet(r.Tag, edges); err != nil {
		return Result{}, err
	}
	return r, nil
}

// Detach removes the procedures attached for the airport and runway.
func Detach(v *navgraph.View, airport int, runway string, kind Kind) bool {
	return v.RemoveEdgeSet(EdgeSetTag(kind, v.Waypoint(airport).ID, runway))
}

// procedureEdge resolves the procedure's legs and collapses them into a
// single edge.
func procedureEdge(v *navgraph.View, airport int, p Procedure) (navgraph.Edge, error) {
	if len(p.Legs) == 0 {
		return navgraph.Edge{}, fmt.Errorf("%s: no legs", p.Name)
	}

	// Resolve fixes starting from the airport, so each ambiguous
	// identifier is taken to be the one closest to the previous point.
	legs := p.Legs
	if p.Kind == STAR {
		legs = make([]Leg, len(p.Legs))
		for i, l := range p.Legs {
			legs[len(p.Legs)-1-i] = l
		}
	}

	pts := make([]int, 0, len(legs))
	prev := v.Waypoint(airport).Location
	for _, leg := range legs {
		idx, err := resolveLeg(v, leg, prev)
		if err != nil {
			return navgraph.Edge{}, err
		}
		pts = append(pts, idx)
		prev = v.Waypoint(idx).Location
	}

	path := append([]int{airport}, pts...)
	var dist float32
	for i := 1; i < len(path); i++ {
		dist += v.Distance(path[i-1], path[i])
	}

	e := navgraph.Edge{
		Airway:   p.Name,
		Distance: dist,
		Kind:     navgraph.Procedure,
	}
	if p.Kind == SID {
		e.From, e.To = airport, pts[len(pts)-1]
		e.Via = pts[:len(pts)-1]
	} else {
		// pts runs from the airport outward; the STAR flies it in reverse.
		e.From, e.To = pts[len(pts)-1], airport
		for i := len(pts) - 2; i >= 0; i-- {
			e.Via = append(e.Via, pts[i])
		}
	}
	return e, nil
}

func resolveLeg(v *navgraph.View, leg Leg, prev math.Point2LL) (int, error) {
	near := prev
	if !leg.Location.IsZero() {
		near = leg.Location
	}
	idx, err := navgraph.Resolve(v, leg.Fix, &near)
	if err != nil {
		return 0, err
	}
	if !leg.IsOffset() {
		return idx, nil
	}

	p := math.Offset2LL(v.Waypoint(idx).Location, leg.Bearing, leg.Distance)
	return v.FindOrAddWaypoint(navgraph.Waypoint{ID: leg.String(), Location: p, Type: navgraph.LatLon}), nil
}

func directEdges(v *navgraph.View, airport int, kind Kind, opts Options) ([]navgraph.Edge, []int) {
	if opts.DirectRadiusNM <= 0 {
		return nil, nil
	}

	var edges []navgraph.Edge
	var direct []int
	for _, idx := range v.WithinRadius(v.Waypoint(airport).Location, opts.DirectRadiusNM) {
		if idx == airport || v.Waypoint(idx).Type == navgraph.Airport {
			continue
		}
		if opts.MaxDirect > 0 && len(direct) == opts.MaxDirect {
			break
		}

		e := navgraph.Edge{
			From:     airport,
			To:       idx,
			Airway:   navgraph.Direct,
			Distance: v.Distance(airport, idx),
			Kind:     navgraph.Procedure,
		}
		if kind == STAR {
			e.From, e.To = idx, airport
		}
		edges = append(edges, e)
		direct = append(direct, idx)
	}
	return edges, direct
}
