// cmd/routeplan/plan.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/math"
	"github.com/mmp/routeplan/navgraph"
	"github.com/mmp/routeplan/perf"
	"github.com/mmp/routeplan/procedures"
	"github.com/mmp/routeplan/profile"
	"github.com/mmp/routeplan/route"
	"github.com/mmp/routeplan/tracks"
)

var ErrNoEndpoints = errors.New("either a route or origin and destination must be given")

type PlanRequest struct {
	From, To  string
	RouteText string
	DepRunway string
	ArrRunway string
	Tracks    []*tracks.Set

	// Altitudes gives one altitude per waypoint of the expanded route;
	// otherwise if Cruise is non-zero the profile climbs to it at the
	// first waypoint after departure and descends at the last one.
	Altitudes []float64
	Cruise    float64
	Perf      *perf.Model
	Weight    float64 // kg

	Now time.Time
}

type Plan struct {
	Route      route.Route
	Waypoints  []navgraph.Waypoint
	Procedures []string
	Tracks     []string
	Warnings   []string
	// Filter is the procedure filter the plan was made with.
	Filter *procedures.Filter

	Nodes    []profile.PlanNode
	Markers  *profile.Markers
	Segments []perf.Segment
}

// MakePlan finds or parses the route in a view of the graph with the
// applicable procedures and tracks attached, then computes its vertical
// profile if altitudes were given.
func MakePlan(g *navgraph.Graph, db *procedures.Database, cfg *Config, req PlanRequest, lg *log.Logger) (*Plan, error) {
	v, err := navgraph.NewView(g)
	if err != nil {
		return nil, err
	}

	p := &Plan{}
	var inUse tracks.InUse
	for _, s := range req.Tracks {
		r, err := inUse.Select(v, s, req.Now, lg)
		if err != nil {
			return nil, err
		}
		p.Tracks = append(p.Tracks, r.Added...)
		for id, err := range r.Skipped {
			p.Warnings = append(p.Warnings, fmt.Sprintf("%s track %d: %v", s.System, id, err))
		}
	}

	from, to := req.From, req.To
	if req.RouteText != "" {
		tokens, err := route.Split(req.RouteText)
		if err != nil {
			return nil, err
		} else if len(tokens) < 2 {
			return nil, route.ErrEmptyRoute
		}
		from, to = tokens[0], tokens[len(tokens)-1]
	} else if from == "" || to == "" {
		return nil, ErrNoEndpoints
	}

	origin, dest, err := resolveEndpoints(v, from, to)
	if err != nil {
		return nil, err
	}
	p.Filter = cfg.Filter().Clone()
	if db != nil {
		p.attach(v, db, origin, req.DepRunway, procedures.SID, p.Filter, cfg, lg)
		p.attach(v, db, dest, req.ArrRunway, procedures.STAR, p.Filter, cfg, lg)
	}

	if req.RouteText != "" {
		p.Route, err = route.Parse(req.RouteText, v)
	} else {
		p.Route, err = route.NewFinder(cfg.SearchOptions(), lg).FindRoute(origin, dest, v)
	}
	if err != nil {
		return nil, err
	}
	p.Waypoints = p.Route.Expanded(v)
	lg.Info("planned route", slog.String("route", p.Route.String()),
		slog.Float64("distance", float64(p.Route.Distance())))

	if len(req.Altitudes) > 0 || req.Cruise > 0 {
		if err := p.makeProfile(req, lg); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func resolveEndpoints(v *navgraph.View, from, to string) (int, int, error) {
	origin, err := navgraph.Resolve(v, from, nil)
	if err != nil {
		return 0, 0, err
	}
	near := v.Waypoint(origin).Location
	dest, err := navgraph.Resolve(v, to, &near)
	return origin, dest, err
}

func (p *Plan) attach(v *navgraph.View, db *procedures.Database, airport int, runway string, kind procedures.Kind,
	filter *procedures.Filter, cfg *Config, lg *log.Logger) {
	ap := v.Waypoint(airport)
	if ap.Type != navgraph.Airport {
		return
	}

	r, err := procedures.Attach(v, airport, runway, kind, db.Lookup(ap.ID, runway, kind), filter,
		cfg.ProcedureOptions(), lg)
	if err != nil {
		p.Warnings = append(p.Warnings, fmt.Sprintf("%s %s: %v", kind, ap.ID, err))
		return
	}
	p.Procedures = append(p.Procedures, r.Attached...)
	for name, err := range r.Skipped {
		p.Warnings = append(p.Warnings, fmt.Sprintf("%s %s %s: %v", kind, ap.ID, name, err))
	}
}

func (p *Plan) makeProfile(req PlanRequest, lg *log.Logger) error {
	n := len(p.Waypoints)
	alts := req.Altitudes
	if len(alts) == 0 {
		alts = make([]float64, n)
		for i := 1; i < n-1; i++ {
			alts[i] = req.Cruise
		}
	} else if len(alts) != n {
		return fmt.Errorf("%d altitudes given for %d waypoints: %w", len(alts), n, profile.ErrMismatchedInput)
	}

	var err error
	ids, locs := make([]string, n), make([]math.Point2LL, n)
	for i, wp := range p.Waypoints {
		ids[i], locs[i] = wp.ID, wp.Location
	}
	if p.Nodes, err = profile.NewNodes(ids, locs, alts); err != nil {
		return err
	}

	m, err := profile.Mark(p.Nodes)
	if err != nil {
		return err
	}
	p.Markers = &m

	if req.Perf != nil {
		p.Segments, err = req.Perf.Estimate(p.Nodes, m, req.Weight, lg)
	}
	return err
}
