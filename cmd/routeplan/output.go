// cmd/routeplan/output.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iancoleman/orderedmap"
)

// WriteText writes a human-readable summary of the plan.
func (p *Plan) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Route:    %s\n", p.Route.Format(false))
	fmt.Fprintf(w, "Full:     %s\n", p.Route.Format(true))
	if export, err := p.Route.ExportText(); err == nil {
		fmt.Fprintf(w, "Export:   %s\n", export)
	}
	fmt.Fprintf(w, "Distance: %.1f nm, %d direct legs\n", p.Route.Distance(), p.Route.DirectLegs())
	if len(p.Procedures) > 0 {
		fmt.Fprintf(w, "Procedures: %s\n", strings.Join(p.Procedures, ", "))
	}
	if len(p.Tracks) > 0 {
		fmt.Fprintf(w, "Tracks:   %s\n", strings.Join(p.Tracks, ", "))
	}
	for _, warn := range p.Warnings {
		fmt.Fprintf(w, "Warning:  %s\n", warn)
	}

	if p.Markers == nil {
		return
	}
	fmt.Fprintf(w, "\n%-8s %7s %8s %7s %8s  %s\n", "Fix", "Alt", "Dist", "Time", "Fuel", "")
	for i, n := range p.Nodes {
		var mark []string
		if i == p.Markers.TOC && !p.Markers.Level {
			mark = append(mark, "TOC")
		}
		if i == p.Markers.TOD && !p.Markers.Level {
			mark = append(mark, "TOD")
		}
		for _, sc := range p.Markers.StepClimbs {
			if sc == i {
				mark = append(mark, "step climb")
			}
		}
		fmt.Fprintf(w, "%-8s %7.0f %8.1f %7.1f %8.1f  %s\n", n.ID, n.Altitude, n.Distance, n.Time, n.Fuel,
			strings.Join(mark, " "))
	}
}

// JSON returns the plan as JSON with its fields in a fixed order.
func (p *Plan) JSON() ([]byte, error) {
	o := orderedmap.New()
	o.Set("route", p.Route.Format(false))
	o.Set("full_route", p.Route.Format(true))
	if export, err := p.Route.ExportText(); err == nil {
		o.Set("export", export)
	}
	o.Set("distance_nm", p.Route.Distance())
	o.Set("direct_legs", p.Route.DirectLegs())

	var wps []*orderedmap.OrderedMap
	for _, wp := range p.Waypoints {
		w := orderedmap.New()
		w.Set("id", wp.ID)
		w.Set("type", wp.Type.String())
		w.Set("lat", wp.Location.Latitude())
		w.Set("lon", wp.Location.Longitude())
		wps = append(wps, w)
	}
	o.Set("waypoints", wps)
	o.Set("procedures", p.Procedures)
	o.Set("tracks", p.Tracks)
	o.Set("warnings", p.Warnings)

	if p.Markers != nil {
		prof := orderedmap.New()
		prof.Set("toc", p.Markers.TOC)
		prof.Set("tod", p.Markers.TOD)
		prof.Set("step_climbs", p.Markers.StepClimbs)
		var nodes []*orderedmap.OrderedMap
		for _, n := range p.Nodes {
			nm := orderedmap.New()
			nm.Set("id", n.ID)
			nm.Set("altitude_ft", n.Altitude)
			nm.Set("distance_nm", n.Distance)
			nm.Set("time_min", n.Time)
			nm.Set("fuel_kg", n.Fuel)
			nodes = append(nodes, nm)
		}
		prof.Set("nodes", nodes)
		o.Set("profile", prof)
	}

	return json.MarshalIndent(o, "", "  ")
}
