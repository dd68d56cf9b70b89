// perf/perf.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package perf estimates flight time and fuel burn along a vertical
// profile using aircraft performance tables.
package perf

import (
	"errors"
	"fmt"
	"os"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/profile"
	"github.com/mmp/routeplan/table"
	"github.com/mmp/routeplan/util"
)

var (
	ErrMissingTable  = errors.New("missing performance table")
	ErrInvalidTable  = errors.New("invalid performance table")
	ErrInvalidValue  = errors.New("invalid performance value")
	ErrFuelExhausted = errors.New("fuel burn exceeds aircraft weight")
)

var phases = []profile.Phase{profile.Climb, profile.Cruise, profile.Descent}

// Model holds an aircraft's performance tables for each phase of flight.
type Model struct {
	Name string `json:"name"`
	// FuelFlow gives kg/h as a function of altitude (ft) and weight (kg).
	FuelFlow map[profile.Phase]*table.Table `json:"fuel_flow"`
	// TrueAirspeed gives knots as a function of altitude (ft).
	TrueAirspeed map[profile.Phase]*table.Table `json:"true_airspeed"`
}

// LoadModel reads a model from a JSON file; see ParseModel.
func LoadModel(filename string) (*Model, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseModel(b)
}

// ParseModel parses a JSON model of the form
//
//	{"name": "B77W",
//	 "fuel_flow": {"climb": <table>, "cruise": <table>, "descent": <table>},
//	 "true_airspeed": {"climb": <table>, ...}}
//
// where each table is as accepted by table.FromSpec.
func ParseModel(b []byte) (*Model, error) {
	var m Model
	if err := util.UnmarshalJSONBytes(b, &m); err != nil {
		return nil, err
	}

	var e util.ErrorLogger
	m.Validate(&e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate reports any missing tables or tables with the wrong number of
// dimensions.
func (m *Model) Validate(e *util.ErrorLogger) {
	if m.Name != "" {
		e.Push(m.Name)
		defer e.Pop()
	}

	check := func(name string, tables map[profile.Phase]*table.Table, dim int) {
		e.Push(name)
		defer e.Pop()
		for _, ph := range phases {
			if t, ok := tables[ph]; !ok || t == nil {
				e.Error(fmt.Errorf("%s: %w", ph, ErrMissingTable))
			} else if t.Dim() != dim {
				e.Error(fmt.Errorf("%s: expected %d dimensions, got %d: %w", ph, dim, t.Dim(), ErrInvalidTable))
			}
		}
	}
	check("fuel_flow", m.FuelFlow, 2)
	check("true_airspeed", m.TrueAirspeed, 1)
}

// Segment gives the performance for one leg of the profile.
type Segment struct {
	Phase    profile.Phase
	Altitude float64 // mean, ft
	Speed    float64 // kt
	FuelFlow float64 // kg/h
	Time     float64 // minutes
	Fuel     float64 // kg
}

// Estimate fills in the cumulative Time and Fuel of the nodes, starting
// from zero at the first one. Each leg uses the tables for its phase of
// flight evaluated at the leg's mean altitude and the aircraft's weight
// at the start of the leg; weight is the takeoff weight in kg.
func (m *Model) Estimate(nodes []profile.PlanNode, markers profile.Markers, weight float64, lg *log.Logger) ([]Segment, error) {
	if len(nodes) < 2 {
		return nil, profile.ErrProfileTooShort
	}

	nodes[0].Time, nodes[0].Fuel = 0, 0
	segs := make([]Segment, 0, len(nodes)-1)
	for i := range len(nodes) - 1 {
		a, b := &nodes[i], &nodes[i+1]
		seg := Segment{
			Phase:    markers.Phase(i),
			Altitude: (a.Altitude + b.Altitude) / 2,
		}

		tas, ff := m.TrueAirspeed[seg.Phase], m.FuelFlow[seg.Phase]
		if tas == nil || ff == nil {
			return nil, fmt.Errorf("%s: %w", seg.Phase, ErrMissingTable)
		}

		var err error
		if seg.Speed, err = tas.ValueAt(seg.Altitude); err != nil {
			return nil, err
		} else if seg.Speed <= 0 {
			return nil, fmt.Errorf("%s speed %.1f kt at %.0f ft: %w", seg.Phase, seg.Speed, seg.Altitude, ErrInvalidValue)
		}
		if seg.FuelFlow, err = ff.ValueAt(seg.Altitude, weight); err != nil {
			return nil, err
		} else if seg.FuelFlow < 0 {
			return nil, fmt.Errorf("%s fuel flow %.1f kg/h at %.0f ft: %w", seg.Phase, seg.FuelFlow, seg.Altitude, ErrInvalidValue)
		}

		hours := (b.Distance - a.Distance) / seg.Speed
		seg.Time = 60 * hours
		seg.Fuel = seg.FuelFlow * hours

		weight -= seg.Fuel
		if weight <= 0 {
			return nil, fmt.Errorf("%s-%s: %w", a.ID, b.ID, ErrFuelExhausted)
		}

		b.Time = a.Time + seg.Time
		b.Fuel = a.Fuel + seg.Fuel
		segs = append(segs, seg)
	}

	lg.Debug("estimated profile", "time_min", nodes[len(nodes)-1].Time, "fuel_kg", nodes[len(nodes)-1].Fuel,
		"landing_weight_kg", weight)
	return segs, nil
}
