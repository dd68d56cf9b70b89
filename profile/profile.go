// profile/profile.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package profile classifies the vertical profile of a flight plan into
// climb, cruise and descent.
package profile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mmp/routeplan/math"
)

// Epsilon is the relative tolerance used when comparing altitudes;
// successive samples within it are treated as level.
const Epsilon = 1e-4

var (
	ErrProfileTooShort = errors.New("profile has fewer than two nodes")
	ErrMismatchedInput = errors.New("locations and altitudes have different lengths")
)

// PlanNode is a point along the vertical profile. Distance is cumulative
// from the first node in nautical miles; Time (minutes) and Fuel (kg) are
// cumulative too and are filled in by performance calculations.
type PlanNode struct {
	ID       string
	Location math.Point2LL
	Altitude float64 // feet
	Distance float64
	Time     float64
	Fuel     float64
}

// NewNodes returns plan nodes at the given locations and altitudes with
// cumulative great-circle distances filled in.
func NewNodes(ids []string, locs []math.Point2LL, alts []float64) ([]PlanNode, error) {
	if len(locs) != len(alts) || (ids != nil && len(ids) != len(locs)) {
		return nil, ErrMismatchedInput
	}
	if len(locs) < 2 {
		return nil, ErrProfileTooShort
	}

	nodes := make([]PlanNode, len(locs))
	for i := range locs {
		nodes[i] = PlanNode{Location: locs[i], Altitude: alts[i]}
		if ids != nil {
			nodes[i].ID = ids[i]
		}
		if i > 0 {
			nodes[i].Distance = nodes[i-1].Distance + float64(math.NMDistance2LL(locs[i-1], locs[i]))
		}
	}
	return nodes, nil
}

func Altitudes(nodes []PlanNode) []float64 {
	alts := make([]float64, len(nodes))
	for i, n := range nodes {
		alts[i] = n.Altitude
	}
	return alts
}

func level(a, b float64) bool { return math.NearlyEqual(a, b, Epsilon) }

// higher reports whether b is above a by more than the tolerance.
func higher(a, b float64) bool { return b > a && !level(a, b) }

func isLevel(alts []float64) bool {
	return !slices.ContainsFunc(alts, func(a float64) bool { return !level(alts[0], a) })
}

// TocIndex returns the index of the top of climb: the last sample of the
// initial climb, where altitude stops increasing.
func TocIndex(alts []float64) int {
	i := 0
	for i+1 < len(alts) && higher(alts[i], alts[i+1]) {
		i++
	}
	return i
}

// TodIndex returns the index of the top of descent: the first sample of
// the final descent. A level profile has its top of descent at 0.
func TodIndex(alts []float64) int {
	if len(alts) == 0 || isLevel(alts) {
		return 0
	}
	i := len(alts) - 1
	for i > 0 && higher(alts[i], alts[i-1]) {
		i--
	}
	return i
}

// StepClimbIndices returns the indices between the top of climb and the
// top of descent where a cruise climb begins.
func StepClimbIndices(alts []float64) []int {
	toc, tod := TocIndex(alts), TodIndex(alts)

	var sc []int
	for i := toc + 1; i < tod; i++ {
		if higher(alts[i], alts[i+1]) && !higher(alts[i-1], alts[i]) {
			sc = append(sc, i)
		}
	}
	return sc
}

type Phase int

const (
	Climb Phase = iota
	Cruise
	Descent
)

func (p Phase) String() string {
	switch p {
	case Climb:
		return "climb"
	case Cruise:
		return "cruise"
	case Descent:
		return "descent"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	if p < Climb || p > Descent {
		return nil, fmt.Errorf("%d: invalid phase", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for _, ph := range []Phase{Climb, Cruise, Descent} {
		if string(b) == ph.String() {
			*p = ph
			return nil
		}
	}
	return fmt.Errorf("%q: invalid phase", string(b))
}

type Markers struct {
	TOC        int
	TOD        int
	StepClimbs []int
	// Level is set if every altitude is within the tolerance of the
	// first.
	Level bool
}

// Mark finds the top of climb, the top of descent and any step climbs in
// the profile.
func Mark(nodes []PlanNode) (Markers, error) {
	if len(nodes) < 2 {
		return Markers{}, ErrProfileTooShort
	}
	alts := Altitudes(nodes)
	return Markers{
		TOC:        TocIndex(alts),
		TOD:        TodIndex(alts),
		StepClimbs: StepClimbIndices(alts),
		Level:      isLevel(alts),
	}, nil
}

// Phase returns the phase of flight of the segment from node i to node
// i+1.
func (m Markers) Phase(i int) Phase {
	switch {
	case m.Level:
		return Cruise
	case i < m.TOC:
		return Climb
	case i >= m.TOD:
		return Descent
	default:
		return Cruise
	}
}
