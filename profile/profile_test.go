// profile/profile_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package profile

import (
	"errors"
	"slices"
	"testing"

	"github.com/mmp/routeplan/math"
)

func TestMarkers(t *testing.T) {
	for _, tc := range []struct {
		alts  []float64
		toc   int
		tod   int
		steps []int
	}{
		{[]float64{50, 10000, 10000.0001, 10000, 3000}, 1, 3, nil},
		{[]float64{50, 10000, 3000}, 1, 1, nil},
		{[]float64{50, 10000, 10000.0001, 10000, 10800, 12000, 12000.0001, 14000, 3000}, 1, 7, []int{3, 6}},
		{[]float64{5000, 5000, 5000.0001, 5000}, 0, 0, nil},
		{[]float64{35000, 35000}, 0, 0, nil},
		{[]float64{50, 10000, 10000}, 1, 2, nil},
		{[]float64{12000, 11000, 3000}, 0, 0, nil},
		{[]float64{50, 31000, 31000, 35000, 35000, 39000, 39000, 2000, 50}, 1, 6, []int{2, 4}},
	} {
		if toc := TocIndex(tc.alts); toc != tc.toc {
			t.Errorf("%v: TOC %d, expected %d", tc.alts, toc, tc.toc)
		}
		if tod := TodIndex(tc.alts); tod != tc.tod {
			t.Errorf("%v: TOD %d, expected %d", tc.alts, tod, tc.tod)
		}
		if sc := StepClimbIndices(tc.alts); !slices.Equal(sc, tc.steps) {
			t.Errorf("%v: step climbs %v, expected %v", tc.alts, sc, tc.steps)
		}
	}
}

func nodesAt(alts []float64) []PlanNode {
	nodes := make([]PlanNode, len(alts))
	for i, a := range alts {
		nodes[i] = PlanNode{Location: math.Point2LL{float32(i), float32(i)}, Altitude: a}
	}
	return nodes
}

func TestMark(t *testing.T) {
	if _, err := Mark(nodesAt([]float64{1000})); !errors.Is(err, ErrProfileTooShort) {
		t.Errorf("expected ErrProfileTooShort, got %v", err)
	}
	if _, err := Mark(nil); !errors.Is(err, ErrProfileTooShort) {
		t.Errorf("expected ErrProfileTooShort, got %v", err)
	}

	m, err := Mark(nodesAt([]float64{50, 10000, 10000.0001, 10000, 10800, 12000, 12000.0001, 14000, 3000}))
	if err != nil {
		t.Fatal(err)
	}
	if m.TOC != 1 || m.TOD != 7 || !slices.Equal(m.StepClimbs, []int{3, 6}) || m.Level {
		t.Errorf("unexpected markers %+v", m)
	}

	var phases []Phase
	for i := range 8 {
		phases = append(phases, m.Phase(i))
	}
	expected := []Phase{Climb, Cruise, Cruise, Cruise, Cruise, Cruise, Cruise, Descent}
	if !slices.Equal(phases, expected) {
		t.Errorf("phases %v, expected %v", phases, expected)
	}

	m, err = Mark(nodesAt([]float64{50, 10000, 3000}))
	if err != nil {
		t.Fatal(err)
	}
	if m.Phase(0) != Climb || m.Phase(1) != Descent {
		t.Errorf("unexpected phases %v %v", m.Phase(0), m.Phase(1))
	}

	m, err = Mark(nodesAt([]float64{8000, 8000, 8000}))
	if err != nil {
		t.Fatal(err)
	}
	if !m.Level || m.TOC != 0 || m.TOD != 0 || m.Phase(0) != Cruise || m.Phase(1) != Cruise {
		t.Errorf("unexpected markers for level profile %+v", m)
	}
}

func TestNewNodes(t *testing.T) {
	locs := []math.Point2LL{{0, 0}, {1, 0}, {2, 0}}
	nodes, err := NewNodes([]string{"A", "B", "C"}, locs, []float64{0, 10000, 0})
	if err != nil {
		t.Fatal(err)
	}
	d := float64(math.NMDistance2LL(locs[0], locs[1]))
	if nodes[0].Distance != 0 || nodes[1].Distance != d || math.Abs(nodes[2].Distance-2*d) > 1e-3 {
		t.Errorf("unexpected distances %v %v %v", nodes[0].Distance, nodes[1].Distance, nodes[2].Distance)
	}
	if nodes[1].ID != "B" || nodes[1].Altitude != 10000 {
		t.Errorf("unexpected node %+v", nodes[1])
	}

	if _, err := NewNodes(nil, locs, []float64{0}); !errors.Is(err, ErrMismatchedInput) {
		t.Errorf("expected ErrMismatchedInput, got %v", err)
	}
	if _, err := NewNodes(nil, locs[:1], []float64{0}); !errors.Is(err, ErrProfileTooShort) {
		t.Errorf("expected ErrProfileTooShort, got %v", err)
	}
}

func TestPhaseText(t *testing.T) {
	for _, p := range []Phase{Climb, Cruise, Descent} {
		b, err := p.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var q Phase
		if err := q.UnmarshalText(b); err != nil || q != p {
			t.Errorf("%s: got %v, %v", p, q, err)
		}
	}
	var q Phase
	if err := q.UnmarshalText([]byte("hover")); err == nil {
		t.Errorf("expected error for invalid phase")
	}
}
