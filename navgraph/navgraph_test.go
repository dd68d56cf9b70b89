// navgraph/navgraph_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package navgraph

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/mmp/routeplan/math"
)

// testGraph returns a small graph:
//
//	A --J1-- B --J1-- C
//	         |
//	         Q2 (one-way B->D)
//	         v
//	         D
//
// plus a second waypoint named "A" far away.
func testGraph(t *testing.T) (*Graph, map[string]int) {
	t.Helper()

	g := NewGraph(nil)
	idx := make(map[string]int)
	add := func(name, id string, p math.Point2LL) {
		i, err := g.AddWaypoint(Waypoint{ID: id, Location: p})
		if err != nil {
			t.Fatal(err)
		}
		idx[name] = i
	}
	add("A", "A", math.Point2LL{-75, 40})
	add("B", "B", math.Point2LL{-74, 40})
	add("C", "C", math.Point2LL{-73, 40})
	add("D", "D", math.Point2LL{-74, 39})
	add("A2", "A", math.Point2LL{10, 50})

	for _, e := range []struct {
		a, b  string
		awy   string
		bidir bool
	}{
		{"A", "B", "J1", true},
		{"B", "C", "J1", true},
		{"B", "D", "Q2", false},
	} {
		if _, err := g.Connect(idx[e.a], idx[e.b], e.awy, e.bidir); err != nil {
			t.Fatal(err)
		}
	}
	g.Freeze()
	return g, idx
}

func neighborIDs(net Network, i int) []string {
	var ids []string
	for _, n := range net.Neighbors(i) {
		ids = append(ids, n.Edge.Airway+":"+n.Waypoint.ID)
	}
	return ids
}

func TestGraphNeighbors(t *testing.T) {
	g, idx := testGraph(t)

	for _, tc := range []struct {
		wp       string
		expected []string
	}{
		{"A", []string{"J1:B"}},
		{"B", []string{"J1:A", "J1:C", "Q2:D"}},
		{"C", []string{"J1:B"}},
		{"D", nil}, // Q2 is one-way
	} {
		if n := neighborIDs(g, idx[tc.wp]); !slices.Equal(n, tc.expected) {
			t.Errorf("%s: got neighbors %v, expected %v", tc.wp, n, tc.expected)
		}
	}

	for _, n := range g.Neighbors(idx["B"]) {
		if n.Edge.From != idx["B"] || n.Edge.To != n.Index {
			t.Errorf("neighbor edge not oriented from B: %+v", n.Edge)
		}
	}

	if d := g.Neighbors(idx["A"])[0].Edge.Distance; math.Abs(d-g.Distance(idx["A"], idx["B"])) > 1e-3 {
		t.Errorf("edge distance %f doesn't match great-circle distance", d)
	}
}

func TestGraphErrors(t *testing.T) {
	g := NewGraph(nil)
	a, _ := g.AddWaypoint(Waypoint{ID: "A"})

	_, err := g.AddEdge(a, 7, "J1", 10)
	var lerr *LookupError
	if !errors.As(err, &lerr) || !errors.Is(err, ErrWaypointNotFound) || lerr.Index != 7 {
		t.Errorf("expected waypoint not found for index 7, got %v", err)
	}
	if _, err := g.AddEdge(a, a, "J1", -1); !errors.Is(err, ErrInvalidEdge) {
		t.Errorf("expected invalid edge error, got %v", err)
	}

	g.Freeze()
	if _, err := g.AddWaypoint(Waypoint{ID: "B"}); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("expected ErrGraphFrozen, got %v", err)
	}
	if _, err := g.AddEdge(a, a, "J1", 1); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("expected ErrGraphFrozen, got %v", err)
	}

	if _, err := NewView(NewGraph(nil)); !errors.Is(err, ErrGraphNotFrozen) {
		t.Errorf("expected ErrGraphNotFrozen, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	g, idx := testGraph(t)

	if i, err := Resolve(g, "B", nil); err != nil || i != idx["B"] {
		t.Errorf("Resolve(B) = %d, %v", i, err)
	}

	_, err := Resolve(g, "A", nil)
	var lerr *LookupError
	if !errors.As(err, &lerr) || !errors.Is(err, ErrAmbiguousWaypoint) {
		t.Fatalf("expected ambiguous waypoint error, got %v", err)
	}
	if !slices.Equal(lerr.Candidates, []int{idx["A"], idx["A2"]}) {
		t.Errorf("got candidates %v", lerr.Candidates)
	}

	near := math.Point2LL{9, 49}
	if i, err := Resolve(g, "A", &near); err != nil || i != idx["A2"] {
		t.Errorf("Resolve(A near Europe) = %d, %v", i, err)
	}
	near = math.Point2LL{-76, 41}
	if i, err := Resolve(g, "A", &near); err != nil || i != idx["A"] {
		t.Errorf("Resolve(A near US) = %d, %v", i, err)
	}

	if _, err := Resolve(g, "ZZZZZ", &near); !errors.Is(err, ErrWaypointNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestNearest(t *testing.T) {
	g, idx := testGraph(t)
	if i, ok := g.Nearest(math.Point2LL{-73.1, 40.2}); !ok || i != idx["C"] {
		t.Errorf("Nearest = %d, expected C (%d)", i, idx["C"])
	}
	within := g.WithinRadius(math.Point2LL{-74, 39.6}, 40)
	if !slices.Equal(within, []int{idx["B"], idx["D"]}) {
		t.Errorf("WithinRadius gave %v", within)
	}
}

func TestView(t *testing.T) {
	g, idx := testGraph(t)
	v, err := NewView(g)
	if err != nil {
		t.Fatal(err)
	}

	ll := v.AddWaypoint(Waypoint{ID: "4074N", Location: math.Point2LL{-74, 40.5}, Type: LatLon})
	if ll != g.NumWaypoints() || !v.IsOverlay(ll) || v.IsOverlay(idx["A"]) {
		t.Errorf("overlay waypoint got index %d", ll)
	}
	if v.FindOrAddWaypoint(Waypoint{ID: "4074N", Location: math.Point2LL{-74, 40.5}, Type: LatLon}) != ll {
		t.Errorf("FindOrAddWaypoint added a duplicate")
	}

	gen := v.Generation()
	err = v.AddEdgeSet("TRACK TEST", []Edge{
		{From: idx["D"], To: ll, Airway: "NATA", Distance: v.Distance(idx["D"], ll), Kind: Track},
		{From: ll, To: idx["C"], Airway: "NATA", Distance: v.Distance(ll, idx["C"]), Kind: Track},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.Generation() == gen {
		t.Errorf("generation not updated")
	}

	if n := neighborIDs(v, idx["D"]); !slices.Equal(n, []string{"NATA:4074N"}) {
		t.Errorf("view neighbors of D: %v", n)
	}
	// The base graph is unchanged.
	if n := neighborIDs(g, idx["D"]); len(n) != 0 {
		t.Errorf("base graph neighbors of D: %v", n)
	}
	if err := v.AddEdgeSet("TRACK TEST", nil); !errors.Is(err, ErrDuplicateEdgeSet) {
		t.Errorf("expected duplicate edge set error, got %v", err)
	}

	// A replacement with a bad edge leaves the old set in place.
	err = v.ReplaceEdgeSet("TRACK TEST", []Edge{
		{From: idx["D"], To: idx["C"], Airway: "NATB", Distance: 1, Kind: Track},
		{From: idx["D"], To: 999, Airway: "NATB", Distance: 1, Kind: Track},
	})
	if !errors.Is(err, ErrWaypointNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
	if n := neighborIDs(v, idx["D"]); !slices.Equal(n, []string{"NATA:4074N"}) {
		t.Errorf("failed replace modified the view: %v", n)
	}

	if err := v.ReplaceEdgeSet("TRACK TEST", []Edge{{From: idx["D"], To: idx["C"], Airway: "NATB", Distance: 1, Kind: Track}}); err != nil {
		t.Fatal(err)
	}
	if n := neighborIDs(v, idx["D"]); !slices.Equal(n, []string{"NATB:C"}) {
		t.Errorf("after replace: %v", n)
	}

	if !v.RemoveEdgeSet("TRACK TEST") || v.RemoveEdgeSet("TRACK TEST") {
		t.Errorf("unexpected RemoveEdgeSet results")
	}
	if n := neighborIDs(v, idx["D"]); len(n) != 0 {
		t.Errorf("after remove: %v", n)
	}
	if tags := v.EdgeSetTags(); len(tags) != 0 {
		t.Errorf("tags remain: %v", tags)
	}

	if i, ok := v.Nearest(math.Point2LL{-74, 40.45}); !ok || i != ll {
		t.Errorf("view Nearest = %d, expected overlay waypoint %d", i, ll)
	}
	if w := v.WithinRadius(math.Point2LL{-74, 40.1}, 30); !slices.Equal(w, []int{idx["B"], ll}) {
		t.Errorf("view WithinRadius = %v", w)
	}
}

func TestReplaceEdgeSetWith(t *testing.T) {
	g, idx := testGraph(t)
	v, err := NewView(g)
	if err != nil {
		t.Fatal(err)
	}
	n, gen := v.NumWaypoints(), v.Generation()
	wps := []Waypoint{{ID: "4074N", Location: math.Point2LL{-74, 40}, Type: LatLon}}

	err = v.ReplaceEdgeSetWith("TRACK TEST", wps, []Edge{
		{From: idx["D"], To: n, Airway: "NATA", Distance: 1, Kind: Track},
		{From: n, To: n + 1, Airway: "NATB", Distance: 1, Kind: Track},
	})
	if !errors.Is(err, ErrWaypointNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
	if v.NumWaypoints() != n || v.Generation() != gen || len(v.FindByIdentifier("4074N")) != 0 {
		t.Errorf("failed replace added waypoints")
	}

	if err := v.ReplaceEdgeSetWith("TRACK TEST", wps, []Edge{{From: idx["D"], To: n, Airway: "NATA", Distance: 1, Kind: Track}}); err != nil {
		t.Fatal(err)
	}
	if !v.IsOverlay(n) || v.Waypoint(n).ID != "4074N" {
		t.Errorf("expected overlay waypoint 4074N at %d", n)
	}
	if nb := neighborIDs(v, idx["D"]); !slices.Equal(nb, []string{"NATA:4074N"}) {
		t.Errorf("after replace: %v", nb)
	}
}

func TestSaveLoad(t *testing.T) {
	g, idx := testGraph(t)

	var buf bytes.Buffer
	if err := g.Save(&buf); err != nil {
		t.Fatal(err)
	}
	g2, err := Load(&buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !g2.Frozen() || g2.NumWaypoints() != g.NumWaypoints() || g2.NumEdges() != g.NumEdges() {
		t.Fatalf("loaded graph has %d waypoints, %d edges", g2.NumWaypoints(), g2.NumEdges())
	}
	for i := range g.NumWaypoints() {
		if g.Waypoint(i) != g2.Waypoint(i) {
			t.Errorf("waypoint %d: %+v vs %+v", i, g.Waypoint(i), g2.Waypoint(i))
		}
		if a, b := neighborIDs(g, i), neighborIDs(g2, i); !slices.Equal(a, b) {
			t.Errorf("waypoint %d neighbors %v vs %v", i, a, b)
		}
	}
	if c := g2.FindByIdentifier("A"); !slices.Equal(c, []int{idx["A"], idx["A2"]}) {
		t.Errorf("identifier index not rebuilt: %v", c)
	}
}
