// route/route_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package route

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/mmp/routeplan/math"
	"github.com/mmp/routeplan/navgraph"
)

// testGraph returns a graph along the equator:
//
//	A --J1-- B --J1-- C --J2-- D
//	 \               /
//	  `-J3-- E --J3-'
//
// along with various other waypoints used to test ambiguity and direct
// routing.
func testGraph(t *testing.T) (*navgraph.Graph, map[string]int) {
	t.Helper()

	g := navgraph.NewGraph(nil)
	idx := make(map[string]int)
	for _, w := range []struct {
		name string
		wp   navgraph.Waypoint
	}{
		{"A", navgraph.Waypoint{ID: "A", Location: math.Point2LL{0, 0}}},
		{"B", navgraph.Waypoint{ID: "B", Location: math.Point2LL{1, 0}}},
		{"C", navgraph.Waypoint{ID: "C", Location: math.Point2LL{2, 0}}},
		{"D", navgraph.Waypoint{ID: "D", Location: math.Point2LL{3, 0}}},
		{"E", navgraph.Waypoint{ID: "E", Location: math.Point2LL{1, 0.5}}},
		{"Z", navgraph.Waypoint{ID: "Z", Location: math.Point2LL{5, 5}}},
		{"DUP1", navgraph.Waypoint{ID: "DUP", Location: math.Point2LL{2.1, 0.1}}},
		{"DUP2", navgraph.Waypoint{ID: "DUP", Location: math.Point2LL{50, 50}}},
		{"AMB1", navgraph.Waypoint{ID: "AMB", Location: math.Point2LL{10, 10}}},
		{"AMB2", navgraph.Waypoint{ID: "AMB", Location: math.Point2LL{-10, 10}}},
		{"X0", navgraph.Waypoint{ID: "X0", Location: math.Point2LL{0, 10}}},
		{"KAAA", navgraph.Waypoint{ID: "KAAA", Location: math.Point2LL{-0.5, 0}, Type: navgraph.Airport}},
		{"KBBB", navgraph.Waypoint{ID: "KBBB", Location: math.Point2LL{2.5, -0.5}, Type: navgraph.Airport}},
	} {
		i, err := g.AddWaypoint(w.wp)
		if err != nil {
			t.Fatal(err)
		}
		idx[w.name] = i
	}

	for _, e := range []struct {
		a, b, awy string
	}{
		{"A", "B", "J1"},
		{"B", "C", "J1"},
		{"C", "D", "J2"},
		{"A", "E", "J3"},
		{"E", "C", "J3"},
		{"DUP1", "C", "J9"},
	} {
		if _, err := g.Connect(idx[e.a], idx[e.b], e.awy, true); err != nil {
			t.Fatal(err)
		}
	}
	g.Freeze()
	return g, idx
}

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		text     string
		expected []string
	}{
		{"KJFK DCT KLAX", []string{"KJFK", "KLAX"}},
		{"  kjfk\tdct\r\nmerit J80  BOS \n", []string{"KJFK", "MERIT", "J80", "BOS"}},
		{"ORNAI 47n50w 47N180E 4700N15000W N47W150 4750N DCT KALNA",
			[]string{"ORNAI", "4750N", "47E80", "47N50", "47N50", "4750N", "KALNA"}},
		{"", nil},
		{"DCT DCT", nil},
	} {
		tokens, err := Split(tc.text)
		if err != nil {
			t.Errorf("%q: %v", tc.text, err)
			continue
		}
		if !slices.Equal(tokens, tc.expected) {
			t.Errorf("Split(%q) = %q, expected %q", tc.text, tokens, tc.expected)
		}

		// Splitting is idempotent.
		again, err := Split(strings.Join(tokens, " "))
		if err != nil || !slices.Equal(again, tokens) {
			t.Errorf("%q: re-split gave %q, %v", tc.text, again, err)
		}
	}

	for _, bad := range []string{"KJFK 47N1800E KLAX", "99N50W", "4730N15000W",
		"KJFK 47.5N150W KLAX", "KJFK 47N18OE KLAX", "KJFK N47W15O KLAX"} {
		_, err := Split(bad)
		var cerr *CoordinateError
		if !errors.As(err, &cerr) || !errors.Is(err, ErrMalformedCoordinate) || !errors.Is(err, navgraph.ErrInvalidLatLon) {
			t.Errorf("%q: expected *CoordinateError, got %v", bad, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	g, idx := testGraph(t)

	for _, tc := range []struct {
		text    string
		full    bool
		points  []string
		directs int
	}{
		{"A J1 C J2 D", false, []string{"A", "B", "C", "D"}, 0},
		{"A J1 B J2 D", false, nil, 0}, // B isn't on J2
		{"D J2 C J1 A", false, []string{"D", "C", "B", "A"}, 0},
		{"A J1 C DCT Z", true, []string{"A", "B", "C", "Z"}, 1},
		{"A J1 C Z", false, []string{"A", "B", "C", "Z"}, 1},
		{"KAAA DCT KBBB", true, []string{"KAAA", "KBBB"}, 1},
		{"KAAA KBBB", false, []string{"KAAA", "KBBB"}, 1},
		{"A J3 C J1 B", false, []string{"A", "E", "C", "B"}, 0},
	} {
		r, err := Parse(tc.text, g)
		if tc.points == nil {
			if err == nil {
				t.Errorf("%q: expected error", tc.text)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tc.text, err)
			continue
		}
		if err := r.Validate(); err != nil {
			t.Errorf("%q: %v", tc.text, err)
		}

		var ids []string
		for _, p := range r.Points {
			ids = append(ids, p.Waypoint.ID)
		}
		if !slices.Equal(ids, tc.points) {
			t.Errorf("%q: got points %v, expected %v", tc.text, ids, tc.points)
		}
		if r.DirectLegs() != tc.directs {
			t.Errorf("%q: %d direct legs, expected %d", tc.text, r.DirectLegs(), tc.directs)
		}
		if f := r.Format(tc.full); f != tc.text {
			t.Errorf("Format(Parse(%q)) = %q", tc.text, f)
		}
	}

	r, err := Parse("  a\tj1  c\nj2 d ", g)
	if err != nil {
		t.Fatal(err)
	}
	if f := r.Format(false); f != "A J1 C J2 D" {
		t.Errorf("whitespace-normalized round trip gave %q", f)
	}
	expected := g.Distance(idx["A"], idx["B"]) + g.Distance(idx["B"], idx["C"]) + g.Distance(idx["C"], idx["D"])
	if math.Abs(r.Distance()-expected) > 1e-3 {
		t.Errorf("route distance %f, expected %f", r.Distance(), expected)
	}
}

func TestParseErrors(t *testing.T) {
	g, _ := testGraph(t)

	for _, tc := range []struct {
		text string
		err  error
		pos  int
	}{
		{"A J1 D", ErrNotOnAirway, 2},
		{"A ZZZZZ", navgraph.ErrWaypointNotFound, 1},
		{"AMB X0", navgraph.ErrAmbiguousWaypoint, 0},
		{"A", ErrEmptyRoute, -1},
		{"A 47N1800E", ErrMalformedCoordinate, -1},
	} {
		_, err := Parse(tc.text, g)
		if !errors.Is(err, tc.err) {
			t.Errorf("%q: expected %v, got %v", tc.text, tc.err, err)
			continue
		}
		var terr *TokenError
		if errors.As(err, &terr) != (tc.pos >= 0) || (tc.pos >= 0 && terr.Pos != tc.pos) {
			t.Errorf("%q: unexpected token error %v", tc.text, err)
		}
	}

	_, err := Parse("AMB X0", g)
	var lerr *navgraph.LookupError
	if !errors.As(err, &lerr) || len(lerr.Candidates) != 2 {
		t.Errorf("expected both AMB candidates, got %v", err)
	}
}

func TestParseAmbiguous(t *testing.T) {
	g, idx := testGraph(t)

	for _, tc := range []struct {
		text string
		dup  int
	}{
		{"C DUP", 1},
		{"DUP C", 0},
		{"DUP J9 C", 0},
	} {
		r, err := Parse(tc.text, g)
		if err != nil {
			t.Errorf("%q: %v", tc.text, err)
			continue
		}
		if r.Points[tc.dup].Index != idx["DUP1"] {
			t.Errorf("%q: resolved DUP to %d, expected %d", tc.text, r.Points[tc.dup].Index, idx["DUP1"])
		}
	}
}

func TestParseCoordinates(t *testing.T) {
	g, idx := testGraph(t)

	if _, err := Parse("C 02N02E", g); !errors.Is(err, navgraph.ErrWaypointNotFound) {
		t.Errorf("expected waypoint not found from the base graph, got %v", err)
	}

	v, err := navgraph.NewView(g)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Parse("C 02N002E D", v)
	if err != nil {
		t.Fatal(err)
	}
	ll := r.Points[1]
	if ll.Waypoint.ID != "0202E" || ll.Waypoint.Type != navgraph.LatLon || !v.IsOverlay(ll.Index) ||
		ll.Waypoint.Location != (math.Point2LL{2, 2}) {
		t.Errorf("unexpected coordinate waypoint %+v", ll)
	}
	if r.Points[2].Index != idx["D"] {
		t.Errorf("unexpected final point %+v", r.Points[2])
	}
	if f := r.Format(true); f != "C DCT 0202E DCT D" {
		t.Errorf("got %q", f)
	}
}

func TestProcedureRoute(t *testing.T) {
	g, idx := testGraph(t)
	v, err := navgraph.NewView(g)
	if err != nil {
		t.Fatal(err)
	}

	sid := navgraph.Edge{From: idx["KAAA"], To: idx["B"], Airway: "SID1", Kind: navgraph.Procedure,
		Via: []int{idx["A"]}, Distance: g.Distance(idx["KAAA"], idx["A"]) + g.Distance(idx["A"], idx["B"])}
	star := navgraph.Edge{From: idx["C"], To: idx["KBBB"], Airway: "STAR1", Kind: navgraph.Procedure,
		Distance: g.Distance(idx["C"], idx["KBBB"])}
	if err := v.AddEdgeSet("SID KAAA 09", []navgraph.Edge{sid}); err != nil {
		t.Fatal(err)
	}
	if err := v.AddEdgeSet("STAR KBBB 27", []navgraph.Edge{star}); err != nil {
		t.Fatal(err)
	}

	text := "KAAA SID1 B J1 C STAR1 KBBB"
	r, err := Parse(text, v)
	if err != nil {
		t.Fatal(err)
	}
	if f := r.Format(true); f != text {
		t.Errorf("round trip gave %q", f)
	}

	var exp []string
	for _, w := range r.Expanded(v) {
		exp = append(exp, w.ID)
	}
	if !slices.Equal(exp, []string{"KAAA", "A", "B", "C", "KBBB"}) {
		t.Errorf("expanded route %v", exp)
	}

	if s, err := r.ExportText(); err != nil || s != "KAAA DCT B J1 C DCT KBBB" {
		t.Errorf("ExportText = %q, %v", s, err)
	}

	// Search uses the procedures too.
	found, err := FindRoute(idx["KAAA"], idx["KBBB"], v)
	if err != nil {
		t.Fatal(err)
	}
	if f := found.Format(true); f != text {
		t.Errorf("FindRoute gave %q", f)
	}

	direct, err := Parse("KAAA DCT KBBB", g)
	if err != nil {
		t.Fatal(err)
	}
	if s, err := direct.ExportText(); err != nil || s != "KAAA KBBB" {
		t.Errorf("direct ExportText = %q, %v", s, err)
	}

	if err := (Route{Points: r.Points[:1]}).Validate(); !errors.Is(err, ErrEmptyRoute) {
		t.Errorf("expected ErrEmptyRoute, got %v", err)
	}
	bad := Route{Points: []Point{r.Points[0], r.Points[2]}}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidRoute) {
		t.Errorf("expected ErrInvalidRoute, got %v", err)
	}
}
