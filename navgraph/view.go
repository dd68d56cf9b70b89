// navgraph/view.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package navgraph

import (
	"fmt"
	"slices"

	"github.com/mmp/routeplan/math"
)

// View overlays waypoints and tagged sets of edges (procedures, tracks)
// on a frozen base graph. Overlay waypoints are numbered after the base
// graph's waypoints. A View never modifies its base graph, so many views
// may share one; a single View is not safe for concurrent mutation.
type View struct {
	base      *Graph
	waypoints []Waypoint
	byID      map[string][]int
	sets      map[string][]Edge
	tags      []string // in the order the sets were added
	adj       map[int][]Edge
	gen       uint64
}

// NewView returns an empty view of g, which must be frozen.
func NewView(g *Graph) (*View, error) {
	if !g.Frozen() {
		return nil, ErrGraphNotFrozen
	}
	return &View{
		base: g,
		byID: make(map[string][]int),
		sets: make(map[string][]Edge),
		adj:  make(map[int][]Edge),
	}, nil
}

func (v *View) Base() *Graph { return v.base }

// Generation is incremented by every change to the view.
func (v *View) Generation() uint64 { return v.gen }

func (v *View) NumWaypoints() int { return v.base.NumWaypoints() + len(v.waypoints) }

// IsOverlay reports whether waypoint i was added to the view rather than
// coming from the base graph.
func (v *View) IsOverlay(i int) bool { return i >= v.base.NumWaypoints() }

func (v *View) Waypoint(i int) Waypoint {
	if n := v.base.NumWaypoints(); i >= n {
		return v.waypoints[i-n]
	}
	return v.base.Waypoint(i)
}

// AddWaypoint adds an overlay waypoint and returns its index.
func (v *View) AddWaypoint(w Waypoint) int {
	idx := v.NumWaypoints()
	v.waypoints = append(v.waypoints, w)
	v.byID[w.ID] = append(v.byID[w.ID], idx)
	v.gen++
	return idx
}

// FindOrAddWaypoint returns the index of an existing waypoint with w's
// identifier within a tenth of a mile of w, adding w to the overlay if
// there is none.
func (v *View) FindOrAddWaypoint(w Waypoint) int {
	for _, idx := range v.FindByIdentifier(w.ID) {
		if math.NMDistance2LL(v.Waypoint(idx).Location, w.Location) < 0.1 {
			return idx
		}
	}
	return v.AddWaypoint(w)
}

func (v *View) FindByIdentifier(id string) []int {
	return append(v.base.FindByIdentifier(id), v.byID[id]...)
}

func (v *View) Distance(a, b int) float32 {
	return math.NMDistance2LL(v.Waypoint(a).Location, v.Waypoint(b).Location)
}

// Neighbors returns the base graph's neighbors of i followed by those
// reachable via the view's edge sets, in the order the sets were added.
func (v *View) Neighbors(i int) []Neighbor {
	var n []Neighbor
	if i < v.base.NumWaypoints() {
		n = v.base.Neighbors(i)
	}
	for _, e := range v.adj[i] {
		n = append(n, Neighbor{Edge: e, Index: e.To, Waypoint: v.Waypoint(e.To)})
	}
	return n
}

// Nearest returns the waypoint closest to p, considering both the base
// graph and the overlay.
func (v *View) Nearest(p math.Point2LL) (int, bool) {
	best, ok := v.base.Nearest(p)
	bestDist := float32(0)
	if ok {
		bestDist = math.NMDistance2LL(p, v.base.Waypoint(best).Location)
	}
	for i, w := range v.waypoints {
		if d := math.NMDistance2LL(p, w.Location); !ok || d < bestDist {
			best, bestDist, ok = v.base.NumWaypoints()+i, d, true
		}
	}
	return best, ok
}

// WithinRadius returns the waypoints within nm nautical miles of p,
// closest first.
func (v *View) WithinRadius(p math.Point2LL, nm float32) []int {
	idx := v.base.WithinRadius(p, nm)
	extra := false
	for i, w := range v.waypoints {
		if math.NMDistance2LL(p, w.Location) <= nm {
			idx = append(idx, v.base.NumWaypoints()+i)
			extra = true
		}
	}
	if extra {
		slices.SortStableFunc(idx, func(a, b int) int {
			da, db := math.NMDistance2LL(p, v.Waypoint(a).Location), math.NMDistance2LL(p, v.Waypoint(b).Location)
			if da < db {
				return -1
			} else if da > db {
				return 1
			}
			return a - b
		})
	}
	return idx
}

///////////////////////////////////////////////////////////////////////////
// Edge sets

// EdgeSetTags returns the tags of the view's edge sets in the order they
// were added.
func (v *View) EdgeSetTags() []string { return slices.Clone(v.tags) }

// EdgeSet returns the edges of the set with the given tag.
func (v *View) EdgeSet(tag string) ([]Edge, bool) {
	e, ok := v.sets[tag]
	return slices.Clone(e), ok
}

// AddEdgeSet adds a new set of edges to the view under the given tag.
func (v *View) AddEdgeSet(tag string, edges []Edge) error {
	if _, ok := v.sets[tag]; ok {
		return fmt.Errorf("%s: %w", tag, ErrDuplicateEdgeSet)
	}
	return v.ReplaceEdgeSet(tag, edges)
}

// ReplaceEdgeSet replaces the edges with the given tag, adding the set if
// it doesn't exist. The edges are all validated before the view is
// changed, so on error the view is unmodified.
func (v *View) ReplaceEdgeSet(tag string, edges []Edge) error {
	return v.ReplaceEdgeSetWith(tag, nil, edges)
}

// ReplaceEdgeSetWith is ReplaceEdgeSet for edges that also refer to new
// overlay waypoints; wps[i] is given index NumWaypoints()+i. Neither the
// waypoints nor the edges are added if any edge is invalid.
func (v *View) ReplaceEdgeSetWith(tag string, wps []Waypoint, edges []Edge) error {
	n := v.NumWaypoints()
	name := func(i int) string {
		if i >= n {
			return wps[i-n].ID
		}
		return v.Waypoint(i).ID
	}

	edges = slices.Clone(edges)
	for i := range edges {
		if err := checkEdge(edges[i], n+len(wps), name); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		edges[i].Via = slices.Clone(edges[i].Via)
	}

	for _, w := range wps {
		v.AddWaypoint(w)
	}
	if _, ok := v.sets[tag]; !ok {
		v.tags = append(v.tags, tag)
	}
	v.sets[tag] = edges
	v.rebuildAdjacency()
	return nil
}

// RemoveEdgeSet removes the set with the given tag and reports whether it
// was present. Overlay waypoints that were added for the set remain.
func (v *View) RemoveEdgeSet(tag string) bool {
	if _, ok := v.sets[tag]; !ok {
		return false
	}
	delete(v.sets, tag)
	v.tags = slices.DeleteFunc(v.tags, func(t string) bool { return t == tag })
	v.rebuildAdjacency()
	return true
}

func checkEdge(e Edge, n int, name func(int) string) error {
	for _, i := range append([]int{e.From, e.To}, e.Via...) {
		if i < 0 || i >= n {
			return &LookupError{Index: i, Err: ErrWaypointNotFound}
		}
	}
	if e.Distance < 0 || e.Airway == "" {
		return fmt.Errorf("%s %s-%s: %w", e.Airway, name(e.From), name(e.To), ErrInvalidEdge)
	}
	return nil
}

func (v *View) rebuildAdjacency() {
	clear(v.adj)
	for _, tag := range v.tags {
		for _, e := range v.sets[tag] {
			v.adj[e.From] = append(v.adj[e.From], e)
			if e.Bidirectional && e.To != e.From {
				v.adj[e.To] = append(v.adj[e.To], e.reversed())
			}
		}
	}
	v.gen++
}
