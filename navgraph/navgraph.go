// navgraph/navgraph.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package navgraph stores the navigation graph that routes are planned
// over: waypoints, the airway segments that connect them, and views that
// overlay temporary procedure and track edges on a shared base graph.
package navgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/math"
)

var (
	ErrWaypointNotFound  = errors.New("waypoint not found")
	ErrAmbiguousWaypoint = errors.New("ambiguous waypoint identifier")
	ErrGraphFrozen       = errors.New("graph is frozen")
	ErrGraphNotFrozen    = errors.New("graph must be frozen first")
	ErrInvalidEdge       = errors.New("invalid edge")
	ErrDuplicateEdgeSet  = errors.New("edge set already exists")
)

// LookupError is returned when a waypoint can't be found, or when an
// identifier matches more than one waypoint and there's no context to
// choose between them.
type LookupError struct {
	ID string
	// Index is the waypoint index that was requested, or -1 if the lookup
	// was by identifier.
	Index int
	// Candidates holds all of the matching waypoints for ambiguous
	// identifiers.
	Candidates []int
	Err        error
}

func (e *LookupError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("waypoint #%d: %v", e.Index, e.Err)
	} else if len(e.Candidates) > 0 {
		return fmt.Sprintf("%s: %v (%d candidates)", e.ID, e.Err, len(e.Candidates))
	}
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

type WaypointType int

const (
	Fix WaypointType = iota
	Airport
	LatLon
)

func (t WaypointType) String() string {
	switch t {
	case Fix:
		return "fix"
	case Airport:
		return "airport"
	case LatLon:
		return "latlon"
	default:
		return fmt.Sprintf("WaypointType(%d)", int(t))
	}
}

// Waypoint identifiers are not unique; the same ID may be used for fixes
// in different parts of the world.
type Waypoint struct {
	ID       string
	Location math.Point2LL
	Type     WaypointType
}

// Direct is the airway name used for direct legs.
const Direct = "DCT"

type EdgeKind int

const (
	Base EdgeKind = iota
	Procedure
	Track
)

func (k EdgeKind) String() string {
	switch k {
	case Base:
		return "base"
	case Procedure:
		return "procedure"
	case Track:
		return "track"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

type Edge struct {
	From, To      int
	Airway        string
	Distance      float32 // nm
	Bidirectional bool
	Kind          EdgeKind
	// Via lists the intermediate waypoints of a procedure or track that
	// has been collapsed into a single edge, in order from From to To.
	Via []int
}

func (e Edge) IsDirect() bool { return e.Airway == Direct }

// reversed returns the edge as traversed from its To end.
func (e Edge) reversed() Edge {
	r := e
	r.From, r.To = e.To, e.From
	if len(e.Via) > 0 {
		r.Via = slices.Clone(e.Via)
		slices.Reverse(r.Via)
	}
	return r
}

// Neighbor is a waypoint reachable from another along an edge; Edge.From
// is always the waypoint whose neighbors were requested.
type Neighbor struct {
	Edge     Edge
	Index    int
	Waypoint Waypoint
}

// Network is the read-only interface to a navigation graph that route
// parsing and search use; both *Graph and *View implement it.
type Network interface {
	NumWaypoints() int
	Waypoint(i int) Waypoint
	Neighbors(i int) []Neighbor
	FindByIdentifier(id string) []int
}

///////////////////////////////////////////////////////////////////////////
// Graph

// Graph is the base navigation graph. It is built once, then frozen, after
// which it may be shared between goroutines.
type Graph struct {
	waypoints []Waypoint
	edges     []Edge
	adj       [][]int32 // edge indices, per waypoint
	byID      map[string][]int
	frozen    bool
	kdtree    *math.KDNode
	lg        *log.Logger
}

func NewGraph(lg *log.Logger) *Graph {
	return &Graph{
		byID: make(map[string][]int),
		lg:   lg,
	}
}

// AddWaypoint adds the waypoint to the graph and returns its index.
func (g *Graph) AddWaypoint(w Waypoint) (int, error) {
	if g.frozen {
		return 0, ErrGraphFrozen
	}
	idx := len(g.waypoints)
	g.waypoints = append(g.waypoints, w)
	g.adj = append(g.adj, nil)
	g.byID[w.ID] = append(g.byID[w.ID], idx)
	return idx, nil
}

// AddEdge adds a one-way edge from a to b and returns its index.
func (g *Graph) AddEdge(a, b int, airway string, distance float32) (int, error) {
	return g.addEdge(Edge{From: a, To: b, Airway: airway, Distance: distance})
}

// AddBidirectionalEdge adds an edge that may be traversed in either
// direction.
func (g *Graph) AddBidirectionalEdge(a, b int, airway string, distance float32) (int, error) {
	return g.addEdge(Edge{From: a, To: b, Airway: airway, Distance: distance, Bidirectional: true})
}

// Connect adds an edge between a and b with the great-circle distance
// between them.
func (g *Graph) Connect(a, b int, airway string, bidirectional bool) (int, error) {
	if err := g.checkIndex(a); err != nil {
		return 0, err
	} else if err := g.checkIndex(b); err != nil {
		return 0, err
	}
	return g.addEdge(Edge{From: a, To: b, Airway: airway, Distance: g.Distance(a, b), Bidirectional: bidirectional})
}

func (g *Graph) checkIndex(i int) error {
	if i < 0 || i >= len(g.waypoints) {
		return &LookupError{Index: i, Err: ErrWaypointNotFound}
	}
	return nil
}

func (g *Graph) addEdge(e Edge) (int, error) {
	if g.frozen {
		return 0, ErrGraphFrozen
	}
	if err := g.checkIndex(e.From); err != nil {
		return 0, err
	} else if err := g.checkIndex(e.To); err != nil {
		return 0, err
	}
	if e.Distance < 0 || e.Airway == "" {
		return 0, fmt.Errorf("%s %s-%s: %w", e.Airway, g.waypoints[e.From].ID, g.waypoints[e.To].ID, ErrInvalidEdge)
	}

	e.Kind = Base
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.adj[e.From] = append(g.adj[e.From], int32(idx))
	if e.Bidirectional && e.To != e.From {
		g.adj[e.To] = append(g.adj[e.To], int32(idx))
	}
	return idx, nil
}

// Freeze ends construction of the graph and builds the spatial index used
// by Nearest and WithinRadius.
func (g *Graph) Freeze() {
	if g.frozen {
		return
	}
	g.frozen = true
	g.kdtree = math.BuildKDTree(locations(g.waypoints))

	g.lg.Info("froze navigation graph", slog.Int("waypoints", len(g.waypoints)),
		slog.Int("edges", len(g.edges)), slog.Int("identifiers", len(g.byID)))
}

func locations(wps []Waypoint) []math.Point2LL {
	p := make([]math.Point2LL, len(wps))
	for i, w := range wps {
		p[i] = w.Location
	}
	return p
}

func (g *Graph) Frozen() bool { return g.frozen }

func (g *Graph) NumWaypoints() int { return len(g.waypoints) }

func (g *Graph) NumEdges() int { return len(g.edges) }

func (g *Graph) Waypoint(i int) Waypoint { return g.waypoints[i] }

func (g *Graph) Edge(i int) Edge { return g.edges[i] }

// Neighbors returns the waypoints that can be reached from waypoint i
// along a single edge, in the order the edges were added.
func (g *Graph) Neighbors(i int) []Neighbor {
	if i < 0 || i >= len(g.adj) {
		return nil
	}
	n := make([]Neighbor, 0, len(g.adj[i]))
	for _, ei := range g.adj[i] {
		e := g.edges[ei]
		if e.From != i {
			e = e.reversed()
		}
		n = append(n, Neighbor{Edge: e, Index: e.To, Waypoint: g.waypoints[e.To]})
	}
	return n
}

// FindByIdentifier returns the indices of all waypoints with the given
// identifier.
func (g *Graph) FindByIdentifier(id string) []int {
	return slices.Clone(g.byID[id])
}

// Distance returns the great-circle distance between two waypoints in
// nautical miles.
func (g *Graph) Distance(a, b int) float32 {
	return math.NMDistance2LL(g.waypoints[a].Location, g.waypoints[b].Location)
}

// Nearest returns the index of the waypoint closest to p. It returns
// false if the graph hasn't been frozen or is empty.
func (g *Graph) Nearest(p math.Point2LL) (int, bool) {
	return g.kdtree.Nearest(p)
}

// WithinRadius returns the waypoints within nm nautical miles of p,
// closest first.
func (g *Graph) WithinRadius(p math.Point2LL, nm float32) []int {
	return g.kdtree.WithinRadius(p, nm)
}

// Generation changes whenever the graph is modified; once the graph is
// frozen it is constant.
func (g *Graph) Generation() uint64 { return uint64(len(g.waypoints) + len(g.edges)) }
