// route/search.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package route

import (
	"container/heap"
	"log/slog"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/math"
	"github.com/mmp/routeplan/navgraph"
)

type Options struct {
	// AllowDirect allows a single direct leg from the origin to the
	// destination when there is no route through the graph.
	AllowDirect bool
	// MaxDirectNM limits the length of that direct leg; zero is no limit.
	MaxDirectNM float32
	// CacheSize is the number of results a Finder caches; zero disables
	// caching.
	CacheSize int
	// CacheTTL bounds how long cached results are kept; zero keeps them
	// until they are evicted.
	CacheTTL time.Duration
}

var DefaultOptions = Options{AllowDirect: true, CacheSize: 128, CacheTTL: 10 * time.Minute}

// FindRoute returns the shortest route from origin to dest with
// DefaultOptions.
func FindRoute(origin, dest int, net navgraph.Network) (Route, error) {
	return findRoute(origin, dest, net, DefaultOptions)
}

// Generational networks report a value that changes whenever they are
// modified; both *navgraph.Graph and *navgraph.View are.
type Generational interface {
	Generation() uint64
}

type cacheKey struct {
	net          navgraph.Network
	gen          uint64
	origin, dest int
}

// Finder finds routes with the given options, caching results for
// networks that implement Generational. A Finder is not safe for
// concurrent use.
type Finder struct {
	opts  Options
	cache *expirable.LRU[cacheKey, Route]
	lg    *log.Logger
}

func NewFinder(opts Options, lg *log.Logger) *Finder {
	f := &Finder{opts: opts, lg: lg}
	if opts.CacheSize > 0 {
		f.cache = expirable.NewLRU[cacheKey, Route](opts.CacheSize, nil, opts.CacheTTL)
	}
	return f
}

// FindRoute returns the shortest route from origin to dest; see the
// package-level FindRoute.
func (f *Finder) FindRoute(origin, dest int, net navgraph.Network) (Route, error) {
	gn, ok := net.(Generational)
	if !ok || f.cache == nil {
		return findRoute(origin, dest, net, f.opts)
	}

	key := cacheKey{net: net, gen: gn.Generation(), origin: origin, dest: dest}
	if r, ok := f.cache.Get(key); ok {
		return Route{Points: slices.Clone(r.Points)}, nil
	}

	start := time.Now()
	r, err := findRoute(origin, dest, net, f.opts)
	if err != nil {
		return Route{}, err
	}
	f.lg.Debug("found route", slog.String("route", r.Format(true)),
		slog.Float64("distance", float64(r.Distance())), slog.Duration("elapsed", time.Since(start)))

	f.cache.Add(key, Route{Points: slices.Clone(r.Points)})
	return r, nil
}

// FindRouteByID resolves the identifiers of the origin and destination
// and returns the shortest route between them. If either identifier is
// ambiguous, the candidate closest to the other endpoint is used.
func (f *Finder) FindRouteByID(originID, destID string, net navgraph.Network) (Route, error) {
	origin, dest, err := resolveEndpoints(net, originID, destID)
	if err != nil {
		return Route{}, err
	}
	return f.FindRoute(origin, dest, net)
}

func resolveEndpoints(net navgraph.Network, originID, destID string) (int, int, error) {
	oc, dc := net.FindByIdentifier(originID), net.FindByIdentifier(destID)
	if len(oc) == 0 {
		return 0, 0, &navgraph.LookupError{ID: originID, Index: -1, Err: navgraph.ErrWaypointNotFound}
	} else if len(dc) == 0 {
		return 0, 0, &navgraph.LookupError{ID: destID, Index: -1, Err: navgraph.ErrWaypointNotFound}
	}

	origin, ok := closestPair(net, oc, dc)
	if !ok {
		return 0, 0, &navgraph.LookupError{ID: originID, Index: -1, Candidates: oc, Err: navgraph.ErrAmbiguousWaypoint}
	}
	dest, ok := closestPair(net, dc, []int{origin})
	if !ok {
		return 0, 0, &navgraph.LookupError{ID: destID, Index: -1, Candidates: dc, Err: navgraph.ErrAmbiguousWaypoint}
	}
	return origin, dest, nil
}

///////////////////////////////////////////////////////////////////////////
// Dijkstra

// cost orders partial routes by distance, then the number of direct
// legs, then the order in which they were found.
type cost struct {
	dist    float64
	directs int
}

func (c cost) less(o cost) bool {
	if c.dist != o.dist {
		return c.dist < o.dist
	}
	return c.directs < o.directs
}

type queueItem struct {
	wp  int
	c   cost
	seq int
}

type queue []queueItem

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].c != q[j].c {
		return q[i].c.less(q[j].c)
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(queueItem)) }
func (q *queue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

func findRoute(origin, dest int, net navgraph.Network, opts Options) (Route, error) {
	n := net.NumWaypoints()
	for _, i := range []int{origin, dest} {
		if i < 0 || i >= n {
			return Route{}, &navgraph.LookupError{Index: i, Err: navgraph.ErrWaypointNotFound}
		}
	}
	if origin == dest {
		return Route{}, &SearchError{From: net.Waypoint(origin).ID, To: net.Waypoint(dest).ID,
			Detail: "origin and destination are the same"}
	}

	best := map[int]cost{origin: {}}
	via := make(map[int]navgraph.Edge)
	done := make(map[int]bool)

	q := &queue{{wp: origin}}
	seq := 1
	for q.Len() > 0 {
		item := heap.Pop(q).(queueItem)
		if done[item.wp] {
			continue
		}
		done[item.wp] = true
		if item.wp == dest {
			return buildRoute(net, origin, dest, via), nil
		}

		for _, nb := range net.Neighbors(item.wp) {
			if done[nb.Index] {
				continue
			}
			c := cost{dist: item.c.dist + float64(nb.Edge.Distance), directs: item.c.directs}
			if nb.Edge.IsDirect() {
				c.directs++
			}
			if prev, ok := best[nb.Index]; ok && !c.less(prev) {
				continue
			}
			best[nb.Index] = c
			via[nb.Index] = nb.Edge
			heap.Push(q, queueItem{wp: nb.Index, c: c, seq: seq})
			seq++
		}
	}

	o, d := net.Waypoint(origin), net.Waypoint(dest)
	if opts.AllowDirect {
		dist := math.NMDistance2LL(o.Location, d.Location)
		if opts.MaxDirectNM <= 0 || dist <= opts.MaxDirectNM {
			return Route{Points: []Point{
				{Index: origin, Waypoint: o, Edge: directEdge(net, origin, dest)},
				{Index: dest, Waypoint: d},
			}}, nil
		}
		return Route{}, &SearchError{From: o.ID, To: d.ID, Detail: "too far for a direct route"}
	}
	return Route{}, &SearchError{From: o.ID, To: d.ID}
}

func buildRoute(net navgraph.Network, origin, dest int, via map[int]navgraph.Edge) Route {
	var pts []Point
	for i := dest; i != origin; i = via[i].From {
		e := via[i]
		pts = append(pts, Point{Index: e.From, Waypoint: net.Waypoint(e.From), Edge: e})
	}
	slices.Reverse(pts)
	return Route{Points: append(pts, Point{Index: dest, Waypoint: net.Waypoint(dest)})}
}
