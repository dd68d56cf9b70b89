// tracks/inuse.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package tracks

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/math"
	"github.com/mmp/routeplan/navgraph"
)

// Set is the tracks published in one message for a track system and
// direction, along with the period they are valid for. A zero ValidFrom
// or ValidTo leaves that end of the period open.
type Set struct {
	System    string
	Direction Direction
	ValidFrom time.Time
	ValidTo   time.Time
	Tracks    []Track
}

// NewSet parses a track message into a Set.
func NewSet(system string, dir Direction, text string, from, to time.Time) (*Set, error) {
	tracks, err := ParseMessage(text, dir)
	if err != nil {
		return nil, err
	}
	return &Set{System: system, Direction: dir, ValidFrom: from, ValidTo: to, Tracks: tracks}, nil
}

func (s *Set) ValidAt(t time.Time) bool {
	return (s.ValidFrom.IsZero() || !t.Before(s.ValidFrom)) && (s.ValidTo.IsZero() || !t.After(s.ValidTo))
}

// Airway returns the name used for the track's edge in the graph, e.g.
// "PACOTS1".
func (s *Set) Airway(t Track) string {
	return s.System + strconv.Itoa(t.ID)
}

// InUse tracks which Set, if any, is in use for each direction. The zero
// value has none in use.
type InUse struct {
	sets map[Direction]*Set
}

// EdgeSetTag returns the tag of the view edge set that holds the tracks
// for a direction.
func EdgeSetTag(dir Direction) string {
	return "TRACKS " + dir.String()
}

// Current returns the set in use for the direction, or nil.
func (u *InUse) Current(dir Direction) *Set {
	return u.sets[dir]
}

// SelectResult describes the outcome of InUse.Select.
type SelectResult struct {
	Added []string
	// Skipped holds the tracks that couldn't be added and why.
	Skipped map[int]error
}

// Select makes s the set in use for its direction, replacing the view's
// edges for any previous set in a single step. Each track becomes one
// edge from its first to last waypoint with the intermediate waypoints in
// Edge.Via. Coordinates that aren't already in the graph are added to the
// view as lat/lon waypoints along with the edges; if no track can be
// used, the view is left unchanged.
func (u *InUse) Select(v *navgraph.View, s *Set, now time.Time, lg *log.Logger) (SelectResult, error) {
	if !s.ValidAt(now) {
		return SelectResult{}, fmt.Errorf("%s %s tracks valid %s to %s: %w", s.System, s.Direction,
			s.ValidFrom.Format(time.RFC3339), s.ValidTo.Format(time.RFC3339), ErrSetExpired)
	}

	lg = lg.With(slog.String("system", s.System), slog.String("direction", s.Direction.String()))
	r := SelectResult{Skipped: make(map[int]error)}

	var edges []navgraph.Edge
	var added []navgraph.Waypoint
	for _, t := range s.Tracks {
		e, err := trackEdge(v, t, &added)
		if err != nil {
			lg.Warnf("track %d: %v", t.ID, err)
			r.Skipped[t.ID] = err
			continue
		}
		e.Airway = s.Airway(t)
		edges = append(edges, e)
		r.Added = append(r.Added, e.Airway)
	}
	if len(edges) == 0 {
		return r, fmt.Errorf("%s %s: %w", s.System, s.Direction, ErrNoTracksUsed)
	}

	if err := v.ReplaceEdgeSetWith(EdgeSetTag(s.Direction), added, edges); err != nil {
		return SelectResult{}, err
	}
	if u.sets == nil {
		u.sets = make(map[Direction]*Set)
	}
	u.sets[s.Direction] = s

	lg.Infof("selected %d tracks", len(r.Added))
	return r, nil
}

// Clear removes the tracks in use for the direction from the view.
func (u *InUse) Clear(v *navgraph.View, dir Direction) bool {
	if _, ok := u.sets[dir]; !ok {
		return false
	}
	delete(u.sets, dir)
	v.RemoveEdgeSet(EdgeSetTag(dir))
	return true
}

// findOrAdd returns the index of a waypoint at p named id, either in the
// view or in added, appending one to added if there is none. Waypoints in
// added are numbered after the view's.
func findOrAdd(v *navgraph.View, added *[]navgraph.Waypoint, id string, p math.Point2LL) int {
	for _, idx := range v.FindByIdentifier(id) {
		if math.NMDistance2LL(v.Waypoint(idx).Location, p) < 0.1 {
			return idx
		}
	}
	for i, w := range *added {
		if w.ID == id && math.NMDistance2LL(w.Location, p) < 0.1 {
			return v.NumWaypoints() + i
		}
	}
	*added = append(*added, navgraph.Waypoint{ID: id, Location: p, Type: navgraph.LatLon})
	return v.NumWaypoints() + len(*added) - 1
}

// trackEdge resolves the track's flex route. New coordinate waypoints are
// appended to added only if the whole route resolves.
func trackEdge(v *navgraph.View, t Track, added *[]navgraph.Waypoint) (navgraph.Edge, error) {
	if len(t.FlexRoute) < 2 {
		return navgraph.Edge{}, fmt.Errorf("flex route %v is too short", t.FlexRoute)
	}

	// Coordinates resolve directly; they also give the context for
	// choosing between named fixes that share an identifier.
	ids := make([]string, len(t.FlexRoute))
	coords := make([]*math.Point2LL, len(t.FlexRoute))
	for i, tok := range t.FlexRoute {
		id, isCoord, err := navgraph.NormalizeCoordinateToken(tok)
		if err != nil {
			return navgraph.Edge{}, err
		}
		ids[i] = id
		if isCoord {
			p, _ := navgraph.ParseLatLonID(id)
			coords[i] = &p
		}
	}

	var near *math.Point2LL
	for _, c := range coords {
		if c != nil {
			near = c
			break
		}
	}

	scratch := slices.Clone(*added)
	pts := make([]int, len(ids))
	locs := make([]math.Point2LL, len(ids))
	for i, id := range ids {
		if coords[i] != nil {
			pts[i] = findOrAdd(v, &scratch, id, *coords[i])
			locs[i] = *coords[i]
		} else {
			idx, err := navgraph.Resolve(v, id, near)
			if err != nil {
				return navgraph.Edge{}, err
			}
			pts[i] = idx
			locs[i] = v.Waypoint(idx).Location
		}
		near = &locs[i]
	}
	*added = scratch

	var dist float32
	for i := 1; i < len(pts); i++ {
		dist += math.NMDistance2LL(locs[i-1], locs[i])
	}
	return navgraph.Edge{
		From:     pts[0],
		To:       pts[len(pts)-1],
		Distance: dist,
		Kind:     navgraph.Track,
		Via:      pts[1 : len(pts)-1],
	}, nil
}
