// navgraph/resolve.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package navgraph

import (
	"github.com/mmp/routeplan/math"
)

// Resolve returns the index of the waypoint with the given identifier. If
// more than one waypoint has it, near, if non-nil, selects the closest
// one; otherwise a *LookupError wrapping ErrAmbiguousWaypoint that lists
// all of the candidates is returned.
func Resolve(net Network, id string, near *math.Point2LL) (int, error) {
	cand := net.FindByIdentifier(id)
	switch {
	case len(cand) == 0:
		return 0, &LookupError{ID: id, Index: -1, Err: ErrWaypointNotFound}
	case len(cand) == 1:
		return cand[0], nil
	case near != nil:
		return Closest(net, cand, *near), nil
	default:
		return 0, &LookupError{ID: id, Index: -1, Candidates: cand, Err: ErrAmbiguousWaypoint}
	}
}

// Closest returns the candidate waypoint closest to p; ties go to the
// earlier candidate. cand must not be empty.
func Closest(net Network, cand []int, p math.Point2LL) int {
	best, bestDist := cand[0], math.NMDistance2LL(p, net.Waypoint(cand[0]).Location)
	for _, c := range cand[1:] {
		if d := math.NMDistance2LL(p, net.Waypoint(c).Location); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
