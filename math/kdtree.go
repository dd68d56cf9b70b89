// math/kdtree.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"slices"
)

// KDNode is a node in a 2D KD-tree over Point2LLs; each node also
// carries the caller's index for the point so that query results can
// refer back to the caller's own storage.
type KDNode struct {
	Location Point2LL
	Index    int
	Left     *KDNode
	Right    *KDNode
}

type kdItem struct {
	p     Point2LL
	index int
}

// BuildKDTree constructs a balanced KD-tree from a slice of points; the
// i'th point is reported with index i by queries.
// The tree alternates splitting by X (longitude) and Y (latitude) at each level.
func BuildKDTree(points []Point2LL) *KDNode {
	if len(points) == 0 {
		return nil
	}
	items := make([]kdItem, len(points))
	for i, p := range points {
		items[i] = kdItem{p: p, index: i}
	}
	return buildKDTreeRecursive(items, 0)
}

func buildKDTreeRecursive(items []kdItem, depth int) *KDNode {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return &KDNode{Location: items[0].p, Index: items[0].index}
	}

	// Alternate between X (depth even) and Y (depth odd)
	axis := depth % 2

	// Sort by the splitting axis and find median
	slices.SortFunc(items, func(a, b kdItem) int {
		if a.p[axis] < b.p[axis] {
			return -1
		} else if a.p[axis] > b.p[axis] {
			return 1
		}
		return a.index - b.index
	})

	median := len(items) / 2

	return &KDNode{
		Location: items[median].p,
		Index:    items[median].index,
		Left:     buildKDTreeRecursive(items[:median], depth+1),
		Right:    buildKDTreeRecursive(items[median+1:], depth+1),
	}
}

// visitBox calls visit for every point inside the lat-long box [lo, hi].
func (tree *KDNode) visitBox(lo, hi Point2LL, depth int, visit func(*KDNode)) {
	if tree == nil {
		return
	}
	p := tree.Location
	if p[0] >= lo[0] && p[0] <= hi[0] && p[1] >= lo[1] && p[1] <= hi[1] {
		visit(tree)
	}

	axis := depth % 2
	if lo[axis] <= p[axis] {
		tree.Left.visitBox(lo, hi, depth+1, visit)
	}
	if hi[axis] >= p[axis] {
		tree.Right.visitBox(lo, hi, depth+1, visit)
	}
}

// WithinRadius returns the indices of all points within nm nautical
// miles of p, ordered by increasing distance (ties by index).
func (tree *KDNode) WithinRadius(p Point2LL, nm float32) []int {
	if tree == nil || nm < 0 {
		return nil
	}

	dlat := nm / NMPerLatitude
	lo, hi := Point2LL{-180, max(-90, p[1]-dlat)}, Point2LL{180, min(90, p[1]+dlat)}
	wrap := false

	// Near the poles the longitude extent covers everything; otherwise
	// bound it by the narrowest degree of longitude in the latitude band.
	if lo[1] > -89 && hi[1] < 89 {
		nmPerLon := min(NMPerLongitudeAt(Point2LL{0, lo[1]}), NMPerLongitudeAt(Point2LL{0, hi[1]}))
		if dlon := nm / nmPerLon; dlon < 180 {
			lo[0], hi[0] = p[0]-dlon, p[0]+dlon
			wrap = lo[0] < -180 || hi[0] > 180
		}
	}

	type hit struct {
		index int
		dist  float32
	}
	var hits []hit
	check := func(n *KDNode) {
		if d := NMDistance2LL(p, n.Location); d <= nm {
			hits = append(hits, hit{index: n.Index, dist: d})
		}
	}

	if !wrap {
		tree.visitBox(lo, hi, 0, check)
	} else {
		// Split the query at the antimeridian.
		if lo[0] < -180 {
			tree.visitBox(Point2LL{lo[0] + 360, lo[1]}, Point2LL{180, hi[1]}, 0, check)
			tree.visitBox(Point2LL{-180, lo[1]}, hi, 0, check)
		} else {
			tree.visitBox(lo, Point2LL{180, hi[1]}, 0, check)
			tree.visitBox(Point2LL{-180, lo[1]}, Point2LL{hi[0] - 360, hi[1]}, 0, check)
		}
	}

	slices.SortFunc(hits, func(a, b hit) int {
		if a.dist < b.dist {
			return -1
		} else if a.dist > b.dist {
			return 1
		}
		return a.index - b.index
	})

	idx := make([]int, len(hits))
	for i, h := range hits {
		idx[i] = h.index
	}
	return idx
}

// Nearest returns the index of the point closest to p. The second return
// value is false if the tree is empty.
func (tree *KDNode) Nearest(p Point2LL) (int, bool) {
	if tree == nil {
		return 0, false
	}
	// Grow the search radius until something turns up; half the earth's
	// circumference bounds the final pass.
	for r := float32(32); ; r *= 4 {
		r = min(r, 10900)
		if idx := tree.WithinRadius(p, r); len(idx) > 0 {
			return idx[0], true
		}
		if r == 10900 {
			return 0, false
		}
	}
}
