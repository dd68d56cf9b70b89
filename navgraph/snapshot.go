// navgraph/snapshot.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package navgraph

import (
	"io"
	"slices"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/util"
)

// Snapshot is a flat representation of a Graph that can be serialized.
type Snapshot struct {
	Waypoints []Waypoint `msgpack:"w"`
	Edges     []Edge     `msgpack:"e"`
}

func (g *Graph) Snapshot() Snapshot {
	return Snapshot{
		Waypoints: slices.Clone(g.waypoints),
		Edges:     slices.Clone(g.edges),
	}
}

// FromSnapshot rebuilds a frozen graph from a snapshot.
func FromSnapshot(s Snapshot, lg *log.Logger) (*Graph, error) {
	g := NewGraph(lg)
	for _, w := range s.Waypoints {
		if _, err := g.AddWaypoint(w); err != nil {
			return nil, err
		}
	}
	for _, e := range s.Edges {
		if _, err := g.addEdge(e); err != nil {
			return nil, err
		}
	}
	g.Freeze()
	return g, nil
}

// Save writes the graph to w in a compressed binary format.
func (g *Graph) Save(w io.Writer) error {
	return util.WriteCompressedMsgpack(w, g.Snapshot())
}

// Load reads a graph written by Save.
func Load(r io.Reader, lg *log.Logger) (*Graph, error) {
	var s Snapshot
	if err := util.ReadCompressedMsgpack(r, &s); err != nil {
		return nil, err
	}
	return FromSnapshot(s, lg)
}
