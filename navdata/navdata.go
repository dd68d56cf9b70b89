// navdata/navdata.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package navdata loads waypoints, airways and procedures from ARINC 424
// files and builds the navigation graph and procedure database from them.
package navdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/math"
	"github.com/mmp/routeplan/navgraph"
	"github.com/mmp/routeplan/procedures"
	"github.com/mmp/routeplan/util"
)

var ErrMalformedRecord = errors.New("malformed ARINC 424 record")

type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrMalformedRecord }

type NavaidType byte

const (
	VOR NavaidType = ' '
	NDB NavaidType = 'B'
	DME NavaidType = 'D'
)

func (t NavaidType) String() string {
	switch t {
	case VOR:
		return "VOR"
	case NDB:
		return "NDB"
	case DME:
		return "DME"
	default:
		return fmt.Sprintf("NavaidType(%c)", byte(t))
	}
}

type Navaid struct {
	ID       string
	Type     NavaidType
	Name     string
	Location math.Point2LL
}

type Fix struct {
	ID       string
	Location math.Point2LL
}

type Airport struct {
	ID        string
	Location  math.Point2LL
	Elevation int
}

type AirwayLevel int

const (
	AirwayLevelAll AirwayLevel = iota
	AirwayLevelLow
	AirwayLevelHigh
)

type AirwayDirection int

const (
	AirwayDirectionAny AirwayDirection = iota
	AirwayDirectionForward
	AirwayDirectionBackward
)

// AirwayFix is a fix along an airway; Level and Direction apply to the
// segment from it to the following fix.
type AirwayFix struct {
	Fix       string
	Level     AirwayLevel
	Direction AirwayDirection

	seq    int
	airway string
}

type Airway struct {
	Name  string
	Fixes []AirwayFix
}

// Data is the result of parsing one or more ARINC 424 files. Fix and
// navaid identifiers are not unique, so they map to all of the fixes or
// navaids with the identifier.
type Data struct {
	Airports      map[string]Airport
	Navaids       map[string][]Navaid
	Fixes         map[string][]Fix
	TerminalFixes map[string]map[string]Fix // airport -> fix
	Airways       []Airway
	Procedures    []procedures.Procedure
}

func newData() *Data {
	return &Data{
		Airports:      make(map[string]Airport),
		Navaids:       make(map[string][]Navaid),
		Fixes:         make(map[string][]Fix),
		TerminalFixes: make(map[string]map[string]Fix),
	}
}

func (d *Data) merge(o *Data) {
	for id, ap := range o.Airports {
		d.Airports[id] = ap
	}
	for id, n := range o.Navaids {
		d.Navaids[id] = append(d.Navaids[id], n...)
	}
	for id, f := range o.Fixes {
		d.Fixes[id] = append(d.Fixes[id], f...)
	}
	for ap, fixes := range o.TerminalFixes {
		if d.TerminalFixes[ap] == nil {
			d.TerminalFixes[ap] = make(map[string]Fix)
		}
		for id, f := range fixes {
			d.TerminalFixes[ap][id] = f
		}
	}
	d.Airways = append(d.Airways, o.Airways...)
	d.Procedures = append(d.Procedures, o.Procedures...)
}

// ParseFile parses the named file, which may be zstd compressed if its
// name ends in ".zst".
func ParseFile(ctx context.Context, filename string) (*Data, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(filename, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	return Parse(ctx, r, filepath.Base(filename))
}

// Load parses the given files concurrently and merges the results in the
// order the files were given; later files take precedence for airports
// and terminal fixes.
func Load(ctx context.Context, lg *log.Logger, paths ...string) (*Data, error) {
	start := time.Now()

	results := make([]*Data, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		eg.Go(func() error {
			d, err := ParseFile(ctx, path)
			if err != nil {
				return err
			}
			results[i] = d
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	d := newData()
	for _, r := range results {
		d.merge(r)
	}

	lg.Info("loaded navigation data", slog.Any("files", paths), slog.Int("airports", len(d.Airports)),
		slog.Int("fixes", len(d.Fixes)), slog.Int("navaids", len(d.Navaids)), slog.Int("airways", len(d.Airways)),
		slog.Int("procedures", len(d.Procedures)), slog.Duration("elapsed", time.Since(start)))
	return d, nil
}

///////////////////////////////////////////////////////////////////////////
// Graph construction

// sameFixNM is the distance within which waypoints with the same
// identifier are taken to be the same waypoint.
const sameFixNM = 0.5

type graphBuilder struct {
	g    *navgraph.Graph
	byID map[string][]int
}

func (b *graphBuilder) add(id string, p math.Point2LL, ty navgraph.WaypointType) error {
	for _, i := range b.byID[id] {
		if math.NMDistance2LL(b.g.Waypoint(i).Location, p) < sameFixNM {
			return nil
		}
	}
	i, err := b.g.AddWaypoint(navgraph.Waypoint{ID: id, Location: p, Type: ty})
	if err != nil {
		return err
	}
	b.byID[id] = append(b.byID[id], i)
	return nil
}

// Build returns a frozen navigation graph with a waypoint for every
// airport, navaid and fix and edges along the airways. Airway fixes with
// identifiers shared by multiple waypoints are resolved to the waypoint
// closest to the previous fix along the airway. All airway fixes that
// can't be found are reported in the returned error.
func (d *Data) Build(lg *log.Logger) (*navgraph.Graph, error) {
	b := &graphBuilder{g: navgraph.NewGraph(lg), byID: make(map[string][]int)}

	var e util.ErrorLogger
	for _, id := range util.SortedMapKeys(d.Airports) {
		if err := b.add(id, d.Airports[id].Location, navgraph.Airport); err != nil {
			return nil, err
		}
	}
	for _, id := range util.SortedMapKeys(d.Navaids) {
		for _, n := range d.Navaids[id] {
			if err := b.add(id, n.Location, navgraph.Fix); err != nil {
				return nil, err
			}
		}
	}
	for _, id := range util.SortedMapKeys(d.Fixes) {
		for _, f := range d.Fixes[id] {
			if err := b.add(id, f.Location, navgraph.Fix); err != nil {
				return nil, err
			}
		}
	}
	for _, ap := range util.SortedMapKeys(d.TerminalFixes) {
		fixes := d.TerminalFixes[ap]
		for _, id := range util.SortedMapKeys(fixes) {
			if err := b.add(id, fixes[id].Location, navgraph.Fix); err != nil {
				return nil, err
			}
		}
	}

	for _, a := range d.Airways {
		e.Push(a.Name)
		b.addAirway(a, &e)
		e.Pop()
	}

	b.g.Freeze()
	if err := e.Err(); err != nil {
		return nil, err
	}
	return b.g, nil
}

func (b *graphBuilder) resolve(id string, prev int, next string) (int, bool) {
	cand := b.byID[id]
	switch {
	case len(cand) == 0:
		return 0, false
	case len(cand) == 1:
		return cand[0], true
	case prev >= 0:
		return navgraph.Closest(b.g, cand, b.g.Waypoint(prev).Location), true
	default:
		// First fix of the airway: take the candidate closest to one
		// with the following identifier.
		best, bestDist := cand[0], float32(1e30)
		for _, c := range cand {
			for _, n := range b.byID[next] {
				if d := b.g.Distance(c, n); d < bestDist {
					best, bestDist = c, d
				}
			}
		}
		return best, true
	}
}

func (b *graphBuilder) addAirway(a Airway, e *util.ErrorLogger) {
	prev := -1
	for i, af := range a.Fixes {
		var next string
		if i+1 < len(a.Fixes) {
			next = a.Fixes[i+1].Fix
		}
		cur, ok := b.resolve(af.Fix, prev, next)
		if !ok {
			e.Error(&navgraph.LookupError{ID: af.Fix, Index: -1, Err: navgraph.ErrWaypointNotFound})
			prev = -1
			continue
		}

		if prev >= 0 {
			var err error
			switch a.Fixes[i-1].Direction {
			case AirwayDirectionForward:
				_, err = b.g.Connect(prev, cur, a.Name, false)
			case AirwayDirectionBackward:
				_, err = b.g.Connect(cur, prev, a.Name, false)
			default:
				_, err = b.g.Connect(prev, cur, a.Name, true)
			}
			if err != nil {
				e.Error(err)
			}
		}
		prev = cur
	}
}

// LocatedProcedures returns the parsed SIDs and STARs with each leg's
// location set from the airport's terminal fix with its identifier if
// there is one and otherwise from the closest fix or navaid, so that
// legs can be matched to waypoints in the graph.
func (d *Data) LocatedProcedures() []procedures.Procedure {
	procs := make([]procedures.Procedure, len(d.Procedures))
	for i, p := range d.Procedures {
		p.Legs = append([]procedures.Leg(nil), p.Legs...)
		ap, haveAirport := d.Airports[p.Airport]
		for j, leg := range p.Legs {
			if f, ok := d.TerminalFixes[p.Airport][leg.Fix]; ok {
				p.Legs[j].Location = f.Location
			} else if haveAirport {
				if loc, ok := d.closestFix(leg.Fix, ap.Location); ok {
					p.Legs[j].Location = loc
				}
			}
		}
		procs[i] = p
	}
	return procs
}

func (d *Data) ProcedureDatabase() *procedures.Database {
	return procedures.NewDatabase(d.LocatedProcedures())
}

func (d *Data) closestFix(id string, p math.Point2LL) (math.Point2LL, bool) {
	var locs []math.Point2LL
	for _, f := range d.Fixes[id] {
		locs = append(locs, f.Location)
	}
	for _, n := range d.Navaids[id] {
		locs = append(locs, n.Location)
	}
	if len(locs) == 0 {
		return math.Point2LL{}, false
	}

	best := locs[0]
	for _, l := range locs[1:] {
		if math.NMDistance2LL(l, p) < math.NMDistance2LL(best, p) {
			best = l
		}
	}
	return best, true
}
