// navdata/arinc424.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package navdata

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/mmp/routeplan/math"
	"github.com/mmp/routeplan/procedures"
	"github.com/mmp/routeplan/util"
)

// ARINC424LineLength is the length of a record, not including the line
// terminator.
const ARINC424LineLength = 132

func empty(s []byte) bool {
	return !slices.ContainsFunc(s, func(b byte) bool { return b != ' ' })
}

// recordParser parses a single file; its methods panic with a
// *ParseError, which Parse recovers.
type recordParser struct {
	file string
	line int
	data *Data
	ssa  map[ssaKey][]ssaRecord
	keys []ssaKey
	wip  []AirwayFix
}

func (p *recordParser) fail(format string, args ...any) {
	panic(&ParseError{File: p.file, Line: p.line, Msg: fmt.Sprintf(format, args...)})
}

func (p *recordParser) parseInt(s []byte) int {
	v, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		p.fail("%q: %v", string(s), err)
	}
	return v
}

func (p *recordParser) parseLLDigits(d, m, s []byte) float32 {
	return float32(p.parseInt(d)) + float32(p.parseInt(m))/60 + float32(p.parseInt(s))/100/3600
}

// parseLatLong parses the 9 character latitude (N40383999) and 10
// character longitude (W073464399) fields.
func (p *recordParser) parseLatLong(lat, long []byte) math.Point2LL {
	if (lat[0] != 'N' && lat[0] != 'S') || (long[0] != 'E' && long[0] != 'W') {
		p.fail("%q %q: invalid latitude/longitude", string(lat), string(long))
	}

	var pt math.Point2LL
	pt[1] = p.parseLLDigits(lat[1:3], lat[3:5], lat[5:])
	pt[0] = p.parseLLDigits(long[1:4], long[4:6], long[6:])
	if lat[0] == 'S' {
		pt[1] = -pt[1]
	}
	if long[0] == 'W' {
		pt[0] = -pt[0]
	}
	if !pt.Valid() {
		p.fail("%q %q: latitude/longitude out of range", string(lat), string(long))
	}
	return pt
}

// Parse reads ARINC 424 records from r. The following are used; all
// others are ignored:
//
//	D   VHF navaids        DB  NDB navaids
//	EA  enroute waypoints  ER  enroute airways
//	PA  airports           PC  terminal waypoints
//	PD  SIDs               PE  STARs
//
// The filename is only used for error messages.
func Parse(ctx context.Context, r io.Reader, filename string) (d *Data, err error) {
	p := &recordParser{
		file: filename,
		data: newData(),
		ssa:  make(map[ssaKey][]ssaRecord),
	}

	defer func() {
		if e := recover(); e != nil {
			perr, ok := e.(*ParseError)
			if !ok {
				panic(e)
			}
			d, err = nil, perr
		}
	}()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	for sc.Scan() {
		p.line++
		if p.line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := []byte(strings.TrimRight(sc.Text(), "\r"))
		if len(line) == 0 || line[0] != 'S' { // not a standard record
			continue
		}
		if len(line) < ARINC424LineLength {
			p.fail("unexpected line length %d", len(line))
		}
		p.parseRecord(line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(p.wip) > 0 {
		p.fail("airway %s: no end of airway record", p.wip[0].airway)
	}

	for _, k := range p.keys {
		p.data.Procedures = append(p.data.Procedures, buildProcedures(k, p.ssa[k])...)
	}
	return p.data, nil
}

func (p *recordParser) parseRecord(line []byte) {
	switch line[4] { // section code
	case 'D':
		subsection := line[5]
		if subsection != ' ' && subsection != 'B' {
			return
		}
		id := strings.TrimSpace(string(line[13:17]))
		if len(id) < 2 {
			return
		}

		n := Navaid{
			ID:   id,
			Name: strings.TrimSpace(string(line[93:123])),
		}
		if !empty(line[32:51]) {
			n.Type = NavaidType(subsection)
			n.Location = p.parseLatLong(line[32:41], line[41:51])
		} else {
			n.Type = DME
			n.Location = p.parseLatLong(line[55:64], line[64:74])
		}
		p.data.Navaids[id] = append(p.data.Navaids[id], n)

	case 'E':
		switch line[5] {
		case 'A': // enroute waypoint
			id := strings.TrimSpace(string(line[13:18]))
			f := Fix{ID: id, Location: p.parseLatLong(line[32:41], line[41:51])}
			p.data.Fixes[id] = append(p.data.Fixes[id], f)

		case 'R': // enroute airway
			p.parseAirwayFix(line)
		}

	case 'P':
		icao := strings.TrimSpace(string(line[6:10]))
		switch line[12] {
		case 'A': // airport
			p.data.Airports[icao] = Airport{
				ID:        icao,
				Location:  p.parseLatLong(line[32:41], line[41:51]),
				Elevation: p.parseInt(line[56:61]),
			}

		case 'C': // terminal waypoint
			id := strings.TrimSpace(string(line[13:18]))
			if p.data.TerminalFixes[icao] == nil {
				p.data.TerminalFixes[icao] = make(map[string]Fix)
			}
			p.data.TerminalFixes[icao][id] = Fix{ID: id, Location: p.parseLatLong(line[32:41], line[41:51])}

		case 'D', 'E': // SID, STAR
			rec := p.parseSSA(line)
			if rec.continuation != '0' && rec.continuation != '1' {
				return
			}
			k := ssaKey{airport: icao, kind: procedures.SID, name: rec.id}
			if line[12] == 'E' {
				k.kind = procedures.STAR
			}
			if _, ok := p.ssa[k]; !ok {
				p.keys = append(p.keys, k)
			}
			p.ssa[k] = append(p.ssa[k], rec)
		}
	}
}

func (p *recordParser) parseAirwayFix(line []byte) {
	route := strings.TrimSpace(string(line[13:18]))

	level := func() AirwayLevel {
		switch line[45] {
		case 'B', ' ':
			return AirwayLevelAll
		case 'H':
			return AirwayLevelHigh
		case 'L':
			return AirwayLevelLow
		default:
			p.fail("%c: unexpected airway level", line[45])
			return AirwayLevelAll
		}
	}()
	direction := func() AirwayDirection {
		switch line[46] {
		case 'F':
			return AirwayDirectionForward
		case 'B':
			return AirwayDirectionBackward
		case ' ':
			return AirwayDirectionAny
		default:
			p.fail("%c: unexpected airway direction", line[46])
			return AirwayDirectionAny
		}
	}()

	if len(p.wip) > 0 && p.wip[0].airway != route {
		p.fail("airway %s: no end of airway record before %s", p.wip[0].airway, route)
	}

	p.wip = append(p.wip, AirwayFix{
		Fix:       strings.TrimSpace(string(line[29:34])),
		Level:     level,
		Direction: direction,
		seq:       p.parseInt(line[25:29]),
		airway:    route,
	})

	if line[40] == 'E' { // description code "end of airway"
		slices.SortStableFunc(p.wip, func(a, b AirwayFix) int { return a.seq - b.seq })
		p.data.Airways = append(p.data.Airways, Airway{Name: route, Fixes: p.wip})
		p.wip = nil
	}
}

///////////////////////////////////////////////////////////////////////////
// SIDs and STARs

type ssaKey struct {
	airport string
	kind    procedures.Kind
	name    string
}

type ssaRecord struct {
	id           string
	routeType    byte
	transition   string
	seq          int
	fix          string
	continuation byte
}

func (p *recordParser) parseSSA(line []byte) ssaRecord {
	return ssaRecord{
		id:           strings.TrimSpace(string(line[13:19])),
		routeType:    line[19],
		transition:   strings.TrimSpace(string(line[20:25])),
		seq:          p.parseInt(line[26:29]),
		fix:          strings.TrimSpace(string(line[29:34])),
		continuation: line[38],
	}
}

func isRunwayTransition(t string) bool {
	return len(t) > 3 && t[:2] == "RW" && util.IsAllNumbers(t[2:4])
}

// runways returns the runways named by a runway transition; "RW04B"
// serves both 04L and 04R.
func runways(t string) []string {
	rwy := strings.TrimPrefix(t, "RW")
	if base, ok := strings.CutSuffix(rwy, "B"); ok {
		return []string{base + "L", base + "R"}
	}
	return []string{rwy}
}

// joinFixes appends b to a, dropping b's first fix if it repeats a's
// last.
func joinFixes(a, b []string) []string {
	if len(a) > 0 && len(b) > 0 && a[len(a)-1] == b[0] {
		b = b[1:]
	}
	return append(slices.Clone(a), b...)
}

// buildProcedures assembles the procedures described by the records for
// a single SID or STAR. Each runway transition gives a procedure for that
// runway, ordered in the direction of flight: runway transition, common
// route, then enroute transition for a SID and the reverse for a STAR.
// Enroute transitions give procedures named "NAME.TRANSITION".
func buildProcedures(k ssaKey, recs []ssaRecord) []procedures.Procedure {
	slices.SortStableFunc(recs, func(a, b ssaRecord) int {
		if a.transition != b.transition {
			return strings.Compare(a.transition, b.transition)
		}
		return a.seq - b.seq
	})

	var common []string
	runwayFixes := make(map[string][]string)
	enrouteFixes := make(map[string][]string)
	var rwys, enroute []string
	for _, r := range recs {
		if r.fix == "" {
			continue
		}
		switch {
		case r.transition == "" || r.transition == "ALL":
			common = append(common, r.fix)
		case isRunwayTransition(r.transition):
			for _, rwy := range runways(r.transition) {
				if _, ok := runwayFixes[rwy]; !ok {
					rwys = append(rwys, rwy)
				}
				runwayFixes[rwy] = append(runwayFixes[rwy], r.fix)
			}
		default:
			if _, ok := enrouteFixes[r.transition]; !ok {
				enroute = append(enroute, r.transition)
			}
			enrouteFixes[r.transition] = append(enrouteFixes[r.transition], r.fix)
		}
	}
	if len(rwys) == 0 {
		rwys = []string{""}
	}

	legs := func(fixes []string) []procedures.Leg {
		var l []procedures.Leg
		for _, f := range fixes {
			l = append(l, procedures.Leg{Fix: f})
		}
		return l
	}

	var procs []procedures.Procedure
	for _, rwy := range rwys {
		var base []string
		if k.kind == procedures.SID {
			base = joinFixes(runwayFixes[rwy], common)
		} else {
			base = joinFixes(common, runwayFixes[rwy])
		}
		if len(base) > 0 {
			procs = append(procs, procedures.Procedure{Airport: k.airport, Runway: rwy, Name: k.name,
				Kind: k.kind, Legs: legs(base)})
		}

		for _, t := range enroute {
			var fixes []string
			if k.kind == procedures.SID {
				fixes = joinFixes(base, enrouteFixes[t])
			} else {
				fixes = joinFixes(enrouteFixes[t], base)
			}
			procs = append(procs, procedures.Procedure{Airport: k.airport, Runway: rwy, Name: k.name + "." + t,
				Kind: k.kind, Legs: legs(fixes)})
		}
	}
	return procs
}
