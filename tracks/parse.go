// tracks/parse.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package tracks parses oceanic track messages and adds the tracks that
// are in use to a navigation graph view.
package tracks

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrSyntax       = errors.New("track message syntax error")
	ErrSetExpired   = errors.New("track set is not valid at this time")
	ErrInvalidDir   = errors.New("invalid track direction")
	ErrNoTracksUsed = errors.New("no tracks could be added")
)

// ParseError reports where in a track message parsing failed. Line and
// Column are 1-based.
type ParseError struct {
	Line, Column int
	Msg          string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrSyntax }

type Direction int

const (
	Eastbound Direction = iota
	Westbound
)

func (d Direction) String() string {
	switch d {
	case Eastbound:
		return "eastbound"
	case Westbound:
		return "westbound"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "e", "east", "eastbound":
		return Eastbound, nil
	case "w", "west", "westbound":
		return Westbound, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidDir)
	}
}

type Track struct {
	ID        int
	Direction Direction
	// FlexRoute holds the route's waypoints as written in the message.
	FlexRoute []string
	// ConnectionRoute is the verbatim text of the named connection route
	// blocks (e.g. "JAPAN ROUTE : ..."), if any.
	ConnectionRoute string
	// Remark is the verbatim text following "RMK :", or empty.
	Remark string
}

var (
	reTrackHeader = regexp.MustCompile(`^\s*TRACK[ \t]+([0-9]+)[ \t]*\.`)
	reAnyTrack    = regexp.MustCompile(`(?m)^[ \t]*TRACK[ \t]+[0-9]+[ \t]*\.`)
	reFlexRoute   = regexp.MustCompile(`FLEX[ \t]+ROUTE[ \t]*:`)
	reRouteHeader = regexp.MustCompile(`(?m)^[ \t]*([A-Z]+)[ \t]+ROUTE[ \t]*:`)
	reRemark      = regexp.MustCompile(`RMK[ \t]*:`)
)

// position returns the 1-based line and column of the byte offset in s.
func position(s string, offset int) (int, int) {
	line, col := 1, 1
	for i := 0; i < offset && i < len(s); i++ {
		if s[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func syntaxError(text string, offset int, msg string, args ...any) error {
	line, col := position(text, offset)
	return &ParseError{Line: line, Column: col, Msg: fmt.Sprintf(msg, args...)}
}

// Parse parses the text of a single track:
//
//	TRACK 1.
//	 FLEX ROUTE : KALNA 42N160E ... ORNAI
//	JAPAN ROUTE : ONION OTR5 KALNA
//	        RMK : ACFT LDG OTHER DEST--ORNAI SIMLU KEPKO UPR TO DEST
//
// The connection routes and remark are optional.
func Parse(text string, dir Direction) (Track, error) {
	t := Track{Direction: dir}

	m := reTrackHeader.FindStringSubmatchIndex(text)
	if m == nil {
		return Track{}, syntaxError(text, len(text)-len(strings.TrimLeft(text, " \t\r\n")), "expected \"TRACK <n>.\"")
	}
	id, err := strconv.Atoi(text[m[2]:m[3]])
	if err != nil {
		return Track{}, syntaxError(text, m[2], "invalid track number %q", text[m[2]:m[3]])
	}
	t.ID = id
	body := m[1]

	fm := reFlexRoute.FindStringIndex(text[body:])
	if fm == nil {
		return Track{}, syntaxError(text, body, "expected \"FLEX ROUTE :\"")
	}
	flexStart := body + fm[1]

	// The remark runs to the end of the text; connection routes run from
	// the first route header after the flex route up to the remark.
	end := len(text)
	if rm := reRemark.FindStringIndex(text[flexStart:]); rm != nil {
		end = flexStart + rm[0]
		t.Remark = text[flexStart+rm[1]:]
	}

	flexEnd := end
	for _, hm := range reRouteHeader.FindAllStringSubmatchIndex(text[flexStart:end], -1) {
		if text[flexStart+hm[2]:flexStart+hm[3]] == "FLEX" {
			return Track{}, syntaxError(text, flexStart+hm[2], "repeated \"FLEX ROUTE :\"")
		}
		flexEnd = flexStart + hm[2]
		t.ConnectionRoute = text[flexEnd:end]
		break
	}

	t.FlexRoute = strings.Fields(text[flexStart:flexEnd])
	if len(t.FlexRoute) == 0 {
		return Track{}, syntaxError(text, flexStart, "empty flex route")
	}
	for i, wp := range t.FlexRoute {
		if strings.Contains(wp, ":") {
			return Track{}, syntaxError(text, flexStart+strings.Index(text[flexStart:], wp),
				"unexpected %q in flex route (waypoint %d)", wp, i+1)
		}
	}
	return t, nil
}

// ParseMessage parses a message holding any number of tracks, each
// starting with a "TRACK <n>." line. Errors are reported with positions
// relative to the start of the message.
func ParseMessage(text string, dir Direction) ([]Track, error) {
	starts := reAnyTrack.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return nil, syntaxError(text, 0, "no tracks found")
	}

	var tracks []Track
	seen := make(map[int]bool)
	for i, s := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		chunk := strings.TrimRight(text[s[0]:end], " \t\r\n")

		t, err := Parse(chunk, dir)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				line, _ := position(text, s[0])
				perr.Line += line - 1
			}
			return nil, err
		}
		if seen[t.ID] {
			return nil, syntaxError(text, s[0], "track %d repeated", t.ID)
		}
		seen[t.ID] = true
		tracks = append(tracks, t)
	}
	return tracks, nil
}
