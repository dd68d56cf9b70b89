// procedures/procedures.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package procedures handles SID and STAR procedures: the user's filters
// on which are offered for a runway, and attaching the applicable ones to
// a navigation graph view so that route search can use them.
package procedures

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mmp/routeplan/math"
)

var (
	ErrProcedureNotFound = errors.New("procedure not found")
	ErrInvalidKind       = errors.New("invalid procedure kind")
)

type Kind int

const (
	SID Kind = iota
	STAR
)

func (k Kind) String() string {
	switch k {
	case SID:
		return "SID"
	case STAR:
		return "STAR"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(s) {
	case "SID":
		return SID, nil
	case "STAR":
		return STAR, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidKind)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	var err error
	*k, err = ParseKind(string(b))
	return err
}

// Leg is a single point along a procedure: either a named fix or a point
// at a given bearing and distance from one.
type Leg struct {
	Fix string
	// Location, if known, is used to choose between fixes that share an
	// identifier.
	Location math.Point2LL
	Bearing  float32 // degrees true
	Distance float32 // nm; zero if the leg is the fix itself
}

func (l Leg) IsOffset() bool { return l.Distance > 0 }

func (l Leg) String() string {
	if l.IsOffset() {
		return fmt.Sprintf("%s%03.0f%03.0f", l.Fix, l.Bearing, l.Distance)
	}
	return l.Fix
}

type Procedure struct {
	Airport string
	// Runway is empty for procedures that serve all runways.
	Runway string
	Name   string
	Kind   Kind
	Legs   []Leg
}

// Serves reports whether the procedure may be used for the given runway.
func (p Procedure) Serves(runway string) bool {
	return p.Runway == "" || runway == "" || strings.EqualFold(p.Runway, runway)
}

///////////////////////////////////////////////////////////////////////////
// Database

// Database holds the procedures for a set of airports.
type Database struct {
	byAirport map[string][]Procedure
}

func NewDatabase(procs []Procedure) *Database {
	db := &Database{byAirport: make(map[string][]Procedure)}
	for _, p := range procs {
		ap := strings.ToUpper(p.Airport)
		db.byAirport[ap] = append(db.byAirport[ap], p)
	}
	return db
}

func (db *Database) NumAirports() int { return len(db.byAirport) }

// Lookup returns the airport's procedures of the given kind that serve the
// runway.
func (db *Database) Lookup(airport, runway string, kind Kind) []Procedure {
	var procs []Procedure
	for _, p := range db.byAirport[strings.ToUpper(airport)] {
		if p.Kind == kind && p.Serves(runway) {
			procs = append(procs, p)
		}
	}
	return procs
}

// Names returns the sorted, unique names of the procedures that Lookup
// would return.
func (db *Database) Names(airport, runway string, kind Kind) []string {
	var names []string
	for _, p := range db.Lookup(airport, runway, kind) {
		names = append(names, p.Name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Find returns the named procedure.
func (db *Database) Find(airport, runway string, kind Kind, name string) (Procedure, error) {
	for _, p := range db.Lookup(airport, runway, kind) {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Procedure{}, fmt.Errorf("%s %s %s %s: %w", airport, runway, kind, name, ErrProcedureNotFound)
}
