// procedures/filter.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package procedures

import (
	"slices"
	"strings"

	"github.com/brunoga/deep"
)

// FilterEntry restricts the procedures offered for a runway: with a
// blacklist, the named procedures are excluded; otherwise only the named
// ones are used.
type FilterEntry struct {
	IsBlacklist bool     `json:"blacklist"`
	Names       []string `json:"names"`
}

func (e FilterEntry) contains(name string) bool {
	return slices.ContainsFunc(e.Names, func(n string) bool { return strings.EqualFold(n, name) })
}

type FilterKey struct {
	Airport string
	Runway  string
	Kind    Kind
}

func makeKey(airport, runway string, kind Kind) FilterKey {
	return FilterKey{Airport: strings.ToUpper(airport), Runway: strings.ToUpper(runway), Kind: kind}
}

// Filter holds at most one FilterEntry per airport, runway, and procedure
// kind. The zero value is an empty filter that allows everything.
type Filter struct {
	Entries map[FilterKey]FilterEntry
}

func (f *Filter) Set(airport, runway string, kind Kind, e FilterEntry) {
	if f.Entries == nil {
		f.Entries = make(map[FilterKey]FilterEntry)
	}
	f.Entries[makeKey(airport, runway, kind)] = FilterEntry{
		IsBlacklist: e.IsBlacklist,
		Names:       slices.Clone(e.Names),
	}
}

func (f *Filter) Delete(airport, runway string, kind Kind) {
	delete(f.Entries, makeKey(airport, runway, kind))
}

func (f *Filter) Entry(airport, runway string, kind Kind) (FilterEntry, bool) {
	if f == nil {
		return FilterEntry{}, false
	}
	e, ok := f.Entries[makeKey(airport, runway, kind)]
	return e, ok
}

// Allowed reports whether the named procedure may be used.
func (f *Filter) Allowed(airport, runway string, kind Kind, name string) bool {
	e, ok := f.Entry(airport, runway, kind)
	if !ok {
		return true
	}
	return e.contains(name) != e.IsBlacklist
}

// Offer is a procedure as presented to the user when editing a filter.
type Offer struct {
	Name   string
	Ticked bool
}

// Offered returns every procedure name, ticked if the filter entry lists
// it. Without an entry, none are ticked.
func (f *Filter) Offered(airport, runway string, kind Kind, names []string) []Offer {
	e, ok := f.Entry(airport, runway, kind)
	offers := make([]Offer, len(names))
	for i, n := range names {
		offers[i] = Offer{Name: n, Ticked: ok && e.contains(n)}
	}
	return offers
}

// Clone returns a deep copy of the filter, so that a view's filter is
// unaffected by later edits.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return &Filter{}
	}
	c := deep.MustCopy(*f)
	return &c
}
