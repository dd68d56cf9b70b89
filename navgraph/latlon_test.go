// navgraph/latlon_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package navgraph

import (
	"errors"
	"testing"

	"github.com/mmp/routeplan/math"
)

func TestLatLonID(t *testing.T) {
	for _, tc := range []struct {
		lat, lon int
		id       string
	}{
		{47, -50, "4750N"},
		{47, -150, "47N50"},
		{47, 180, "47E80"},
		{47, 5, "4705E"},
		{-10, 20, "1020S"},
		{-10, -20, "1020W"},
		{-33, 151, "33S51"},
		{5, -100, "05N00"},
	} {
		id, err := LatLonID(tc.lat, tc.lon)
		if err != nil || id != tc.id {
			t.Errorf("LatLonID(%d, %d) = %q, %v; expected %q", tc.lat, tc.lon, id, err, tc.id)
		}
		p, ok := ParseLatLonID(tc.id)
		if !ok || p != (math.Point2LL{float32(tc.lon), float32(tc.lat)}) {
			t.Errorf("ParseLatLonID(%q) = %v, %v", tc.id, p, ok)
		}
	}

	if _, err := LatLonID(91, 0); !errors.Is(err, ErrInvalidLatLon) {
		t.Errorf("expected error for latitude 91")
	}
	for _, bad := range []string{"KJFK", "4750X", "47N99", "9150N", "ABCDE", "47N5"} {
		if _, ok := ParseLatLonID(bad); ok {
			t.Errorf("ParseLatLonID(%q) unexpectedly succeeded", bad)
		}
	}
}

func TestNormalizeCoordinateToken(t *testing.T) {
	for _, tc := range []struct {
		tok     string
		id      string
		isCoord bool
		err     bool
	}{
		{"47N180E", "47E80", true, false},
		{"47N50W", "4750N", true, false},
		{"47N050W", "4750N", true, false},
		{"47N150W", "47N50", true, false},
		{"4700N15000W", "47N50", true, false},
		{"N47W150", "47N50", true, false},
		{"S33E151", "33S51", true, false},
		{"4750N", "4750N", true, false},
		{"47N50", "47N50", true, false},
		{"KJFK", "KJFK", false, false},
		{"J80", "J80", false, false},
		{"N571", "N571", false, false},
		{"4730N15000W", "", true, true},
		{"47N1800E", "", true, true},
		{"99N50W", "", true, true},
		{"47N99", "", true, true},
		{"47N190E", "", true, true},
		{"47.5N150W", "", true, true},
		{"N47.5W150", "", true, true},
		{"47N18OE", "", true, true},
		{"N47W15O", "", true, true},
		{"4730NX15000W", "", true, true},
		{"N0450F350", "N0450F350", false, false},
		{"UL607", "UL607", false, false},
		{"DEEZZ5", "DEEZZ5", false, false},
	} {
		id, isCoord, err := NormalizeCoordinateToken(tc.tok)
		if isCoord != tc.isCoord || (err != nil) != tc.err {
			t.Errorf("%s: got isCoord %v err %v", tc.tok, isCoord, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidLatLon) {
			t.Errorf("%s: error %v does not wrap ErrInvalidLatLon", tc.tok, err)
		}
		if !tc.err && id != tc.id {
			t.Errorf("%s: got %q, expected %q", tc.tok, id, tc.id)
		}
	}
}
