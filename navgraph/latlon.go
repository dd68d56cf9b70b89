// navgraph/latlon.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package navgraph

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmp/routeplan/math"
)

// Whole-degree coordinates are named using the ARINC 424 five character
// convention: with longitudes less than 100, the latitude and longitude
// digits are followed by a quadrant letter ("4750N" is 47N 050W); for
// longitudes of 100 or more the letter goes in the middle and the leading
// 1 is dropped ("47N50" is 47N 150W). The quadrant letters are N (north
// and west), E (north and east), S (south and east) and W (south and
// west).

var ErrInvalidLatLon = errors.New("invalid latitude/longitude")

func quadrantLetter(lat, lon int) byte {
	switch {
	case lat >= 0 && lon <= 0:
		return 'N'
	case lat >= 0:
		return 'E'
	case lon > 0:
		return 'S'
	default:
		return 'W'
	}
}

// LatLonID returns the five character identifier for the given whole
// degree latitude and longitude; negative values are south and west. A
// longitude of zero is named as west.
func LatLonID(lat, lon int) (string, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", fmt.Errorf("%d, %d: %w", lat, lon, ErrInvalidLatLon)
	}
	q := quadrantLetter(lat, lon)
	alat, alon := math.Abs(lat), math.Abs(lon)
	if alon < 100 {
		return fmt.Sprintf("%02d%02d%c", alat, alon, q), nil
	}
	return fmt.Sprintf("%02d%c%02d", alat, q, alon-100), nil
}

// ParseLatLonID returns the location named by a five character lat/lon
// identifier. The second return value is false if id isn't one.
func ParseLatLonID(id string) (math.Point2LL, bool) {
	if len(id) != 5 {
		return math.Point2LL{}, false
	}
	digits := func(s string) (int, bool) {
		if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
			return 0, false
		}
		return int(s[0]-'0')*10 + int(s[1]-'0'), true
	}

	var lat, lon int
	var q byte
	var ok0, ok1 bool
	if isQuadrant(id[4]) {
		lat, ok0 = digits(id[0:2])
		lon, ok1 = digits(id[2:4])
		q = id[4]
	} else if isQuadrant(id[2]) {
		lat, ok0 = digits(id[0:2])
		lon, ok1 = digits(id[3:5])
		lon += 100
		q = id[2]
	}
	if !ok0 || !ok1 || lat > 90 || lon > 180 {
		return math.Point2LL{}, false
	}

	switch q {
	case 'N':
		lon = -lon
	case 'S':
		lat = -lat
	case 'W':
		lat, lon = -lat, -lon
	}
	return math.Point2LL{float32(lon), float32(lat)}, true
}

func isQuadrant(ch byte) bool {
	return ch == 'N' || ch == 'E' || ch == 'S' || ch == 'W'
}

var (
	// Tokens made up of digits and hemisphere letters that look like they
	// are meant to be a coordinate.
	reCoordinateShaped = regexp.MustCompile(`^[NSEW]?[0-9]{2,}[NSEW][0-9]*[NSEW]?$`)

	reCoordDegrees     = regexp.MustCompile(`^([0-9]{2})([NS])([0-9]{2,3})([EW])$`)                   // 47N050W
	reCoordMinutes     = regexp.MustCompile(`^([0-9]{2})([0-9]{2})([NS])([0-9]{3})([0-9]{2})([EW])$`) // 4700N15000W
	reCoordHemiLeading = regexp.MustCompile(`^([NS])([0-9]{2})([EW])([0-9]{2,3})$`)                   // N47W150
)

// IsCoordinateShaped reports whether tok looks like an attempt at writing
// a coordinate, as opposed to a fix or airway name. Besides the forms
// matched by reCoordinateShaped, any token that starts with a digit (or a
// hemisphere letter and then a digit) and carries both an N/S and an E/W
// letter counts if it has four or more digits or a decimal point.
func IsCoordinateShaped(tok string) bool {
	digits := 0
	for _, ch := range tok {
		if ch >= '0' && ch <= '9' {
			digits++
		}
	}
	if reCoordinateShaped.MatchString(tok) {
		return digits >= 4
	}

	if len(tok) < 2 || !(isDigit(tok[0]) || (isQuadrant(tok[0]) && isDigit(tok[1]))) {
		return false
	}
	var ns, ew, dot bool
	for i := 0; i < len(tok); i++ {
		switch ch := tok[i]; {
		case ch == 'N' || ch == 'S':
			ns = true
		case ch == 'E' || ch == 'W':
			ew = true
		case ch == '.':
			dot = true
		case isDigit(ch) || (ch >= 'A' && ch <= 'Z'):
		default:
			return false
		}
	}
	return ns && ew && (digits >= 4 || dot)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// NormalizeCoordinateToken converts the whole-degree coordinate forms
// 47N150W, 4700N15000W, N47W150 and the five character form itself to the
// five character identifier. The second return value reports whether tok
// looked like a coordinate at all; if it did but could not be converted,
// an error is returned.
func NormalizeCoordinateToken(tok string) (string, bool, error) {
	if !IsCoordinateShaped(tok) {
		return tok, false, nil
	}

	if len(tok) == 5 {
		if _, ok := ParseLatLonID(tok); ok {
			return tok, true, nil
		}
	}

	var lat, lon, ns, ew string
	if m := reCoordDegrees.FindStringSubmatch(tok); m != nil {
		lat, ns, lon, ew = m[1], m[2], m[3], m[4]
	} else if m := reCoordMinutes.FindStringSubmatch(tok); m != nil {
		if m[2] != "00" || m[5] != "00" {
			return "", true, fmt.Errorf("%s: only whole degrees are supported: %w", tok, ErrInvalidLatLon)
		}
		lat, ns, lon, ew = m[1], m[3], m[4], m[6]
	} else if m := reCoordHemiLeading.FindStringSubmatch(tok); m != nil {
		ns, lat, ew, lon = m[1], m[2], m[3], m[4]
	} else if strings.Contains(tok, ".") {
		return "", true, fmt.Errorf("%s: only whole degrees are supported: %w", tok, ErrInvalidLatLon)
	} else {
		return "", true, fmt.Errorf("%s: %w", tok, ErrInvalidLatLon)
	}

	la, _ := strconv.Atoi(lat)
	lo, _ := strconv.Atoi(lon)
	if la > 90 || lo > 180 {
		return "", true, fmt.Errorf("%s: %w", tok, ErrInvalidLatLon)
	}
	if ns == "S" {
		la = -la
	}
	if ew == "W" {
		lo = -lo
	}
	id, err := LatLonID(la, lo)
	return id, true, err
}
