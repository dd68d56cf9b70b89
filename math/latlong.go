// math/latlong.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
	"regexp"
	"strconv"
)

const NMPerLatitude = 60

// EarthRadiusNM is the mean radius of the WGS-84 ellipsoid approximated
// as a sphere.
const EarthRadiusNM = 3440.065

///////////////////////////////////////////////////////////////////////////
// Point2LL

// Point2LL represents a 2D point on the Earth in latitude-longitude.
// Important: 0 (x) is longitude, 1 (y) is latitude
type Point2LL [2]float32

func (p Point2LL) Longitude() float32 {
	return p[0]
}

func (p Point2LL) Latitude() float32 {
	return p[1]
}

// DDString returns the position in decimal degrees, e.g.:
// (39.860901, -75.274864)
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0]) // latitude, longitude
}

func (p Point2LL) IsZero() bool {
	return p[0] == 0 && p[1] == 0
}

// Valid reports whether the latitude and longitude are in range.
func (p Point2LL) Valid() bool {
	return p[1] >= -90 && p[1] <= 90 && p[0] >= -180 && p[0] <= 180
}

var (
	// pair of floats (no exponents)
	reWaypointFloat = regexp.MustCompile(`^(\-?[0-9]+\.[0-9]+), *(\-?[0-9]+\.[0-9]+)$`)
)

// Parse waypoints of the form "N40.37.58.400, W073.46.17.000".
func tryParseWaypointDotted(b []byte) (Point2LL, bool) {
	if len(b) == 0 || (b[0] != 'N' && b[0] != 'S') {
		return Point2LL{}, false
	}
	negateLatitude := b[0] == 'S'

	// Skip over the N/S and parse the four dotted numbers following it
	b = b[1:]
	latitude, n, ok := tryParseWaypointNumbers(b)
	if !ok {
		return Point2LL{}, false
	}
	if negateLatitude {
		latitude = -latitude
	}
	b = b[n:]

	// Skip comma
	if len(b) == 0 || b[0] != ',' {
		return Point2LL{}, false
	}
	b = b[1:]

	// Skip optional space
	if len(b) > 0 && b[0] == ' ' {
		b = b[1:]
	}

	if len(b) == 0 || (b[0] != 'E' && b[0] != 'W') {
		return Point2LL{}, false
	}
	negateLongitude := b[0] == 'W'

	b = b[1:]
	longitude, _, ok := tryParseWaypointNumbers(b)
	if !ok {
		return Point2LL{}, false
	}
	if negateLongitude {
		longitude = -longitude
	}

	return Point2LL{longitude, latitude}, true
}

// Parse a latlong of the form aaa.bbb.ccc.ddd and return the
// corresponding float32, the number of bytes of b consumed, and a bool
// indicating success or failure.
func tryParseWaypointNumbers(b []byte) (float32, int, bool) {
	n := 0
	var ll float64

	scan := func(b []byte) int {
		for i, v := range b {
			if v == '.' || v == ',' {
				return i
			}
		}
		return len(b)
	}

	for i := 0; i < 4; i++ {
		end := scan(b)
		if end == 0 {
			return 0, 0, false
		}

		value := 0
		for _, ch := range b[:end] {
			if ch < '0' || ch > '9' {
				return 0, 0, false
			}
			value *= 10
			value += int(ch - '0')
		}
		if i == 3 {
			// Treat the last set of digits as a decimal, so that
			// Nxx.yy.zz.1 is handled like Nxx.yy.zz.100.
			for j := end; j < 3; j++ {
				value *= 10
			}
		}

		scales := [4]float64{1, 60, 3600, 3600000}
		ll += float64(value) / scales[i]
		n += end
		b = b[end:]

		if i < 3 {
			if len(b) == 0 {
				return 0, 0, false
			}
			b = b[1:]
			n++
		}
	}

	return float32(ll), n, true
}

// ParseLatLong parses either "N40.37.58.400,W073.46.17.000" or a pair of
// decimal degrees "40.6328888, -73.771385" (latitude first).
func ParseLatLong(llstr []byte) (Point2LL, error) {
	if p, ok := tryParseWaypointDotted(llstr); ok {
		return p, nil
	} else if strs := reWaypointFloat.FindStringSubmatch(string(llstr)); len(strs) == 3 {
		var p Point2LL
		if l, err := strconv.ParseFloat(strs[1], 32); err != nil {
			return Point2LL{}, err
		} else {
			p[1] = float32(l)
		}
		if l, err := strconv.ParseFloat(strs[2], 32); err != nil {
			return Point2LL{}, err
		} else {
			p[0] = float32(l)
		}
		if !p.Valid() {
			return Point2LL{}, fmt.Errorf("%s: latlong out of range", llstr)
		}
		return p, nil
	} else {
		return Point2LL{}, fmt.Errorf("%s: invalid latlong string", llstr)
	}
}

// NMDistance2LL returns the great-circle distance in nautical miles
// between two provided lat-long coordinates.
func NMDistance2LL(a Point2LL, b Point2LL) float32 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	rad := func(d float32) float64 { return float64(d) / 180 * gomath.Pi }
	lat1, lon1 := rad(a[1]), rad(a[0])
	lat2, lon2 := rad(b[1]), rad(b[0])
	dlat, dlon := lat2-lat1, lon2-lon1

	x := Sqr(gomath.Sin(dlat/2)) + gomath.Cos(lat1)*gomath.Cos(lat2)*Sqr(gomath.Sin(dlon/2))
	c := 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))

	return float32(EarthRadiusNM * c)
}

// NMPerLongitudeAt returns the number of nautical miles spanned by one
// degree of longitude at the given latitude.
func NMPerLongitudeAt(p Point2LL) float32 {
	return NMPerLatitude * Cos(Radians(p[1]))
}

// Offset2LL returns the point at distance dist (nautical miles) along the
// great circle with initial true bearing hdg from the given point.
func Offset2LL(pll Point2LL, hdg float32, dist float32) Point2LL {
	rad := func(d float32) float64 { return float64(d) / 180 * gomath.Pi }
	deg := func(r float64) float32 { return float32(r * 180 / gomath.Pi) }

	lat1, lon1 := rad(pll[1]), rad(pll[0])
	brg := rad(hdg)
	delta := float64(dist) / EarthRadiusNM

	lat2 := gomath.Asin(gomath.Sin(lat1)*gomath.Cos(delta) +
		gomath.Cos(lat1)*gomath.Sin(delta)*gomath.Cos(brg))
	lon2 := lon1 + gomath.Atan2(gomath.Sin(brg)*gomath.Sin(delta)*gomath.Cos(lat1),
		gomath.Cos(delta)-gomath.Sin(lat1)*gomath.Sin(lat2))

	lon := deg(lon2)
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return Point2LL{lon, deg(lat2)}
}
