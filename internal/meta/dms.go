package meta

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Coordinate and altitude tags arrive as formatted strings. Parsing uses
// strconv exclusively, so results do not depend on the host locale's
// decimal separator; both "." and "," separators are accepted in input.

var dmsPattern = regexp.MustCompile(`^(-?\d+)\s*(?:°|deg)\s*(\d+(?:[.,]\d+)?)'\s*(\d+(?:[.,]\d+)?)(?:")?\s*([NSEW])?`)

var altitudePattern = regexp.MustCompile(`^(-?\d+(?:[.,]\d+)?)\s*m(?:etres?)?\b(.*)$`)

// ParseDMS converts a degrees-minutes-seconds string such as
// `42° 30' 0` or `42 deg 30' 0.00" N` to decimal degrees:
// degrees + minutes/60 + seconds/3600. A trailing S or W direction
// negates the result.
func ParseDMS(s string) (float64, error) {
	m := dmsPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("not a degrees-minutes-seconds value: %q", s)
	}

	degrees, err := parseInvariant(m[1])
	if err != nil {
		return 0, err
	}
	minutes, err := parseInvariant(m[2])
	if err != nil {
		return 0, err
	}
	seconds, err := parseInvariant(m[3])
	if err != nil {
		return 0, err
	}

	neg := degrees < 0
	abs := degrees
	if neg {
		abs = -abs
	}
	value := abs + minutes/60 + seconds/3600
	if neg || m[4] == "S" || m[4] == "W" {
		value = -value
	}
	return value, nil
}

// ParseAltitude extracts the leading signed decimal from an altitude
// string such as "123.4 metres" or "52 m Above Sea Level". A "Below Sea
// Level" qualifier negates the value.
func ParseAltitude(s string) (float64, error) {
	m := altitudePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("not an altitude value: %q", s)
	}
	value, err := parseInvariant(m[1])
	if err != nil {
		return 0, err
	}
	if strings.Contains(strings.ToLower(m[2]), "below") {
		value = -value
	}
	return value, nil
}

// parseInvariant parses a decimal that may use either "." or "," as its
// separator.
func parseInvariant(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing number %q: %w", s, err)
	}
	return v, nil
}
