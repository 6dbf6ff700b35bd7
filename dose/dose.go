// Package dose parses free-text dose specifications such as "75 mg/m2" or "500mg"
// into a numeric magnitude and a unit label.
package dose

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// BodySurfaceMarker is the unit marker of doses prescribed per square meter of body surface
const BodySurfaceMarker = "mg/m2"

// Compiled once, reused for every row of every schedule
var leadingNumberRegex = regexp.MustCompile(`(?s)^(\d+[.,]?\d*)\s*(.*)`)

// Quantity is a parsed dose. Magnitude is NaN when the text has no leading number.
type Quantity struct {
	Magnitude float64
	Unit      string
}

// Valid reports whether a numeric magnitude was found
func (q Quantity) Valid() bool {
	return !math.IsNaN(q.Magnitude)
}

// Scale multiplies the magnitude by factor, rounded to 2 decimals
func (q Quantity) Scale(factor float64) float64 {
	return Round2(q.Magnitude * factor)
}

// Parse splits a dose specification into magnitude and unit.
// It never fails: unparseable input yields a NaN magnitude and the whole
// input as unit so callers can still display it verbatim.
func Parse(text string) Quantity {
	if text == "" {
		return Quantity{Magnitude: math.NaN(), Unit: ""}
	}

	match := leadingNumberRegex.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return Quantity{Magnitude: math.NaN(), Unit: text}
	}

	magnitude, err := strconv.ParseFloat(strings.Replace(match[1], ",", ".", 1), 64)
	if err != nil {
		return Quantity{Magnitude: math.NaN(), Unit: text}
	}

	return Quantity{Magnitude: magnitude, Unit: strings.TrimSpace(match[2])}
}

// Round2 rounds to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
