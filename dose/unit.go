package dose

import "strings"

// UnitKind is the closed classification of dose units
type UnitKind int

const (
	// UnitUnknown means no unit text at all
	UnitUnknown UnitKind = iota
	// UnitPerBodySurface doses are multiplied by the patient BSA
	UnitPerBodySurface
	// UnitAbsolute doses are given as written (mg, UI, AUC...)
	UnitAbsolute
)

func (k UnitKind) String() string {
	switch k {
	case UnitPerBodySurface:
		return "per_body_surface"
	case UnitAbsolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// IsPerBodySurface reports whether unit contains the mg/m2 marker, ignoring case.
// The superscript form "m²" found in some sheets is accepted as well.
func IsPerBodySurface(unit string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(unit, "²", "2"))
	return strings.Contains(normalized, BodySurfaceMarker)
}

// Classify returns the kind of a unit label
func Classify(unit string) UnitKind {
	switch {
	case strings.TrimSpace(unit) == "":
		return UnitUnknown
	case IsPerBodySurface(unit):
		return UnitPerBodySurface
	default:
		return UnitAbsolute
	}
}

// Kind classifies the quantity unit
func (q Quantity) Kind() UnitKind {
	return Classify(q.Unit)
}
