package entities

import "strings"

// Subtype tells which table of the prescription a protocol row belongs to
type Subtype int

const (
	SubtypeUnspecified Subtype = iota
	SubtypePreMedication
	SubtypeTreatment
)

// Raw values used in the "tipo" column of the protocol sheet
const (
	rawPreMedication = "PRE-QT"
	rawTreatment     = "QT"
)

// ParseSubtype normalizes the free-text "tipo" column
func ParseSubtype(raw string) Subtype {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case rawPreMedication:
		return SubtypePreMedication
	case rawTreatment:
		return SubtypeTreatment
	default:
		return SubtypeUnspecified
	}
}

func (s Subtype) String() string {
	switch s {
	case SubtypePreMedication:
		return "pre_medication"
	case SubtypeTreatment:
		return "treatment"
	default:
		return "unspecified"
	}
}

// MarshalText keeps the JSON representation readable
func (s Subtype) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ProtocolRow is one medication line of a chemotherapy protocol.
// Rows are never modified after loading.
type ProtocolRow struct {
	Protocol            string  `json:"protocol"`
	ProtocolKey         string  `json:"-"` // Pre-computed: TrimSpace() + ToUpper()
	Subtype             Subtype `json:"subtype"`
	SubtypeRaw          string  `json:"subtypeRaw"`
	Days                string  `json:"days"`
	Medication          string  `json:"medication"`
	Dose                string  `json:"dose"`
	Route               string  `json:"route"`
	InfusionTime        string  `json:"infusionTime"`
	Cycles              string  `json:"cycles"`
	AssociatedDiagnosis string  `json:"associatedDiagnosis"`
	EmetogenicPotential string  `json:"emetogenicPotential"`
}
