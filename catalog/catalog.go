// Package catalog indexes the loaded protocol and CID tables: protocol name
// lookup, subtype split and the search-as-you-type suggestions.
package catalog

import (
	"sort"
	"strings"

	"github.com/giygas/protocolos-api/protocolparser/entities"
)

// DefaultSuggestionLimit is the number of suggestions shown under a search box
const DefaultSuggestionLimit = 10

// MinCIDQueryLength is the number of characters needed before searching CIDs
const MinCIDQueryLength = 2

// Key normalizes a protocol name for case-insensitive exact matching
func Key(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Names returns the unique, non-empty, trimmed protocol names in sorted order
func Names(rows []entities.ProtocolRow) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)

	for i := range rows {
		name := strings.TrimSpace(rows[i].Protocol)
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Index groups rows by protocol key, keeping sheet order inside each protocol
func Index(rows []entities.ProtocolRow) map[string][]entities.ProtocolRow {
	index := make(map[string][]entities.ProtocolRow)
	for i := range rows {
		key := rows[i].ProtocolKey
		if key == "" {
			key = Key(rows[i].Protocol)
		}
		if key == "" {
			continue
		}
		index[key] = append(index[key], rows[i])
	}
	return index
}

// Filter returns the rows of one protocol (case-insensitive exact match)
func Filter(rows []entities.ProtocolRow, name string) []entities.ProtocolRow {
	key := Key(name)
	if key == "" {
		return []entities.ProtocolRow{}
	}

	result := make([]entities.ProtocolRow, 0)
	for i := range rows {
		if Key(rows[i].Protocol) == key {
			result = append(result, rows[i])
		}
	}
	return result
}

// Split separates pre-medication rows from treatment rows.
// Rows with an unspecified subtype belong to neither table.
func Split(rows []entities.ProtocolRow) (preMedication, treatment []entities.ProtocolRow) {
	preMedication = make([]entities.ProtocolRow, 0)
	treatment = make([]entities.ProtocolRow, 0)

	for i := range rows {
		switch rows[i].Subtype {
		case entities.SubtypePreMedication:
			preMedication = append(preMedication, rows[i])
		case entities.SubtypeTreatment:
			treatment = append(treatment, rows[i])
		}
	}
	return preMedication, treatment
}

// Summary holds the protocol-level information shown above the tables
type Summary struct {
	Name                string `json:"name"`
	AssociatedDiagnosis string `json:"associatedDiagnosis"`
	EmetogenicPotential string `json:"emetogenicPotential"`
	PreMedicationCount  int    `json:"preMedicationCount"`
	TreatmentCount      int    `json:"treatmentCount"`
}

// Summarize takes protocol-level fields from the first row of the protocol
func Summarize(rows []entities.ProtocolRow) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	pre, treatment := Split(rows)
	first := rows[0]
	return Summary{
		Name:                strings.TrimSpace(first.Protocol),
		AssociatedDiagnosis: first.AssociatedDiagnosis,
		EmetogenicPotential: first.EmetogenicPotential,
		PreMedicationCount:  len(pre),
		TreatmentCount:      len(treatment),
	}
}
