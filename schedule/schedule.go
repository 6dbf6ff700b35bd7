// Package schedule expands chemotherapy protocol rows into a dated, per-day
// administration table with doses computed from the patient body surface area.
//
// Every function in this package is pure: it reads its arguments, keeps no
// state between calls and never fails on malformed row data. A row with an
// unreadable day expression contributes no entries, an unreadable day token
// gets an unresolved date, and an unreadable dose is shown verbatim.
package schedule

import (
	"encoding/json"
	"fmt"

	"github.com/giygas/protocolos-api/dose"
	"github.com/giygas/protocolos-api/protocolparser/entities"
)

// DoseKind tells how the dose of an entry was obtained
type DoseKind int

const (
	DoseNotApplicable DoseKind = iota
	DoseLiteral
	DoseComputed
)

func (k DoseKind) String() string {
	switch k {
	case DoseLiteral:
		return "literal"
	case DoseComputed:
		return "computed"
	default:
		return "not_applicable"
	}
}

func (k DoseKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DoseResult is the dose owed on one administration day
type DoseResult struct {
	Kind       DoseKind `json:"kind"`
	Text       string   `json:"text,omitempty"`
	Milligrams float64  `json:"milligrams"`
}

// MarshalJSON always emits milligrams for computed doses, zero included
func (d DoseResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind       DoseKind `json:"kind"`
		Text       string   `json:"text,omitempty"`
		Milligrams *float64 `json:"milligrams,omitempty"`
	}{Kind: d.Kind, Text: d.Text}
	if d.Kind == DoseComputed {
		out.Milligrams = &d.Milligrams
	}
	return json.Marshal(out)
}

// NotApplicable is the dose of rows without any dose text
func NotApplicable() DoseResult {
	return DoseResult{Kind: DoseNotApplicable}
}

// Literal is a dose copied as written in the protocol sheet
func Literal(text string) DoseResult {
	return DoseResult{Kind: DoseLiteral, Text: text}
}

// Computed is a BSA-scaled dose in milligrams, rounded to 2 decimals
func Computed(milligrams float64) DoseResult {
	return DoseResult{Kind: DoseComputed, Milligrams: dose.Round2(milligrams)}
}

// String renders the dose the way it is printed on the prescription
func (d DoseResult) String() string {
	switch d.Kind {
	case DoseComputed:
		return fmt.Sprintf("%.2f mg", d.Milligrams)
	case DoseLiteral:
		return d.Text
	default:
		return "-"
	}
}

// Entry is one line of the administration table: one medication on one day
type Entry struct {
	Sequence      int        `json:"item"`
	Date          Date       `json:"date"`
	Resolved      bool       `json:"resolved"`
	DayToken      string     `json:"day"`
	CycleLabel    string     `json:"cycle"`
	Medication    string     `json:"medication"`
	Dose          DoseResult `json:"dose"`
	ReferenceDose string     `json:"referenceDose"`
	Route         string     `json:"route"`
	InfusionTime  string     `json:"infusionTime"`
}

// Options are the patient and cycle parameters of one table
type Options struct {
	BSA        float64
	CycleStart Date
	ScaleByBSA bool
}

// Build expands rows into administration entries.
//
// rows must already be restricted to one protocol and one subtype group.
// Entries are numbered from 1 across all rows of the call, in row order
// then day order.
func Build(rows []entities.ProtocolRow, opts Options) []Entry {
	entries := make([]Entry, 0, len(rows))
	sequence := 0

	for i := range rows {
		row := &rows[i]
		result := doseFor(row.Dose, opts)

		for _, token := range ExpandDays(row.Days) {
			sequence++
			date, resolved := DateForDay(opts.CycleStart, token)

			entries = append(entries, Entry{
				Sequence:      sequence,
				Date:          date,
				Resolved:      resolved,
				DayToken:      token,
				CycleLabel:    row.Cycles,
				Medication:    row.Medication,
				Dose:          result,
				ReferenceDose: row.Dose,
				Route:         row.Route,
				InfusionTime:  row.InfusionTime,
			})
		}
	}

	return entries
}

// doseFor applies the dosing rule to one row
func doseFor(raw string, opts Options) DoseResult {
	if opts.ScaleByBSA {
		quantity := dose.Parse(raw)
		if quantity.Valid() && quantity.Kind() == dose.UnitPerBodySurface {
			return Computed(quantity.Scale(opts.BSA))
		}
	}

	if raw != "" {
		return Literal(raw)
	}
	return NotApplicable()
}

// Tables holds the two independent administration tables of a prescription
type Tables struct {
	PreMedication []Entry `json:"preMedication"`
	Treatment     []Entry `json:"treatment"`
}

// BuildTables builds the pre-medication table (never scaled) and the
// treatment table (scaled by bsa). Numbering restarts in each table.
func BuildTables(preMedication, treatment []entities.ProtocolRow, bsa float64, cycleStart Date) Tables {
	return Tables{
		PreMedication: Build(preMedication, Options{BSA: bsa, CycleStart: cycleStart, ScaleByBSA: false}),
		Treatment:     Build(treatment, Options{BSA: bsa, CycleStart: cycleStart, ScaleByBSA: true}),
	}
}
