package prescription

import (
	"fmt"
	"strings"

	"github.com/giygas/protocolos-api/catalog"
	"github.com/giygas/protocolos-api/schedule"
)

// Strings printed on the prescription in place of missing values
const (
	NotInformed = "Não informado"
	NoItems     = "Nenhum item para este esquema."
)

// OrNotInformed returns s, or NotInformed when s is blank
func OrNotInformed(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotInformed
	}
	return s
}

// EntryView is an administration line with its display strings
type EntryView struct {
	Item          int           `json:"item"`
	Date          schedule.Date `json:"date"`
	DateDisplay   string        `json:"dateDisplay"`
	Day           string        `json:"day"`
	Cycle         string        `json:"cycle"`
	Medication    string        `json:"medication"`
	Dose          string        `json:"dose"`
	DoseKind      string        `json:"doseKind"`
	ReferenceDose string        `json:"referenceDose"`
	Route         string        `json:"route"`
	InfusionTime  string        `json:"infusionTime"`
}

// PatientView is the patient block with placeholders applied
type PatientView struct {
	Name          string  `json:"name"`
	MedicalRecord string  `json:"medicalRecord"`
	Diagnosis     string  `json:"diagnosis"`
	CID           string  `json:"cid"`
	Age           *int    `json:"age,omitempty"`
	WeightKg      float64 `json:"weightKg"`
	HeightCm      float64 `json:"heightCm"`
	BSA           float64 `json:"bsa"`
	BSADisplay    string  `json:"bsaDisplay"`
}

// View is the printable form of a prescription
type View struct {
	ID                string          `json:"id"`
	IssuedOn          schedule.Date   `json:"issuedOn"`
	IssuedOnDisplay   string          `json:"issuedOnDisplay"`
	CycleStart        schedule.Date   `json:"cycleStart"`
	CycleStartDisplay string          `json:"cycleStartDisplay"`
	Patient           PatientView     `json:"patient"`
	Protocol          catalog.Summary `json:"protocol"`
	PreMedication     []EntryView     `json:"preMedication"`
	Treatment         []EntryView     `json:"treatment"`
}

// View renders the display strings of every field
func (p *Prescription) View() View {
	return View{
		ID:                p.ID,
		IssuedOn:          p.IssuedOn,
		IssuedOnDisplay:   p.IssuedOn.Display(),
		CycleStart:        p.CycleStart,
		CycleStartDisplay: p.CycleStart.Display(),
		Patient: PatientView{
			Name:          OrNotInformed(p.Patient.Name),
			MedicalRecord: OrNotInformed(p.Patient.MedicalRecord),
			Diagnosis:     OrNotInformed(p.Patient.Diagnosis),
			CID:           p.Patient.CID,
			Age:           p.Patient.Age,
			WeightKg:      p.Patient.WeightKg,
			HeightCm:      p.Patient.HeightCm,
			BSA:           p.Patient.BSA,
			BSADisplay:    FormatBSA(p.Patient.BSA),
		},
		Protocol:      p.Protocol,
		PreMedication: ViewEntries(p.PreMedication),
		Treatment:     ViewEntries(p.Treatment),
	}
}

// FormatBSA renders a body surface area as "1.73 m²"
func FormatBSA(bsa float64) string {
	return fmt.Sprintf("%.2f m²", bsa)
}

// ViewEntries converts engine entries, never returning nil
func ViewEntries(entries []schedule.Entry) []EntryView {
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, EntryView{
			Item:          e.Sequence,
			Date:          e.Date,
			DateDisplay:   e.Date.Display(),
			Day:           e.DayToken,
			Cycle:         e.CycleLabel,
			Medication:    e.Medication,
			Dose:          e.Dose.String(),
			DoseKind:      e.Dose.Kind.String(),
			ReferenceDose: e.ReferenceDose,
			Route:         e.Route,
			InfusionTime:  e.InfusionTime,
		})
	}
	return views
}
