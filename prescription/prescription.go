// Package prescription assembles a printable chemotherapy prescription: the
// patient block, the protocol information and the two administration tables.
package prescription

import (
	"errors"
	"fmt"

	"github.com/giygas/protocolos-api/catalog"
	"github.com/giygas/protocolos-api/dose"
	"github.com/giygas/protocolos-api/patient"
	"github.com/giygas/protocolos-api/protocolparser/entities"
	"github.com/giygas/protocolos-api/schedule"
	"github.com/google/uuid"
)

var (
	ErrMissingCycleStart = errors.New("cycle start date is required")
	ErrMissingProtocol   = errors.New("protocol name is required")
	ErrProtocolNotFound  = errors.New("protocol not found")
)

// Request is what the prescriber fills in before selecting a protocol
type Request struct {
	PatientName   string        `json:"patientName"`
	MedicalRecord string        `json:"medicalRecord"`
	Diagnosis     string        `json:"diagnosis"`
	CID           string        `json:"cid"`
	BirthDate     schedule.Date `json:"birthDate"`
	WeightKg      float64       `json:"weightKg"`
	HeightCm      float64       `json:"heightCm"`
	Protocol      string        `json:"protocol"`
	CycleStart    schedule.Date `json:"cycleStart"`
}

// Patient is the patient block printed at the top of the prescription
type Patient struct {
	Name          string  `json:"name"`
	MedicalRecord string  `json:"medicalRecord"`
	Diagnosis     string  `json:"diagnosis"`
	CID           string  `json:"cid"`
	Age           *int    `json:"age,omitempty"`
	WeightKg      float64 `json:"weightKg"`
	HeightCm      float64 `json:"heightCm"`
	BSA           float64 `json:"bsa"`
}

// Prescription is a complete, dated prescription for one cycle
type Prescription struct {
	ID            string           `json:"id"`
	IssuedOn      schedule.Date    `json:"issuedOn"`
	CycleStart    schedule.Date    `json:"cycleStart"`
	Patient       Patient          `json:"patient"`
	Protocol      catalog.Summary  `json:"protocol"`
	PreMedication []schedule.Entry `json:"preMedication"`
	Treatment     []schedule.Entry `json:"treatment"`
}

// Build filters rows to the requested protocol and expands both tables.
// rows may hold every protocol of the sheet.
func Build(req Request, rows []entities.ProtocolRow, issuedOn schedule.Date) (*Prescription, error) {
	if req.Protocol == "" {
		return nil, ErrMissingProtocol
	}
	if req.CycleStart.IsZero() {
		return nil, ErrMissingCycleStart
	}

	bsa, err := patient.BSA(req.WeightKg, req.HeightCm)
	if err != nil {
		return nil, fmt.Errorf("cannot compute body surface area: %w", err)
	}

	protocolRows := catalog.Filter(rows, req.Protocol)
	if len(protocolRows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProtocolNotFound, req.Protocol)
	}

	preMedication, treatment := catalog.Split(protocolRows)
	tables := schedule.BuildTables(preMedication, treatment, bsa, req.CycleStart)

	p := &Prescription{
		ID:         uuid.NewString(),
		IssuedOn:   issuedOn,
		CycleStart: req.CycleStart,
		Patient: Patient{
			Name:          req.PatientName,
			MedicalRecord: req.MedicalRecord,
			Diagnosis:     req.Diagnosis,
			CID:           req.CID,
			WeightKg:      req.WeightKg,
			HeightCm:      req.HeightCm,
			BSA:           dose.Round2(bsa),
		},
		Protocol:      catalog.Summarize(protocolRows),
		PreMedication: tables.PreMedication,
		Treatment:     tables.Treatment,
	}

	// Age is informative only, a missing birth date does not block the prescription
	if age, err := patient.Age(req.BirthDate, issuedOn); err == nil {
		p.Patient.Age = &age
	}

	return p, nil
}

// EntryCount is the total number of administration lines
func (p *Prescription) EntryCount() int {
	return len(p.PreMedication) + len(p.Treatment)
}
