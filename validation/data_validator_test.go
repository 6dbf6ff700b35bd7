package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/giygas/protocolos-api/prescription"
	"github.com/giygas/protocolos-api/protocolparser/entities"
	"github.com/giygas/protocolos-api/schedule"
)

func newTestValidator() *DataValidatorImpl {
	return &DataValidatorImpl{today: func() schedule.Date { return schedule.NewDate(2024, 6, 15) }}
}

func validRow() entities.ProtocolRow {
	return entities.ProtocolRow{
		Protocol:   "FOLFOX",
		Subtype:    entities.SubtypeTreatment,
		SubtypeRaw: "QT",
		Days:       "D1",
		Medication: "Oxaliplatina",
		Dose:       "85 mg/m2",
	}
}

func validRequest() prescription.Request {
	return prescription.Request{
		PatientName: "Maria da Silva",
		BirthDate:   schedule.NewDate(1970, 5, 20),
		WeightKg:    70,
		HeightCm:    170,
		Protocol:    "FOLFOX",
		CycleStart:  schedule.NewDate(2024, 6, 17),
	}
}

func TestNewDataValidator(t *testing.T) {
	validator := NewDataValidator()
	if validator == nil {
		t.Fatal("NewDataValidator returned nil")
	}
	if _, ok := validator.(*DataValidatorImpl); !ok {
		t.Errorf("Expected *DataValidatorImpl, got %T", validator)
	}
}

func TestValidateProtocolRow(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		mutate  func(r *entities.ProtocolRow)
		wantErr string
	}{
		{"valid", func(r *entities.ProtocolRow) {}, ""},
		{"empty protocol", func(r *entities.ProtocolRow) { r.Protocol = "  " }, "empty protocol name"},
		{"long protocol", func(r *entities.ProtocolRow) { r.Protocol = strings.Repeat("A", 201) }, "too long"},
		{"unknown type", func(r *entities.ProtocolRow) {
			r.Subtype = entities.SubtypeUnspecified
			r.SubtypeRaw = "POS-QT"
		}, `unknown type "POS-QT"`},
		{"empty medication", func(r *entities.ProtocolRow) { r.Medication = "" }, "empty medication"},
		{"no days", func(r *entities.ProtocolRow) { r.Days = "D5 a D1" }, "yields no administration day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(&row)

			err := v.ValidateProtocolRow(&row)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if err := v.ValidateProtocolRow(nil); err == nil {
		t.Error("Expected error for nil row")
	}
}

func TestReportDataQuality(t *testing.T) {
	v := newTestValidator()

	rows := []entities.ProtocolRow{
		{Protocol: "FOLFOX", ProtocolKey: "FOLFOX", Subtype: entities.SubtypePreMedication, Days: "D1", Medication: "Ondansetrona", Dose: "8 mg", AssociatedDiagnosis: "Colorretal"},
		{Protocol: "FOLFOX", ProtocolKey: "FOLFOX", Subtype: entities.SubtypeTreatment, Days: "D1", Medication: "Oxaliplatina", Dose: "85 mg/m2", AssociatedDiagnosis: "Colorretal"},
		{Protocol: "CARBO", ProtocolKey: "CARBO", Subtype: entities.SubtypeTreatment, Days: "D1", Medication: "Carboplatina", Dose: "AUC 5", AssociatedDiagnosis: "Ovário"},
		{Protocol: "CARBO", ProtocolKey: "CARBO", Subtype: entities.SubtypeTreatment, Days: "D1", Medication: "Paclitaxel", Dose: "175 mg/m2", AssociatedDiagnosis: "Pulmão"},
		{Protocol: "SOPRE", ProtocolKey: "SOPRE", Subtype: entities.SubtypePreMedication, Days: "", Medication: "Dexametasona", Dose: "10 mg"},
		{Protocol: "SOPRE", ProtocolKey: "SOPRE", Subtype: entities.SubtypeUnspecified, SubtypeRaw: "POS", Days: "D1", Medication: "Filgrastim", Dose: "300 mcg"},
	}
	cids := []entities.CID{
		{Code: "C18", Meaning: "Cólon"},
		{Code: "C50", Meaning: "Mama"},
		{Code: "c18", Meaning: "Cólon (duplicado)"},
		{Code: "C18", Meaning: "Cólon (triplicado)"},
	}

	report := v.ReportDataQuality(rows, cids)

	if len(report.ProtocolsWithoutTreatment) != 1 || report.ProtocolsWithoutTreatment[0] != "SOPRE" {
		t.Errorf("Expected SOPRE without treatment, got %v", report.ProtocolsWithoutTreatment)
	}
	if report.RowsWithUnspecifiedSubtype != 1 || report.UnspecifiedSubtypeProtocols[0] != "SOPRE" {
		t.Errorf("Unexpected unspecified subtype report: %d %v", report.RowsWithUnspecifiedSubtype, report.UnspecifiedSubtypeProtocols)
	}
	if report.RowsWithoutDays != 1 {
		t.Errorf("Expected 1 row without days, got %d", report.RowsWithoutDays)
	}
	if report.RowsWithUnparseableDose != 1 || report.UnparseableDoseProtocols[0] != "CARBO" {
		t.Errorf("Expected CARBO unparseable dose, got %d %v", report.RowsWithUnparseableDose, report.UnparseableDoseProtocols)
	}
	if len(report.ConflictingProtocolInfo) != 1 || report.ConflictingProtocolInfo[0] != "CARBO" {
		t.Errorf("Expected CARBO conflicting info, got %v", report.ConflictingProtocolInfo)
	}
	if len(report.DuplicateCIDCodes) != 1 {
		t.Errorf("Expected one duplicate CID code reported once, got %v", report.DuplicateCIDCodes)
	}
}

func TestReportDataQualityEmpty(t *testing.T) {
	report := newTestValidator().ReportDataQuality(nil, nil)

	if report == nil {
		t.Fatal("Report should never be nil")
	}
	if report.ProtocolsWithoutTreatment == nil || report.DuplicateCIDCodes == nil {
		t.Error("Report lists should be empty, not nil")
	}
}

func TestReportDataQualityCapsExamples(t *testing.T) {
	var rows []entities.ProtocolRow
	for i := 0; i < 15; i++ {
		name := "P" + strings.Repeat("X", i)
		rows = append(rows, entities.ProtocolRow{Protocol: name, ProtocolKey: name, Subtype: entities.SubtypeTreatment, Days: "", Medication: "M", Dose: "1 mg"})
	}

	report := newTestValidator().ReportDataQuality(rows, nil)

	if report.RowsWithoutDays != 15 {
		t.Errorf("Expected 15 rows without days, got %d", report.RowsWithoutDays)
	}
	if len(report.RowsWithoutDaysProtocols) != maxReportExamples {
		t.Errorf("Expected %d examples, got %d", maxReportExamples, len(report.RowsWithoutDaysProtocols))
	}
}

func TestValidateInput_Valid(t *testing.T) {
	v := newTestValidator()

	for _, input := range []string{
		"FOLFOX",
		"folfox 6",
		"AC-T",
		"CARBO/PACLI",
		"neoplasia maligna do cólon",
		"Pulmão",
		"C18",
		"mFOLFOX6 (modificado)",
		"5-FU + LV",
		"d'água",
		"a",
	} {
		t.Run(input, func(t *testing.T) {
			if err := v.ValidateInput(input); err != nil {
				t.Errorf("Expected %q to be valid, got %v", input, err)
			}
		})
	}
}

func TestValidateInput_Invalid(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "cannot be empty"},
		{"spaces", "   ", "cannot be empty"},
		{"too long", strings.Repeat("ab", 51), "too long"},
		{"too many words", "a b c d e f g h i", "too complex"},
		{"script", "<script>alert(1)</script>", "dangerous"},
		{"sql", "x' or 1=1", "dangerous"},
		{"comment", "folfox--", "dangerous"},
		{"traversal", "../etc/passwd", "dangerous"},
		{"command", "$(ls)", "dangerous"},
		{"semicolon", "folfox;", "invalid characters"},
		{"emoji", "folfox 💊", "invalid characters"},
		{"null byte", "fol\x00fox", "invalid characters"},
		{"repetition", "aaaaaaaaaaaaaaa", "excessive character repetition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInput(tt.input)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateInput(%q) = %v, want error containing %q", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestHasExcessiveRepetition(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", false},
		{"aaaaaaaaaa", false},
		{"aaaaaaaaaaa", true},
		{"ããããããããããã", true},
		{"abababababababab", false},
	}

	for _, tt := range tests {
		if got := hasExcessiveRepetition(tt.input); got != tt.expected {
			t.Errorf("hasExcessiveRepetition(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestValidatePrescriptionRequest(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		mutate  func(r *prescription.Request)
		wantErr string
	}{
		{"valid", func(r *prescription.Request) {}, ""},
		{"no birth date", func(r *prescription.Request) { r.BirthDate = schedule.Date{} }, ""},
		{"birth today", func(r *prescription.Request) { r.BirthDate = schedule.NewDate(2024, 6, 15) }, ""},
		{"max weight", func(r *prescription.Request) { r.WeightKg = 500 }, ""},
		{"missing protocol", func(r *prescription.Request) { r.Protocol = " " }, "protocol is required"},
		{"long protocol", func(r *prescription.Request) { r.Protocol = strings.Repeat("P", 101) }, "protocol name too long"},
		{"zero weight", func(r *prescription.Request) { r.WeightKg = 0 }, "weightKg must be a positive number"},
		{"negative height", func(r *prescription.Request) { r.HeightCm = -170 }, "heightCm must be a positive number"},
		{"nan weight", func(r *prescription.Request) { r.WeightKg = math.NaN() }, "weightKg must be a positive number"},
		{"heavy", func(r *prescription.Request) { r.WeightKg = 500.5 }, "weightKg must not exceed 500"},
		{"tall", func(r *prescription.Request) { r.HeightCm = 301 }, "heightCm must not exceed 300"},
		{"no cycle start", func(r *prescription.Request) { r.CycleStart = schedule.Date{} }, "cycleStart is required"},
		{"future birth", func(r *prescription.Request) { r.BirthDate = schedule.NewDate(2024, 6, 16) }, "is in the future"},
		{"long name", func(r *prescription.Request) { r.PatientName = strings.Repeat("n", 201) }, "patientName too long"},
		{"long cid", func(r *prescription.Request) { r.CID = strings.Repeat("C", 21) }, "cid too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.ValidatePrescriptionRequest(&req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if err := v.ValidatePrescriptionRequest(nil); err == nil {
		t.Error("Expected error for nil request")
	}
}

func BenchmarkValidateInput(b *testing.B) {
	v := newTestValidator()
	for i := 0; i < b.N; i++ {
		_ = v.ValidateInput("neoplasia maligna do cólon")
	}
}
