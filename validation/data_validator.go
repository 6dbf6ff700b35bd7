// Package validation checks user input, prescription requests and the
// quality of the reference sheets.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/giygas/protocolos-api/catalog"
	"github.com/giygas/protocolos-api/dose"
	"github.com/giygas/protocolos-api/interfaces"
	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/prescription"
	"github.com/giygas/protocolos-api/protocolparser/entities"
	"github.com/giygas/protocolos-api/schedule"
)

// Limits on request values
const (
	MaxInputLength    = 100
	MaxInputWords     = 8
	MaxWeightKg       = 500.0
	MaxHeightCm       = 300.0
	MaxBSA            = 7.0 // m², above the Mosteller value of MaxWeightKg and MaxHeightCm
	maxNameLength     = 200
	maxCIDLength      = 20
	maxReportExamples = 10
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// Letters of any script (Portuguese accents included), digits and safe punctuation
	inputRegex = regexp.MustCompile(`^[\p{L}\p{M}0-9\s\-\.\+'/()]+$`)

	// Dangerous patterns as strings, strings.Contains is faster than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "url(", "@import",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct {
	today func() schedule.Date
}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{today: schedule.Today}
}

// ValidateProtocolRow checks that a row can take part in a schedule
func (v *DataValidatorImpl) ValidateProtocolRow(row *entities.ProtocolRow) error {
	if row == nil {
		return fmt.Errorf("protocol row is nil")
	}

	if strings.TrimSpace(row.Protocol) == "" {
		return fmt.Errorf("empty protocol name")
	}

	if len(row.Protocol) > maxNameLength {
		return fmt.Errorf("protocol name too long: %d characters", len(row.Protocol))
	}

	if row.Subtype == entities.SubtypeUnspecified {
		return fmt.Errorf("protocol %s: unknown type %q, expected PRE-QT or QT", row.Protocol, row.SubtypeRaw)
	}

	if strings.TrimSpace(row.Medication) == "" {
		return fmt.Errorf("protocol %s: empty medication", row.Protocol)
	}

	if len(schedule.ExpandDays(row.Days)) == 0 {
		return fmt.Errorf("protocol %s, %s: day expression %q yields no administration day", row.Protocol, row.Medication, row.Days)
	}

	return nil
}

// ReportDataQuality collects the sheet problems that do not block a load
func (v *DataValidatorImpl) ReportDataQuality(rows []entities.ProtocolRow, cids []entities.CID) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		ProtocolsWithoutTreatment:   []string{},
		UnspecifiedSubtypeProtocols: []string{},
		RowsWithoutDaysProtocols:    []string{},
		UnparseableDoseProtocols:    []string{},
		ConflictingProtocolInfo:     []string{},
		DuplicateCIDCodes:           []string{},
	}

	unspecified := newExampleSet(&report.UnspecifiedSubtypeProtocols)
	withoutDays := newExampleSet(&report.RowsWithoutDaysProtocols)
	unparseable := newExampleSet(&report.UnparseableDoseProtocols)

	for i := range rows {
		row := &rows[i]

		if row.Subtype == entities.SubtypeUnspecified {
			report.RowsWithUnspecifiedSubtype++
			unspecified.add(row.Protocol)
		}

		if len(schedule.ExpandDays(row.Days)) == 0 {
			report.RowsWithoutDays++
			withoutDays.add(row.Protocol)
		}

		// Only treatment doses are scaled, so only they need a leading number
		if row.Subtype == entities.SubtypeTreatment && row.Dose != "" && !dose.Parse(row.Dose).Valid() {
			report.RowsWithUnparseableDose++
			unparseable.add(row.Protocol)
		}
	}

	index := catalog.Index(rows)
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		protocolRows := index[key]
		name := strings.TrimSpace(protocolRows[0].Protocol)

		_, treatment := catalog.Split(protocolRows)
		if len(treatment) == 0 {
			report.ProtocolsWithoutTreatment = append(report.ProtocolsWithoutTreatment, name)
		}

		if hasConflictingInfo(protocolRows) {
			report.ConflictingProtocolInfo = append(report.ConflictingProtocolInfo, name)
		}
	}

	seenCodes := make(map[string]int, len(cids))
	for _, cid := range cids {
		code := strings.ToUpper(strings.TrimSpace(cid.Code))
		seenCodes[code]++
		if seenCodes[code] == 2 {
			report.DuplicateCIDCodes = append(report.DuplicateCIDCodes, cid.Code)
		}
	}

	if len(report.DuplicateCIDCodes) > 0 {
		logging.Warn("Duplicate CID codes detected",
			"count", len(report.DuplicateCIDCodes),
			"duplicates", report.DuplicateCIDCodes,
		)
	}

	return report
}

// hasConflictingInfo reports rows of one protocol that disagree on the
// diagnosis or emetogenic potential. Blank cells do not conflict.
func hasConflictingInfo(rows []entities.ProtocolRow) bool {
	var diagnosis, emetogenic string
	for i := range rows {
		if d := strings.TrimSpace(rows[i].AssociatedDiagnosis); d != "" {
			if diagnosis != "" && !strings.EqualFold(diagnosis, d) {
				return true
			}
			diagnosis = d
		}
		if e := strings.TrimSpace(rows[i].EmetogenicPotential); e != "" {
			if emetogenic != "" && !strings.EqualFold(emetogenic, e) {
				return true
			}
			emetogenic = e
		}
	}
	return false
}

// exampleSet keeps up to maxReportExamples distinct protocol names
type exampleSet struct {
	seen map[string]struct{}
	list *[]string
}

func newExampleSet(list *[]string) *exampleSet {
	return &exampleSet{seen: make(map[string]struct{}), list: list}
}

func (s *exampleSet) add(name string) {
	if len(*s.list) >= maxReportExamples {
		return
	}
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	*s.list = append(*s.list, name)
}

// ValidateInput validates user search strings
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if utf8.RuneCountInString(input) > MaxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", MaxInputLength)
	}

	if len(strings.Fields(input)) > MaxInputWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", MaxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . + ' / ( ) are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidatePrescriptionRequest checks a request before any schedule is built
func (v *DataValidatorImpl) ValidatePrescriptionRequest(req *prescription.Request) error {
	if req == nil {
		return fmt.Errorf("request is empty")
	}

	if strings.TrimSpace(req.Protocol) == "" {
		return fmt.Errorf("protocol is required")
	}

	if utf8.RuneCountInString(req.Protocol) > MaxInputLength {
		return fmt.Errorf("protocol name too long: maximum %d characters", MaxInputLength)
	}

	if err := validateMeasurement("weightKg", req.WeightKg, MaxWeightKg); err != nil {
		return err
	}

	if err := validateMeasurement("heightCm", req.HeightCm, MaxHeightCm); err != nil {
		return err
	}

	if req.CycleStart.IsZero() {
		return fmt.Errorf("cycleStart is required")
	}

	if !req.BirthDate.IsZero() && v.today().Before(req.BirthDate) {
		return fmt.Errorf("birthDate %s is in the future", req.BirthDate)
	}

	if utf8.RuneCountInString(req.PatientName) > maxNameLength {
		return fmt.Errorf("patientName too long: maximum %d characters", maxNameLength)
	}

	if utf8.RuneCountInString(req.CID) > maxCIDLength {
		return fmt.Errorf("cid too long: maximum %d characters", maxCIDLength)
	}

	return nil
}

// validateMeasurement requires a finite value in (0, max]
func validateMeasurement(field string, value, max float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return fmt.Errorf("%s must be a positive number", field)
	}
	if value > max {
		return fmt.Errorf("%s must not exceed %g", field, max)
	}
	return nil
}

// hasExcessiveRepetition checks for the same character more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	var previous rune
	run := 0
	for _, r := range input {
		if r == previous {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		previous = r
		run = 1
	}
	return false
}
