package protocolparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/protocolparser/entities"
)

// Sheet names, used in logs, errors and metrics
const (
	SheetProtocols = "protocolos"
	SheetCIDs      = "cids"
)

// Normalized column names of the protocol sheet
const (
	colProtocol            = "protocolo"
	colSubtype             = "tipo"
	colDays                = "dias"
	colMedication          = "medicamento"
	colDose                = "dose"
	colRoute               = "via_adm"
	colInfusionTime        = "tempo_de_infusao"
	colCycles              = "ciclos"
	colCycle               = "ciclo"
	colAssociatedDiagnosis = "diagnostico_associado"
	colEmetogenicPotential = "potencial_emetogenico"
)

// Normalized column names of the CID sheet
const (
	colCIDCode    = "cid"
	colCIDMeaning = "significado"
)

var (
	requiredProtocolColumns = []string{colProtocol, colSubtype, colDays, colMedication, colDose}
	requiredCIDColumns      = []string{colCIDCode, colCIDMeaning}

	whitespaceRun = regexp.MustCompile(`\s+`)

	errMissingHeader = errors.New("missing header row")
)

// NormalizeHeader turns a sheet header into a field key: "Tempo de Infusao " -> "tempo_de_infusao"
func NormalizeHeader(header string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(header)), "_")
}

// record gives access to a CSV line by normalized column name.
// Missing columns and short lines read as empty strings.
type record struct {
	columns map[string]int
	fields  []string
}

func (r record) get(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return r.fields[idx]
}

func (r record) blank() bool {
	for _, f := range r.fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// readTable reads a delimited sheet with a header row and calls fn for every non-blank line
func readTable(sheet string, input io.Reader, delimiter rune, required []string, fn func(line int, r record)) error {
	reader := csv.NewReader(input)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &ParseError{Sheet: sheet, Err: errMissingHeader}
	}
	if err != nil {
		return &ParseError{Sheet: sheet, Line: 1, Err: err}
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := NormalizeHeader(strings.TrimPrefix(h, "\ufeff"))
		if _, exists := columns[key]; !exists {
			columns[key] = i
		}
	}

	var missing []string
	for _, column := range required {
		if _, ok := columns[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return &ParseError{Sheet: sheet, Line: 1, Err: fmt.Errorf("missing required columns: %v", missing)}
	}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return &ParseError{Sheet: sheet, Line: csvErr.Line, Err: csvErr.Err}
			}
			return &ParseError{Sheet: sheet, Err: err}
		}
		line, _ := reader.FieldPos(0)

		r := record{columns: columns, fields: fields}
		if r.blank() {
			continue
		}
		fn(line, r)
	}

	return nil
}

// ParseProtocols reads the protocol sheet
func ParseProtocols(input io.Reader, delimiter rune) ([]entities.ProtocolRow, error) {
	rows := make([]entities.ProtocolRow, 0)
	lineCount := 0
	skippedMissingProtocol := 0

	err := readTable(SheetProtocols, input, delimiter, requiredProtocolColumns, func(line int, r record) {
		lineCount++

		protocol := strings.TrimSpace(r.get(colProtocol))
		if protocol == "" {
			skippedMissingProtocol++
			logging.Debug("Skipping protocol row without name", "line", line)
			return
		}

		cycles := strings.TrimSpace(r.get(colCycles))
		if cycles == "" {
			cycles = strings.TrimSpace(r.get(colCycle))
		}

		subtypeRaw := r.get(colSubtype)
		rows = append(rows, entities.ProtocolRow{
			Protocol:            protocol,
			ProtocolKey:         strings.ToUpper(protocol),
			Subtype:             entities.ParseSubtype(subtypeRaw),
			SubtypeRaw:          strings.TrimSpace(subtypeRaw),
			Days:                strings.TrimSpace(r.get(colDays)),
			Medication:          strings.TrimSpace(r.get(colMedication)),
			Dose:                strings.TrimSpace(r.get(colDose)),
			Route:               strings.TrimSpace(r.get(colRoute)),
			InfusionTime:        strings.TrimSpace(r.get(colInfusionTime)),
			Cycles:              cycles,
			AssociatedDiagnosis: strings.TrimSpace(r.get(colAssociatedDiagnosis)),
			EmetogenicPotential: strings.TrimSpace(r.get(colEmetogenicPotential)),
		})
	})
	if err != nil {
		return nil, err
	}

	// Log skip statistics if any lines were skipped
	if skippedMissingProtocol > 0 {
		logging.Info("Protocol sheet skip statistics",
			"missing_protocol", skippedMissingProtocol,
			"total_lines", lineCount,
			"records_parsed", len(rows))
	}

	logging.Debug("Protocol sheet conversion completed", "records_count", len(rows))
	return rows, nil
}

// ParseCIDs reads the CID sheet
func ParseCIDs(input io.Reader, delimiter rune) ([]entities.CID, error) {
	cids := make([]entities.CID, 0)
	lineCount := 0
	skippedMissingCode := 0

	err := readTable(SheetCIDs, input, delimiter, requiredCIDColumns, func(line int, r record) {
		lineCount++

		code := strings.TrimSpace(r.get(colCIDCode))
		if code == "" {
			skippedMissingCode++
			logging.Debug("Skipping CID row without code", "line", line)
			return
		}

		cids = append(cids, entities.CID{
			Code:    code,
			Meaning: strings.TrimSpace(r.get(colCIDMeaning)),
		})
	})
	if err != nil {
		return nil, err
	}

	if skippedMissingCode > 0 {
		logging.Info("CID sheet skip statistics",
			"missing_code", skippedMissingCode,
			"total_lines", lineCount,
			"records_parsed", len(cids))
	}

	logging.Debug("CID sheet conversion completed", "records_count", len(cids))
	return cids, nil
}
