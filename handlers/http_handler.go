// Package handlers provides HTTP request handlers for the protocols API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/protocolos-api/catalog"
	"github.com/giygas/protocolos-api/dose"
	"github.com/giygas/protocolos-api/interfaces"
	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/metrics"
	"github.com/giygas/protocolos-api/patient"
	"github.com/giygas/protocolos-api/prescription"
	"github.com/giygas/protocolos-api/protocolparser/entities"
	"github.com/giygas/protocolos-api/schedule"
	"github.com/giygas/protocolos-api/validation"
	"github.com/go-chi/chi/v5"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler interface
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

const (
	maxSuggestionLimit = 50
	maxScheduleRows    = 200
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	today         func() schedule.Date
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator,
	healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
		today:         schedule.Today,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if lastUpdated := h.dataStore.GetLastUpdated(); !lastUpdated.IsZero() {
		w.Header().Set("Last-Modified", lastUpdated.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// requireData answers 503 until the first load succeeded
func (h *HTTPHandlerImpl) requireData(w http.ResponseWriter) bool {
	if h.dataStore.IsReady() {
		return true
	}
	w.Header().Set("Retry-After", "30")
	h.RespondWithError(w, http.StatusServiceUnavailable, "Protocol data is still loading")
	return false
}

// parseLimit reads the optional "limit" query parameter
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return catalog.DefaultSuggestionLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxSuggestionLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxSuggestionLimit)
	}
	return limit, nil
}

// ListProtocols returns every protocol name, or suggestions when q is set
func (h *HTTPHandlerImpl) ListProtocols(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w) {
		return
	}

	names := h.dataStore.GetProtocolNames()
	query := r.URL.Query().Get("q")

	if query == "" {
		h.RespondWithJSON(w, http.StatusOK, map[string]any{
			"protocols": names,
			"count":     len(names),
		})
		return
	}

	if err := h.validator.ValidateInput(query); err != nil {
		logging.Warn("Unusual user input", "q", query)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions := catalog.SuggestProtocols(names, query, limit)
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"query":     query,
		"protocols": suggestions,
		"count":     len(suggestions),
	})
}

// protocolResponse is the detail of one protocol
type protocolResponse struct {
	Summary       catalog.Summary        `json:"summary"`
	PreMedication []entities.ProtocolRow `json:"preMedication"`
	Treatment     []entities.ProtocolRow `json:"treatment"`
	Unspecified   int                    `json:"unspecifiedRows"`
}

// GetProtocol returns the summary and rows of one protocol
func (h *HTTPHandlerImpl) GetProtocol(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w) {
		return
	}

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid protocol name")
		return
	}

	// Names are matched exactly against the index, any character of a listed name is accepted
	rows, exists := h.dataStore.GetProtocolIndex()[catalog.Key(name)]
	if !exists || len(rows) == 0 {
		h.RespondWithError(w, http.StatusNotFound, "Protocol not found")
		return
	}

	pre, treatment := catalog.Split(rows)
	h.RespondWithJSON(w, http.StatusOK, protocolResponse{
		Summary:       catalog.Summarize(rows),
		PreMedication: pre,
		Treatment:     treatment,
		Unspecified:   len(rows) - len(pre) - len(treatment),
	})
}

// SearchCIDs returns CID suggestions for q
func (h *HTTPHandlerImpl) SearchCIDs(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w) {
		return
	}

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) != "" {
		if err := h.validator.ValidateInput(query); err != nil {
			logging.Warn("Unusual user input", "q", query)
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	limit, err := parseLimit(r)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Short queries give an empty list, the search box waits for more input
	results := catalog.SearchCIDs(h.dataStore.GetCIDs(), query, limit)
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// decodeJSON reads a single JSON object from the request body
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if decoder.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// CreatePrescription builds a complete prescription for one cycle
func (h *HTTPHandlerImpl) CreatePrescription(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w) {
		return
	}

	var req prescription.Request
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validator.ValidatePrescriptionRequest(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := h.dataStore.GetProtocolIndex()[catalog.Key(req.Protocol)]
	p, err := prescription.Build(req, rows, h.today())
	if err != nil {
		switch {
		case errors.Is(err, prescription.ErrProtocolNotFound):
			h.RespondWithError(w, http.StatusNotFound, "Protocol not found")
		case errors.Is(err, patient.ErrInvalidMeasurement),
			errors.Is(err, prescription.ErrMissingCycleStart),
			errors.Is(err, prescription.ErrMissingProtocol):
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			logging.Error("Failed to build prescription", "error", err, "protocol", req.Protocol)
			h.RespondWithError(w, http.StatusInternalServerError, "Failed to build prescription")
		}
		return
	}

	metrics.ObserveSchedule("prescription", len(p.PreMedication), len(p.Treatment))
	logging.Debug("Prescription built", "id", p.ID, "protocol", p.Protocol.Name, "entries", p.EntryCount())

	h.RespondWithJSON(w, http.StatusOK, p.View())
}

// scheduleRow is one row submitted to the schedule engine
type scheduleRow struct {
	Days         string `json:"days"`
	Medication   string `json:"medication"`
	Dose         string `json:"dose"`
	Route        string `json:"route"`
	InfusionTime string `json:"infusionTime"`
	Cycles       string `json:"cycles"`
}

// scheduleRequest gives direct access to the schedule engine.
// bsa may be replaced by weightKg and heightCm.
type scheduleRequest struct {
	Rows       []scheduleRow `json:"rows"`
	BSA        float64       `json:"bsa"`
	WeightKg   float64       `json:"weightKg"`
	HeightCm   float64       `json:"heightCm"`
	CycleStart schedule.Date `json:"cycleStart"`
	ScaleByBSA bool          `json:"scaleByBsa"`
}

// BuildSchedule expands arbitrary rows into administration entries
func (h *HTTPHandlerImpl) BuildSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Rows) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "rows are required")
		return
	}
	if len(req.Rows) > maxScheduleRows {
		h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("too many rows: maximum %d", maxScheduleRows))
		return
	}
	if req.CycleStart.IsZero() {
		h.RespondWithError(w, http.StatusBadRequest, "cycleStart is required")
		return
	}

	bsa := req.BSA
	if bsa == 0 && (req.WeightKg != 0 || req.HeightCm != 0) {
		computed, err := patient.BSA(req.WeightKg, req.HeightCm)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		bsa = computed
	}
	if req.BSA != 0 && (req.BSA < 0 || req.BSA > validation.MaxBSA) {
		h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("bsa must be between 0 and %g", validation.MaxBSA))
		return
	}
	if req.ScaleByBSA && !(bsa > 0) {
		h.RespondWithError(w, http.StatusBadRequest, "bsa, or weightKg and heightCm, is required to scale doses")
		return
	}

	rows := make([]entities.ProtocolRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, entities.ProtocolRow{
			Days:         row.Days,
			Medication:   row.Medication,
			Dose:         row.Dose,
			Route:        row.Route,
			InfusionTime: row.InfusionTime,
			Cycles:       row.Cycles,
		})
	}

	entries := schedule.Build(rows, schedule.Options{
		BSA:        bsa,
		CycleStart: req.CycleStart,
		ScaleByBSA: req.ScaleByBSA,
	})

	group := "pre_medication"
	if req.ScaleByBSA {
		group = "treatment"
	}
	metrics.SchedulesBuiltTotal.WithLabelValues("schedule").Inc()
	metrics.ScheduleEntriesTotal.WithLabelValues(group).Add(float64(len(entries)))

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"bsa":     dose.Round2(bsa),
		"entries": prescription.ViewEntries(entries),
		"count":   len(entries),
	})
}

// parseMeasurement reads a positive query value no larger than max
func parseMeasurement(r *http.Request, name string, max float64) (float64, error) {
	raw := strings.Replace(r.URL.Query().Get(name), ",", ".", 1)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || !(value > 0) || value > max {
		return 0, fmt.Errorf("%s must be a number in (0, %g]", name, max)
	}
	return value, nil
}

// ComputeBSA returns the body surface area for weight (kg) and height (cm)
func (h *HTTPHandlerImpl) ComputeBSA(w http.ResponseWriter, r *http.Request) {
	weight, err := parseMeasurement(r, "weight", validation.MaxWeightKg)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	height, err := parseMeasurement(r, "height", validation.MaxHeightCm)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	bsa, err := patient.BSA(weight, height)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"weightKg": weight,
		"heightCm": height,
		"bsa":      dose.Round2(bsa),
		"display":  prescription.FormatBSA(bsa),
	})
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()

	h.RespondWithJSON(w, httpStatus, map[string]any{
		"status":    status,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
