// Package health provides health checking functionality for the protocols API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/protocolos-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore    interfaces.DataStore
	scheduler    interfaces.Scheduler
	refreshTimes []string
	now          func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// scheduler may be nil, the next update is then derived from refreshTimes ("HH:MM").
func NewHealthChecker(dataStore interfaces.DataStore, scheduler interfaces.Scheduler, refreshTimes []string) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore:    dataStore,
		scheduler:    scheduler,
		refreshTimes: refreshTimes,
		now:          time.Now,
	}
}

// HealthCheck returns HTTP-specific health data
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	names := h.dataStore.GetProtocolNames()
	rows := h.dataStore.GetProtocolRows()
	cids := h.dataStore.GetCIDs()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := h.now().Sub(lastUpdate)

	switch {
	case len(rows) == 0 || len(cids) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"protocols":      len(names),
		"protocol_rows":  len(rows),
		"cids":           len(cids),
		"is_updating":    isUpdating,
	}

	if lastUpdate.IsZero() {
		data["last_update"] = nil
		data["data_age_hours"] = nil
	} else {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
	}

	if next := h.CalculateNextUpdate(); !next.IsZero() {
		data["next_update"] = next.Format(time.RFC3339)
	}

	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = math.Round(h.now().Sub(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled update time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	if h.scheduler != nil {
		if next := h.scheduler.NextRun(); !next.IsZero() {
			return next
		}
	}
	return nextRefresh(h.now(), h.refreshTimes)
}

// nextRefresh returns the earliest HH:MM entry strictly after now, rolling over
// to tomorrow. Malformed entries are skipped.
func nextRefresh(now time.Time, refreshTimes []string) time.Time {
	var next time.Time
	for _, entry := range refreshTimes {
		clock, err := time.Parse("15:04", entry)
		if err != nil {
			continue
		}

		candidate := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}
