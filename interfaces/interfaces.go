// Package interfaces defines core abstractions for the protocols API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/protocolos-api/prescription"
	"github.com/giygas/protocolos-api/protocolparser/entities"
)

// DataQualityReport provides a summary of data quality issues found in the sheets
type DataQualityReport struct {
	ProtocolsWithoutTreatment   []string // Protocols that only have PRE-QT (or untyped) rows
	RowsWithUnspecifiedSubtype  int      // Rows whose "tipo" is neither PRE-QT nor QT
	UnspecifiedSubtypeProtocols []string
	RowsWithoutDays             int // Rows whose day expression yields no administration day
	RowsWithoutDaysProtocols    []string
	RowsWithUnparseableDose     int // Treatment rows whose dose has no leading number
	UnparseableDoseProtocols    []string
	ConflictingProtocolInfo     []string // Protocols whose rows disagree on diagnosis or emetogenic potential
	DuplicateCIDCodes           []string
}

// DataStore defines the contract for data storage operations.
// It provides thread-safe access to the reference tables
// with atomic operations for zero-downtime updates.
type DataStore interface {
	// Data retrieval methods
	GetProtocolRows() []entities.ProtocolRow
	GetProtocolIndex() map[string][]entities.ProtocolRow
	GetProtocolNames() []string
	GetCIDs() []entities.CID
	GetLastUpdated() time.Time
	IsUpdating() bool
	IsReady() bool
	GetServerStartTime() time.Time
	GetDataQualityReport() *DataQualityReport

	// Data update methods
	UpdateData(rows []entities.ProtocolRow, index map[string][]entities.ProtocolRow,
		names []string, cids []entities.CID, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for loading the reference tables from external sources.
// It handles downloading, decoding and transforming raw sheets into structured entities.
type Parser interface {
	// ParseAll downloads and parses the protocol and CID sheets
	ParseAll(ctx context.Context) (*entities.Tables, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated data updates and system health checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()

	// NextRun returns the time of the next scheduled refresh
	NextRun() time.Time
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	ListProtocols(w http.ResponseWriter, r *http.Request)
	GetProtocol(w http.ResponseWriter, r *http.Request)
	SearchCIDs(w http.ResponseWriter, r *http.Request)
	CreatePrescription(w http.ResponseWriter, r *http.Request)
	BuildSchedule(w http.ResponseWriter, r *http.Request)
	ComputeBSA(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled update time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
// It ensures data integrity and consistency.
type DataValidator interface {
	// ValidateProtocolRow checks if a protocol row is usable
	ValidateProtocolRow(row *entities.ProtocolRow) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(rows []entities.ProtocolRow, cids []entities.CID) *DataQualityReport

	// ValidateInput validates user search strings
	ValidateInput(input string) error

	// ValidatePrescriptionRequest validates a prescription request before building it
	ValidatePrescriptionRequest(req *prescription.Request) error
}
