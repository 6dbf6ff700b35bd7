// Package data provides thread-safe storage for the protocol and CID tables.
// The DataContainer swaps whole snapshots atomically so readers never see a
// half-applied refresh.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/protocolos-api/interfaces"
	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/protocolparser/entities"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// snapshot is one consistent generation of the reference tables
type snapshot struct {
	rows    []entities.ProtocolRow
	index   map[string][]entities.ProtocolRow
	names   []string
	cids    []entities.CID
	report  *interfaces.DataQualityReport
	updated time.Time
}

// DataContainer holds the reference tables behind an atomic pointer for zero-downtime updates
type DataContainer struct {
	current         atomic.Pointer[snapshot]
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(&snapshot{
		rows:   make([]entities.ProtocolRow, 0),
		index:  make(map[string][]entities.ProtocolRow),
		names:  make([]string, 0),
		cids:   make([]entities.CID, 0),
		report: &interfaces.DataQualityReport{},
	})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

func (dc *DataContainer) load() *snapshot {
	if s := dc.current.Load(); s != nil {
		return s
	}
	logging.Warn("Data container used before initialisation")
	return &snapshot{report: &interfaces.DataQualityReport{}}
}

// GetProtocolRows returns every protocol row in sheet order
func (dc *DataContainer) GetProtocolRows() []entities.ProtocolRow {
	return dc.load().rows
}

// GetProtocolIndex returns rows grouped by upper-cased protocol name
func (dc *DataContainer) GetProtocolIndex() map[string][]entities.ProtocolRow {
	return dc.load().index
}

// GetProtocolNames returns the sorted distinct protocol names
func (dc *DataContainer) GetProtocolNames() []string {
	return dc.load().names
}

// GetCIDs returns the diagnosis code table
func (dc *DataContainer) GetCIDs() []entities.CID {
	return dc.load().cids
}

// GetDataQualityReport returns the report computed for the current tables
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	return dc.load().report
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	return dc.load().updated
}

// IsReady reports whether a protocol table has been loaded.
// Search and prescriptions stay disabled until then.
func (dc *DataContainer) IsReady() bool {
	s := dc.load()
	return !s.updated.IsZero() && len(s.rows) > 0
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically replaces all tables. Nil arguments are stored as empty values.
func (dc *DataContainer) UpdateData(rows []entities.ProtocolRow, index map[string][]entities.ProtocolRow,
	names []string, cids []entities.CID, report *interfaces.DataQualityReport) {

	if rows == nil {
		rows = make([]entities.ProtocolRow, 0)
	}
	if index == nil {
		index = make(map[string][]entities.ProtocolRow)
	}
	if names == nil {
		names = make([]string, 0)
	}
	if cids == nil {
		cids = make([]entities.CID, 0)
	}
	if report == nil {
		report = &interfaces.DataQualityReport{}
	}

	dc.current.Store(&snapshot{
		rows:    rows,
		index:   index,
		names:   names,
		cids:    cids,
		report:  report,
		updated: time.Now(),
	})
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
