package handlers

import (
	"time"

	"github.com/giygas/protocolos-api/catalog"
	"github.com/giygas/protocolos-api/interfaces"
	"github.com/giygas/protocolos-api/protocolparser/entities"
)

// ============================================================================
// MOCK DATA STORE
// ============================================================================

// MockDataStore is a hand-written DataStore for handler tests
type MockDataStore struct {
	rows        []entities.ProtocolRow
	index       map[string][]entities.ProtocolRow
	names       []string
	cids        []entities.CID
	lastUpdated time.Time
	updating    bool
}

func (m *MockDataStore) GetProtocolRows() []entities.ProtocolRow { return m.rows }
func (m *MockDataStore) GetProtocolIndex() map[string][]entities.ProtocolRow {
	return m.index
}
func (m *MockDataStore) GetProtocolNames() []string    { return m.names }
func (m *MockDataStore) GetCIDs() []entities.CID       { return m.cids }
func (m *MockDataStore) GetLastUpdated() time.Time     { return m.lastUpdated }
func (m *MockDataStore) IsUpdating() bool              { return m.updating }
func (m *MockDataStore) IsReady() bool                 { return !m.lastUpdated.IsZero() && len(m.rows) > 0 }
func (m *MockDataStore) GetServerStartTime() time.Time { return time.Time{} }
func (m *MockDataStore) GetDataQualityReport() *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}
func (m *MockDataStore) UpdateData(rows []entities.ProtocolRow, index map[string][]entities.ProtocolRow,
	names []string, cids []entities.CID, _ *interfaces.DataQualityReport) {
	m.rows, m.index, m.names, m.cids = rows, index, names, cids
	m.lastUpdated = time.Now()
}
func (m *MockDataStore) BeginUpdate() bool { return true }
func (m *MockDataStore) EndUpdate()        {}

// MockDataStoreBuilder assembles a MockDataStore with derived index and names
type MockDataStoreBuilder struct {
	rows  []entities.ProtocolRow
	cids  []entities.CID
	empty bool
}

func NewMockDataStoreBuilder() *MockDataStoreBuilder {
	return &MockDataStoreBuilder{rows: sampleRows(), cids: sampleCIDs()}
}

func (b *MockDataStoreBuilder) WithRows(rows []entities.ProtocolRow) *MockDataStoreBuilder {
	b.rows = rows
	return b
}

// Empty builds a store that never completed a load
func (b *MockDataStoreBuilder) Empty() *MockDataStoreBuilder {
	b.empty = true
	return b
}

func (b *MockDataStoreBuilder) Build() *MockDataStore {
	store := &MockDataStore{index: map[string][]entities.ProtocolRow{}, names: []string{}}
	if b.empty {
		return store
	}
	store.UpdateData(b.rows, catalog.Index(b.rows), catalog.Names(b.rows), b.cids, nil)
	return store
}

// ============================================================================
// MOCK HEALTH CHECKER
// ============================================================================

type MockHealthChecker struct {
	status     string
	data       map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.data, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time { return time.Time{} }

// ============================================================================
// TEST DATA
// ============================================================================

func protocolRow(protocol string, subtype entities.Subtype, days, medication, doseText string) entities.ProtocolRow {
	return entities.ProtocolRow{
		Protocol:            protocol,
		ProtocolKey:         catalog.Key(protocol),
		Subtype:             subtype,
		Days:                days,
		Medication:          medication,
		Dose:                doseText,
		Route:               "EV",
		Cycles:              "6 ciclos",
		AssociatedDiagnosis: "Câncer de mama",
		EmetogenicPotential: "Alto",
	}
}

func sampleRows() []entities.ProtocolRow {
	return []entities.ProtocolRow{
		protocolRow("AC", entities.SubtypePreMedication, "D1", "Ondansetrona", "8 mg"),
		protocolRow("AC", entities.SubtypeTreatment, "D1", "Doxorrubicina", "60 mg/m2"),
		protocolRow("AC", entities.SubtypeTreatment, "D1", "Ciclofosfamida", "600 mg/m2"),
		protocolRow("Paclitaxel Semanal", entities.SubtypeTreatment, "D1,D8,D15", "Paclitaxel", "80 mg/m²"),
		protocolRow("Cisplatina", entities.SubtypeTreatment, "D1", "Cisplatina", "AUC 5"),
		protocolRow("Cisplatina", entities.SubtypeUnspecified, "D1", "Manitol", ""),
	}
}

func sampleCIDs() []entities.CID {
	return []entities.CID{
		{Code: "C50", Meaning: "Neoplasia maligna da mama"},
		{Code: "C50.9", Meaning: "Mama, não especificada"},
		{Code: "C18", Meaning: "Neoplasia maligna do cólon"},
		{Code: "C34", Meaning: "Neoplasia maligna dos brônquios e dos pulmões"},
	}
}
