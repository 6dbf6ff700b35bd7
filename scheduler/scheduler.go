// Package scheduler loads the reference sheets at startup, refreshes them at
// fixed times of day and warns when the data goes stale.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/protocolos-api/catalog"
	"github.com/giygas/protocolos-api/interfaces"
	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/protocolparser/entities"
	"github.com/giygas/protocolos-api/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// ErrEmptyProtocolSheet is returned when a load yields no protocol rows.
// The previous tables are kept.
var ErrEmptyProtocolSheet = errors.New("protocol sheet has no rows")

const (
	defaultLoadTimeout     = 5 * time.Minute
	defaultMonitorInterval = time.Hour
	defaultStaleAfter      = 25 * time.Hour
	maxLoggedInvalidRows   = 20
)

// Scheduler handles data updates and staleness monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	validator interfaces.DataValidator
	scheduler *gocron.Scheduler
	refreshAt string

	loadTimeout     time.Duration
	monitorInterval time.Duration
	staleAfter      time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new scheduler. refreshAt is a gocron At() list such as "06:00;18:00".
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, refreshAt string) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	// A slow download must not overlap with the next refresh
	s.SingletonModeAll()

	return &Scheduler{
		dataStore:       dataStore,
		parser:          parser,
		validator:       validation.NewDataValidator(),
		scheduler:       s,
		refreshAt:       refreshAt,
		loadTimeout:     defaultLoadTimeout,
		monitorInterval: defaultMonitorInterval,
		staleAfter:      defaultStaleAfter,
		stop:            make(chan struct{}),
	}
}

// Start performs the initial load, then schedules the refreshes
func (s *Scheduler) Start() error {
	if err := s.Refresh(context.Background()); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.refreshAt).Do(func() {
		if err := s.Refresh(context.Background()); err != nil {
			logging.Error("Failed to update data, keeping previous tables", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule updates", "error", err, "refresh_at", s.refreshAt)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()
	s.startStalenessMonitor()

	logging.Info("Data refresh scheduled", "refresh_at", s.refreshAt, "next_run", s.NextRun())
	return nil
}

// Stop stops the scheduler and the staleness monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

// NextRun returns the time of the next scheduled refresh, zero if none is scheduled
func (s *Scheduler) NextRun() time.Time {
	if len(s.scheduler.Jobs()) == 0 {
		return time.Time{}
	}
	_, next := s.scheduler.NextRun()
	return next
}

// Refresh downloads and parses both sheets and swaps them into the data store.
// On any failure the previous tables stay in place.
func (s *Scheduler) Refresh(ctx context.Context) error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	logging.Info(fmt.Sprintf("Starting reference data update at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	tables, err := s.parser.ParseAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reference sheets: %w", err)
	}
	if len(tables.Protocols) == 0 {
		return ErrEmptyProtocolSheet
	}

	s.logInvalidRows(tables)

	report := s.validator.ReportDataQuality(tables.Protocols, tables.CIDs)
	logQualityReport(report)

	s.dataStore.UpdateData(
		tables.Protocols,
		catalog.Index(tables.Protocols),
		catalog.Names(tables.Protocols),
		tables.CIDs,
		report,
	)

	logging.Info("Reference data update completed",
		"duration", time.Since(start).String(),
		"protocol_rows", len(tables.Protocols),
		"protocols", len(s.dataStore.GetProtocolNames()),
		"cids", len(tables.CIDs))

	return nil
}

// logInvalidRows reports rows that cannot produce a schedule entry. They are
// kept: the schedule engine degrades on them instead of failing.
func (s *Scheduler) logInvalidRows(tables *entities.Tables) {
	invalid := 0
	for i := range tables.Protocols {
		if err := s.validator.ValidateProtocolRow(&tables.Protocols[i]); err != nil {
			invalid++
			if invalid <= maxLoggedInvalidRows {
				logging.Debug("Protocol row will degrade in schedules", "error", err)
			}
		}
	}
	if invalid > 0 {
		logging.Warn("Protocol rows with problems", "count", invalid, "total", len(tables.Protocols))
	}
}

func logQualityReport(report *interfaces.DataQualityReport) {
	if len(report.ProtocolsWithoutTreatment) > 0 {
		logging.Warn("Protocols without treatment rows",
			"count", len(report.ProtocolsWithoutTreatment),
			"protocols", report.ProtocolsWithoutTreatment)
	}

	if report.RowsWithUnspecifiedSubtype > 0 {
		logging.Warn("Rows with a type other than PRE-QT or QT",
			"count", report.RowsWithUnspecifiedSubtype,
			"protocols", report.UnspecifiedSubtypeProtocols)
	}

	if report.RowsWithoutDays > 0 {
		logging.Warn("Rows whose day expression yields no day",
			"count", report.RowsWithoutDays,
			"protocols", report.RowsWithoutDaysProtocols)
	}

	if report.RowsWithUnparseableDose > 0 {
		logging.Info("Treatment rows with non numeric doses, shown as written",
			"count", report.RowsWithUnparseableDose,
			"protocols", report.UnparseableDoseProtocols)
	}

	if len(report.ConflictingProtocolInfo) > 0 {
		logging.Warn("Protocols with conflicting diagnosis or emetogenic potential",
			"count", len(report.ConflictingProtocolInfo),
			"protocols", report.ConflictingProtocolInfo)
	}
}

// startStalenessMonitor warns when no refresh succeeded for staleAfter
func (s *Scheduler) startStalenessMonitor() {
	go func() {
		ticker := time.NewTicker(s.monitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStaleness(time.Now())
			}
		}
	}()
}

// checkStaleness reports whether the data is older than staleAfter, logging a warning if so
func (s *Scheduler) checkStaleness(now time.Time) bool {
	lastUpdate := s.dataStore.GetLastUpdated()
	if lastUpdate.IsZero() || now.Sub(lastUpdate) <= s.staleAfter {
		return false
	}
	logging.Warn(fmt.Sprintf("Reference data hasn't been updated in over %s", s.staleAfter),
		"last_updated", lastUpdate.Format(time.RFC3339))
	return true
}
