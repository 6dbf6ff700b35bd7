package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// filePrefix names every log file: protocolos-2026-W07.log, protocolos-2026-W07_01.log
const filePrefix = "protocolos-"

var numberedFilePattern = regexp.MustCompile(`^` + filePrefix + `\d{4}-W\d{2}_(\d{2})\.log$`)

// closeTimeout bounds how long Close waits for the cleanup goroutine
var closeTimeout = 5 * time.Second

// RotatingLogger manages rotating log files with weekly retention
type RotatingLogger struct {
	logDir      string
	currentFile *os.File
	currentWeek string
	retention   time.Duration
	maxFileSize int64
	currentSize atomic.Int64
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupOnce sync.Once
	cleanupDone chan struct{}
	started     atomic.Bool
}

// NewRotatingLogger creates a new rotating logger instance
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxFileSize)
}

// NewRotatingLoggerWithSizeLimit creates a new rotating logger with custom size limit.
// A maxFileSize of 0 disables size based rotation.
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// getWeekKey returns the week key in YYYY-Www format (ISO week)
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// doRotate switches to the file for targetWeek (caller must hold the lock)
func (rl *RotatingLogger) doRotate(targetWeek string) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rl.currentFile = nil
	}

	isSizeRotation := rl.maxFileSize > 0 && rl.currentWeek == targetWeek && rl.currentSize.Load() >= rl.maxFileSize
	fileName, fresh := rl.pickLogFile(targetWeek, isSizeRotation)

	logPath := filepath.Join(rl.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentWeek = targetWeek
	rl.currentSize.Store(0)

	if !fresh {
		if info, err := file.Stat(); err == nil {
			rl.currentSize.Store(info.Size())
		}
	}

	return nil
}

// pickLogFile returns the file to append to for targetWeek and whether it is new
func (rl *RotatingLogger) pickLogFile(targetWeek string, isSizeRotation bool) (string, bool) {
	highestNum, lastPath, lastSize := rl.highestNumberedFile(targetWeek)
	next := fmt.Sprintf("%s%s_%02d.log", filePrefix, targetWeek, highestNum+1)

	if isSizeRotation {
		return next, true
	}

	baseFileName := filePrefix + targetWeek + ".log"
	info, err := os.Stat(filepath.Join(rl.logDir, baseFileName))
	if err != nil {
		return baseFileName, true
	}
	if rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
		if lastPath == "" {
			return baseFileName, false
		}
	}

	if lastPath != "" && lastSize < rl.maxFileSize {
		return filepath.Base(lastPath), false
	}

	return next, true
}

// highestNumberedFile finds the size-rotated file with the highest sequence number
func (rl *RotatingLogger) highestNumberedFile(targetWeek string) (int, string, int64) {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, filePrefix+targetWeek+"_??.log"))

	highestNum := 0
	var lastPath string
	var lastSize int64

	for _, match := range matches {
		groups := numberedFilePattern.FindStringSubmatch(filepath.Base(match))
		if len(groups) < 2 {
			continue
		}
		num, _ := strconv.Atoi(groups[1])
		if num <= highestNum {
			continue
		}

		highestNum = num
		lastPath = match
		lastSize = 0
		if info, err := os.Stat(match); err == nil {
			lastSize = info.Size()
		}
	}

	return highestNum, lastPath, lastSize
}

// Write writes data to the current log file, rotating by week and size
func (rl *RotatingLogger) Write(p []byte) (n int, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	currentWeek := getWeekKey(time.Now())
	needsRotation := rl.currentFile == nil || rl.currentWeek != currentWeek

	if rl.maxFileSize > 0 && !needsRotation {
		size := rl.currentSize.Load()
		if size > 0 && size+int64(len(p)) > rl.maxFileSize {
			needsRotation = true
			rl.currentSize.Store(rl.maxFileSize)
		}
	}

	if needsRotation {
		if err = rl.doRotate(currentWeek); err != nil {
			return 0, err
		}
	}

	n, err = rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// cleanupOldLogs removes log files older than the retention period
func (rl *RotatingLogger) cleanupOldLogs() error {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
				deleted++
			}
		}
	}

	if deleted > 0 {
		// Console only, the file handler may be the one being cleaned
		fmt.Printf("Cleaned up %d old log files\n", deleted)
	}

	return nil
}

// startCleanup runs cleanupOldLogs once a day until Close
func (rl *RotatingLogger) startCleanup() {
	if !rl.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		defer close(rl.cleanupDone)

		for {
			select {
			case <-rl.ctx.Done():
				return
			case <-ticker.C:
				if err := rl.cleanupOldLogs(); err != nil {
					slog.Warn("Failed to cleanup old logs", "error", err)
				}
			}
		}
	}()
}

// Close stops background cleanup and closes the current file
func (rl *RotatingLogger) Close() error {
	rl.cleanupOnce.Do(func() {
		rl.cancel()
		if !rl.started.Load() {
			return
		}
		select {
		case <-rl.cleanupDone:
		case <-time.After(closeTimeout):
			fmt.Println("Warning: log cleanup goroutine did not stop in time")
		}
	})

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}

// setupLogger builds a logger writing text to the console and JSON to a
// rotating file. Without a usable logDir it logs to the console only.
func setupLogger(logDir string, consoleLevel slog.Level, retentionWeeks int, maxFileSize int64) (*slog.Logger, *RotatingLogger) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: consoleLevel,
	})

	if logDir == "" {
		return slog.New(consoleHandler), nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to create logs directory", "error", err)
		return logger, nil
	}

	if retentionWeeks <= 0 {
		retentionWeeks = defaultRetentionWeeks
	}

	rotating := NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, maxFileSize)

	rotating.mu.Lock()
	rotateErr := rotating.doRotate(getWeekKey(time.Now()))
	rotating.mu.Unlock()
	if rotateErr != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize rotating logger", "error", rotateErr)
		return logger, nil
	}

	rotating.startCleanup()

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
		Level: GetFileLogLevel(),
	})

	return slog.New(&multiHandler{
		handlers: []slog.Handler{consoleHandler, fileHandler},
	}), rotating
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		// A failing file must not silence the console
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
