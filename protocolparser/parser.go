package protocolparser

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/giygas/protocolos-api/interfaces"
	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/metrics"
	"github.com/giygas/protocolos-api/protocolparser/entities"
	"github.com/hashicorp/go-retryablehttp"
)

// Compile-time check to ensure ProtocolParser implements Parser interface
var _ interfaces.Parser = (*ProtocolParser)(nil)

// Options configures where and how the sheets are fetched
type Options struct {
	ProtocolsURL string
	CIDsURL      string
	Delimiter    rune
	Timeout      time.Duration
	RetryMax     int
}

// ProtocolParser implements the Parser interface
type ProtocolParser struct {
	opts   Options
	client *retryablehttp.Client
}

// NewProtocolParser creates a new ProtocolParser instance
func NewProtocolParser(opts Options) *ProtocolParser {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}

	return &ProtocolParser{
		opts:   opts,
		client: newHTTPClient(opts.Timeout, opts.RetryMax),
	}
}

// ParseAll downloads both sheets concurrently and parses them.
// The load succeeds only if both sheets are usable.
func (p *ProtocolParser) ParseAll(ctx context.Context) (*entities.Tables, error) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		errs      []error
		protocols []entities.ProtocolRow
		cids      []entities.CID
	)

	record := func(sheet string, err error) {
		if err != nil {
			metrics.SheetLoadsTotal.WithLabelValues(sheet, "error").Inc()
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return
		}
		metrics.SheetLoadsTotal.WithLabelValues(sheet, "success").Inc()
	}

	wg.Add(2)

	go func() {
		defer wg.Done()
		rows, err := p.loadProtocols(ctx)
		if err == nil {
			protocols = rows
		}
		record(SheetProtocols, err)
	}()

	go func() {
		defer wg.Done()
		rows, err := p.loadCIDs(ctx)
		if err == nil {
			cids = rows
		}
		record(SheetCIDs, err)
	}()

	wg.Wait()

	if len(errs) > 0 {
		logging.Error("Sheet load errors occurred", "errors", errs)
		return nil, errors.Join(errs...)
	}

	metrics.SheetRows.WithLabelValues(SheetProtocols).Set(float64(len(protocols)))
	metrics.SheetRows.WithLabelValues(SheetCIDs).Set(float64(len(cids)))

	logging.Info("Reference sheets parsed successfully",
		"protocol_rows", len(protocols),
		"cids", len(cids))

	return &entities.Tables{Protocols: protocols, CIDs: cids}, nil
}

func (p *ProtocolParser) loadProtocols(ctx context.Context) ([]entities.ProtocolRow, error) {
	content, err := download(ctx, p.client, SheetProtocols, p.opts.ProtocolsURL)
	if err != nil {
		return nil, err
	}
	return ParseProtocols(bytes.NewReader(content), p.opts.Delimiter)
}

func (p *ProtocolParser) loadCIDs(ctx context.Context) ([]entities.CID, error) {
	content, err := download(ctx, p.client, SheetCIDs, p.opts.CIDsURL)
	if err != nil {
		return nil, err
	}
	return ParseCIDs(bytes.NewReader(content), p.opts.Delimiter)
}
