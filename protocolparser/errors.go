package protocolparser

import (
	"errors"
	"fmt"
)

// ErrURLNotConfigured is returned when a sheet URL is empty or still the template placeholder
var ErrURLNotConfigured = errors.New("sheet URL not configured")

// LoadError reports a failure to retrieve a sheet
type LoadError struct {
	Sheet      string
	URL        string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to download %s sheet from %s: HTTP %d", e.Sheet, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to download %s sheet from %s: %v", e.Sheet, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ParseError reports a sheet that was retrieved but cannot be read as a table
type ParseError struct {
	Sheet string
	Line  int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s sheet at line %d: %v", e.Sheet, e.Line, e.Err)
	}
	return fmt.Sprintf("failed to parse %s sheet: %v", e.Sheet, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
