// Package protocolparser provides functionality for downloading and parsing the
// protocol and CID reference sheets published as CSV.
package protocolparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/protocolos-api/logging"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/text/encoding/charmap"
)

// urlPlaceholder is left in the sheet URLs of a fresh deployment template
const urlPlaceholder = "COLE_AQUI"

// maxSheetSize caps a downloaded sheet; the published tables are a few hundred KB
const maxSheetSize = 32 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// retryLogger routes retryablehttp messages to the application logger
type retryLogger struct{}

func (retryLogger) Error(msg string, keysAndValues ...any) { logging.Error(msg, keysAndValues...) }
func (retryLogger) Info(msg string, keysAndValues ...any)  { logging.Debug(msg, keysAndValues...) }
func (retryLogger) Debug(msg string, keysAndValues ...any) { logging.Debug(msg, keysAndValues...) }
func (retryLogger) Warn(msg string, keysAndValues ...any)  { logging.Warn(msg, keysAndValues...) }

// newHTTPClient builds the retrying client used for sheet downloads
func newHTTPClient(timeout time.Duration, retryMax int) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 10 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = retryLogger{}
	return client
}

// checkURL rejects empty URLs and unfilled template placeholders
func checkURL(url string) error {
	if strings.TrimSpace(url) == "" || strings.Contains(url, urlPlaceholder) {
		return ErrURLNotConfigured
	}
	return nil
}

// download fetches a sheet and returns its content as UTF-8
func download(ctx context.Context, client *retryablehttp.Client, sheet, url string) ([]byte, error) {
	if err := checkURL(url); err != nil {
		return nil, &LoadError{Sheet: sheet, URL: url, Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &LoadError{Sheet: sheet, URL: url, Err: err}
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	response, err := client.Do(req)
	if err != nil {
		return nil, &LoadError{Sheet: sheet, URL: url, Err: err}
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &LoadError{Sheet: sheet, URL: url, StatusCode: response.StatusCode}
	}

	// Sheets exported by older tools come in Windows-1252, read the whole body first
	bodyBytes, err := io.ReadAll(io.LimitReader(response.Body, maxSheetSize+1))
	if err != nil {
		return nil, &LoadError{Sheet: sheet, URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if len(bodyBytes) > maxSheetSize {
		return nil, &LoadError{Sheet: sheet, URL: url, Err: fmt.Errorf("sheet larger than %d bytes", maxSheetSize)}
	}

	content, err := toUTF8(bodyBytes)
	if err != nil {
		return nil, &ParseError{Sheet: sheet, Err: err}
	}

	logging.Debug(fmt.Sprintf("%s sheet downloaded without errors", sheet), "bytes", len(content))
	return content, nil
}

// toUTF8 strips a UTF-8 BOM, or decodes Windows-1252 when the content is not valid UTF-8
func toUTF8(content []byte) ([]byte, error) {
	if utf8.Valid(content) {
		return bytes.TrimPrefix(content, utf8BOM), nil
	}

	decoded, err := io.ReadAll(charmap.Windows1252.NewDecoder().Reader(bytes.NewReader(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode Windows-1252 content: %w", err)
	}
	return decoded, nil
}
