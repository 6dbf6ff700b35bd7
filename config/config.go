// Package config loads and validates the application configuration from
// environment variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
)

// Published CSV exports of the reference spreadsheets
const (
	DefaultProtocolsURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vTLn5slgkiJmOpgt9d5l72iqTZzHxJM5U1u-34Jz66scD5kdaqX3eXNyXQLwfKNPtRvon_uf94mFS0G/pub?output=csv"
	DefaultCIDsURL      = "https://docs.google.com/spreadsheets/d/e/2PACX-1vS3Stx61SZrBgOazB4agFfkm5O3sx5tOMpTS2FeA3mif8lgtDZoWCaalUzfKftrWvXCrLBP0Y-1dVrO/pub?output=csv"
	DefaultRefreshAt    = "06:00;18:00"
)

var refreshTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Environment is the deployment environment
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvStaging
	EnvProduction
	EnvTest
)

func (e Environment) String() string {
	switch e {
	case EnvStaging:
		return "staging"
	case EnvProduction:
		return "prod"
	case EnvTest:
		return "test"
	default:
		return "dev"
	}
}

// ParseEnvironment accepts the short and long environment names
func ParseEnvironment(env string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	default:
		return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", env)
	}
}

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	ProtocolsURL    string
	CIDsURL         string
	CSVDelimiter    rune
	DownloadTimeout time.Duration
	DownloadRetries int
	RefreshAt       string // gocron At() list, "HH:MM;HH:MM"

	AllowedOrigins []string // CORS origins, "*" allows any
}

// LoadEnvFile loads variables from a .env file without overriding the
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	delimiter, err := parseDelimiter(getEnvWithDefault("CSV_DELIMITER", ","))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid CSV_DELIMITER: %w", err)
	}

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               env,
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		ProtocolsURL:    getEnvWithDefault("PROTOCOLS_URL", DefaultProtocolsURL),
		CIDsURL:         getEnvWithDefault("CIDS_URL", DefaultCIDsURL),
		CSVDelimiter:    delimiter,
		DownloadTimeout: time.Duration(getIntEnvWithDefault("DOWNLOAD_TIMEOUT_SECONDS", 60)) * time.Second,
		DownloadRetries: getIntEnvWithDefault("DOWNLOAD_RETRIES", 3),
		RefreshAt:       getEnvWithDefault("REFRESH_AT", DefaultRefreshAt),

		AllowedOrigins: splitList(getEnvWithDefault("CORS_ORIGINS", "*")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// RefreshTimes splits RefreshAt into its HH:MM entries
func (c *Config) RefreshTimes() []string {
	return splitRefreshTimes(c.RefreshAt)
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateSheetURL(cfg.ProtocolsURL); err != nil {
		return fmt.Errorf("invalid PROTOCOLS_URL: %w", err)
	}

	if err := validateSheetURL(cfg.CIDsURL); err != nil {
		return fmt.Errorf("invalid CIDS_URL: %w", err)
	}

	if cfg.DownloadTimeout < time.Second || cfg.DownloadTimeout > 10*time.Minute {
		return fmt.Errorf("invalid DOWNLOAD_TIMEOUT_SECONDS: must be between 1 and 600, got: %d", int(cfg.DownloadTimeout.Seconds()))
	}

	if cfg.DownloadRetries < 0 || cfg.DownloadRetries > 10 {
		return fmt.Errorf("invalid DOWNLOAD_RETRIES: must be between 0 and 10, got: %d", cfg.DownloadRetries)
	}

	if err := validateRefreshAt(cfg.RefreshAt); err != nil {
		return fmt.Errorf("invalid REFRESH_AT: %w", err)
	}

	if err := validateOrigins(cfg.AllowedOrigins); err != nil {
		return fmt.Errorf("invalid CORS_ORIGINS: %w", err)
	}

	return nil
}

// validateOrigins accepts "*" or absolute http(s) origins without a path
func validateOrigins(origins []string) error {
	if len(origins) == 0 {
		return fmt.Errorf("at least one origin is required")
	}
	for _, origin := range origins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%q is not an http(s) origin", origin)
		}
		if u.Path != "" && u.Path != "/" {
			return fmt.Errorf("origin %q must not include a path", origin)
		}
	}
	return nil
}

// splitList splits a comma separated value, dropping blank entries
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Patient data stays on loopback or private networks
	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	switch strings.ToLower(logLevel) {
	case "debug", "info", "warn", "error":
		return nil
	case "":
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: [debug info warn error], got: %s", logLevel)
	}
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 {
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateSheetURL accepts absolute http(s) URLs. The COLE_AQUI placeholder
// passes here and is reported by the loader, so the API can still start.
func validateSheetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https, got: %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host, got: %q", raw)
	}
	return nil
}

// validateRefreshAt validates a "HH:MM;HH:MM" list
func validateRefreshAt(refreshAt string) error {
	times := splitRefreshTimes(refreshAt)
	if len(times) == 0 {
		return fmt.Errorf("at least one HH:MM time is required")
	}
	for _, t := range times {
		if !refreshTimePattern.MatchString(t) {
			return fmt.Errorf("%q is not a HH:MM time", t)
		}
	}
	return nil
}

func splitRefreshTimes(refreshAt string) []string {
	var times []string
	for _, t := range strings.Split(refreshAt, ";") {
		if t = strings.TrimSpace(t); t != "" {
			times = append(times, t)
		}
	}
	return times
}

// parseDelimiter accepts a single character, or the names "tab" and "semicolon"
func parseDelimiter(value string) (rune, error) {
	switch strings.ToLower(value) {
	case "tab", `\t`:
		return '\t', nil
	case "semicolon":
		return ';', nil
	}

	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("must be a single character, got: %q", value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("%q cannot be used as a delimiter", value)
	}
	return r, nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"PROTOCOLS_URL",
		"CIDS_URL",
		"CSV_DELIMITER",
		"DOWNLOAD_TIMEOUT_SECONDS",
		"DOWNLOAD_RETRIES",
		"REFRESH_AT",
		"CORS_ORIGINS",
	}
}
