package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Blob storage backends.
const (
	BlobBackendFS    = "fs"
	BlobBackendAzure = "azure"
)

const maxPageSize = 50000

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// CDC Socrata source.
	CDCBaseURL   string
	CDCPageSize  int
	CDCPageDelay time.Duration
	CDCTimeout   time.Duration

	// Blob storage for the staged raw data and the artifact.
	BlobBackend           string
	BlobDir               string
	AzureConnectionString string
	BlobContainer         string
	RawBlobName           string
	ArtifactBlobName      string

	ExcludedYear    int
	ForecastWorkers int

	// Optional side outputs. Empty disables each one.
	ChartDir           string
	ReportXLSX         string
	KafkaBrokers       []string
	KafkaForecastTopic string
	DatabaseURL        string
	DBRefreshViews     []string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	pageSize, err := parseInt("CDC_PAGE_SIZE", 50000, 1, maxPageSize)
	if err != nil {
		return nil, err
	}
	pageDelay, err := parseDuration("CDC_PAGE_DELAY", "2s", true)
	if err != nil {
		return nil, err
	}
	cdcTimeout, err := parseDuration("CDC_TIMEOUT", "60s", false)
	if err != nil {
		return nil, err
	}
	excludedYear, err := parseInt("EXCLUDED_YEAR", 2001, 0, 9999)
	if err != nil {
		return nil, err
	}
	workers, err := parseInt("FORECAST_WORKERS", 4, 1, 64)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CDCBaseURL:   sharedcfg.EnvOrDefault("CDC_BASE_URL", "https://data.cdc.gov/resource/g4ie-h725.json"),
		CDCPageSize:  pageSize,
		CDCPageDelay: pageDelay,
		CDCTimeout:   cdcTimeout,

		BlobBackend:           sharedcfg.EnvOrDefault("BLOB_BACKEND", BlobBackendFS),
		BlobDir:               sharedcfg.EnvOrDefault("BLOB_DIR", "data"),
		AzureConnectionString: sharedcfg.EnvOrDefault("AZURE_STORAGE_CONNECTION_STRING", ""),
		BlobContainer:         sharedcfg.EnvOrDefault("BLOB_CONTAINER", "data-lake"),
		RawBlobName:           sharedcfg.EnvOrDefault("RAW_BLOB_NAME", "chronic-disease-indicators.csv"),
		ArtifactBlobName:      sharedcfg.EnvOrDefault("ARTIFACT_BLOB_NAME", "ChronicDiseaseForecast.csv"),

		ExcludedYear:    excludedYear,
		ForecastWorkers: workers,

		ChartDir:           sharedcfg.EnvOrDefault("CHART_DIR", ""),
		ReportXLSX:         sharedcfg.EnvOrDefault("REPORT_XLSX", ""),
		KafkaBrokers:       parseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")),
		KafkaForecastTopic: sharedcfg.EnvOrDefault("KAFKA_FORECAST_TOPIC", "chronic-disease-forecast"),
		DatabaseURL:        sharedcfg.EnvOrDefault("DATABASE_URL", ""),
		DBRefreshViews:     parseList(sharedcfg.EnvOrDefault("DB_REFRESH_VIEWS", "lastinvoicedetailspercustomer,customercontract")),
	}

	if u, err := url.Parse(cfg.CDCBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid CDC_BASE_URL")
	}
	switch cfg.BlobBackend {
	case BlobBackendFS:
		if cfg.BlobDir == "" {
			return nil, errors.New("BLOB_DIR is required for the fs backend")
		}
	case BlobBackendAzure:
		if cfg.AzureConnectionString == "" {
			return nil, errors.New("AZURE_STORAGE_CONNECTION_STRING is required for the azure backend")
		}
		if cfg.BlobContainer == "" {
			return nil, errors.New("BLOB_CONTAINER is required for the azure backend")
		}
	default:
		return nil, fmt.Errorf("invalid BLOB_BACKEND %q: want %q or %q", cfg.BlobBackend, BlobBackendFS, BlobBackendAzure)
	}
	if cfg.RawBlobName == "" {
		return nil, errors.New("RAW_BLOB_NAME is required")
	}
	if cfg.ArtifactBlobName == "" {
		return nil, errors.New("ARTIFACT_BLOB_NAME is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaForecastTopic == "" {
		return nil, errors.New("KAFKA_FORECAST_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether forecasts are published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// DatabaseEnabled reports whether the artifact is loaded into Postgres.
func (c *Config) DatabaseEnabled() bool { return c.DatabaseURL != "" }

func parseInt(key string, def, lo, hi int) (int, error) {
	s := sharedcfg.EnvOrDefault(key, strconv.Itoa(def))
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseBrokers treats an unset list as publishing disabled.
func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}

// parseList splits a comma-separated value, dropping empty items.
func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
