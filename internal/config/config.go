// Package config is the configuration file of the pricetracker CLI.
package config

import (
	"fmt"
	"maps"
	"path/filepath"
	"pricetracker/internal/catalog"
	"pricetracker/internal/fetch"
	"pricetracker/internal/retailers"
	"pricetracker/lib/configutil"
	configlibsql "pricetracker/lib/configutil/libsql"
	"pricetracker/lib/tracing"
	"time"
)

const (
	StorageCSV    = "csv"
	StorageSQLite = "sqlite"
)

// FetchConfig mirrors fetch.Options with durations in seconds. Pointers are
// used where an explicit 0 differs from "not set".
type FetchConfig struct {
	MinDelay          *float64          `json:"min_delay"`
	MaxDelay          *float64          `json:"max_delay"`
	Timeout           float64           `json:"timeout"`
	MaxAttempts       int               `json:"max_attempts"`
	BackoffFactor     *float64          `json:"backoff_factor"`
	RetryStatuses     []int             `json:"retry_statuses"`
	Headers           map[string]string `json:"headers"`
	RequestsPerSecond float64           `json:"requests_per_second"`
	DumpDir           string            `json:"dump_dir"`
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func ptr(v float64) *float64 {
	return &v
}

// Options converts the config to fetch.Options. Headers are added on top of
// fetch.DefaultHeaders, a header set to "" is removed.
func (f FetchConfig) Options() fetch.Options {
	headers := fetch.DefaultHeaders()
	maps.Copy(headers, f.Headers)
	maps.DeleteFunc(headers, func(_, value string) bool {
		return value == ""
	})
	return fetch.Options{
		MinDelay:          seconds(deref(f.MinDelay)),
		MaxDelay:          seconds(deref(f.MaxDelay)),
		Timeout:           seconds(f.Timeout),
		MaxAttempts:       f.MaxAttempts,
		BackoffFactor:     seconds(deref(f.BackoffFactor)),
		RetryStatuses:     f.RetryStatuses,
		Headers:           headers,
		RequestsPerSecond: f.RequestsPerSecond,
		DumpDir:           f.DumpDir,
	}
}

type Config struct {
	DataDir   string                       `json:"data_dir"`
	Storage   string                       `json:"storage"`
	Database  configlibsql.Struct          `json:"database"`
	Fetch     FetchConfig                  `json:"fetch"`
	Retailers map[string]retailers.Binding `json:"retailers"`
	Products  []catalog.Product            `json:"products"`
	Telemetry tracing.Config               `json:"telemetry"`
}

func Default() Config {
	opts := fetch.DefaultOptions()
	return Config{
		DataDir: "data",
		Storage: StorageCSV,
		Fetch: FetchConfig{
			MinDelay:      ptr(opts.MinDelay.Seconds()),
			MaxDelay:      ptr(opts.MaxDelay.Seconds()),
			Timeout:       opts.Timeout.Seconds(),
			MaxAttempts:   opts.MaxAttempts,
			BackoffFactor: ptr(opts.BackoffFactor.Seconds()),
			RetryStatuses: opts.RetryStatuses,
		},
		Retailers: map[string]retailers.Binding{
			"retailer_a": {Kind: retailers.KindSample},
			"retailer_b": {Kind: retailers.KindSample},
		},
		Products: catalog.Sample(),
	}
}

// Load reads `path` (and its .local override) over Default. A missing file
// yields Default.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadWithDefaults(path, Default())
	if err != nil {
		return Config{}, err
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageCSV, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage %q, expected %q or %q", c.Storage, StorageCSV, StorageSQLite)
	}
	return c.Fetch.Options().Validate()
}

// DatabaseConfig is the sqlite database, defaulting to history.db in the data directory.
func (c Config) DatabaseConfig() configlibsql.Struct {
	if c.Database.File != "" {
		return c.Database
	}
	return configlibsql.Struct{File: filepath.Join(c.DataDir, "history.db")}
}
