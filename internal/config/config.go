// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

// Package config holds all application configuration, loaded in layers:
// built-in defaults, then an optional YAML config file, then environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration.
type Config struct {
	Catalog CatalogConfig `koanf:"catalog"`
	Intake  IntakeConfig  `koanf:"intake"`
	Storage StorageConfig `koanf:"storage"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// CatalogConfig configures the YouTube Data API client.
type CatalogConfig struct {
	// APIKey is the YouTube Data API v3 credential. When empty, intakes take
	// the fallback path: entries are logged with URL-derived fields only and
	// no enrichment call is ever attempted.
	APIKey string `koanf:"api_key"`

	// Region scopes category name lookups. Default: US
	Region string `koanf:"region" validate:"required,len=2"`

	// MaxRetries is the number of additional attempts for the primary video
	// lookup after the first failure. Category and channel lookups are always
	// single-attempt.
	MaxRetries int `koanf:"max_retries" validate:"min=0,max=10"`

	// RetryBaseDelay is multiplied by the attempt number for the linear
	// backoff between primary lookup attempts. Default: 300ms
	RetryBaseDelay time.Duration `koanf:"retry_base_delay" validate:"min=0"`

	// Timeout bounds each individual catalog HTTP request.
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`

	// RateLimit caps outgoing catalog requests per second (quota protection).
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`

	// RateBurst is the limiter burst size.
	RateBurst int `koanf:"rate_burst" validate:"min=0"`

	// BaseURL overrides the API endpoint. Tests point this at httptest
	// servers; production leaves it at the default.
	BaseURL string `koanf:"base_url"`
}

// IntakeConfig configures the dedup and logging pipeline.
type IntakeConfig struct {
	// Profile names the watcher attributed to every logged entry. Default: Child
	Profile string `koanf:"profile" validate:"required"`

	// DedupTTL is the window during which a repeat intake for the same
	// (profile, video) pair is suppressed. Default: 120m
	DedupTTL time.Duration `koanf:"dedup_ttl" validate:"min=1m"`

	// LogCapacity bounds the persistent history; oldest entries are evicted
	// first once exceeded. Default: 5000
	LogCapacity int `koanf:"log_capacity" validate:"min=1"`
}

// StorageConfig configures the badger key-value store.
type StorageConfig struct {
	// Path is the badger data directory.
	Path string `koanf:"path" validate:"required"`

	// GCInterval is how often the value-log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval" validate:"min=1m"`

	// InMemory runs badger without disk persistence. Test use only.
	InMemory bool `koanf:"in_memory"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	// RateLimitReqs requests per RateLimitWindow per client IP on the intake
	// endpoint. The upstream navigation detector debounces at ~800ms, so the
	// default comfortably exceeds legitimate traffic.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}
