// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

// Package store provides the badger-backed persistence layer: the dedup
// table, the bounded watch log, the share-link history and runtime settings.
//
// Keyspaces share one database and are separated by prefix:
//
//	dedup:<profile>:<videoID>  last-logged timestamp per pair
//	log:entries                the full ordered log sequence
//	linkhist:entries           share links derived from the log
//	settings:current           runtime api key and profile
package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/watchlog/watchlog/internal/config"
	"github.com/watchlog/watchlog/internal/logging"
)

// Key prefixes for the shared badger database.
const (
	dedupKeyPrefix  = "dedup:"
	logEntriesKey   = "log:entries"
	linkHistoryKey  = "linkhist:entries"
	settingsKey     = "settings:current"
)

// Store owns the badger database shared by all persistent collections.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the badger database at the configured path.
func Open(cfg config.StorageConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(badgerLogger{}).
		WithInMemory(cfg.InMemory)
	if cfg.InMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", cfg.Path, err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying database for the collection types in this package.
func (s *Store) DB() *badger.DB {
	return s.db
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunValueLogGC runs one round of badger value-log garbage collection.
// badger returns ErrNoRewrite when there was nothing to collect; callers
// treat that as success.
func (s *Store) RunValueLogGC() error {
	err := s.db.RunValueLogGC(0.5)
	if err == badger.ErrNoRewrite {
		return nil
	}
	return err
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}
