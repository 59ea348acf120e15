// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/watchlog/watchlog/internal/metrics"
)

// Settings are the runtime-updatable values pushed by the settings surface.
// They live in their own keyspace, mirroring the original split between the
// synchronized settings store and the local history store.
type Settings struct {
	// APIKey is the catalog credential. Empty routes intakes to the
	// fallback path.
	APIKey string `json:"api_key"`

	// Profile is attributed to every logged entry.
	Profile string `json:"profile"`
}

// SettingsStore persists runtime settings. Reads happen on every intake;
// writes come from the settings API.
type SettingsStore struct {
	db       *badger.DB
	defaults Settings
}

// NewSettingsStore creates the settings store. The defaults (from boot
// configuration) apply until a settings update is persisted.
func NewSettingsStore(s *Store, defaults Settings) *SettingsStore {
	return &SettingsStore{db: s.DB(), defaults: defaults}
}

// Get returns the current settings, falling back to boot defaults when
// nothing has been persisted yet.
func (s *SettingsStore) Get(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}

	settings := s.defaults
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(settingsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("settings").Inc()
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// Put persists new settings.
func (s *SettingsStore) Put(ctx context.Context, settings Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(settingsKey), data)
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("settings").Inc()
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}
