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

	"github.com/watchlog/watchlog/internal/logging"
	"github.com/watchlog/watchlog/internal/metrics"
	"github.com/watchlog/watchlog/internal/models"
)

// LogStore is the bounded, insertion-ordered, persisted watch log.
//
// The whole sequence lives under one key and every append is a
// read-modify-write of the full sequence. Two concurrent appends based on
// stale reads can clobber each other and silently lose an entry; that race
// is part of the documented best-effort contract. Each individual append is
// transactionally atomic, so the stored sequence is never torn.
type LogStore struct {
	store    *Store
	links    *LinkHistory
	capacity int
}

// NewLogStore creates the log over the shared database with the given
// capacity bound. The link history is owned here so Clear can reset all
// log-derived state as one coordinated operation.
func NewLogStore(s *Store, capacity int) *LogStore {
	return &LogStore{
		store:    s,
		links:    NewLinkHistory(s),
		capacity: capacity,
	}
}

// Links returns the share-link history derived from this log.
func (l *LogStore) Links() *LinkHistory {
	return l.links
}

// Capacity returns the configured entry bound.
func (l *LogStore) Capacity() int {
	return l.capacity
}

// Append adds an entry at the end of the sequence. When the result exceeds
// capacity the oldest surplus entries are dropped first, so the length never
// exceeds capacity after any append and survivor order is unchanged.
func (l *LogStore) Append(ctx context.Context, entry *models.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := l.load()
	if err != nil {
		return err
	}

	entries = append(entries, *entry)
	if surplus := len(entries) - l.capacity; surplus > 0 {
		entries = entries[surplus:]
		metrics.LogEvictions.Add(float64(surplus))
		logging.Debug().Int("evicted", surplus).Msg("log capacity reached, dropped oldest entries")
	}

	if err := l.persist(entries); err != nil {
		return err
	}
	metrics.LogSize.Set(float64(len(entries)))
	return nil
}

// List returns up to limit entries, newest first, skipping offset. A limit
// of 0 or less returns everything after offset.
func (l *LogStore) List(ctx context.Context, limit, offset int) ([]models.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := l.load()
	if err != nil {
		return nil, err
	}

	// Reverse into newest-first order
	out := make([]models.LogEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}

	if offset >= len(out) {
		return []models.LogEntry{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Get returns the entry with the given id, or nil when absent.
func (l *LogStore) Get(ctx context.Context, id string) (*models.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := l.load()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID.String() == id {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// Len returns the current number of entries.
func (l *LogStore) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	entries, err := l.load()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Clear resets the sequence to empty and resets the share-link history in
// the same transaction: clearing the log is a coordinated reset across all
// log-derived state, not just the primary sequence.
func (l *LogStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := l.store.DB().Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(logEntriesKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Delete([]byte(linkHistoryKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("log").Inc()
		return fmt.Errorf("clear log: %w", err)
	}

	metrics.LogSize.Set(0)
	return nil
}

// load reads the full sequence, empty when the key does not exist yet.
func (l *LogStore) load() ([]models.LogEntry, error) {
	var entries []models.LogEntry
	err := l.store.DB().View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(logEntriesKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entries)
		})
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("log").Inc()
		return nil, fmt.Errorf("load log: %w", err)
	}
	return entries, nil
}

// persist writes the full sequence back.
func (l *LogStore) persist(entries []models.LogEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal log: %w", err)
	}
	err = l.store.DB().Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(logEntriesKey), data)
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("log").Inc()
		return fmt.Errorf("persist log: %w", err)
	}
	return nil
}
