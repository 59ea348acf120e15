// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/watchlog/watchlog/internal/metrics"
	"github.com/watchlog/watchlog/internal/models"
)

// DedupStore suppresses repeat intakes for the same (profile, video) pair.
//
// IsSuppressed and MarkLogged are deliberately independent operations: the
// pipeline runs its fetch-and-enrich work between them, so two concurrent
// intakes for the same pair can both pass the check before either marks the
// key. That window is part of the documented best-effort contract and is not
// closed here.
type DedupStore struct {
	db *badger.DB
}

// NewDedupStore creates a dedup table over the shared database.
func NewDedupStore(s *Store) *DedupStore {
	return &DedupStore{db: s.DB()}
}

func dedupKey(profile, videoID string) []byte {
	return []byte(dedupKeyPrefix + profile + ":" + videoID)
}

// IsSuppressed reports whether a record exists for the pair and was logged
// less than ttl ago. Staleness is purely elapsed time; stale records are
// left in place and simply stop suppressing.
func (d *DedupStore) IsSuppressed(ctx context.Context, profile, videoID string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var record models.DedupRecord
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dedupKey(profile, videoID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("dedup").Inc()
		return false, fmt.Errorf("dedup lookup: %w", err)
	}

	return time.Since(record.LoggedAt) < ttl, nil
}

// MarkLogged upserts the record for the pair with the current time.
func (d *DedupStore) MarkLogged(ctx context.Context, profile, videoID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := models.DedupRecord{
		Profile:  profile,
		VideoID:  videoID,
		LoggedAt: time.Now(),
	}
	data, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("marshal dedup record: %w", err)
	}

	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dedupKey(profile, videoID), data)
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("dedup").Inc()
		return fmt.Errorf("mark logged: %w", err)
	}
	return nil
}
