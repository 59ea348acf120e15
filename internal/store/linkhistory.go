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
	"github.com/watchlog/watchlog/internal/models"
)

// LinkHistory records share links generated from log entries. It is derived
// state: LogStore.Clear resets it together with the log.
type LinkHistory struct {
	db *badger.DB
}

// NewLinkHistory creates the link history over the shared database.
func NewLinkHistory(s *Store) *LinkHistory {
	return &LinkHistory{db: s.DB()}
}

// Add appends a generated link to the history.
func (h *LinkHistory) Add(ctx context.Context, link *models.ShareLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	links, err := h.load()
	if err != nil {
		return err
	}
	links = append(links, *link)

	data, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("marshal link history: %w", err)
	}
	err = h.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(linkHistoryKey), data)
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("linkhist").Inc()
		return fmt.Errorf("persist link history: %w", err)
	}
	return nil
}

// List returns all recorded links in insertion order.
func (h *LinkHistory) List(ctx context.Context) ([]models.ShareLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.load()
}

func (h *LinkHistory) load() ([]models.ShareLink, error) {
	var links []models.ShareLink
	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(linkHistoryKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &links)
		})
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("linkhist").Inc()
		return nil, fmt.Errorf("load link history: %w", err)
	}
	return links, nil
}
