// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package services

import (
	"context"
	"time"

	"github.com/watchlog/watchlog/internal/logging"
)

// ValueLogGC matches the store's garbage collection entry point.
type ValueLogGC interface {
	RunValueLogGC() error
}

// GCService periodically reclaims badger value-log space. GC errors are
// logged and the loop continues; a failing GC pass never takes the store
// down.
type GCService struct {
	store    ValueLogGC
	interval time.Duration
}

// NewGCService creates the GC loop with the given interval.
func NewGCService(store ValueLogGC, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{
		store:    store,
		interval: interval,
	}
}

// Serve implements suture.Service.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.store.RunValueLogGC(); err != nil {
				logging.Warn().Err(err).Msg("value log GC pass failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor event logging.
func (g *GCService) String() string {
	return "badger-gc"
}
