// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

// Package pipeline coordinates one watch intake end to end: dedup check,
// metadata fetch, enrichment, entry assembly, bounded append, dedup mark and
// notification.
//
// The contract with the event source is fire-and-forget: Dispatch returns
// immediately, every failure is caught at this boundary and reported as a
// structured diagnostic, and the source never learns the outcome.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/watchlog/watchlog/internal/catalog"
	"github.com/watchlog/watchlog/internal/logging"
	"github.com/watchlog/watchlog/internal/metrics"
	"github.com/watchlog/watchlog/internal/models"
	"github.com/watchlog/watchlog/internal/store"
)

// Intake outcomes, used for diagnostics and metrics.
const (
	OutcomeLogged        = "logged"
	OutcomeSuppressed    = "suppressed"
	OutcomeFallback      = "fallback"
	OutcomeFetchFailed   = "fetch_failed"
	OutcomeStorageFailed = "storage_failed"
)

// Fetcher is the catalog surface the orchestrator depends on.
// Implemented by *catalog.Client in production.
type Fetcher interface {
	// FetchPrimary retrieves the full metadata record, retrying internally.
	// Its failure is fatal to the intake.
	FetchPrimary(ctx context.Context, videoID, apiKey string) (*models.MetadataRecord, error)

	// CategoryName resolves a category display name via the process-lifetime
	// cache. Failure degrades to absent.
	CategoryName(ctx context.Context, categoryID, region, apiKey string) (string, bool)

	// FetchChannel performs the single-attempt channel enrichment.
	// Failure degrades to absent.
	FetchChannel(ctx context.Context, channelID, apiKey string) (*models.ChannelRecord, error)
}

// Notifier receives finalized entries. Implemented by the websocket hub.
type Notifier interface {
	NotifyLogged(entry *models.LogEntry)
}

// Options tune the orchestrator.
type Options struct {
	// Region scopes category name lookups.
	Region string

	// DedupTTL is the suppression window for repeat intakes.
	DedupTTL time.Duration
}

// Orchestrator runs the per-event pipeline. Every intake is an independent
// goroutine: there is no worker pool and no queue serializing intakes, so
// concurrent intakes for the same video can interleave (the documented
// dedup and append races). Ordering holds only within one intake.
type Orchestrator struct {
	dedup    *store.DedupStore
	log      *store.LogStore
	settings *store.SettingsStore
	fetcher  Fetcher
	notifier Notifier
	opts     Options
}

// New creates an orchestrator.
func New(dedup *store.DedupStore, log *store.LogStore, settings *store.SettingsStore, fetcher Fetcher, notifier Notifier, opts Options) *Orchestrator {
	return &Orchestrator{
		dedup:    dedup,
		log:      log,
		settings: settings,
		fetcher:  fetcher,
		notifier: notifier,
		opts:     opts,
	}
}

// Dispatch starts processing an intake event in its own goroutine and
// returns immediately. The caller never learns the outcome.
func (o *Orchestrator) Dispatch(event models.IntakeEvent) {
	go o.Process(context.Background(), event)
}

// Process runs the pipeline synchronously for one event. Exposed for the
// dispatch goroutine and for tests; production callers use Dispatch.
//
// No deadline is applied: once started, an intake runs to completion or to
// exhausted retries.
func (o *Orchestrator) Process(ctx context.Context, event models.IntakeEvent) {
	start := time.Now()
	defer func() {
		metrics.IntakeDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			o.report(OutcomeStorageFailed, "panic", event.VideoID, fmt.Errorf("panic: %v", r))
		}
	}()

	settings, err := o.settings.Get(ctx)
	if err != nil {
		o.report(OutcomeStorageFailed, "config_read", event.VideoID, err)
		return
	}
	profile := settings.Profile

	suppressed, err := o.dedup.IsSuppressed(ctx, profile, event.VideoID, o.opts.DedupTTL)
	if err != nil {
		o.report(OutcomeStorageFailed, "dedup_check", event.VideoID, err)
		return
	}
	if suppressed {
		metrics.IntakeEvents.WithLabelValues(OutcomeSuppressed).Inc()
		logging.Debug().Str("video_id", event.VideoID).Str("profile", profile).Msg("intake suppressed by dedup window")
		return
	}

	var (
		entry   *models.LogEntry
		outcome string
	)
	if settings.APIKey == "" {
		entry = o.assembleFallback(event, profile)
		outcome = OutcomeFallback
	} else {
		entry, err = o.assembleEnriched(ctx, event, profile, settings.APIKey)
		if err != nil {
			o.report(OutcomeFetchFailed, "fetch_primary", event.VideoID, err)
			return
		}
		outcome = OutcomeLogged
	}

	if err := o.log.Append(ctx, entry); err != nil {
		o.report(OutcomeStorageFailed, "append_log", event.VideoID, err)
		return
	}
	if err := o.dedup.MarkLogged(ctx, profile, event.VideoID); err != nil {
		o.report(OutcomeStorageFailed, "mark_logged", event.VideoID, err)
		return
	}

	o.notifier.NotifyLogged(entry)
	metrics.IntakeEvents.WithLabelValues(outcome).Inc()
	logging.Info().
		Str("video_id", event.VideoID).
		Str("profile", profile).
		Bool("is_shorts", entry.IsShorts).
		Bool("enriched", entry.Metadata != nil).
		Msg("watch entry logged")
}

// assembleEnriched runs the primary fetch and both enrichment lookups, then
// builds the finalized entry. Only the primary fetch can fail the intake;
// enrichment failures degrade to absent fields.
func (o *Orchestrator) assembleEnriched(ctx context.Context, event models.IntakeEvent, profile, apiKey string) (*models.LogEntry, error) {
	meta, err := o.fetcher.FetchPrimary(ctx, event.VideoID, apiKey)
	if err != nil {
		return nil, err
	}

	entry := &models.LogEntry{
		ID:        uuid.New(),
		VideoID:   event.VideoID,
		URL:       event.URL,
		Profile:   profile,
		WatchedAt: time.Now(),
		IsShorts:  catalog.IsShorts(event.URL, meta.DurationSeconds),
		Metadata:  meta,
	}

	if name, found := o.fetcher.CategoryName(ctx, meta.CategoryID, o.opts.Region, apiKey); found {
		entry.CategoryName = &name
	}

	if meta.ChannelID != "" {
		channel, err := o.fetcher.FetchChannel(ctx, meta.ChannelID, apiKey)
		if err != nil {
			logging.Debug().Err(err).Str("channel_id", meta.ChannelID).Msg("channel enrichment skipped")
		} else {
			entry.Channel = channel
		}
	}

	return entry, nil
}

// assembleFallback builds the minimal entry used when no credential is
// configured: subject id, url, profile, watch time and the URL-only shorts
// signal. All rich fields stay null; the entry is still appended, deduped
// and notified.
func (o *Orchestrator) assembleFallback(event models.IntakeEvent, profile string) *models.LogEntry {
	return &models.LogEntry{
		ID:        uuid.New(),
		VideoID:   event.VideoID,
		URL:       event.URL,
		Profile:   profile,
		WatchedAt: time.Now(),
		IsShorts:  catalog.IsShorts(event.URL, nil),
	}
}

// report emits the structured diagnostic for a swallowed failure: kind,
// subject and cause. This is the only operator-visible trace of a failed
// intake; the event source never sees it.
func (o *Orchestrator) report(kind, stage, videoID string, err error) {
	diag := models.Diagnostic{
		Kind:    kind,
		VideoID: videoID,
		Stage:   stage,
		Cause:   err.Error(),
		At:      time.Now(),
	}
	metrics.IntakeEvents.WithLabelValues(kind).Inc()
	logging.Error().
		Str("kind", diag.Kind).
		Str("video_id", diag.VideoID).
		Str("stage", diag.Stage).
		Str("cause", diag.Cause).
		Msg("intake failed")
}
