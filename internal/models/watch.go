// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

// Package models defines the data structures shared across the Watchlog
// pipeline: intake events, catalog metadata, log entries and diagnostics.
package models

import (
	"time"

	"github.com/google/uuid"
)

// LiveBroadcastContent values reported by the catalog for a video.
const (
	LiveContentNone     = "none"
	LiveContentLive     = "live"
	LiveContentUpcoming = "upcoming"
)

// IntakeEvent is the ephemeral input to the pipeline: a video the watcher
// navigated to. It is never persisted directly.
type IntakeEvent struct {
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
}

// Thumbnail is a single rendition from the catalog thumbnail set.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// RegionRestriction lists regions where a video is allowed or blocked.
type RegionRestriction struct {
	Allowed []string `json:"allowed,omitempty"`
	Blocked []string `json:"blocked,omitempty"`
}

// MetadataRecord is an immutable snapshot of the primary catalog lookup for
// one video. Optional fields are pointers so that absent and zero are
// distinguishable in stored entries.
type MetadataRecord struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	ChannelID    string     `json:"channel_id,omitempty"`
	ChannelTitle string     `json:"channel_title,omitempty"`
	Tags         []string   `json:"tags,omitempty"`

	Thumbnails map[string]Thumbnail `json:"thumbnails,omitempty"`

	CategoryID           string `json:"category_id,omitempty"`
	DefaultLanguage      string `json:"default_language,omitempty"`
	DefaultAudioLanguage string `json:"default_audio_language,omitempty"`

	// DurationSeconds is parsed from the catalog's ISO-8601 duration.
	// Nil when the duration string had no parseable component.
	DurationSeconds *int   `json:"duration_seconds,omitempty"`
	Definition      string `json:"definition,omitempty"`
	Caption         bool   `json:"caption,omitempty"`

	RegionRestriction *RegionRestriction `json:"region_restriction,omitempty"`
	ContentRating     map[string]string  `json:"content_rating,omitempty"`

	// LiveBroadcastContent is one of none, live, upcoming.
	LiveBroadcastContent string `json:"live_broadcast_content,omitempty"`
	MadeForKids          bool   `json:"made_for_kids,omitempty"`

	ViewCount    *int64 `json:"view_count,omitempty"`
	LikeCount    *int64 `json:"like_count,omitempty"`
	CommentCount *int64 `json:"comment_count,omitempty"`

	TopicCategories []string `json:"topic_categories,omitempty"`
}

// ChannelRecord holds the optional channel enrichment for a log entry.
// Present only when the video has a channel id and the lookup succeeded.
type ChannelRecord struct {
	ChannelID       string     `json:"channel_id"`
	CustomURL       string     `json:"custom_url,omitempty"`
	Country         string     `json:"country,omitempty"`
	Description     string     `json:"description,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	BannerURL       string     `json:"banner_url,omitempty"`
	SubscriberCount *int64     `json:"subscriber_count,omitempty"`
	VideoCount      *int64     `json:"video_count,omitempty"`
}

// LogEntry is one finalized watch record. Entries are immutable once
// appended: never updated or deleted individually, only bulk-cleared.
type LogEntry struct {
	ID        uuid.UUID `json:"id"`
	VideoID   string    `json:"video_id"`
	URL       string    `json:"url"`
	Profile   string    `json:"profile"`
	WatchedAt time.Time `json:"watched_at"`
	IsShorts  bool      `json:"is_shorts"`

	// CategoryName is the resolved display name for Metadata.CategoryID,
	// nil when unresolved or on the fallback path.
	CategoryName *string `json:"category_name,omitempty"`

	// Metadata is nil on the fallback path (no API credential configured).
	Metadata *MetadataRecord `json:"metadata,omitempty"`
	Channel  *ChannelRecord  `json:"channel,omitempty"`
}

// DedupRecord tracks the last logged time for a (profile, video) pair.
// At most one record exists per pair; staleness is purely elapsed time
// against the dedup TTL, records are never explicitly expired.
type DedupRecord struct {
	Profile  string    `json:"profile"`
	VideoID  string    `json:"video_id"`
	LoggedAt time.Time `json:"logged_at"`
}

// ShareLink is a generated cross-link to a logged entry. The link history is
// derived from the log and is reset together with it on Clear.
type ShareLink struct {
	ID        uuid.UUID `json:"id"`
	EntryID   uuid.UUID `json:"entry_id"`
	VideoID   string    `json:"video_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Diagnostic is the structured record emitted for every failure swallowed at
// the pipeline boundary. The event source never sees these; operators do.
type Diagnostic struct {
	Kind    string    `json:"kind"`
	VideoID string    `json:"video_id"`
	Stage   string    `json:"stage"`
	Cause   string    `json:"cause"`
	At      time.Time `json:"at"`
}
