// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/watchlog/watchlog/internal/config"
	"github.com/watchlog/watchlog/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.StorageConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

func testEntry(videoID string) *models.LogEntry {
	return &models.LogEntry{
		ID:        uuid.New(),
		VideoID:   videoID,
		URL:       "https://www.youtube.com/watch?v=" + videoID,
		Profile:   "Child",
		WatchedAt: time.Now(),
	}
}

func TestDedupSuppressionWindow(t *testing.T) {
	s := openTestStore(t)
	d := NewDedupStore(s)
	ctx := context.Background()

	// Unknown pair is never suppressed
	suppressed, err := d.IsSuppressed(ctx, "Child", "vid1", 120*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if suppressed {
		t.Error("unmarked pair should not be suppressed")
	}

	if err := d.MarkLogged(ctx, "Child", "vid1"); err != nil {
		t.Fatal(err)
	}

	// Inside the TTL window
	suppressed, err = d.IsSuppressed(ctx, "Child", "vid1", 120*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !suppressed {
		t.Error("freshly marked pair should be suppressed")
	}

	// After the TTL the same record stops suppressing
	time.Sleep(20 * time.Millisecond)
	suppressed, err = d.IsSuppressed(ctx, "Child", "vid1", 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if suppressed {
		t.Error("pair should not be suppressed past the TTL")
	}
}

func TestDedupKeysAreProfileScoped(t *testing.T) {
	s := openTestStore(t)
	d := NewDedupStore(s)
	ctx := context.Background()

	if err := d.MarkLogged(ctx, "Child", "vid1"); err != nil {
		t.Fatal(err)
	}

	suppressed, err := d.IsSuppressed(ctx, "Teen", "vid1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if suppressed {
		t.Error("mark for one profile must not suppress another profile")
	}
}

func TestDedupMarkIsUpsert(t *testing.T) {
	s := openTestStore(t)
	d := NewDedupStore(s)
	ctx := context.Background()

	if err := d.MarkLogged(ctx, "Child", "vid1"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := d.MarkLogged(ctx, "Child", "vid1"); err != nil {
		t.Fatal(err)
	}

	// Second mark refreshed the timestamp, so a TTL shorter than the first
	// mark's age but longer than the second's still suppresses.
	suppressed, err := d.IsSuppressed(ctx, "Child", "vid1", 25*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if !suppressed {
		t.Error("upserted mark should have refreshed the suppression window")
	}
}

func TestLogAppendAndList(t *testing.T) {
	s := openTestStore(t)
	l := NewLogStore(s, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Append(ctx, testEntry(fmt.Sprintf("vid%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := l.List(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first
	if entries[0].VideoID != "vid2" || entries[2].VideoID != "vid0" {
		t.Errorf("wrong order: %s .. %s", entries[0].VideoID, entries[2].VideoID)
	}
}

func TestLogCapacityFIFOEviction(t *testing.T) {
	s := openTestStore(t)
	l := NewLogStore(s, 5)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if err := l.Append(ctx, testEntry(fmt.Sprintf("vid%d", i))); err != nil {
			t.Fatal(err)
		}
		n, err := l.Len(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n > 5 {
			t.Fatalf("after append %d: length %d exceeds capacity 5", i, n)
		}
	}

	entries, err := l.List(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}
	// Survivors are exactly the newest 5, relative order unchanged
	for i, want := range []string{"vid7", "vid6", "vid5", "vid4", "vid3"} {
		if entries[i].VideoID != want {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].VideoID, want)
		}
	}
}

func TestLogListPagination(t *testing.T) {
	s := openTestStore(t)
	l := NewLogStore(s, 100)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := l.Append(ctx, testEntry(fmt.Sprintf("vid%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	page, err := l.List(ctx, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 3 {
		t.Fatalf("got %d entries, want 3", len(page))
	}
	if page[0].VideoID != "vid7" {
		t.Errorf("page starts at %s, want vid7", page[0].VideoID)
	}

	empty, err := l.List(ctx, 5, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("offset past end should return empty, got %d", len(empty))
	}
}

func TestLogGetByID(t *testing.T) {
	s := openTestStore(t)
	l := NewLogStore(s, 100)
	ctx := context.Background()

	entry := testEntry("vid1")
	if err := l.Append(ctx, entry); err != nil {
		t.Fatal(err)
	}

	got, err := l.Get(ctx, entry.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.VideoID != "vid1" {
		t.Errorf("Get returned %+v, want vid1 entry", got)
	}

	missing, err := l.Get(ctx, uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("Get for unknown id should return nil")
	}
}

func TestClearResetsLogAndLinkHistory(t *testing.T) {
	s := openTestStore(t)
	l := NewLogStore(s, 100)
	ctx := context.Background()

	entry := testEntry("vid1")
	if err := l.Append(ctx, entry); err != nil {
		t.Fatal(err)
	}
	link := &models.ShareLink{
		ID:        uuid.New(),
		EntryID:   entry.ID,
		VideoID:   entry.VideoID,
		URL:       "https://youtu.be/vid1",
		CreatedAt: time.Now(),
	}
	if err := l.Links().Add(ctx, link); err != nil {
		t.Fatal(err)
	}

	if err := l.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	n, err := l.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("log length after clear = %d, want 0", n)
	}
	links, err := l.Links().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("link history after clear has %d entries, want 0", len(links))
	}
}

func TestLogPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(config.StorageConfig{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	l := NewLogStore(s, 100)
	if err := l.Append(context.Background(), testEntry("vid1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(config.StorageConfig{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close() //nolint:errcheck
	l2 := NewLogStore(s2, 100)

	n, err := l2.Len(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("reopened log has %d entries, want 1", n)
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	s := openTestStore(t)
	ss := NewSettingsStore(s, Settings{Profile: "Child"})
	ctx := context.Background()

	got, err := ss.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Profile != "Child" || got.APIKey != "" {
		t.Errorf("defaults = %+v", got)
	}

	if err := ss.Put(ctx, Settings{APIKey: "new-key", Profile: "Teen"}); err != nil {
		t.Fatal(err)
	}
	got, err = ss.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.APIKey != "new-key" || got.Profile != "Teen" {
		t.Errorf("after update = %+v", got)
	}
}
