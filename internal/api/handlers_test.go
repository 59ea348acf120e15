// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/watchlog/watchlog/internal/config"
	"github.com/watchlog/watchlog/internal/models"
	"github.com/watchlog/watchlog/internal/store"
	ws "github.com/watchlog/watchlog/internal/websocket"
)

type captureDispatcher struct {
	mu     sync.Mutex
	events []models.IntakeEvent
}

func (d *captureDispatcher) Dispatch(event models.IntakeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *captureDispatcher) all() []models.IntakeEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.IntakeEvent(nil), d.events...)
}

type apiFixture struct {
	router     http.Handler
	dispatcher *captureDispatcher
	log        *store.LogStore
	settings   *store.SettingsStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	s, err := store.Open(config.StorageConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	f := &apiFixture{
		dispatcher: &captureDispatcher{},
		log:        store.NewLogStore(s, 100),
		settings:   store.NewSettingsStore(s, store.Settings{Profile: "Child"}),
	}
	handler := NewHandler(f.dispatcher, f.log, f.settings, ws.NewHub(), "test")
	f.router = NewRouter(handler, NewMiddleware(&MiddlewareConfig{
		RateLimitDisabled: true,
	})).Setup()
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func seedEntry(t *testing.T, f *apiFixture, videoID string) *models.LogEntry {
	t.Helper()
	entry := &models.LogEntry{
		ID:        uuid.New(),
		VideoID:   videoID,
		URL:       "https://www.youtube.com/watch?v=" + videoID,
		Profile:   "Child",
		WatchedAt: time.Now(),
	}
	if err := f.log.Append(context.Background(), entry); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return entry
}

func TestIntakeAcceptsAndDispatches(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/intake", `{"video_id":"vid1","url":"https://www.youtube.com/watch?v=vid1"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %q)", rec.Code, rec.Body.String())
	}
	events := f.dispatcher.all()
	if len(events) != 1 {
		t.Fatalf("dispatched events = %d, want 1", len(events))
	}
	if events[0].VideoID != "vid1" {
		t.Errorf("video id = %q, want vid1", events[0].VideoID)
	}
}

func TestIntakeDerivesURLWhenAbsent(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/intake", `{"video_id":"vid1"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	events := f.dispatcher.all()
	if len(events) != 1 {
		t.Fatalf("dispatched events = %d, want 1", len(events))
	}
	if events[0].URL != "https://www.youtube.com/watch?v=vid1" {
		t.Errorf("derived url = %q", events[0].URL)
	}
}

func TestIntakeRejectsMissingVideoID(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/intake", `{"url":"https://www.youtube.com/watch?v=x"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(f.dispatcher.all()) != 0 {
		t.Error("invalid request was dispatched")
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
	}
}

func TestIntakeRejectsMalformedBody(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/intake", `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(f.dispatcher.all()) != 0 {
		t.Error("malformed request was dispatched")
	}
}

func TestHistoryListsNewestFirst(t *testing.T) {
	f := newAPIFixture(t)
	seedEntry(t, f, "vid1")
	seedEntry(t, f, "vid2")
	seedEntry(t, f, "vid3")

	rec := f.do(t, http.MethodGet, "/api/v1/history?limit=2", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("remarshal data: %v", err)
	}
	var entries []models.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].VideoID != "vid3" || entries[1].VideoID != "vid2" {
		t.Errorf("order = [%s %s], want [vid3 vid2]", entries[0].VideoID, entries[1].VideoID)
	}
	if resp.Metadata.Count != 2 || resp.Metadata.Total != 3 {
		t.Errorf("metadata count/total = %d/%d, want 2/3", resp.Metadata.Count, resp.Metadata.Total)
	}
}

func TestClearHistoryEmptiesLog(t *testing.T) {
	f := newAPIFixture(t)
	seedEntry(t, f, "vid1")

	rec := f.do(t, http.MethodDelete, "/api/v1/history", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	n, err := f.log.Len(context.Background())
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 0 {
		t.Errorf("log length = %d after clear, want 0", n)
	}
}

func TestCreateShareLink(t *testing.T) {
	f := newAPIFixture(t)
	entry := seedEntry(t, f, "vid1")

	rec := f.do(t, http.MethodPost, "/api/v1/history/"+entry.ID.String()+"/link", "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %q)", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("remarshal data: %v", err)
	}
	var link models.ShareLink
	if err := json.Unmarshal(data, &link); err != nil {
		t.Fatalf("decode link: %v", err)
	}
	if link.URL != "https://youtu.be/vid1" {
		t.Errorf("link url = %q, want https://youtu.be/vid1", link.URL)
	}
	if link.EntryID != entry.ID {
		t.Errorf("entry id = %s, want %s", link.EntryID, entry.ID)
	}

	listRec := f.do(t, http.MethodGet, "/api/v1/links", "")
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", listRec.Code)
	}
	listResp := decodeResponse(t, listRec)
	if listResp.Metadata.Count != 1 {
		t.Errorf("links count = %d, want 1", listResp.Metadata.Count)
	}
}

func TestCreateShareLinkUnknownEntry(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/history/"+uuid.NewString()+"/link", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreateShareLinkMalformedID(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/history/not-a-uuid/link", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data, _ := json.Marshal(resp.Data)
	var view SettingsView
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Profile != "Child" || view.APIKeyConfigured {
		t.Errorf("defaults = %+v, want Child with no key", view)
	}

	putRec := f.do(t, http.MethodPut, "/api/v1/settings", `{"api_key":"secret","profile":"Teen"}`)
	if putRec.Code != http.StatusOK {
		t.Fatalf("put status = %d, want 200 (body %q)", putRec.Code, putRec.Body.String())
	}
	if strings.Contains(putRec.Body.String(), "secret") {
		t.Error("credential echoed in response body")
	}

	getRec := f.do(t, http.MethodGet, "/api/v1/settings", "")
	getResp := decodeResponse(t, getRec)
	data, _ = json.Marshal(getResp.Data)
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Profile != "Teen" || !view.APIKeyConfigured {
		t.Errorf("after update = %+v, want Teen with key configured", view)
	}
}

func TestUpdateSettingsRequiresProfile(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPut, "/api/v1/settings", `{"api_key":"secret","profile":""}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthReportsState(t *testing.T) {
	f := newAPIFixture(t)
	seedEntry(t, f, "vid1")

	rec := f.do(t, http.MethodGet, "/healthz", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data, _ := json.Marshal(resp.Data)
	var health models.HealthStatus
	if err := json.Unmarshal(data, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.LogEntries != 1 {
		t.Errorf("health = %+v, want ok with 1 entry", health)
	}
}
