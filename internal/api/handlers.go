// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

// Package api provides HTTP routing and handlers using the Chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/watchlog/watchlog/internal/models"
	"github.com/watchlog/watchlog/internal/store"
	ws "github.com/watchlog/watchlog/internal/websocket"
)

// shareURLBase is the short-link form used for generated share links.
const shareURLBase = "https://youtu.be/"

const defaultHistoryLimit = 50

var validate = validator.New(validator.WithRequiredStructEnabled())

// Dispatcher accepts intake events for asynchronous processing.
// Implemented by *pipeline.Orchestrator.
type Dispatcher interface {
	Dispatch(event models.IntakeEvent)
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	dispatcher Dispatcher
	log        *store.LogStore
	settings   *store.SettingsStore
	hub        *ws.Hub
	version    string
}

// NewHandler creates a handler with its dependencies.
func NewHandler(dispatcher Dispatcher, log *store.LogStore, settings *store.SettingsStore, hub *ws.Hub, version string) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		log:        log,
		settings:   settings,
		hub:        hub,
		version:    version,
	}
}

// IntakeRequest is the body of POST /api/v1/intake.
type IntakeRequest struct {
	VideoID string `json:"video_id" validate:"required,min=1,max=64"`
	URL     string `json:"url" validate:"omitempty,url,max=2048"`
}

// Intake accepts a watch event and returns immediately with 202. The
// pipeline runs asynchronously; the caller never learns whether the event
// was logged, suppressed or failed.
func (h *Handler) Intake(w http.ResponseWriter, r *http.Request) {
	var req IntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "video_id is required", err)
		return
	}

	url := req.URL
	if url == "" {
		url = "https://www.youtube.com/watch?v=" + req.VideoID
	}

	h.dispatcher.Dispatch(models.IntakeEvent{VideoID: req.VideoID, URL: url})

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status:   "accepted",
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// History returns logged entries, newest first, with limit/offset paging.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", defaultHistoryLimit)
	offset := getIntParam(r, "offset", 0)
	if limit < 0 || offset < 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit and offset must be non-negative", nil)
		return
	}

	entries, err := h.log.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read history", err)
		return
	}
	total, err := h.log.Len(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read history", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   entries,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			Count:     len(entries),
			Total:     total,
		},
	})
}

// ClearHistory removes all log entries and the share-link history in a
// single transaction, then notifies connected clients.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.log.Clear(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to clear history", err)
		return
	}
	h.hub.NotifyCleared()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// CreateShareLink generates a short share link for one logged entry and
// records it in the link history.
func (h *Handler) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "entry id must be a valid UUID", err)
		return
	}

	entry, err := h.log.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read history", err)
		return
	}
	if entry == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no entry with that id", nil)
		return
	}

	link := &models.ShareLink{
		ID:        uuid.New(),
		EntryID:   entry.ID,
		VideoID:   entry.VideoID,
		URL:       shareURLBase + entry.VideoID,
		CreatedAt: time.Now(),
	}
	if err := h.log.Links().Add(r.Context(), link); err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to record share link", err)
		return
	}

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     link,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// ShareLinks returns the share-link history in insertion order.
func (h *Handler) ShareLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.log.Links().List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read share links", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   links,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			Count:     len(links),
		},
	})
}

// SettingsView is the API shape of the stored settings. The credential is
// never echoed back, only whether one is configured.
type SettingsView struct {
	Profile          string `json:"profile"`
	APIKeyConfigured bool   `json:"api_key_configured"`
}

// GetSettings returns the active settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read settings", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: SettingsView{
			Profile:          settings.Profile,
			APIKeyConfigured: settings.APIKey != "",
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// SettingsRequest is the body of PUT /api/v1/settings. The whole document
// is replaced; an empty api_key switches the pipeline to the fallback path.
type SettingsRequest struct {
	APIKey  string `json:"api_key" validate:"max=256"`
	Profile string `json:"profile" validate:"required,min=1,max=64"`
}

// UpdateSettings replaces the stored settings. Takes effect on the next
// intake; in-flight pipeline runs keep the settings they started with.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "profile is required", err)
		return
	}

	settings := store.Settings{APIKey: req.APIKey, Profile: req.Profile}
	if err := h.settings.Put(r.Context(), settings); err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to store settings", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: SettingsView{
			Profile:          settings.Profile,
			APIKeyConfigured: settings.APIKey != "",
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// WebSocket upgrades the connection and registers it with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(h.hub, w, r)
}

// Health reports liveness plus basic state for monitoring.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	entries, err := h.log.Len(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "STORAGE_ERROR", "storage unavailable", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.HealthStatus{
			Status:     "ok",
			Version:    h.version,
			LogEntries: entries,
			Clients:    h.hub.ClientCount(),
			Time:       time.Now(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
