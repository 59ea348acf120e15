// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

// Package catalog provides the YouTube Data API v3 client used to enrich
// watch events: a retrying primary video lookup, and single-attempt category
// and channel lookups that degrade to absent values on failure.
package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup succeeds at the HTTP level but the
// result set is empty. For retry purposes it is treated like a network error.
var ErrNotFound = errors.New("catalog: item not found")

// ErrMissingAPIKey is returned when a lookup is attempted without a credential.
// Callers are expected to route around this via the fallback path instead of
// ever seeing it in practice.
var ErrMissingAPIKey = errors.New("catalog: api key not configured")

// StatusError represents a non-success HTTP response from the catalog.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: unexpected status %d: %s", e.Code, e.Body)
}
