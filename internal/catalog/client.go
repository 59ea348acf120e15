// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/watchlog/watchlog/internal/config"
	"github.com/watchlog/watchlog/internal/logging"
	"github.com/watchlog/watchlog/internal/metrics"
	"github.com/watchlog/watchlog/internal/models"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024

// Client talks to the YouTube Data API v3.
//
// Resilience profile (deliberately asymmetric, see FetchPrimary):
//   - Primary video lookup: retried with linear backoff.
//   - Category and channel lookups: single attempt, failures degrade to
//     absent values and never abort an intake.
//   - A circuit breaker wraps the shared transport; a client-side rate
//     limiter protects the API quota.
//
// The client owns the process-lifetime category name cache.
//
// Thread safety: all methods are safe for concurrent use.
type Client struct {
	baseURL        string
	client         *http.Client
	limiter        *rate.Limiter
	cb             *gobreaker.CircuitBreaker[[]byte]
	categories     *CategoryCache
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a catalog client from configuration.
func NewClient(cfg config.CatalogConfig) *Client {
	cbName := "catalog-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		// Open at >=60% failures with at least 10 requests in the window.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("catalog circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		client:         &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(limit, burst),
		cb:             cb,
		categories:     NewCategoryCache(),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// Categories exposes the category name cache, mainly for tests and health
// reporting.
func (c *Client) Categories() *CategoryCache {
	return c.categories
}

// FetchPrimary requests the full metadata record for one video: snippet,
// content details, statistics, status and topic details.
//
// A non-success response or an empty result set counts as a failed attempt.
// Failed attempts are retried up to maxRetries additional times with a linear
// backoff of retryBaseDelay × attemptNumber between attempts. When the bound
// is exhausted the last error surfaces to the caller, which aborts the whole
// intake; category and channel lookups never get this treatment.
func (c *Client) FetchPrimary(ctx context.Context, videoID, apiKey string) (*models.MetadataRecord, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics,status,topicDetails")
	params.Set("id", videoID)
	params.Set("key", apiKey)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var resp videoListResponse
		err := c.makeRequest(ctx, "videos", params, &resp)
		if err == nil && len(resp.Items) == 0 {
			err = fmt.Errorf("%w: video %s", ErrNotFound, videoID)
		}
		if err == nil {
			return resp.Items[0].toRecord(), nil
		}
		lastErr = err

		if attempt <= c.maxRetries {
			delay := c.retryBaseDelay * time.Duration(attempt)
			logging.Warn().
				Err(err).
				Str("video_id", videoID).
				Int("attempt", attempt).
				Int("max_retries", c.maxRetries).
				Dur("delay", delay).
				Msg("primary lookup failed, retrying")
			metrics.CatalogRetries.Inc()

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("primary lookup for %s failed after %d attempts: %w",
		videoID, c.maxRetries+1, lastErr)
}

// CategoryName resolves a category id to its display name for a region.
//
// The cache is consulted first; on a miss a single network attempt is made.
// Both a resolved name and a confirmed empty result are cached permanently,
// so a known-missing category never causes a second call. A transport or
// HTTP failure is not a confirmed outcome and is not cached.
func (c *Client) CategoryName(ctx context.Context, categoryID, region, apiKey string) (string, bool) {
	if categoryID == "" || apiKey == "" {
		return "", false
	}

	if name, found, ok := c.categories.Get(region, categoryID); ok {
		return name, found
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", categoryID)
	params.Set("regionCode", region)
	params.Set("key", apiKey)

	var resp categoryListResponse
	if err := c.makeRequest(ctx, "videoCategories", params, &resp); err != nil {
		logging.Warn().Err(err).Str("category_id", categoryID).Msg("category lookup failed")
		return "", false
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet.Title == "" {
		c.categories.Put(region, categoryID, "", false)
		return "", false
	}

	name := resp.Items[0].Snippet.Title
	c.categories.Put(region, categoryID, name, true)
	return name, true
}

// FetchChannel looks up channel snippet, statistics and branding in a single
// attempt. Any failure, a missing id, or an empty result returns an error;
// callers treat that as "channel enrichment absent".
func (c *Client) FetchChannel(ctx context.Context, channelID, apiKey string) (*models.ChannelRecord, error) {
	if channelID == "" {
		return nil, fmt.Errorf("%w: empty channel id", ErrNotFound)
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics,brandingSettings")
	params.Set("id", channelID)
	params.Set("key", apiKey)

	var resp channelListResponse
	if err := c.makeRequest(ctx, "channels", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: channel %s", ErrNotFound, channelID)
	}

	return resp.Items[0].toRecord(), nil
}

// makeRequest performs one rate-limited, breaker-protected GET against the
// catalog and decodes the JSON response into result.
func (c *Client) makeRequest(ctx context.Context, resource string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, params.Encode())

	body, err := c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("catalog request: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck // read-only body

		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{
				Code: resp.StatusCode,
				Body: string(readBodyForError(resp.Body)),
			}
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		metrics.CatalogRequests.WithLabelValues(resource, "failure").Inc()
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		metrics.CatalogRequests.WithLabelValues(resource, "failure").Inc()
		return fmt.Errorf("decode %s response: %w", resource, err)
	}

	metrics.CatalogRequests.WithLabelValues(resource, "success").Inc()
	return nil
}

// readBodyForError reads at most maxErrorBodySize bytes for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

// stateToFloat converts a breaker state to its metric value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
