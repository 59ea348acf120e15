// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// durationRe matches the catalog's compact ISO-8601 duration form
// PT[nH][nM][nS] with every component optional.
var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration converts a compact duration string such as "PT1H2M3S" to
// total seconds. It returns nil when the input matches no duration component,
// including the empty string: a malformed duration nulls the field rather
// than failing the lookup.
func ParseDuration(s string) *int {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}

	matched := false
	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return nil
		}
		total += n * mult
		matched = true
	}
	if !matched {
		return nil
	}
	return &total
}

// shortsPathSegment marks short-form video URLs.
const shortsPathSegment = "/shorts/"

// IsShorts reports whether a watch event refers to a short-form video.
// The URL signal takes precedence; the duration signal (≤60s) applies only
// when the URL lacks the shorts segment. A nil duration never matches.
func IsShorts(sourceURL string, durationSeconds *int) bool {
	if strings.Contains(sourceURL, shortsPathSegment) {
		return true
	}
	return durationSeconds != nil && *durationSeconds <= 60
}
