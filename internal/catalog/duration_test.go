// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package catalog

import "testing"

func TestParseDuration(t *testing.T) {
	intPtr := func(n int) *int { return &n }

	tests := []struct {
		input string
		want  *int
	}{
		{"PT1H2M3S", intPtr(3723)},
		{"PT5M", intPtr(300)},
		{"PT45S", intPtr(45)},
		{"PT2H", intPtr(7200)},
		{"PT1H30S", intPtr(3630)},
		{"PT0S", intPtr(0)},
		{"", nil},
		{"PT", nil},
		{"5 minutes", nil},
		{"P1DT2H", nil},
		{"PT1.5M", nil},
	}

	for _, tt := range tests {
		got := ParseDuration(tt.input)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("ParseDuration(%q) = %d, want nil", tt.input, *got)
		case tt.want != nil && got == nil:
			t.Errorf("ParseDuration(%q) = nil, want %d", tt.input, *tt.want)
		case tt.want != nil && got != nil && *got != *tt.want:
			t.Errorf("ParseDuration(%q) = %d, want %d", tt.input, *got, *tt.want)
		}
	}
}

func TestIsShorts(t *testing.T) {
	intPtr := func(n int) *int { return &n }

	tests := []struct {
		name     string
		url      string
		duration *int
		want     bool
	}{
		{"shorts url wins regardless of duration", "https://www.youtube.com/shorts/abc123", intPtr(600), true},
		{"shorts url with nil duration", "https://www.youtube.com/shorts/abc123", nil, true},
		{"watch url with 60s duration", "https://www.youtube.com/watch?v=abc123", intPtr(60), true},
		{"watch url with 90s duration", "https://www.youtube.com/watch?v=abc123", intPtr(90), false},
		{"watch url with nil duration", "https://www.youtube.com/watch?v=abc123", nil, false},
		{"watch url with 1s duration", "https://www.youtube.com/watch?v=abc123", intPtr(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsShorts(tt.url, tt.duration); got != tt.want {
				t.Errorf("IsShorts(%q, %v) = %v, want %v", tt.url, tt.duration, got, tt.want)
			}
		})
	}
}
