// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package catalog

import (
	"strconv"
	"time"

	"github.com/watchlog/watchlog/internal/models"
)

// Wire types for the YouTube Data API v3. Only the fields Watchlog reads are
// declared; the decoder ignores the rest.

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID             string            `json:"id"`
	Snippet        videoSnippet      `json:"snippet"`
	ContentDetails contentDetails    `json:"contentDetails"`
	Statistics     videoStatistics   `json:"statistics"`
	Status         videoStatus       `json:"status"`
	TopicDetails   videoTopicDetails `json:"topicDetails"`
}

type videoSnippet struct {
	PublishedAt          time.Time                     `json:"publishedAt"`
	ChannelID            string                        `json:"channelId"`
	Title                string                        `json:"title"`
	Description          string                        `json:"description"`
	Thumbnails           map[string]models.Thumbnail   `json:"thumbnails"`
	ChannelTitle         string                        `json:"channelTitle"`
	Tags                 []string                      `json:"tags"`
	CategoryID           string                        `json:"categoryId"`
	LiveBroadcastContent string                        `json:"liveBroadcastContent"`
	DefaultLanguage      string                        `json:"defaultLanguage"`
	DefaultAudioLanguage string                        `json:"defaultAudioLanguage"`
}

type contentDetails struct {
	Duration   string `json:"duration"`
	Definition string `json:"definition"`
	// Caption arrives as the string "true"/"false", not a JSON bool.
	Caption           string                    `json:"caption"`
	RegionRestriction *models.RegionRestriction `json:"regionRestriction"`
	// ContentRating values are almost all strings; the occasional array
	// (rating reasons) is dropped by the string filter in toRecord.
	ContentRating map[string]interface{} `json:"contentRating"`
}

// videoStatistics counters arrive as decimal strings.
type videoStatistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

type videoStatus struct {
	UploadStatus    string `json:"uploadStatus"`
	PrivacyStatus   string `json:"privacyStatus"`
	MadeForKids     bool   `json:"madeForKids"`
	Embeddable      bool   `json:"embeddable"`
	PublicStatsView bool   `json:"publicStatsViewable"`
}

type videoTopicDetails struct {
	TopicCategories []string `json:"topicCategories"`
}

type categoryListResponse struct {
	Items []categoryItem `json:"items"`
}

type categoryItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title string `json:"title"`
	} `json:"snippet"`
}

type channelListResponse struct {
	Items []channelItem `json:"items"`
}

type channelItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		CustomURL   string    `json:"customUrl"`
		PublishedAt time.Time `json:"publishedAt"`
		Country     string    `json:"country"`
	} `json:"snippet"`
	Statistics struct {
		SubscriberCount string `json:"subscriberCount"`
		VideoCount      string `json:"videoCount"`
	} `json:"statistics"`
	BrandingSettings struct {
		Image struct {
			BannerExternalURL string `json:"bannerExternalUrl"`
		} `json:"image"`
	} `json:"brandingSettings"`
}

// toRecord maps a catalog video item to the immutable metadata snapshot.
func (v *videoItem) toRecord() *models.MetadataRecord {
	rec := &models.MetadataRecord{
		Title:                v.Snippet.Title,
		Description:          v.Snippet.Description,
		ChannelID:            v.Snippet.ChannelID,
		ChannelTitle:         v.Snippet.ChannelTitle,
		Tags:                 v.Snippet.Tags,
		Thumbnails:           v.Snippet.Thumbnails,
		CategoryID:           v.Snippet.CategoryID,
		DefaultLanguage:      v.Snippet.DefaultLanguage,
		DefaultAudioLanguage: v.Snippet.DefaultAudioLanguage,
		DurationSeconds:      ParseDuration(v.ContentDetails.Duration),
		Definition:           v.ContentDetails.Definition,
		Caption:              v.ContentDetails.Caption == "true",
		RegionRestriction:    v.ContentDetails.RegionRestriction,
		LiveBroadcastContent: normalizeLiveContent(v.Snippet.LiveBroadcastContent),
		MadeForKids:          v.Status.MadeForKids,
		ViewCount:            parseCount(v.Statistics.ViewCount),
		LikeCount:            parseCount(v.Statistics.LikeCount),
		CommentCount:         parseCount(v.Statistics.CommentCount),
		TopicCategories:      v.TopicDetails.TopicCategories,
	}

	if !v.Snippet.PublishedAt.IsZero() {
		t := v.Snippet.PublishedAt
		rec.PublishedAt = &t
	}

	if len(v.ContentDetails.ContentRating) > 0 {
		ratings := make(map[string]string, len(v.ContentDetails.ContentRating))
		for k, raw := range v.ContentDetails.ContentRating {
			if s, ok := raw.(string); ok {
				ratings[k] = s
			}
		}
		if len(ratings) > 0 {
			rec.ContentRating = ratings
		}
	}

	return rec
}

// toRecord maps a catalog channel item to the enrichment record.
func (c *channelItem) toRecord() *models.ChannelRecord {
	rec := &models.ChannelRecord{
		ChannelID:       c.ID,
		CustomURL:       c.Snippet.CustomURL,
		Country:         c.Snippet.Country,
		Description:     c.Snippet.Description,
		BannerURL:       c.BrandingSettings.Image.BannerExternalURL,
		SubscriberCount: parseCount(c.Statistics.SubscriberCount),
		VideoCount:      parseCount(c.Statistics.VideoCount),
	}
	if !c.Snippet.PublishedAt.IsZero() {
		t := c.Snippet.PublishedAt
		rec.CreatedAt = &t
	}
	return rec
}

// parseCount converts a decimal string counter to *int64, nil when absent
// or malformed.
func parseCount(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// normalizeLiveContent clamps unknown live states to "none".
func normalizeLiveContent(s string) string {
	switch s {
	case models.LiveContentLive, models.LiveContentUpcoming:
		return s
	default:
		return models.LiveContentNone
	}
}
