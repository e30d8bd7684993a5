// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "fmt"

// MediaKind tags a gallery media item.
type MediaKind string

// Media kinds
const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaItem is a single image or video in a project.
type MediaItem struct {
	Kind   MediaKind `yaml:"type" json:"type"`
	Source string    `yaml:"src" json:"src"`
	Poster string    `yaml:"poster,omitempty" json:"poster,omitempty"` // video only
	Alt    string    `yaml:"alt,omitempty" json:"alt,omitempty"`
}

// IsVideo reports whether the item is a video.
func (m MediaItem) IsVideo() bool {
	return m.Kind == MediaVideo
}

// Validate checks the item's tag and source.
func (m MediaItem) Validate() error {
	switch m.Kind {
	case MediaImage, MediaVideo:
	default:
		return fmt.Errorf("unknown media type %q", m.Kind)
	}
	if m.Source == "" {
		return fmt.Errorf("media source is empty")
	}
	return nil
}

// Project is a portfolio entry shown in the gallery.
type Project struct {
	ID       int         `yaml:"id" json:"id"`
	Title    string      `yaml:"title" json:"title"`
	Category string      `yaml:"category" json:"category"`
	Media    []MediaItem `yaml:"media" json:"media"`
}

// Cover returns the first media item, used as the grid thumbnail.
func (p Project) Cover() MediaItem {
	if len(p.Media) == 0 {
		return MediaItem{}
	}
	return p.Media[0]
}

// HasVideo reports whether any of the project's media is a video.
func (p Project) HasVideo() bool {
	for _, m := range p.Media {
		if m.IsVideo() {
			return true
		}
	}
	return false
}
