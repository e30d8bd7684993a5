// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package gallery

import "github.com/olegiv/campjam-go/internal/model"

// Viewer is the lightbox state. Its methods return the next state and never
// mutate the receiver. n is the media count of the open project.
type Viewer struct {
	ProjectID int
	Index     int
	Open      bool
}

// OpenProject opens the lightbox on the project's first item.
func OpenProject(p model.Project) Viewer {
	return Viewer{ProjectID: p.ID, Index: 0, Open: true}
}

// Next moves forward, wrapping from the last item to the first.
func (v Viewer) Next(n int) Viewer {
	if n <= 0 {
		return v
	}
	v.Index = (v.Index + 1) % n
	return v
}

// Prev moves back, wrapping from the first item to the last.
func (v Viewer) Prev(n int) Viewer {
	if n <= 0 {
		return v
	}
	v.Index = (v.Index - 1 + n) % n
	return v
}

// Select jumps to item i. Out-of-range indices are clamped.
func (v Viewer) Select(i, n int) Viewer {
	switch {
	case n <= 0 || i < 0:
		v.Index = 0
	case i >= n:
		v.Index = n - 1
	default:
		v.Index = i
	}
	return v
}

// Close hides the lightbox and resets the index so reopening starts at the first item.
func (v Viewer) Close() Viewer {
	return Viewer{}
}

// Slide is everything the lightbox needs to render one position.
type Slide struct {
	Project model.Project
	Item    model.MediaItem
	Index   int
	Count   int
	PrevIdx int
	NextIdx int
}

// Slide resolves the viewer against its project.
func (v Viewer) Slide(p model.Project) Slide {
	n := len(p.Media)
	cur := v.Select(v.Index, n)
	s := Slide{Project: p, Index: cur.Index, Count: n}
	if n > 0 {
		s.Item = p.Media[cur.Index]
		s.PrevIdx = cur.Prev(n).Index
		s.NextIdx = cur.Next(n).Index
	}
	return s
}
