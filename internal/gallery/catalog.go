// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gallery holds the project portfolio and the lightbox viewer state.
package gallery

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/olegiv/campjam-go/internal/model"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Filter categories shown above the grid.
const (
	CategoryAll    = "All"
	CategoryTiles  = "Tiles"
	CategoryMarble = "Marble"
	CategoryVideos = "Videos"
)

// Categories lists the filters in display order.
var Categories = []string{CategoryAll, CategoryTiles, CategoryMarble, CategoryVideos}

// ErrProjectNotFound is returned for an unknown project id.
var ErrProjectNotFound = errors.New("project not found")

// Catalog is the immutable list of projects.
type Catalog struct {
	projects []model.Project
	byID     map[int]int
}

type catalogFile struct {
	Projects []model.Project `yaml:"projects"`
}

// Parse decodes and validates a catalog. Project ids must be unique and every
// project needs at least one valid media item.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{projects: f.Projects, byID: make(map[int]int, len(f.Projects))}
	for i, p := range f.Projects {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate project id %d", p.ID)
		}
		if len(p.Media) == 0 {
			return nil, fmt.Errorf("project %d has no media", p.ID)
		}
		for j, m := range p.Media {
			if err := m.Validate(); err != nil {
				return nil, fmt.Errorf("project %d media %d: %w", p.ID, j, err)
			}
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Projects returns all projects in catalog order.
func (c *Catalog) Projects() []model.Project {
	return c.projects
}

// Project returns the project with id.
func (c *Catalog) Project(id int) (model.Project, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Project{}, ErrProjectNotFound
	}
	return c.projects[i], nil
}

// Filter returns projects in category. "All" and unknown categories return
// everything; "Videos" matches projects that contain a video.
func (c *Catalog) Filter(category string) []model.Project {
	switch category {
	case CategoryAll, "":
		return c.projects
	case CategoryVideos:
		return c.match(model.Project.HasVideo)
	default:
		if !ValidCategory(category) {
			return c.projects
		}
		return c.match(func(p model.Project) bool { return p.Category == category })
	}
}

func (c *Catalog) match(keep func(model.Project) bool) []model.Project {
	out := make([]model.Project, 0, len(c.projects))
	for _, p := range c.projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// ValidCategory reports whether category is one of Categories.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
