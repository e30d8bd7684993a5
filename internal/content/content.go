// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content loads the static copy of the public site.
package content

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var siteYAML []byte

// Link is a labelled URL.
type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// Hero is the banner at the top of the home page.
type Hero struct {
	Title     string `yaml:"title"`
	Highlight string `yaml:"highlight"`
	Subtitle  string `yaml:"subtitle"`
	CTA       string `yaml:"cta"`
	Image     string `yaml:"image"`
}

// Value is one of the mission value cards.
type Value struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// Mission is the company statement. Body is markdown; BodyHTML is filled on load.
type Mission struct {
	Heading  string        `yaml:"heading"`
	Body     string        `yaml:"body"`
	Values   []Value       `yaml:"values"`
	BodyHTML template.HTML `yaml:"-"`
}

// Contact holds the business contact details.
type Contact struct {
	Intro   string   `yaml:"intro"`
	Address []string `yaml:"address"`
	Phone   string   `yaml:"phone"`
	Email   string   `yaml:"email"`
}

// Site is all static copy.
type Site struct {
	Name    string  `yaml:"name"`
	Tagline string  `yaml:"tagline"`
	Hero    Hero    `yaml:"hero"`
	Mission Mission `yaml:"mission"`
	Contact Contact `yaml:"contact"`
	Nav     []Link  `yaml:"nav"`
	Social  []Link  `yaml:"social"`
}

// Parse decodes site copy and renders the mission markdown. Raw HTML in the
// markdown is not passed through.
func Parse(data []byte) (*Site, error) {
	var s Site
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing site content: %w", err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("site content has no name")
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s.Mission.Body), &buf); err != nil {
		return nil, fmt.Errorf("rendering mission: %w", err)
	}
	s.Mission.BodyHTML = template.HTML(buf.String()) //nolint:gosec // goldmark escapes raw HTML by default

	return &s, nil
}

// Default returns the embedded site copy.
func Default() (*Site, error) {
	return Parse(siteYAML)
}
