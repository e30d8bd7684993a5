// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	if s.Name != "CampJam Flooring" {
		t.Errorf("Name = %q", s.Name)
	}
	if len(s.Mission.Values) != 3 {
		t.Errorf("got %d value cards, want 3", len(s.Mission.Values))
	}
	if !strings.Contains(string(s.Mission.BodyHTML), "<strong>CampJam Flooring</strong>") {
		t.Errorf("mission markdown not rendered: %s", s.Mission.BodyHTML)
	}
	if s.Contact.Email == "" || s.Contact.Phone == "" {
		t.Error("contact details missing")
	}
}

func TestParse_RawHTMLIsDropped(t *testing.T) {
	s, err := Parse([]byte("name: X\nmission:\n  body: \"<script>alert(1)</script> *hi*\"\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if strings.Contains(string(s.Mission.BodyHTML), "<script>") {
		t.Errorf("raw HTML passed through: %s", s.Mission.BodyHTML)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("hero: [")); err == nil {
		t.Error("Parse() accepted invalid YAML")
	}
	if _, err := Parse([]byte("tagline: no name\n")); err == nil {
		t.Error("Parse() accepted content without a name")
	}
}
