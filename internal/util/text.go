// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides small helpers shared by the services and handlers.
package util

import (
	"database/sql"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy removes every tag, leaving text only.
var strictPolicy = bluemonday.StrictPolicy()

// PlainText strips markup from visitor input and trims surrounding space.
// Entities produced by the sanitizer are decoded again so that "Tom & Jerry"
// is stored as typed; templates escape on output.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SingleLine collapses every run of whitespace, line breaks included, into
// one space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// ParseID parses a positive integer id from a URL parameter.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// NullInt64FromValue creates a sql.NullInt64 that is valid for non-zero values.
func NullInt64FromValue(val int64) sql.NullInt64 {
	return sql.NullInt64{Int64: val, Valid: val != 0}
}
