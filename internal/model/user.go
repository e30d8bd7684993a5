// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including Review, AdminUser, User, Project and Event.
package model

import (
	"database/sql"
	"strings"
	"time"
)

// User represents an authenticatable account.
// An account alone grants nothing: dashboard access also requires an active AdminUser row.
type User struct {
	ID             int64        `json:"id"`
	Email          string       `json:"email"`
	PasswordHash   string       `json:"-"` // Never expose in JSON
	EmailConfirmed bool         `json:"email_confirmed"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	LastLoginAt    sql.NullTime `json:"last_login_at,omitempty"`
}

// AdminUser is an allow-list entry controlling access to the admin dashboard.
type AdminUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// NormalizeEmail lowercases and trims an email address.
// Allow-list lookups and account lookups always go through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
