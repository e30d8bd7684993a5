package model

import (
	"database/sql"
	"time"
)

// APIToken is an admin's bearer credential for the JSON API. Only the hash of
// the token is stored; the prefix identifies it on the admin page.
type APIToken struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"user_id"`
	TokenHash   string       `json:"-"`
	TokenPrefix string       `json:"token_prefix"`
	ExpiresAt   time.Time    `json:"expires_at"`
	LastUsedAt  sql.NullTime `json:"last_used_at"`
	CreatedAt   time.Time    `json:"created_at"`
}
