package store

import (
	"context"
	"time"

	"github.com/olegiv/campjam-go/internal/model"
)

// UpsertAPITokenParams holds the columns of a newly issued API token.
type UpsertAPITokenParams struct {
	UserID      int64
	TokenHash   string
	TokenPrefix string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

const upsertAPIToken = `
INSERT INTO api_tokens (user_id, token_hash, token_prefix, expires_at, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    token_hash = excluded.token_hash,
    token_prefix = excluded.token_prefix,
    expires_at = excluded.expires_at,
    last_used_at = NULL,
    created_at = excluded.created_at
RETURNING id, user_id, token_hash, token_prefix, expires_at, last_used_at, created_at`

// UpsertAPIToken stores the user's API token, replacing any previous one.
func (q *Queries) UpsertAPIToken(ctx context.Context, arg UpsertAPITokenParams) (model.APIToken, error) {
	row := q.db.QueryRowContext(ctx, upsertAPIToken,
		arg.UserID, arg.TokenHash, arg.TokenPrefix, arg.ExpiresAt, arg.CreatedAt)
	return scanAPIToken(row)
}

const getAPITokenByHash = `
SELECT id, user_id, token_hash, token_prefix, expires_at, last_used_at, created_at
FROM api_tokens WHERE token_hash = ?`

// GetAPITokenByHash looks a token up by hash.
func (q *Queries) GetAPITokenByHash(ctx context.Context, tokenHash string) (model.APIToken, error) {
	return scanAPIToken(q.db.QueryRowContext(ctx, getAPITokenByHash, tokenHash))
}

const getAPITokenByUserID = `
SELECT id, user_id, token_hash, token_prefix, expires_at, last_used_at, created_at
FROM api_tokens WHERE user_id = ?`

// GetAPITokenByUserID returns the user's current token.
func (q *Queries) GetAPITokenByUserID(ctx context.Context, userID int64) (model.APIToken, error) {
	return scanAPIToken(q.db.QueryRowContext(ctx, getAPITokenByUserID, userID))
}

const touchAPIToken = `UPDATE api_tokens SET last_used_at = ? WHERE id = ?`

// TouchAPIToken records a use of the token.
func (q *Queries) TouchAPIToken(ctx context.Context, id int64, usedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, touchAPIToken, usedAt, id)
	return err
}

const deleteAPITokenByUserID = `DELETE FROM api_tokens WHERE user_id = ?`

// DeleteAPITokenByUserID revokes the user's token and returns the number of rows removed.
func (q *Queries) DeleteAPITokenByUserID(ctx context.Context, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAPITokenByUserID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpiredAPITokens = `DELETE FROM api_tokens WHERE expires_at < ?`

// DeleteExpiredAPITokens purges expired API tokens.
func (q *Queries) DeleteExpiredAPITokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredAPITokens, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAPIToken(s scanner) (model.APIToken, error) {
	var t model.APIToken
	err := s.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.TokenPrefix, &t.ExpiresAt, &t.LastUsedAt, &t.CreatedAt)
	return t, err
}
