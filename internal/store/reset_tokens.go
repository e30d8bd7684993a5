package store

import (
	"context"
	"database/sql"
	"time"
)

// PasswordResetToken is a stored single-use recovery token. Only its hash is kept.
type PasswordResetToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	UsedAt    sql.NullTime
	CreatedAt time.Time
}

// CreatePasswordResetTokenParams holds the columns of a new recovery token.
type CreatePasswordResetTokenParams struct {
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

const createPasswordResetToken = `
INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, user_id, token_hash, expires_at, used_at, created_at`

// CreatePasswordResetToken stores a recovery token hash.
func (q *Queries) CreatePasswordResetToken(ctx context.Context, arg CreatePasswordResetTokenParams) (PasswordResetToken, error) {
	row := q.db.QueryRowContext(ctx, createPasswordResetToken, arg.UserID, arg.TokenHash, arg.ExpiresAt, arg.CreatedAt)
	return scanResetToken(row)
}

const getPasswordResetToken = `
SELECT id, user_id, token_hash, expires_at, used_at, created_at
FROM password_reset_tokens WHERE token_hash = ?`

// GetPasswordResetToken looks a token up by hash.
func (q *Queries) GetPasswordResetToken(ctx context.Context, tokenHash string) (PasswordResetToken, error) {
	return scanResetToken(q.db.QueryRowContext(ctx, getPasswordResetToken, tokenHash))
}

const markPasswordResetTokenUsed = `
UPDATE password_reset_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL`

// MarkPasswordResetTokenUsed consumes a token. It returns 0 when the token was already used.
func (q *Queries) MarkPasswordResetTokenUsed(ctx context.Context, id int64, usedAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, markPasswordResetTokenUsed, usedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpiredResetTokens = `DELETE FROM password_reset_tokens WHERE expires_at < ? OR used_at IS NOT NULL`

// DeleteExpiredResetTokens purges expired and consumed tokens.
func (q *Queries) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredResetTokens, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanResetToken(s scanner) (PasswordResetToken, error) {
	var t PasswordResetToken
	err := s.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	return t, err
}
