// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/store"
)

// RecoveryLinkTTL is how long a password-set link stays valid.
const RecoveryLinkTTL = 24 * time.Hour

// ResetPasswordPath is the landing page of recovery links.
const ResetPasswordPath = "/reset-password"

// Errors returned by the provider.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyRegistered  = errors.New("a user with this email address has already been registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("password reset link is invalid or has expired")
)

// Provider authenticates accounts stored in the users table.
type Provider struct {
	db      *sql.DB
	queries *store.Queries
	siteURL string
	now     func() time.Time
}

// NewProvider creates a Provider. siteURL is the public base URL used in recovery links.
func NewProvider(db *sql.DB, siteURL string) *Provider {
	return &Provider{
		db:      db,
		queries: store.New(db),
		siteURL: strings.TrimRight(siteURL, "/"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SignIn verifies credentials and returns the account.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (p *Provider) SignIn(ctx context.Context, email, password string) (model.User, error) {
	email = model.NormalizeEmail(email)

	user, err := p.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if store.IsNotFound(err) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}

	valid, err := CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err, "user_id", user.ID)
		return model.User{}, ErrInvalidCredentials
	}
	if !valid {
		return model.User{}, ErrInvalidCredentials
	}

	now := p.now()
	if NeedsRehash(user.PasswordHash) {
		if newHash, err := HashPassword(password); err == nil {
			if err := p.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: newHash, UpdatedAt: now, ID: user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := p.queries.UpdateUserLastLogin(ctx, sql.NullTime{Time: now, Valid: true}, user.ID); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	return user, nil
}

// UserByID returns the account behind a session.
func (p *Provider) UserByID(ctx context.Context, id int64) (model.User, error) {
	user, err := p.queries.GetUserByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// CreateAccount creates an account. It returns ErrAlreadyRegistered when the email is taken.
func (p *Provider) CreateAccount(ctx context.Context, email, password string, confirmed bool) (model.User, error) {
	email = model.NormalizeEmail(email)

	hash, err := HashPassword(password)
	if err != nil {
		return model.User{}, err
	}

	now := p.now()
	user, err := p.queries.CreateUser(ctx, store.CreateUserParams{
		Email:          email,
		PasswordHash:   hash,
		EmailConfirmed: confirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.User{}, ErrAlreadyRegistered
		}
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// RecoveryLink is a single-use password-set link.
type RecoveryLink struct {
	URL       string
	ExpiresAt time.Time
}

// GenerateRecoveryLink issues a single-use link that lets the account owner set a password.
func (p *Provider) GenerateRecoveryLink(ctx context.Context, email string) (RecoveryLink, error) {
	email = model.NormalizeEmail(email)

	user, err := p.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if store.IsNotFound(err) {
			return RecoveryLink{}, ErrUserNotFound
		}
		return RecoveryLink{}, fmt.Errorf("loading user: %w", err)
	}

	token, err := NewToken()
	if err != nil {
		return RecoveryLink{}, err
	}

	now := p.now()
	expiresAt := now.Add(RecoveryLinkTTL)
	if _, err := p.queries.CreatePasswordResetToken(ctx, store.CreatePasswordResetTokenParams{
		UserID:    user.ID,
		TokenHash: HashToken(token),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}); err != nil {
		return RecoveryLink{}, fmt.Errorf("storing reset token: %w", err)
	}

	return RecoveryLink{
		URL:       p.siteURL + ResetPasswordPath + "?token=" + url.QueryEscape(token),
		ExpiresAt: expiresAt,
	}, nil
}

// CheckRecoveryToken reports whether a token can still be used, returning its account.
func (p *Provider) CheckRecoveryToken(ctx context.Context, token string) (model.User, error) {
	rt, err := p.lookupToken(ctx, p.queries, token)
	if err != nil {
		return model.User{}, err
	}
	return p.UserByID(ctx, rt.UserID)
}

// ResetPassword consumes a recovery token and sets the account's password.
func (p *Provider) ResetPassword(ctx context.Context, token, newPassword string) (model.User, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return model.User{}, err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return model.User{}, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := p.queries.WithTx(tx)
	rt, err := p.lookupToken(ctx, q, token)
	if err != nil {
		return model.User{}, err
	}

	now := p.now()
	n, err := q.MarkPasswordResetTokenUsed(ctx, rt.ID, now)
	if err != nil {
		return model.User{}, fmt.Errorf("consuming token: %w", err)
	}
	if n == 0 {
		return model.User{}, ErrInvalidToken
	}

	if err := q.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash, UpdatedAt: now, ID: rt.UserID,
	}); err != nil {
		return model.User{}, fmt.Errorf("updating password: %w", err)
	}

	user, err := q.GetUserByID(ctx, rt.UserID)
	if err != nil {
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, fmt.Errorf("committing: %w", err)
	}
	return user, nil
}

// PurgeExpiredTokens removes consumed and expired recovery tokens and
// expired API tokens.
func (p *Provider) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	now := p.now()
	resets, err := p.queries.DeleteExpiredResetTokens(ctx, now)
	if err != nil {
		return 0, err
	}
	apiTokens, err := p.queries.DeleteExpiredAPITokens(ctx, now)
	if err != nil {
		return resets, err
	}
	return resets + apiTokens, nil
}

func (p *Provider) lookupToken(ctx context.Context, q *store.Queries, token string) (store.PasswordResetToken, error) {
	if token == "" {
		return store.PasswordResetToken{}, ErrInvalidToken
	}
	rt, err := q.GetPasswordResetToken(ctx, HashToken(token))
	if err != nil {
		if store.IsNotFound(err) {
			return store.PasswordResetToken{}, ErrInvalidToken
		}
		return store.PasswordResetToken{}, fmt.Errorf("loading token: %w", err)
	}
	if rt.UsedAt.Valid || !p.now().Before(rt.ExpiresAt) {
		return store.PasswordResetToken{}, ErrInvalidToken
	}
	return rt, nil
}
