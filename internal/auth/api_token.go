package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/store"
)

// APITokenTTL is how long an issued API token stays valid.
const APITokenTTL = 30 * 24 * time.Hour

// apiTokenPrefixLen is how much of a token is kept in clear.
const apiTokenPrefixLen = 8

// ErrInvalidAPIToken is returned for unknown and expired API tokens.
var ErrInvalidAPIToken = errors.New("API token is invalid or has expired")

// IssueAPIToken creates a new API token for userID, replacing any previous
// one. The raw token is returned once; only its hash is stored.
func (p *Provider) IssueAPIToken(ctx context.Context, userID int64) (string, model.APIToken, error) {
	raw, err := NewToken()
	if err != nil {
		return "", model.APIToken{}, err
	}

	now := p.now()
	tok, err := p.queries.UpsertAPIToken(ctx, store.UpsertAPITokenParams{
		UserID:      userID,
		TokenHash:   HashToken(raw),
		TokenPrefix: raw[:apiTokenPrefixLen],
		ExpiresAt:   now.Add(APITokenTTL),
		CreatedAt:   now,
	})
	if err != nil {
		return "", model.APIToken{}, fmt.Errorf("storing API token: %w", err)
	}
	return raw, tok, nil
}

// ResolveAPIToken returns the user a bearer token was issued to and records
// the use.
func (p *Provider) ResolveAPIToken(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidAPIToken
	}
	tok, err := p.queries.GetAPITokenByHash(ctx, HashToken(token))
	if err != nil {
		if store.IsNotFound(err) {
			return 0, ErrInvalidAPIToken
		}
		return 0, fmt.Errorf("loading API token: %w", err)
	}

	now := p.now()
	if !now.Before(tok.ExpiresAt) {
		return 0, ErrInvalidAPIToken
	}
	if err := p.queries.TouchAPIToken(ctx, tok.ID, now); err != nil {
		slog.Warn("recording API token use failed", "error", err, "user_id", tok.UserID)
	}
	return tok.UserID, nil
}

// APIToken returns the user's current token, if any.
func (p *Provider) APIToken(ctx context.Context, userID int64) (model.APIToken, bool, error) {
	tok, err := p.queries.GetAPITokenByUserID(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return model.APIToken{}, false, nil
		}
		return model.APIToken{}, false, fmt.Errorf("loading API token: %w", err)
	}
	return tok, true, nil
}

// RevokeAPIToken deletes the user's token. Revoking a missing token is not an error.
func (p *Provider) RevokeAPIToken(ctx context.Context, userID int64) error {
	if _, err := p.queries.DeleteAPITokenByUserID(ctx, userID); err != nil {
		return fmt.Errorf("revoking API token: %w", err)
	}
	return nil
}
