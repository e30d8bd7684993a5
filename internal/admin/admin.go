// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package admin implements the dashboard gate: allow-list authorization,
// the login flow and allow-list management.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/olegiv/campjam-go/internal/auth"
	"github.com/olegiv/campjam-go/internal/invite"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/store"
)

// Errors returned by the admin service.
var (
	ErrNotAuthorized = errors.New("not authorized as an admin")
	ErrAdminExists   = errors.New("this email is already on the admin list")
	ErrAdminNotFound = errors.New("admin not found")
	ErrSelfRemoval   = errors.New("you cannot remove or deactivate your own admin access")
	ErrInvalidEmail  = errors.New("please enter a valid email address")
)

// AuthorizationError is returned by Login when the password was correct but
// the account is not on the active allow-list. The caller must end the session.
type AuthorizationError struct {
	Email string
}

func (e *AuthorizationError) Error() string {
	return "access denied: " + e.Email + " is not an active admin"
}

// Is makes errors.Is(err, ErrNotAuthorized) match.
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrNotAuthorized
}

// InviteError reports that an allow-list entry was created but the invitation failed.
type InviteError struct {
	Admin model.AdminUser
	Err   error
}

func (e *InviteError) Error() string {
	return fmt.Sprintf("admin %s added but the invitation failed: %v", e.Admin.Email, e.Err)
}

func (e *InviteError) Unwrap() error { return e.Err }

// Inviter issues password-set invitations.
type Inviter interface {
	Issue(ctx context.Context, email string) (invite.Result, error)
}

// Service is the admin gate and allow-list manager.
type Service struct {
	queries  *store.Queries
	provider *auth.Provider
	inviter  Inviter
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the admin service. inviter may be nil, in which case
// new admins are allow-listed without an invitation.
func NewService(db *sql.DB, provider *auth.Provider, inviter Inviter, logger *slog.Logger) *Service {
	return &Service{
		queries:  store.New(db),
		provider: provider,
		inviter:  inviter,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Authorize checks the allow-list. The email is lowercased and the entry must be active.
func (s *Service) Authorize(ctx context.Context, email string) (model.AdminUser, error) {
	a, err := s.queries.GetActiveAdminUserByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if store.IsNotFound(err) {
			return model.AdminUser{}, ErrNotAuthorized
		}
		return model.AdminUser{}, fmt.Errorf("checking allow-list: %w", err)
	}
	return a, nil
}

// LoginResult is the outcome of a login attempt.
type LoginResult struct {
	User  model.User
	Admin model.AdminUser
	State LoginState
}

// Login signs in and then checks the allow-list. On an allow-list failure it
// returns *AuthorizationError and a result whose State is Unauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	state := Transition(Unauthenticated, CredentialsSubmitted)

	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return LoginResult{State: Transition(state, CredentialsRejected)}, err
	}

	a, err := s.Authorize(ctx, user.Email)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			return LoginResult{User: user, State: Transition(state, AllowListFailed)},
				&AuthorizationError{Email: user.Email}
		}
		// A failed check must not let the session through.
		return LoginResult{User: user, State: Transition(state, AllowListFailed)}, err
	}

	return LoginResult{User: user, Admin: a, State: Transition(state, AllowListPassed)}, nil
}

// Restore re-checks a session's user against the allow-list. It is run on
// every dashboard request so that a revoked admin loses access immediately.
func (s *Service) Restore(ctx context.Context, userID int64) (model.User, model.AdminUser, error) {
	user, err := s.provider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return model.User{}, model.AdminUser{}, ErrNotAuthorized
		}
		return model.User{}, model.AdminUser{}, err
	}
	a, err := s.Authorize(ctx, user.Email)
	if err != nil {
		return user, model.AdminUser{}, err
	}
	return user, a, nil
}

// Get returns a single allow-list entry.
func (s *Service) Get(ctx context.Context, id int64) (model.AdminUser, error) {
	return s.get(ctx, id)
}

// List returns all allow-list entries, newest first.
func (s *Service) List(ctx context.Context) ([]model.AdminUser, error) {
	return s.queries.ListAdminUsers(ctx)
}

// AddAdmin allow-lists email on behalf of actor and sends the invitation.
// If the entry is created but the invitation fails, the entry is kept and an
// *InviteError is returned.
func (s *Service) AddAdmin(ctx context.Context, actor, email string) (model.AdminUser, error) {
	email = model.NormalizeEmail(email)
	if !validEmail(email) {
		return model.AdminUser{}, ErrInvalidEmail
	}

	a, err := s.queries.CreateAdminUser(ctx, store.CreateAdminUserParams{
		Email:     email,
		IsActive:  true,
		CreatedAt: s.now(),
		CreatedBy: model.NormalizeEmail(actor),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.AdminUser{}, ErrAdminExists
		}
		return model.AdminUser{}, fmt.Errorf("adding admin: %w", err)
	}

	if s.inviter == nil {
		return a, nil
	}
	if _, err := s.inviter.Issue(ctx, email); err != nil {
		return a, &InviteError{Admin: a, Err: err}
	}
	return a, nil
}

// Reinvite sends a fresh invitation to an existing allow-list entry.
func (s *Service) Reinvite(ctx context.Context, id int64) (model.AdminUser, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return model.AdminUser{}, err
	}
	if s.inviter == nil {
		return a, &InviteError{Admin: a, Err: invite.ErrMailNotConfigured}
	}
	if _, err := s.inviter.Issue(ctx, a.Email); err != nil {
		return a, &InviteError{Admin: a, Err: err}
	}
	return a, nil
}

// RemoveAdmin deletes an allow-list entry. Admins cannot remove themselves.
// The account itself is kept; without the entry it grants nothing.
func (s *Service) RemoveAdmin(ctx context.Context, actor string, id int64) (model.AdminUser, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return model.AdminUser{}, err
	}
	if a.Email == model.NormalizeEmail(actor) {
		return model.AdminUser{}, ErrSelfRemoval
	}

	n, err := s.queries.DeleteAdminUser(ctx, id)
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("removing admin: %w", err)
	}
	if n == 0 {
		return model.AdminUser{}, ErrAdminNotFound
	}
	return a, nil
}

// SetActive activates or deactivates an entry without deleting it.
func (s *Service) SetActive(ctx context.Context, actor string, id int64, active bool) (model.AdminUser, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return model.AdminUser{}, err
	}
	if !active && a.Email == model.NormalizeEmail(actor) {
		return model.AdminUser{}, ErrSelfRemoval
	}

	if _, err := s.queries.SetAdminUserActive(ctx, id, active); err != nil {
		return model.AdminUser{}, fmt.Errorf("updating admin: %w", err)
	}
	a.IsActive = active
	return a, nil
}

// BootstrapResult describes what Bootstrap did.
type BootstrapResult struct {
	Created bool
	// Link is set when no invitation could be mailed; it must be handed to
	// the operator out of band.
	Link string
}

// Bootstrap allow-lists email when the allow-list is empty and provisions
// its account. It does nothing once any admin exists.
func (s *Service) Bootstrap(ctx context.Context, email string) (BootstrapResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return BootstrapResult{}, nil
	}

	existing, err := s.queries.ListAdminUsers(ctx)
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("listing admins: %w", err)
	}
	if len(existing) > 0 {
		return BootstrapResult{}, nil
	}

	if _, err := s.queries.CreateAdminUser(ctx, store.CreateAdminUserParams{
		Email:     email,
		IsActive:  true,
		CreatedAt: s.now(),
		CreatedBy: "bootstrap",
	}); err != nil {
		return BootstrapResult{}, fmt.Errorf("bootstrapping admin: %w", err)
	}
	s.logger.Info("bootstrap admin allow-listed", "email", email)

	if s.inviter != nil {
		_, err := s.inviter.Issue(ctx, email)
		if err == nil {
			return BootstrapResult{Created: true}, nil
		}
		s.logger.Warn("bootstrap invitation failed, issuing link locally", "error", err)
	}

	if _, err := s.provider.CreateAccount(ctx, email, auth.RandomPassword(), true); err != nil &&
		!errors.Is(err, auth.ErrAlreadyRegistered) {
		return BootstrapResult{Created: true}, err
	}
	link, err := s.provider.GenerateRecoveryLink(ctx, email)
	if err != nil {
		return BootstrapResult{Created: true}, err
	}
	return BootstrapResult{Created: true, Link: link.URL}, nil
}

func (s *Service) get(ctx context.Context, id int64) (model.AdminUser, error) {
	a, err := s.queries.GetAdminUserByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return model.AdminUser{}, ErrAdminNotFound
		}
		return model.AdminUser{}, fmt.Errorf("loading admin: %w", err)
	}
	return a, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
