// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package invite provisions an account for a new admin and emails them a
// single-use link to set their own password.
package invite

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"

	"github.com/olegiv/campjam-go/internal/auth"
	campmail "github.com/olegiv/campjam-go/internal/mail"
	"github.com/olegiv/campjam-go/internal/model"
)

// Result describes a successful invitation.
type Result struct {
	Email          string
	AccountCreated bool
	MessageID      string
}

// Issuer sends invitations.
type Issuer struct {
	provider *auth.Provider
	sender   campmail.Sender
	logger   *slog.Logger
}

// NewIssuer creates an Issuer. A nil sender means mail is not configured and
// every issuance fails with ErrMailNotConfigured.
func NewIssuer(provider *auth.Provider, sender campmail.Sender, logger *slog.Logger) *Issuer {
	return &Issuer{provider: provider, sender: sender, logger: logger}
}

// Issue provisions the account behind email with a random credential that is
// never shown, then mails a password-set link valid for auth.RecoveryLinkTTL.
// An already registered email is not an error: a fresh link is sent.
func (i *Issuer) Issue(ctx context.Context, email string) (Result, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return Result{}, fail(ErrEmailRequired, nil)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return Result{}, fail(ErrInvalidEmail, err)
	}
	if i.sender == nil {
		return Result{}, fail(ErrMailNotConfigured, nil)
	}

	created := true
	if _, err := i.provider.CreateAccount(ctx, email, auth.RandomPassword(), true); err != nil {
		if !errors.Is(err, auth.ErrAlreadyRegistered) {
			i.logger.Error("error creating user", "email", email, "error", err)
			return Result{}, fail(ErrAccountCreation, err)
		}
		created = false
		i.logger.Info("user already exists, sending a new link", "email", email)
	}

	link, err := i.provider.GenerateRecoveryLink(ctx, email)
	if err != nil {
		i.logger.Error("error generating reset link", "email", email, "error", err)
		return Result{}, fail(ErrLinkFailed, err)
	}

	msg, err := campmail.InviteMessage(email, link.URL, auth.RecoveryLinkTTL)
	if err != nil {
		return Result{}, fail(ErrSendFailed, err)
	}

	id, err := i.sender.Send(ctx, msg)
	if err != nil {
		i.logger.Error("error sending invitation", "email", email, "error", err)
		return Result{}, fail(ErrSendFailed, err)
	}

	return Result{Email: email, AccountCreated: created, MessageID: id}, nil
}
