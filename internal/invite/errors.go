// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package invite

import (
	"errors"
	"net/http"
)

// Error kinds. Each maps to a distinct status and public message.
var (
	ErrEmailRequired     = errors.New("email is required")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrMailNotConfigured = errors.New("email service not configured")
	ErrAccountCreation   = errors.New("failed to create user account")
	ErrLinkFailed        = errors.New("failed to generate password reset link")
	ErrSendFailed        = errors.New("failed to send email")
)

// Error carries the kind of an issuance failure and the downstream detail.
type Error struct {
	Kind    error
	Details string
}

func (e *Error) Error() string {
	if e.Details == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Details
}

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, cause error) *Error {
	e := &Error{Kind: kind}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// Status returns the HTTP status for an issuance error.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrAccountCreation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message shown to the caller for an issuance error.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmailRequired):
		return "Email is required"
	case errors.Is(err, ErrInvalidEmail):
		return "Invalid email address"
	case errors.Is(err, ErrMailNotConfigured):
		return "Email service not configured. Please set CAMPJAM_RESEND_API_KEY."
	case errors.Is(err, ErrAccountCreation):
		return "Failed to create user account"
	case errors.Is(err, ErrLinkFailed):
		return "Failed to generate password reset link"
	case errors.Is(err, ErrSendFailed):
		return "Failed to send email"
	default:
		return "Internal server error"
	}
}

// Details returns the downstream detail of an issuance error, if any.
func Details(err error) string {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Details
	}
	return ""
}
