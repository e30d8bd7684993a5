// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

// LoginState is the admin gate's position in the login flow.
type LoginState int

// Login states
const (
	Unauthenticated LoginState = iota
	Checking
	Authorized
	Unauthorized
)

func (s LoginState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// LoginEvent drives LoginState transitions.
type LoginEvent int

// Login events
const (
	CredentialsSubmitted LoginEvent = iota
	CredentialsRejected
	AllowListPassed
	AllowListFailed
	SignedOut
	SessionRevoked
)

// Transition is the login reducer. Events that do not apply to the current
// state leave it unchanged. Unauthorized is never a resting state: any event
// received there, and Settle, return the gate to Unauthenticated.
func Transition(s LoginState, e LoginEvent) LoginState {
	switch s {
	case Unauthenticated:
		if e == CredentialsSubmitted {
			return Checking
		}
	case Checking:
		switch e {
		case CredentialsRejected, SignedOut:
			return Unauthenticated
		case AllowListPassed:
			return Authorized
		case AllowListFailed:
			return Unauthorized
		}
	case Authorized:
		switch e {
		case SignedOut:
			return Unauthenticated
		case SessionRevoked, AllowListFailed:
			return Unauthorized
		}
	case Unauthorized:
		return Unauthenticated
	}
	return s
}

// Settle applies the forced sign-out that follows Unauthorized.
func Settle(s LoginState) LoginState {
	if s == Unauthorized {
		return Unauthenticated
	}
	return s
}

// ForcesSignOut reports whether reaching s must destroy the session.
func ForcesSignOut(s LoginState) bool {
	return s == Unauthorized
}

// SessionState is the gate state of an existing session after its user was
// re-checked against the allow-list. Any restore error revokes the session.
func SessionState(restoreErr error) LoginState {
	if restoreErr != nil {
		return Transition(Authorized, SessionRevoked)
	}
	return Authorized
}
