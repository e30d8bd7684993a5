// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/campjam-go/internal/admin"
	"github.com/olegiv/campjam-go/internal/auth"
	"github.com/olegiv/campjam-go/internal/middleware"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/render"
	"github.com/olegiv/campjam-go/internal/service"
	"github.com/olegiv/campjam-go/internal/session"
)

// Redirect targets.
const (
	redirectLogin = middleware.LoginPath
	redirectAdmin = "/admin"
)

// Login and password messages.
const (
	msgLoginMissing       = "Please enter your email and password."
	msgLoginInvalid       = "Incorrect email or password. Please try again."
	msgLoginSuccess       = "You are now logged in as admin."
	msgLoggedOut          = "You have been signed out."
	msgPasswordMismatch   = "Passwords do not match."
	msgPasswordSet        = "Your password has been set. You can now sign in."
	msgPasswordSetFailed  = "Failed to set your password. Please try again."
	msgAttemptsRemaining  = "Incorrect email or password. %d attempts remaining before a temporary lock."
	msgTooManyAttempts    = "Too many failed login attempts. Please try again in %s."
	attemptsWarnThreshold = 3
)

// AuthHandler handles admin sign-in, sign-out and the password-set page.
type AuthHandler struct {
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	admins          *admin.Service
	provider        *auth.Provider
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. loginProtection may be nil.
func NewAuthHandler(renderer *render.Renderer, sm *scs.SessionManager, admins *admin.Service,
	provider *auth.Provider, events *service.EventService, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		renderer:        renderer,
		sessionManager:  sm,
		admins:          admins,
		provider:        provider,
		eventService:    events,
		loginProtection: lp,
	}
}

// LoginData is the data of the login page.
type LoginData struct {
	Email string
	Error string
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginData) {
	h.renderer.MustRender(w, r, status, "pages/login", render.TemplateData{
		Title: "Admin Login",
		Data:  data,
	})
}

// LoginForm handles GET /admin/login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, LoginData{})
}

// Login handles POST /admin/login. Valid credentials are not enough: the
// account must also be on the active allow-list, otherwise the session is
// ended and the visitor stays on the login page.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, LoginData{Error: "Invalid form data"})
		return
	}

	email := model.NormalizeEmail(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	clientIP := middleware.ClientIP(r)

	if email == "" || password == "" {
		h.renderLogin(w, r, http.StatusBadRequest, LoginData{Email: email, Error: msgLoginMissing})
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login attempt on locked account",
				0, clientIP, map[string]any{"email": email})
			h.renderLogin(w, r, http.StatusTooManyRequests, LoginData{
				Email: email, Error: fmt.Sprintf(msgTooManyAttempts, formatDuration(remaining)),
			})
			return
		}
	}

	res, err := h.admins.Login(r.Context(), email, password)
	if admin.ForcesSignOut(res.State) {
		// Good password, but the allow-list check failed or could not run.
		if err := h.sessionManager.Destroy(r.Context()); err != nil {
			slog.Error("session destroy error", "error", err)
		}
		var authzErr *admin.AuthorizationError
		if !errors.As(err, &authzErr) {
			slog.Error("allow-list check failed during login", "error", err, "email", email)
			h.renderLogin(w, r, http.StatusInternalServerError, LoginData{
				Email: email, Error: "Sign-in is temporarily unavailable. Please try again.",
			})
			return
		}
		slog.Warn("login denied: not an active admin", "email", email, "ip", clientIP, "state", admin.Settle(res.State))
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login denied: not on admin list",
			res.User.ID, clientIP, map[string]any{"email": email})
		h.renderLogin(w, r, http.StatusForbidden, LoginData{Error: middleware.RevokedMessage})
		return
	}
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login failed: invalid credentials",
				0, clientIP, map[string]any{"email": email})
			h.renderLogin(w, r, http.StatusUnauthorized, LoginData{Email: email, Error: h.failedAttemptMessage(email)})
			return
		}
		slog.Error("login error", "error", err, "email", email)
		h.renderLogin(w, r, http.StatusInternalServerError, LoginData{
			Email: email, Error: "Sign-in is temporarily unavailable. Please try again.",
		})
		return
	}
	if res.State != admin.Authorized {
		logAndInternalError(w, "login finished without authorization", "email", email, "state", res.State)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, res.User.ID)
	h.sessionManager.Put(r.Context(), session.KeyEmail, res.User.Email)

	slog.Info("admin logged in", "user_id", res.User.ID, "email", res.User.Email)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "Admin logged in",
		res.User.ID, clientIP, map[string]any{"email": res.User.Email})

	flashSuccess(w, r, h.renderer, redirectAdmin, msgLoginSuccess)
}

// failedAttemptMessage records a failed attempt and picks the message to show.
func (h *AuthHandler) failedAttemptMessage(email string) string {
	if h.loginProtection == nil {
		return msgLoginInvalid
	}
	if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
		return fmt.Sprintf(msgTooManyAttempts, formatDuration(lockDuration))
	}
	if remaining := h.loginProtection.GetRemainingAttempts(email); remaining > 0 && remaining <= attemptsWarnThreshold {
		return fmt.Sprintf(msgAttemptsRemaining, remaining)
	}
	return msgLoginInvalid
}

// Logout handles POST /admin/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), session.KeyUserID)

	if userID > 0 {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "Admin logged out",
			userID, middleware.ClientIP(r), nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("admin logged out", "user_id", userID)
	flashAndRedirect(w, r, h.renderer, redirectLogin, msgLoggedOut, session.FlashInfo)
}

// ResetPasswordData is the data of the password-set page.
type ResetPasswordData struct {
	Valid bool
	Token string
	Email string
	Error string
}

// ResetPasswordForm handles GET /reset-password?token=, the landing page of
// invitation and recovery links.
func (h *AuthHandler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	data := ResetPasswordData{Token: token}

	status := http.StatusOK
	if user, err := h.provider.CheckRecoveryToken(r.Context(), token); err == nil {
		data.Valid = true
		data.Email = user.Email
	} else {
		if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrUserNotFound) {
			slog.Error("checking recovery token", "error", err)
		}
		status = http.StatusGone
	}

	h.renderResetPassword(w, r, status, data)
}

// ResetPassword handles POST /reset-password. A token is consumed only when
// the new password is accepted.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderResetPassword(w, r, http.StatusBadRequest, ResetPasswordData{})
		return
	}

	token := r.PostFormValue("token")
	password := r.PostFormValue("password")

	user, err := h.provider.CheckRecoveryToken(r.Context(), token)
	if err != nil {
		h.renderResetPassword(w, r, http.StatusGone, ResetPasswordData{Token: token})
		return
	}

	data := ResetPasswordData{Valid: true, Token: token, Email: user.Email}
	if password != r.PostFormValue("password_confirm") {
		data.Error = msgPasswordMismatch
		h.renderResetPassword(w, r, http.StatusBadRequest, data)
		return
	}
	if err := auth.ValidatePassword(password); err != nil {
		data.Error = fmt.Sprintf("Password must be at least %d characters.", auth.MinPasswordLength)
		h.renderResetPassword(w, r, http.StatusBadRequest, data)
		return
	}

	user, err = h.provider.ResetPassword(r.Context(), token, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			h.renderResetPassword(w, r, http.StatusGone, ResetPasswordData{Token: token})
			return
		}
		slog.Error("resetting password", "error", err)
		data.Error = msgPasswordSetFailed
		h.renderResetPassword(w, r, http.StatusInternalServerError, data)
		return
	}

	slog.Info("password set from recovery link", "user_id", user.ID)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "Password set from recovery link",
		user.ID, middleware.ClientIP(r), map[string]any{"email": user.Email})

	flashSuccess(w, r, h.renderer, redirectLogin, msgPasswordSet)
}

func (h *AuthHandler) renderResetPassword(w http.ResponseWriter, r *http.Request, status int, data ResetPasswordData) {
	h.renderer.MustRender(w, r, status, "pages/reset_password", render.TemplateData{
		Title: "Set Your Password",
		Data:  data,
	})
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
