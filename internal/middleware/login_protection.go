// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// maxLockout caps the exponential account lockout.
const maxLockout = 24 * time.Hour

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login POSTs per second per IP.
	IPRateLimit float64
	// IPBurst is the number of login POSTs an IP may send at once.
	IPBurst int
	// MaxFailedAttempts locks the account when reached within AttemptWindow.
	MaxFailedAttempts int
	// LockoutDuration is the first lockout; each further lockout doubles it.
	LockoutDuration time.Duration
	// AttemptWindow is how long failures count toward a lockout.
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig returns the limits used by the admin login.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

func (c LoginProtectionConfig) withDefaults() LoginProtectionConfig {
	d := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = d.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = d.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = d.MaxFailedAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = d.LockoutDuration
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = d.AttemptWindow
	}
	return c
}

// accountRecord is the failure history of one admin email.
type accountRecord struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtection throttles login POSTs per IP and locks an admin email
// after repeated wrong passwords.
type LoginProtection struct {
	cfg LoginProtectionConfig
	ips *limiterCache[string]
	now func() time.Time

	mu       sync.Mutex
	accounts map[string]*accountRecord
}

// NewLoginProtection creates a LoginProtection. Zero config fields take
// their defaults.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	lp := newLoginProtection(cfg.withDefaults(), time.Now)
	go lp.sweepLoop(10 * time.Minute)
	return lp
}

func newLoginProtection(cfg LoginProtectionConfig, now func() time.Time) *LoginProtection {
	return &LoginProtection{
		cfg:      cfg,
		ips:      newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		now:      now,
		accounts: make(map[string]*accountRecord),
	}
}

// CheckIPRateLimit reports whether a login from ip may proceed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ips.get(ip).Allow()
}

// IsAccountLocked reports whether email is locked and for how much longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	rec, ok := lp.accounts[email]
	if !ok {
		return false, 0
	}
	if left := rec.lockedUntil.Sub(lp.now()); left > 0 {
		return true, left
	}
	return false, 0
}

// RecordFailedAttempt counts a wrong password for email, which callers pass
// normalized. When this failure triggers a lockout it returns true and the
// lockout length.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	rec, ok := lp.accounts[email]
	if !ok {
		rec = &accountRecord{}
		lp.accounts[email] = rec
	}
	if rec.failures == 0 || now.Sub(rec.windowStart) > lp.cfg.AttemptWindow {
		rec.failures = 0
		rec.windowStart = now
	}
	rec.failures++

	if rec.failures < lp.cfg.MaxFailedAttempts {
		return false, 0
	}

	d := lockoutFor(lp.cfg.LockoutDuration, rec.lockouts)
	rec.lockedUntil = now.Add(d)
	rec.lockouts++
	rec.failures = 0

	slog.Warn("admin login locked after failed attempts", "email", email, "lockouts", rec.lockouts, "duration", d)
	return true, d
}

// lockoutFor doubles base once per previous lockout, up to maxLockout.
func lockoutFor(base time.Duration, previous int) time.Duration {
	d := base
	for range previous {
		d *= 2
		if d >= maxLockout {
			return maxLockout
		}
	}
	return d
}

// RecordSuccessfulLogin forgets the failure history of email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.accounts, email)
	lp.mu.Unlock()
}

// GetRemainingAttempts returns how many wrong passwords email has left
// before the next lockout.
func (lp *LoginProtection) GetRemainingAttempts(email string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	rec, ok := lp.accounts[email]
	if !ok || lp.now().Sub(rec.windowStart) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-rec.failures, 0)
}

func (lp *LoginProtection) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		lp.sweep()
	}
}

// sweep drops records that are neither locked nor inside a counting window.
func (lp *LoginProtection) sweep() {
	if lp.ips.clearIfExceeds(10000) {
		slog.Info("cleared login rate limiters")
	}

	now := lp.now()
	lp.mu.Lock()
	defer lp.mu.Unlock()
	for email, rec := range lp.accounts {
		if now.After(rec.lockedUntil) && now.Sub(rec.windowStart) > lp.cfg.AttemptWindow {
			delete(lp.accounts, email)
		}
	}
}

// Middleware rate limits login POSTs by client IP.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				if ip := ClientIP(r); !lp.CheckIPRateLimit(ip) {
					slog.Warn("login rate limit exceeded", "ip", ip)
					http.Error(w, "Too many login attempts. Please wait a moment and try again.", http.StatusTooManyRequests)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
