// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"filippo.io/csrf/gorilla"
)

// CSRFRejectedMessage is shown when a form post fails the origin check.
const CSRFRejectedMessage = "This form was sent from another site or has expired. Please reload the page and try again."

// CSRFConfig holds configuration for CSRF protection. filippo.io/csrf checks
// Fetch metadata and Origin headers, so there is no token cookie to set up.
type CSRFConfig struct {
	// AuthKey is the 32-byte key the gorilla-compatible API expects.
	AuthKey []byte

	// ErrorHandler answers rejected requests. Defaults to a plain 403.
	ErrorHandler http.Handler

	// TrustedOrigins are extra host[:port] values allowed to post cross-origin.
	TrustedOrigins []string
}

// DefaultCSRFConfig builds the config for the site served at siteURL. The
// site's own host is trusted so posts through a proxy that rewrites Host
// still pass; development also trusts the local dev server.
func DefaultCSRFConfig(authKey []byte, siteURL string, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if len(cfg.AuthKey) > 32 {
		cfg.AuthKey = cfg.AuthKey[:32]
	}

	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		cfg.TrustedOrigins = append(cfg.TrustedOrigins, u.Host)
	}
	if isDev {
		for _, o := range []string{"localhost:8080", "127.0.0.1:8080"} {
			if !slices.Contains(cfg.TrustedOrigins, o) {
				cfg.TrustedOrigins = append(cfg.TrustedOrigins, o)
			}
		}
	}
	return cfg
}

// CSRF protects state-changing requests.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	onError := cfg.ErrorHandler
	if onError == nil {
		onError = http.HandlerFunc(rejectCSRF)
	}

	opts := []csrf.Option{csrf.ErrorHandler(onError)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-site request rejected",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
		"ip", ClientIP(r),
	)
	http.Error(w, CSRFRejectedMessage, http.StatusForbidden)
}

// SkipCSRF disables the check for paths under the given prefixes. Only
// routes that carry no ambient credentials, like bearer-token API calls,
// belong here.
func SkipCSRF(prefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.ContainsFunc(prefixes, func(p string) bool { return strings.HasPrefix(r.URL.Path, p) }) {
				r = csrf.UnsafeSkipCheck(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}
