package auth

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/campjam-go/internal/store"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return NewProvider(db, "https://campjam.example/")
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if u.Path != ResetPasswordPath {
		t.Fatalf("link path = %q, want %q", u.Path, ResetPasswordPath)
	}
	return u.Query().Get("token")
}

func TestSignIn(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	if _, err := p.CreateAccount(ctx, "Owner@Example.com", "correct-horse", true); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	user, err := p.SignIn(ctx, "owner@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if user.Email != "owner@example.com" {
		t.Errorf("Email = %q, want lowercased", user.Email)
	}

	reloaded, err := p.UserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if !reloaded.LastLoginAt.Valid {
		t.Error("last login time was not recorded")
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "owner@example.com", "wrong-horse"},
		{"unknown email", "nobody@example.com", "correct-horse"},
		{"empty password", "owner@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.SignIn(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("SignIn error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestCreateAccount_AlreadyRegistered(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	if _, err := p.CreateAccount(ctx, "a@example.com", RandomPassword(), true); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	_, err := p.CreateAccount(ctx, "A@example.com", RandomPassword(), true)
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("second CreateAccount error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestUserByID_NotFound(t *testing.T) {
	p := newTestProvider(t)
	if _, err := p.UserByID(context.Background(), 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UserByID error = %v, want ErrUserNotFound", err)
	}
}

func TestRecoveryLink_SetsPasswordOnce(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	if _, err := p.CreateAccount(ctx, "new@example.com", RandomPassword(), true); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	start := time.Now().UTC()
	link, err := p.GenerateRecoveryLink(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("GenerateRecoveryLink: %v", err)
	}
	if !strings.HasPrefix(link.URL, "https://campjam.example/reset-password?token=") {
		t.Errorf("unexpected link %q", link.URL)
	}
	if d := link.ExpiresAt.Sub(start); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("link validity = %v, want about 24h", d)
	}

	token := tokenFromLink(t, link.URL)
	if _, err := p.CheckRecoveryToken(ctx, token); err != nil {
		t.Fatalf("CheckRecoveryToken: %v", err)
	}

	if _, err := p.ResetPassword(ctx, token, "short"); err == nil {
		t.Fatal("ResetPassword accepted a short password")
	}

	user, err := p.ResetPassword(ctx, token, "brand-new-password")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if user.Email != "new@example.com" {
		t.Errorf("ResetPassword returned %q", user.Email)
	}

	if _, err := p.SignIn(ctx, "new@example.com", "brand-new-password"); err != nil {
		t.Errorf("SignIn with new password: %v", err)
	}

	if _, err := p.ResetPassword(ctx, token, "another-password"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reusing token error = %v, want ErrInvalidToken", err)
	}
}

func TestRecoveryLink_Expires(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	if _, err := p.CreateAccount(ctx, "late@example.com", RandomPassword(), true); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	issued := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return issued }
	link, err := p.GenerateRecoveryLink(ctx, "late@example.com")
	if err != nil {
		t.Fatalf("GenerateRecoveryLink: %v", err)
	}
	token := tokenFromLink(t, link.URL)

	p.now = func() time.Time { return issued.Add(RecoveryLinkTTL - time.Minute) }
	if _, err := p.CheckRecoveryToken(ctx, token); err != nil {
		t.Errorf("token rejected before expiry: %v", err)
	}

	p.now = func() time.Time { return issued.Add(RecoveryLinkTTL) }
	if _, err := p.ResetPassword(ctx, token, "brand-new-password"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token error = %v, want ErrInvalidToken", err)
	}

	purged, err := p.PurgeExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredTokens: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
}

func TestRecoveryLink_Errors(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	if _, err := p.GenerateRecoveryLink(ctx, "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GenerateRecoveryLink error = %v, want ErrUserNotFound", err)
	}
	for _, tok := range []string{"", "not-a-real-token"} {
		if _, err := p.CheckRecoveryToken(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("CheckRecoveryToken(%q) error = %v, want ErrInvalidToken", tok, err)
		}
	}
}
