package invite_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/campjam-go/internal/auth"
	"github.com/olegiv/campjam-go/internal/invite"
	"github.com/olegiv/campjam-go/internal/mail"
	"github.com/olegiv/campjam-go/internal/testutil"
)

func newIssuer(t *testing.T, sender mail.Sender) (*invite.Issuer, *auth.Provider) {
	t.Helper()
	db := testutil.TestDB(t)
	provider := auth.NewProvider(db, "https://campjam.example")
	return invite.NewIssuer(provider, sender, testutil.TestLoggerSilent()), provider
}

func TestIssue_NewAccount(t *testing.T) {
	sender := &testutil.FakeSender{}
	issuer, provider := newIssuer(t, sender)
	ctx := context.Background()

	res, err := issuer.Issue(ctx, "  New.Admin@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "new.admin@example.com", res.Email)
	assert.True(t, res.AccountCreated)
	assert.Equal(t, "fake-id", res.MessageID)

	msgs := sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"new.admin@example.com"}, msgs[0].To)
	assert.Equal(t, mail.InviteSubject, msgs[0].Subject)
	assert.Contains(t, msgs[0].HTML, "https://campjam.example/reset-password?token=")
	assert.Contains(t, msgs[0].HTML, "24 hours")

	// The temporary credential is unusable: nobody knows it.
	user, err := provider.UserByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, user.EmailConfirmed)
}

func TestIssue_AlreadyRegisteredIsNotFatal(t *testing.T) {
	sender := &testutil.FakeSender{}
	issuer, provider := newIssuer(t, sender)
	ctx := context.Background()

	_, err := provider.CreateAccount(ctx, "old@example.com", "existing-password", true)
	require.NoError(t, err)

	res, err := issuer.Issue(ctx, "old@example.com")
	require.NoError(t, err)
	assert.False(t, res.AccountCreated)
	require.Len(t, sender.Messages(), 1)

	// The existing password still works until the link is used.
	_, err = provider.SignIn(ctx, "old@example.com", "existing-password")
	assert.NoError(t, err)
}

func TestIssue_Errors(t *testing.T) {
	tests := []struct {
		name       string
		sender     mail.Sender
		email      string
		wantKind   error
		wantStatus int
		wantMsg    string
	}{
		{"missing email", &testutil.FakeSender{}, "   ", invite.ErrEmailRequired, http.StatusBadRequest, "Email is required"},
		{"invalid email", &testutil.FakeSender{}, "nope", invite.ErrInvalidEmail, http.StatusBadRequest, "Invalid email address"},
		{"no mail provider", nil, "a@example.com", invite.ErrMailNotConfigured, http.StatusInternalServerError,
			"Email service not configured. Please set CAMPJAM_RESEND_API_KEY."},
		{"send failure", &testutil.FakeSender{Err: errors.New("domain not verified")}, "a@example.com",
			invite.ErrSendFailed, http.StatusInternalServerError, "Failed to send email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer, _ := newIssuer(t, tt.sender)

			_, err := issuer.Issue(context.Background(), tt.email)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantStatus, invite.Status(err))
			assert.Equal(t, tt.wantMsg, invite.PublicMessage(err))
		})
	}
}

func TestIssue_SendFailureCarriesDetails(t *testing.T) {
	issuer, _ := newIssuer(t, &testutil.FakeSender{Err: errors.New("domain not verified")})

	_, err := issuer.Issue(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.True(t, strings.Contains(invite.Details(err), "domain not verified"))
}
