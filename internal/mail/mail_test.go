package mail

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInviteMessage(t *testing.T) {
	link := "https://campjam.example/reset-password?token=abc&x=1"
	msg, err := InviteMessage("new@example.com", link, 24*time.Hour)
	if err != nil {
		t.Fatalf("InviteMessage: %v", err)
	}

	if msg.Subject != InviteSubject {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if len(msg.To) != 1 || msg.To[0] != "new@example.com" {
		t.Errorf("To = %v", msg.To)
	}
	if !strings.Contains(msg.HTML, "https://campjam.example/reset-password?token=abc&amp;x=1") {
		t.Errorf("link missing from body:\n%s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "expire in 24 hours") {
		t.Error("validity period missing from body")
	}
	if strings.Contains(strings.ToLower(msg.HTML), "password:") {
		t.Error("invitation must not contain a credential")
	}
}

func TestContactMessage_EscapesInput(t *testing.T) {
	msg, err := ContactMessage("info@example.com", ContactData{
		Name:       "Ann",
		Email:      "ann@example.com",
		Message:    "<script>alert(1)</script> quote for 40m2",
		ReceivedAt: time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ContactMessage: %v", err)
	}

	if strings.Contains(msg.HTML, "<script>") {
		t.Error("message body was not escaped")
	}
	if msg.ReplyTo != "ann@example.com" {
		t.Errorf("ReplyTo = %q", msg.ReplyTo)
	}
	if msg.Subject != "New enquiry from Ann" {
		t.Errorf("Subject = %q", msg.Subject)
	}
}

func TestContactMessage_SubjectIsOneLine(t *testing.T) {
	msg, err := ContactMessage("info@example.com", ContactData{
		Name:  "Ann\r\nBcc: victim@example.com\n\tSmith",
		Email: "ann@example.com",
	})
	if err != nil {
		t.Fatalf("ContactMessage: %v", err)
	}

	if strings.ContainsAny(msg.Subject, "\r\n\t") {
		t.Errorf("Subject contains line breaks: %q", msg.Subject)
	}
	if msg.Subject != "New enquiry from Ann Bcc: victim@example.com Smith" {
		t.Errorf("Subject = %q", msg.Subject)
	}
}

func TestNewResendSender_NoKey(t *testing.T) {
	if s := NewResendSender("", "from@example.com", slog.Default()); s != nil {
		t.Error("expected nil sender without an API key")
	}
}

func TestResendSender_NoRecipients(t *testing.T) {
	s := NewResendSender("re_test", "from@example.com", slog.Default())
	if _, err := s.Send(context.Background(), Message{Subject: "x"}); err == nil {
		t.Error("expected error for a message without recipients")
	}
}
