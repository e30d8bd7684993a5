// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package contact stores contact form enquiries and notifies the business inbox.
package contact

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	campmail "github.com/olegiv/campjam-go/internal/mail"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/store"
	"github.com/olegiv/campjam-go/internal/util"
)

// SuccessMessage is shown after an enquiry is accepted.
const SuccessMessage = "Thank you for your message! We'll get back to you within 24 hours."

// MaxMessageLength bounds the enquiry body.
const MaxMessageLength = 5000

// Input is the contact form as submitted.
type Input struct {
	Name    string
	Email   string
	Message string
}

// Service accepts enquiries.
type Service struct {
	queries *store.Queries
	sender  campmail.Sender
	notify  string
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a contact service. Notifications are sent only when
// both sender and notifyEmail are set.
func NewService(db *sql.DB, sender campmail.Sender, notifyEmail string, logger *slog.Logger) *Service {
	return &Service{
		queries: store.New(db),
		sender:  sender,
		notify:  notifyEmail,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Validate cleans and checks an enquiry.
func Validate(in Input) (Input, error) {
	out := Input{
		Name:    util.SingleLine(util.PlainText(in.Name)),
		Email:   model.NormalizeEmail(in.Email),
		Message: util.PlainText(in.Message),
	}

	verr := model.NewValidationError()
	if out.Name == "" {
		verr.Add("name", "Please enter your name.")
	}
	if out.Email == "" {
		verr.Add("email", "Please enter your email address.")
	} else if addr, err := mail.ParseAddress(out.Email); err != nil || addr.Address != out.Email {
		verr.Add("email", "Please enter a valid email address.")
	}
	switch {
	case out.Message == "":
		verr.Add("message", "Please enter a message.")
	case util.RuneLen(out.Message) > MaxMessageLength:
		verr.Add("message", fmt.Sprintf("Message must be at most %d characters.", MaxMessageLength))
	}

	return out, verr.OrNil()
}

// Submit stores the enquiry and notifies the inbox. Notification failures are
// logged and do not fail the submission.
func (s *Service) Submit(ctx context.Context, in Input) (model.ContactMessage, error) {
	clean, err := Validate(in)
	if err != nil {
		return model.ContactMessage{}, err
	}

	msg, err := s.queries.CreateContactMessage(ctx, store.CreateContactMessageParams{
		Name:      clean.Name,
		Email:     clean.Email,
		Message:   clean.Message,
		CreatedAt: s.now(),
	})
	if err != nil {
		return model.ContactMessage{}, fmt.Errorf("saving enquiry: %w", err)
	}

	s.notifyInbox(ctx, msg)
	return msg, nil
}

// Recent returns the latest enquiries for the dashboard.
func (s *Service) Recent(ctx context.Context, limit int) ([]model.ContactMessage, error) {
	return s.queries.ListContactMessages(ctx, limit)
}

func (s *Service) notifyInbox(ctx context.Context, m model.ContactMessage) {
	if s.sender == nil || s.notify == "" {
		return
	}

	email, err := campmail.ContactMessage(s.notify, campmail.ContactData{
		Name:       m.Name,
		Email:      m.Email,
		Message:    m.Message,
		ReceivedAt: m.CreatedAt,
	})
	if err != nil {
		s.logger.Error("rendering contact notification", "error", err)
		return
	}
	if _, err := s.sender.Send(ctx, email); err != nil {
		s.logger.Error("sending contact notification", "error", err, "message_id", m.ID)
	}
}
