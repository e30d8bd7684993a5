// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mail sends transactional email and renders the message bodies.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Message is a single outgoing email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

// Sender delivers messages and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// InviteSubject is the subject line of the admin invitation.
const InviteSubject = "Set Your CampJam Flooring Admin Password"

// InviteData fills the invitation template.
type InviteData struct {
	Link       string
	ValidHours int
}

// ContactData fills the contact notification template.
type ContactData struct {
	Name       string
	Email      string
	Message    string
	ReceivedAt time.Time
}

// InviteMessage builds the admin invitation. It carries the password-set
// link only, never a credential.
func InviteMessage(to, link string, valid time.Duration) (Message, error) {
	body, err := render("invite.html", InviteData{Link: link, ValidHours: int(valid.Hours())})
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: InviteSubject, HTML: body}, nil
}

// ContactMessage builds the notification sent to the business inbox.
func ContactMessage(to string, data ContactData) (Message, error) {
	body, err := render("contact.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: "New enquiry from " + strings.Join(strings.Fields(data.Name), " "),
		HTML:    body,
		ReplyTo: data.Email,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
