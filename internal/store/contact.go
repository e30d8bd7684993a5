package store

import (
	"context"
	"time"

	"github.com/olegiv/campjam-go/internal/model"
)

// CreateContactMessageParams holds the columns of a new contact message.
type CreateContactMessageParams struct {
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

const createContactMessage = `
INSERT INTO contact_messages (name, email, message, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, name, email, message, created_at`

// CreateContactMessage stores a contact form submission.
func (q *Queries) CreateContactMessage(ctx context.Context, arg CreateContactMessageParams) (model.ContactMessage, error) {
	var m model.ContactMessage
	err := q.db.QueryRowContext(ctx, createContactMessage, arg.Name, arg.Email, arg.Message, arg.CreatedAt).
		Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt)
	return m, err
}

const listContactMessages = `
SELECT id, name, email, message, created_at FROM contact_messages
ORDER BY created_at DESC, id DESC LIMIT ?`

// ListContactMessages returns the most recent contact messages.
func (q *Queries) ListContactMessages(ctx context.Context, limit int) ([]model.ContactMessage, error) {
	rows, err := q.db.QueryContext(ctx, listContactMessages, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.ContactMessage{}
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
