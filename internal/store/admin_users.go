package store

import (
	"context"
	"time"

	"github.com/olegiv/campjam-go/internal/model"
)

// CreateAdminUserParams holds the columns of a new allow-list entry.
type CreateAdminUserParams struct {
	Email     string
	IsActive  bool
	CreatedAt time.Time
	CreatedBy string
}

const adminUserColumns = `id, email, is_active, created_at, created_by`

const createAdminUser = `
INSERT INTO admin_users (email, is_active, created_at, created_by)
VALUES (?, ?, ?, ?)
RETURNING ` + adminUserColumns

// CreateAdminUser inserts an allow-list entry. The email must already be normalized.
func (q *Queries) CreateAdminUser(ctx context.Context, arg CreateAdminUserParams) (model.AdminUser, error) {
	row := q.db.QueryRowContext(ctx, createAdminUser, arg.Email, arg.IsActive, arg.CreatedAt, arg.CreatedBy)
	return scanAdminUser(row)
}

const getAdminUserByEmail = `SELECT ` + adminUserColumns + ` FROM admin_users WHERE email = ?`

// GetAdminUserByEmail returns the allow-list entry for an email regardless of its active flag.
func (q *Queries) GetAdminUserByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	return scanAdminUser(q.db.QueryRowContext(ctx, getAdminUserByEmail, email))
}

const getActiveAdminUserByEmail = `SELECT ` + adminUserColumns + ` FROM admin_users WHERE email = ? AND is_active = 1`

// GetActiveAdminUserByEmail returns the allow-list entry only when it is active.
func (q *Queries) GetActiveAdminUserByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	return scanAdminUser(q.db.QueryRowContext(ctx, getActiveAdminUserByEmail, email))
}

const getAdminUserByID = `SELECT ` + adminUserColumns + ` FROM admin_users WHERE id = ?`

// GetAdminUserByID returns a single allow-list entry.
func (q *Queries) GetAdminUserByID(ctx context.Context, id int64) (model.AdminUser, error) {
	return scanAdminUser(q.db.QueryRowContext(ctx, getAdminUserByID, id))
}

const listAdminUsers = `SELECT ` + adminUserColumns + ` FROM admin_users ORDER BY created_at DESC, id DESC`

// ListAdminUsers returns the whole allow-list, newest first.
func (q *Queries) ListAdminUsers(ctx context.Context) ([]model.AdminUser, error) {
	rows, err := q.db.QueryContext(ctx, listAdminUsers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.AdminUser{}
	for rows.Next() {
		a, err := scanAdminUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const setAdminUserActive = `UPDATE admin_users SET is_active = ? WHERE id = ?`

// SetAdminUserActive flips the active flag of an allow-list entry.
func (q *Queries) SetAdminUserActive(ctx context.Context, id int64, active bool) (int64, error) {
	res, err := q.db.ExecContext(ctx, setAdminUserActive, active, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAdminUser = `DELETE FROM admin_users WHERE id = ?`

// DeleteAdminUser removes an allow-list entry and returns the number of rows removed.
func (q *Queries) DeleteAdminUser(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAdminUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAdminUser(s scanner) (model.AdminUser, error) {
	var a model.AdminUser
	err := s.Scan(&a.ID, &a.Email, &a.IsActive, &a.CreatedAt, &a.CreatedBy)
	return a, err
}
