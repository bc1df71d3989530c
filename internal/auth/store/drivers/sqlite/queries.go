package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        string
	Enabled      bool
	CreatedAt    string
	UpdatedAt    string
}

const getUserByUsername = `
SELECT id, username, password_hash, roles, enabled, created_at, updated_at
FROM users
WHERE username = ?
`

func (q *queries) GetUserByUsername(ctx context.Context, username string) (userRow, error) {
	var r userRow
	err := q.db.QueryRowContext(ctx, getUserByUsername, username).Scan(
		&r.ID, &r.Username, &r.PasswordHash, &r.Roles, &r.Enabled, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

const createUser = `
INSERT INTO users (id, username, password_hash, roles, enabled, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *queries) CreateUser(ctx context.Context, r userRow) error {
	_, err := q.db.ExecContext(ctx, createUser,
		r.ID, r.Username, r.PasswordHash, r.Roles, r.Enabled, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

const updateUserPasswordHash = `
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
`

func (q *queries) UpdateUserPasswordHash(ctx context.Context, id, hash, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserPasswordHash, hash, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

// Timestamps are stored as RFC 3339 text in UTC.
func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func joinRoles(roles []string) string { return strings.Join(roles, " ") }
