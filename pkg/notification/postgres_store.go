package notification

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/dispatch/pkg/pg"
)

// Migrations holds the goose migrations for PostgresStore, rooted at MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the durable Store backed by the notifications table.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

const selectColumns = `id::text, user_id, type, title, message, priority, metadata, read, read_at, created_at`

const (
	insertQuery = `INSERT INTO notifications (id, user_id, type, title, message, priority, metadata, read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)`
	getQuery      = `SELECT ` + selectColumns + ` FROM notifications WHERE id = $1`
	listQuery     = `SELECT ` + selectColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, seq DESC LIMIT $2`
	markReadQuery = `UPDATE notifications SET read = TRUE, read_at = $2 WHERE id = $1 RETURNING ` + selectColumns
)

func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Notification, error) {
	if err := in.Validate(); err != nil {
		return Notification{}, err
	}

	// Postgres keeps microseconds; truncate so the returned record matches later reads.
	n := build(in, s.now().UTC().Truncate(time.Microsecond))

	if _, err := s.db.Exec(ctx, insertQuery,
		uuid.MustParse(n.ID), n.UserID, string(n.Type), n.Title, n.Message, string(n.Priority), n.Metadata, n.CreatedAt,
	); err != nil {
		return Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Notification, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Notification{}, ErrNotFound
	}
	n, err := scanNotification(s.db.QueryRow(ctx, getQuery, uid))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	rows, err := s.db.Query(ctx, listQuery, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, id string) (Notification, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Notification{}, ErrNotFound
	}
	n, err := scanNotification(s.db.QueryRow(ctx, markReadQuery, uid, s.now().UTC()))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var (
		n        Notification
		typ      string
		priority string
	)
	if err := row.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &priority, &n.Metadata, &n.Read, &n.ReadAt, &n.CreatedAt); err != nil {
		return Notification{}, err
	}
	n.Type = Type(typ)
	n.Priority = Priority(priority)
	return n, nil
}
