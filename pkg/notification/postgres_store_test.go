package notification_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/notification"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *bool:
			*p = r.values[i].(bool)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case **time.Time:
			if v, ok := r.values[i].(time.Time); ok {
				*p = &v
			}
		case *map[string]any:
			if v, ok := r.values[i].(map[string]any); ok {
				*p = v
			}
		}
	}
	return nil
}

type fakeRows struct {
	rows []fakeRow
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return r.rows[r.pos-1].Scan(dest...)
}

type fakeDB struct {
	execSQL  string
	execArgs []any
	execErr  error

	queryArgs []any
	rows      *fakeRows

	rowArgs []any
	row     fakeRow
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execSQL = sql
	db.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), db.execErr
}

func (db *fakeDB) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	db.queryArgs = args
	return db.rows, nil
}

func (db *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	db.rowArgs = args
	return db.row
}

func rowFor(id, userID string, read bool, readAt any) fakeRow {
	return fakeRow{values: []any{
		id, userID, "welcome", "Welcome", "Hi", "normal",
		map[string]any{"k": "v"}, read, readAt,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
}

func TestPostgresStore_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("inserts a fresh record", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{}
		store := notification.NewPostgresStore(db)

		n, err := store.Create(ctx, validInput("7"))
		require.NoError(t, err)

		_, err = uuid.Parse(n.ID)
		require.NoError(t, err)
		assert.Equal(t, notification.PriorityNormal, n.Priority)
		assert.Equal(t, n.CreatedAt, n.CreatedAt.Truncate(time.Microsecond))
		require.Len(t, db.execArgs, 8)
		assert.Equal(t, "7", db.execArgs[1])
		assert.Equal(t, "welcome", db.execArgs[2])
		assert.Contains(t, db.execSQL, "INSERT INTO notifications")
	})

	t.Run("validation happens before the query", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{}
		store := notification.NewPostgresStore(db)

		_, err := store.Create(ctx, notification.CreateInput{})
		require.ErrorIs(t, err, notification.ErrInvalidInput)
		assert.Empty(t, db.execSQL)
	})

	t.Run("database errors are wrapped", func(t *testing.T) {
		t.Parallel()
		dbErr := errors.New("connection reset")
		store := notification.NewPostgresStore(&fakeDB{execErr: dbErr})

		_, err := store.Create(ctx, validInput("7"))
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestPostgresStore_Get(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	id := uuid.New().String()

	db := &fakeDB{row: rowFor(id, "7", false, nil)}
	n, err := notification.NewPostgresStore(db).Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, n.ID)
	assert.Equal(t, notification.TypeWelcome, n.Type)
	assert.Nil(t, n.ReadAt)
	assert.Equal(t, "v", n.Metadata["k"])

	_, err = notification.NewPostgresStore(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}}).Get(ctx, id)
	assert.ErrorIs(t, err, notification.ErrNotFound)

	_, err = notification.NewPostgresStore(&fakeDB{}).Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestPostgresStore_ListByUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := &fakeDB{rows: &fakeRows{rows: []fakeRow{
		rowFor(uuid.New().String(), "7", false, nil),
		rowFor(uuid.New().String(), "7", false, nil),
	}}}
	list, err := notification.NewPostgresStore(db).ListByUser(ctx, "7", 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, []any{"7", notification.DefaultListLimit}, db.queryArgs)

	empty := &fakeDB{rows: &fakeRows{}}
	list, err = notification.NewPostgresStore(empty).ListByUser(ctx, "7", 5)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.Equal(t, []any{"7", 5}, empty.queryArgs)
}

func TestPostgresStore_MarkRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	id := uuid.New().String()
	readAt := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	db := &fakeDB{row: rowFor(id, "7", true, readAt)}
	n, err := notification.NewPostgresStore(db).MarkRead(ctx, id)
	require.NoError(t, err)
	assert.True(t, n.Read)
	require.NotNil(t, n.ReadAt)
	assert.Equal(t, readAt, *n.ReadAt)
	require.Len(t, db.rowArgs, 2)

	_, err = notification.NewPostgresStore(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}}).MarkRead(ctx, id)
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestMigrations_Embedded(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(notification.Migrations, notification.MigrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	raw, err := fs.ReadFile(notification.Migrations, notification.MigrationsDir+"/"+entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "CREATE TABLE IF NOT EXISTS notifications")
}
