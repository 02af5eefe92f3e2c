// Package sqlstore provides an object store on database/sql.
//
// SQLite (modernc.org/sqlite, pure Go) is the default backend; PostgreSQL is
// reached through the pgx stdlib driver. Both share one table keyed by
// (type, id) with JSON encoded attributes and references.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/objects"
)

// Driver names registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

//go:embed schema.sql
var schema string

const selectColumns = `SELECT type, id, attributes, refs, updated_at FROM objects`

// timeLayout is fixed width so updated_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a database/sql backed object store.
type Store struct {
	db     *sql.DB
	driver string
}

var _ objects.ClosableStore = (*Store)(nil)

// New wraps an open database. Call Migrate before first use on a fresh
// database.
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Open connects to dsn with driver, verifies the connection and migrates
// the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer, and every :memory: connection is a
		// separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(db, driver)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the objects table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Find returns one page of objects matching opts, oldest first.
func (s *Store) Find(ctx context.Context, opts objects.FindOptions) (*objects.FindResult, error) {
	query := selectColumns
	var args []any
	if opts.Type != "" {
		query += ` WHERE type = ?`
		args = append(args, opts.Type)
	}
	query += ` ORDER BY updated_at, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.NewStoreError("find", opts.Type, "", err)
	}
	defer rows.Close()

	all := []objects.Object{}
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, errors.NewStoreError("find", opts.Type, "", err)
		}
		all = append(all, *obj)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("find", opts.Type, "", err)
	}

	return objects.Page(all, opts), nil
}

// Get returns one object.
func (s *Store) Get(ctx context.Context, typ, id string) (*objects.Object, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE type = ? AND id = ?`), typ, id)
	obj, err := scanObject(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(typ, id)
	}
	if err != nil {
		return nil, errors.NewStoreError("get", typ, id, err)
	}
	return obj, nil
}

// Create stores one object, assigning a UUID when ID is empty.
func (s *Store) Create(ctx context.Context, obj objects.Object, opts objects.CreateOptions) (*objects.Object, error) {
	created, err := s.BulkCreate(ctx, []objects.Object{obj}, opts)
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// BulkCreate stores objs in one transaction.
func (s *Store) BulkCreate(ctx context.Context, objs []objects.Object, opts objects.CreateOptions) ([]objects.Object, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewStoreError("bulk_create", "", "", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := utc.Now()
	created := make([]objects.Object, 0, len(objs))
	for _, obj := range objs {
		obj, err := s.insert(ctx, tx, obj, opts, now)
		if err != nil {
			return nil, err
		}
		created = append(created, obj)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStoreError("bulk_create", "", "", err)
	}
	return created, nil
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, obj objects.Object, opts objects.CreateOptions, now utc.Time) (objects.Object, error) {
	if obj.Type == "" {
		return obj, errors.NewValidationError("type", obj.Type, "is required")
	}
	if obj.ID == "" {
		obj.ID = uuid.NewString()
	}
	if len(obj.Attributes) == 0 {
		obj.Attributes = json.RawMessage(`{}`)
	}
	if !json.Valid(obj.Attributes) {
		return obj, errors.NewValidationError("attributes", obj.ID, "must be valid JSON")
	}
	obj.UpdatedAt = now

	if !opts.Overwrite {
		var n int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM objects WHERE type = ? AND id = ?`), obj.Type, obj.ID).Scan(&n)
		if err != nil {
			return obj, errors.NewStoreError("create", obj.Type, obj.ID, err)
		}
		if n > 0 {
			return obj, &errors.StoreError{
				Operation: "create",
				Type:      obj.Type,
				ID:        obj.ID,
				Status:    http.StatusConflict,
				Err:       errors.ErrAlreadyExists,
			}
		}
	}

	refs, err := json.Marshal(obj.References)
	if err != nil {
		return obj, errors.NewStoreError("create", obj.Type, obj.ID, err)
	}
	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO objects (type, id, attributes, refs, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (type, id) DO UPDATE SET
			attributes = excluded.attributes,
			refs = excluded.refs,
			updated_at = excluded.updated_at
	`), obj.Type, obj.ID, string(obj.Attributes), string(refs), formatTime(now))
	if err != nil {
		return obj, errors.NewStoreError("create", obj.Type, obj.ID, err)
	}
	return obj, nil
}

// Delete removes one object.
func (s *Store) Delete(ctx context.Context, typ, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM objects WHERE type = ? AND id = ?`), typ, id)
	if err != nil {
		return errors.NewStoreError("delete", typ, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreError("delete", typ, id, err)
	}
	if n == 0 {
		return errors.NewNotFoundError(typ, id)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObject(row scanner) (*objects.Object, error) {
	var (
		obj       objects.Object
		attrs     string
		refs      string
		updatedAt string
	)
	if err := row.Scan(&obj.Type, &obj.ID, &attrs, &refs, &updatedAt); err != nil {
		return nil, err
	}
	obj.Attributes = json.RawMessage(attrs)
	if refs != "" && refs != "null" {
		if err := json.Unmarshal([]byte(refs), &obj.References); err != nil {
			return nil, fmt.Errorf("decoding references of %s/%s: %w", obj.Type, obj.ID, err)
		}
	}
	t, err := time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("decoding updated_at of %s/%s: %w", obj.Type, obj.ID, err)
	}
	obj.UpdatedAt = utc.New(t)
	return &obj, nil
}

func formatTime(t utc.Time) string {
	return t.Time.UTC().Format(timeLayout)
}
