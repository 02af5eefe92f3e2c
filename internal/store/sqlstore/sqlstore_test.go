package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/objects"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dashboard(id, title string) objects.Object {
	return objects.Object{
		Type:       "dashboard",
		ID:         id,
		Attributes: json.RawMessage(fmt.Sprintf(`{"title":%q}`, title)),
		References: []objects.Reference{{Name: "panel_0", Type: "visualization", ID: "v1"}},
	}
}

func TestCreateGetDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, dashboard("d1", "Overview"), objects.CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "d1", created.ID)
	assert.False(t, created.UpdatedAt.IsZero())

	got, err := s.Get(ctx, "dashboard", "d1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Overview"}`, string(got.Attributes))
	assert.Equal(t, []objects.Reference{{Name: "panel_0", Type: "visualization", ID: "v1"}}, got.References)

	require.NoError(t, s.Delete(ctx, "dashboard", "d1"))

	_, err = s.Get(ctx, "dashboard", "d1")
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))

	err = s.Delete(ctx, "dashboard", "d1")
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateAssignsID(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create(context.Background(), objects.Object{Type: "integration-instance"}, objects.CreateOptions{})
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
	assert.JSONEq(t, `{}`, string(created.Attributes))
}

func TestCreateConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, dashboard("d1", "First"), objects.CreateOptions{})
	require.NoError(t, err)

	_, err = s.Create(ctx, dashboard("d1", "Second"), objects.CreateOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err))
	assert.Equal(t, http.StatusConflict, errors.StatusCode(err))

	_, err = s.Create(ctx, dashboard("d1", "Second"), objects.CreateOptions{Overwrite: true})
	require.NoError(t, err)
	got, err := s.Get(ctx, "dashboard", "d1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Second"}`, string(got.Attributes))
}

func TestBulkCreateIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, dashboard("d2", "Existing"), objects.CreateOptions{})
	require.NoError(t, err)

	_, err = s.BulkCreate(ctx, []objects.Object{dashboard("d1", "New"), dashboard("d2", "Clash")}, objects.CreateOptions{})
	require.Error(t, err)

	_, err = s.Get(ctx, "dashboard", "d1")
	assert.True(t, errors.IsNotFound(err), "first object must be rolled back")

	_, err = s.BulkCreate(ctx, []objects.Object{{Type: "dashboard", Attributes: json.RawMessage(`{`)}}, objects.CreateOptions{})
	assert.True(t, errors.IsValidationError(err))
}

func TestFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	templates := []objects.Object{
		{Type: "integration-template", ID: "nginx-1", Attributes: json.RawMessage(`{"name":"nginx","version":"1.0.0"}`)},
		{Type: "integration-template", ID: "nginx-2", Attributes: json.RawMessage(`{"name":"nginx","version":"1.0.1"}`)},
		{Type: "integration-template", ID: "apache-1", Attributes: json.RawMessage(`{"name":"apache","version":"2.0.0"}`)},
	}
	_, err := s.BulkCreate(ctx, templates, objects.CreateOptions{})
	require.NoError(t, err)
	_, err = s.Create(ctx, dashboard("d1", "nginx"), objects.CreateOptions{})
	require.NoError(t, err)

	all, err := s.Find(ctx, objects.FindOptions{Type: "integration-template"})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	nginx, err := s.Find(ctx, objects.FindOptions{Type: "integration-template", Search: "nginx", SearchFields: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, 2, nginx.Total)
	for _, obj := range nginx.Objects {
		assert.Equal(t, "integration-template", obj.Type)
	}

	everything, err := s.Find(ctx, objects.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, everything.Total)
}

func TestRebind(t *testing.T) {
	pg := New(nil, DriverPostgres)
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", pg.rebind("SELECT 1 WHERE a = ? AND b = ?"))

	lite := New(nil, DriverSQLite)
	assert.Equal(t, "SELECT 1 WHERE a = ?", lite.rebind("SELECT 1 WHERE a = ?"))
}

func TestBackendFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("get", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT type, id, attributes, refs, updated_at FROM objects WHERE type = \? AND id = \?`).
			WithArgs("dashboard", "d1").
			WillReturnError(fmt.Errorf("connection reset"))

		_, err = New(db, DriverSQLite).Get(ctx, "dashboard", "d1")
		require.Error(t, err)
		assert.False(t, errors.IsNotFound(err))
		assert.Equal(t, http.StatusInternalServerError, errors.StatusCode(err))

		var serr *errors.StoreError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "get", serr.Operation)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bulk create rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM objects`).
			WithArgs("dashboard", "d1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO objects`).
			WithArgs("dashboard", "d1", `{"title":"Overview"}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(fmt.Errorf("disk full"))
		mock.ExpectRollback()

		_, err = New(db, DriverSQLite).BulkCreate(ctx, []objects.Object{dashboard("d1", "Overview")}, objects.CreateOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, http.StatusInternalServerError, errors.StatusCode(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM objects WHERE type = \$1 AND id = \$2`).
			WithArgs("dashboard", "d1").
			WillReturnError(fmt.Errorf("timeout"))

		err = New(db, DriverPostgres).Delete(ctx, "dashboard", "d1")
		require.Error(t, err)
		assert.False(t, errors.IsNotFound(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("find", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM objects WHERE type = \?`).
			WithArgs("integration-template").
			WillReturnRows(sqlmock.NewRows([]string{"type", "id", "attributes", "refs", "updated_at"}).
				AddRow("integration-template", "t1", `{}`, `[]`, "not a time"))

		_, err = New(db, DriverSQLite).Find(ctx, objects.FindOptions{Type: "integration-template"})
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, errors.StatusCode(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
