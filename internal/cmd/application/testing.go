package application

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/integrations/internal/store/sqlstore"
	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/catalogs/embedded"
	"github.com/agentstation/integrations/pkg/catalogs/indexed"
	"github.com/agentstation/integrations/pkg/manager"
	"github.com/agentstation/integrations/pkg/repository"
)

// NewTestManager returns a manager over an in-memory SQLite store and the
// bundled catalog. The store is closed when the test ends.
func NewTestManager(t testing.TB) *manager.Manager {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	bundled, err := embedded.New()
	if err != nil {
		t.Fatalf("open bundled catalog: %v", err)
	}
	index := indexed.New(store, indexed.WithCacheTTL(time.Hour))
	repo := repository.New([]catalogs.Adaptor{index, bundled})
	return manager.New(repo, store, manager.WithInvalidators(index))
}

// NewTestMock returns a Mock serving m in format.
func NewTestMock(m *manager.Manager, format string) *Mock {
	return &Mock{
		ManagerFunc:      func() (*manager.Manager, error) { return m, nil },
		OutputFormatFunc: func() string { return format },
	}
}
