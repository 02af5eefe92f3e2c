// Package store opens an object store backend from a DSN.
//
// Supported forms:
//
//	memory                 SQLite held in memory
//	sqlite://path/to.db    SQLite file
//	postgres://...         PostgreSQL (postgresql:// is accepted too)
//	badger://path/to/dir   BadgerDB directory
//	badger://:memory:      BadgerDB held in memory
package store

import (
	"context"
	"strings"

	"github.com/agentstation/integrations/internal/store/badgerstore"
	"github.com/agentstation/integrations/internal/store/sqlstore"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/objects"
)

// Open returns the backend named by dsn.
func Open(ctx context.Context, dsn string) (objects.ClosableStore, error) {
	scheme, rest, _ := strings.Cut(dsn, "://")
	switch {
	case dsn == "memory":
		return sqlstore.Open(ctx, sqlstore.DriverSQLite, ":memory:")
	case scheme == "sqlite":
		if rest == "" {
			return nil, errors.NewConfigError("store", "sqlite DSN needs a path", nil)
		}
		return sqlstore.Open(ctx, sqlstore.DriverSQLite, rest)
	case scheme == "postgres" || scheme == "postgresql":
		return sqlstore.Open(ctx, sqlstore.DriverPostgres, dsn)
	case scheme == "badger" && rest == ":memory:":
		return badgerstore.OpenInMemory()
	case scheme == "badger":
		return badgerstore.Open(rest)
	}
	return nil, errors.NewConfigError("store", "unsupported store DSN "+redact(dsn), nil)
}

// redact drops credentials from a DSN before it is logged or returned.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***" + rest[at:]
	}
	return scheme + "://" + rest
}
