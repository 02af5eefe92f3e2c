// Package application provides the application interface for integrations
// commands.
//
// Commands accept this interface rather than the concrete App type, so they
// can be tested with internal/cmd/application.Mock:
//
//	mock := &application.Mock{
//	    ManagerFunc: func() (*manager.Manager, error) {
//	        return testManager, nil
//	    },
//	}
//	cmd := list.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/integrations/pkg/manager"
)

// Application provides what commands need from the running CLI.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Manager returns the integrations manager, wiring the object store and
	// catalogs on first use.
	Manager() (*manager.Manager, error)

	// RepositoryPath returns the filesystem catalog directory, or "" when
	// only bundled and uploaded templates are served.
	RepositoryPath() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
