// Package app provides the application context and dependency management
// for the integrations CLI. It centralizes configuration, logging and the
// lazily opened object store behind the template manager.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/internal/store"
	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/catalogs/embedded"
	"github.com/agentstation/integrations/pkg/catalogs/files"
	"github.com/agentstation/integrations/pkg/catalogs/indexed"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/manager"
	"github.com/agentstation/integrations/pkg/objects"
	"github.com/agentstation/integrations/pkg/repository"
)

// App represents the integrations application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily wired on first Manager call.
	mu      sync.RWMutex
	manager *manager.Manager
	store   objects.ClosableStore
}

var _ application.Application = (*App)(nil)

// New creates a new App with the given version information. Configuration
// is loaded from the environment and config file, then options are applied.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "load config", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	logging.SetDefault(*app.logger)

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// RepositoryPath returns the filesystem catalog directory.
func (a *App) RepositoryPath() string {
	return a.config.RepositoryPath
}

// Manager returns the template manager, opening the object store and
// wiring the catalogs on first use. It is safe for concurrent use and
// only one manager is ever created.
func (a *App) Manager() (*manager.Manager, error) {
	a.mu.RLock()
	if a.manager != nil {
		m := a.manager
		a.mu.RUnlock()
		return m, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.manager != nil {
		return a.manager, nil
	}

	st, err := store.Open(context.Background(), a.config.Store)
	if err != nil {
		return nil, err
	}
	m, err := a.buildManager(st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	a.store = st
	a.manager = m
	return m, nil
}

// buildManager layers the catalogs in lookup order: uploaded templates
// first, then the filesystem catalog, then the bundled one.
func (a *App) buildManager(st objects.Store) (*manager.Manager, error) {
	index := indexed.New(st, indexed.WithCacheTTL(a.config.IndexCacheTTL))
	adaptors := []catalogs.Adaptor{index}

	if a.config.RepositoryPath != "" {
		fsCatalog, err := files.New(a.config.RepositoryPath)
		if err != nil {
			return nil, err
		}
		adaptors = append(adaptors, fsCatalog)
	}

	if a.config.UseEmbeddedCatalog {
		bundled, err := embedded.New()
		if err != nil {
			return nil, err
		}
		adaptors = append(adaptors, bundled)
	}

	a.logger.Debug().
		Str("store", a.config.Store).
		Str("repository", a.config.RepositoryPath).
		Bool("embedded", a.config.UseEmbeddedCatalog).
		Msg("Wiring integrations manager")

	return manager.New(repository.New(adaptors), st, manager.WithInvalidators(index)), nil
}

// Shutdown releases the object store if it was opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	st := a.store
	a.store = nil
	a.manager = nil
	a.mu.Unlock()

	if st == nil {
		return nil
	}
	if err := st.Close(); err != nil {
		return errors.NewStoreError("close", "store", a.config.Store, err)
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithManager sets a prebuilt manager. Shutdown will not close its store.
func WithManager(m *manager.Manager) Option {
	return func(a *App) error {
		a.manager = m
		return nil
	}
}
