// Package application provides a configurable Application for command
// tests.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/pkg/manager"
)

// Mock provides a mock implementation of Application for testing.
// If a function field is nil, the method returns a default value.
type Mock struct {
	ManagerFunc        func() (*manager.Manager, error)
	RepositoryPathFunc func() string
	LoggerFunc         func() *zerolog.Logger
	OutputFormatFunc   func() string
	VersionFunc        func() string
	CommitFunc         func() string
	DateFunc           func() string
	BuiltByFunc        func() string
}

var _ application.Application = (*Mock)(nil)

// Manager returns a manager using the mock function or nil.
func (m *Mock) Manager() (*manager.Manager, error) {
	if m.ManagerFunc != nil {
		return m.ManagerFunc()
	}
	return nil, nil
}

// RepositoryPath returns the catalog path using the mock function or "".
func (m *Mock) RepositoryPath() string {
	if m.RepositoryPathFunc != nil {
		return m.RepositoryPathFunc()
	}
	return ""
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns the build date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns the builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
