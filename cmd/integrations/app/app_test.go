package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/manager"
)

func testConfig() *Config {
	return &Config{
		UseEmbeddedCatalog: true,
		Store:              "memory",
		IndexCacheTTL:      constants.CacheTTL,
		LogLevel:           "error",
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	isolate(t)
	app, err := New("1.0.0", "abc123", "2024-01-01", "test",
		WithConfig(testConfig()), WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

func TestNew(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2024-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.Equal(t, "memory", app.Config().Store)
}

func TestManagerSingleton(t *testing.T) {
	app := newTestApp(t)

	var wg sync.WaitGroup
	managers := make([]*manager.Manager, 10)
	for i := range managers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := app.Manager()
			assert.NoError(t, err)
			managers[i] = m
		}()
	}
	wg.Wait()

	for _, m := range managers {
		assert.Same(t, managers[0], m)
	}

	list, err := managers[0].GetIntegrationTemplates(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, list.Hits, 1)
}

func TestManagerRejectsBadStore(t *testing.T) {
	app := newTestApp(t)
	app.config.Store = "mysql://nope"

	_, err := app.Manager()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store DSN")
}

func TestManagerWithoutCatalogs(t *testing.T) {
	app := newTestApp(t)
	app.config.UseEmbeddedCatalog = false

	m, err := app.Manager()
	require.NoError(t, err)
	list, err := m.GetIntegrationTemplates(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list.Hits)
}

func TestShutdownIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	_, err := app.Manager()
	require.NoError(t, err)

	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()
	fn()
	require.NoError(t, w.Close())
	return <-done
}

func TestExecute(t *testing.T) {
	app := newTestApp(t)

	out := captureStdout(t, func() {
		require.NoError(t, app.Execute(context.Background(), []string{"list", "-o", "json", "--log-level", "error"}))
	})
	assert.Contains(t, out, `"name": "nginx"`)
	assert.Equal(t, "json", app.OutputFormat())
}

func TestExecuteGlobalFlags(t *testing.T) {
	app := newTestApp(t)

	captureStdout(t, func() {
		require.NoError(t, app.Execute(context.Background(), []string{
			"version", "--repository", "/srv/catalog", "--store", "badger://:memory:", "--no-embedded", "-q",
		}))
	})
	assert.Equal(t, "/srv/catalog", app.RepositoryPath())
	assert.Equal(t, "badger://:memory:", app.Config().Store)
	assert.False(t, app.Config().UseEmbeddedCatalog)
	assert.True(t, app.Config().Quiet)
}

func TestExecuteUnknownCommand(t *testing.T) {
	app := newTestApp(t)
	err := app.Execute(context.Background(), []string{"bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
