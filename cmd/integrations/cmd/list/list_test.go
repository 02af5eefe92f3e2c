package list

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/integrations/internal/cmd/application"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/manager"
)

func execute(t *testing.T, app *application.Mock, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListJSON(t *testing.T) {
	app := application.NewTestMock(application.NewTestManager(t), "json")

	out, err := execute(t, app)
	require.NoError(t, err)

	var list struct {
		Hits []struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"hits"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Hits, 1)
	assert.Equal(t, "nginx", list.Hits[0].Name)
	assert.Equal(t, "1.0.1", list.Hits[0].Version)
}

func TestListTable(t *testing.T) {
	app := application.NewTestMock(application.NewTestManager(t), "table")

	out, err := execute(t, app, "nginx")
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(out), "NAME")
	assert.Contains(t, out, "nginx")
	assert.Contains(t, out, "1.0.1")
}

func TestListUnknownName(t *testing.T) {
	app := application.NewTestMock(application.NewTestManager(t), "json")

	_, err := execute(t, app, "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestListInvalidFormat(t *testing.T) {
	app := application.NewTestMock(application.NewTestManager(t), "xml")

	_, err := execute(t, app)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestListManagerError(t *testing.T) {
	app := &application.Mock{
		ManagerFunc: func() (*manager.Manager, error) {
			return nil, errors.NewConfigError("store", "unsupported store DSN", nil)
		},
	}

	_, err := execute(t, app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store DSN")
}

func TestListMatch(t *testing.T) {
	app := application.NewTestMock(application.NewTestManager(t), "json")

	out, err := execute(t, app, "--match", "ngin*")
	require.NoError(t, err)
	assert.Contains(t, out, `"nginx"`)

	out, err = execute(t, app, "--match", "^apache$")
	require.NoError(t, err)
	assert.NotContains(t, out, "nginx")
	assert.Contains(t, out, `"hits": []`)

	_, err = execute(t, app, "--match", "(bad")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}
