package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/integrations/internal/cmd/application"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/manager"
)

func execute(t *testing.T, m *manager.Manager, format string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(application.NewTestMock(m, format))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeBundle(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(file, data, 0o644))
	return file
}

func TestValidateCatalogs(t *testing.T) {
	out, err := execute(t, application.NewTestManager(t), "json", "--deep")
	require.NoError(t, err)

	var results []Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, Result{Name: "nginx", Version: "1.0.1", Valid: true}, results[0])
}

func TestValidateTableOutput(t *testing.T) {
	out, err := execute(t, application.NewTestManager(t), "table", "nginx")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ nginx 1.0.1")
}

func TestValidateMissingName(t *testing.T) {
	out, err := execute(t, application.NewTestManager(t), "table", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Contains(t, out, "✗ missing")
}

func TestValidateBundleFile(t *testing.T) {
	m := application.NewTestManager(t)
	bundle, err := m.Serialize(context.Background(), "nginx", "")
	require.NoError(t, err)

	// A single serialized integration.
	out, err := execute(t, m, "json", "--deep", "--file", writeBundle(t, bundle))
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	// An array, filtered by name.
	out, err = execute(t, m, "json", "--file", writeBundle(t, []any{bundle}), "nginx")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "nginx"`)
}

func TestValidateBundleMissingData(t *testing.T) {
	m := application.NewTestManager(t)
	bundle, err := m.Serialize(context.Background(), "nginx", "")
	require.NoError(t, err)
	for i := range bundle.Components {
		bundle.Components[i].Data = ""
	}

	file := writeBundle(t, bundle)

	// The shape is still a valid template.
	out, err := execute(t, m, "json", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	out, err = execute(t, m, "json", "--deep", "--file", file)
	require.Error(t, err)
	assert.Contains(t, out, `"valid": false`)
	assert.Contains(t, out, "schemas do not resolve")
}

func TestValidateBundleMalformed(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o644))

	_, err := execute(t, application.NewTestManager(t), "json", "--file", file)
	require.Error(t, err)
	assert.True(t, errors.IsMalformed(err))
}

func TestValidateBundleStdin(t *testing.T) {
	m := application.NewTestManager(t)
	bundle, err := m.Serialize(context.Background(), "nginx", "")
	require.NoError(t, err)
	data, err := json.Marshal(bundle)
	require.NoError(t, err)

	cmd := NewCommand(application.NewTestMock(m, "json"))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(bytes.NewReader(data))
	cmd.SetArgs([]string{"--file", "-"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), `"valid": true`)
}
