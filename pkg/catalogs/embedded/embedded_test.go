package embedded

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/integrations/pkg/catalogs"
)

func TestEmbeddedCatalog(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, catalogs.DirectoryRepository, a.GetDirectoryType(ctx, ""))
	assert.Equal(t, catalogs.DirectoryIntegration, a.GetDirectoryType(ctx, "nginx"))

	names := a.FindIntegrations(ctx, "")
	require.True(t, names.IsOk(), "unexpected error: %v", names.Error())
	assert.Contains(t, names.Value(), "nginx")

	versions := a.FindIntegrationVersions(ctx, "nginx")
	require.True(t, versions.IsOk(), "unexpected error: %v", versions.Error())
	assert.Equal(t, []string{"1.0.1", "1.0.0"}, versions.Value())
}

func TestEmbeddedCopiesAreIndependent(t *testing.T) {
	first, err := New()
	require.NoError(t, err)
	second, err := New()
	require.NoError(t, err)

	ctx := context.Background()
	a := first.Join("nginx").ReadFileRaw(ctx, "logo.svg", catalogs.PartStatic)
	b := second.Join("nginx").ReadFileRaw(ctx, "logo.svg", catalogs.PartStatic)
	require.True(t, a.IsOk())
	assert.Equal(t, a.Value(), b.Value())
}

func TestFS(t *testing.T) {
	data, err := fs.ReadFile(FS(), "nginx/nginx-1.0.1.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0.1"`)
}
