package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
)

func serialized(name, version string) integrations.SerializedIntegration {
	return integrations.SerializedIntegration{Config: integrations.Config{
		Name:       name,
		Version:    version,
		Type:       "logs",
		License:    "MIT",
		Components: []integrations.Component{{Name: "logs", Version: "1.0.0", Data: `{"template":{}}`}},
		Assets:     &integrations.Assets{},
	}}
}

func testCatalog() *Adaptor {
	return New([]integrations.SerializedIntegration{
		serialized("nginx", "1.0.0"),
		serialized("nginx", "1.0.1"),
		serialized("apache", "2.0.0"),
	})
}

func TestDirectoryType(t *testing.T) {
	a := testCatalog()
	ctx := context.Background()

	assert.Equal(t, catalogs.DirectoryRepository, a.GetDirectoryType(ctx, ""))
	assert.Equal(t, catalogs.DirectoryIntegration, a.GetDirectoryType(ctx, "nginx"))
	assert.Equal(t, catalogs.DirectoryIntegration, a.Join("apache").GetDirectoryType(ctx, ""))
	assert.Equal(t, catalogs.DirectoryUnknown, a.GetDirectoryType(ctx, "does-not-exist"))
	assert.Equal(t, catalogs.DirectoryUnknown, New(nil).GetDirectoryType(ctx, ""))
}

func TestFind(t *testing.T) {
	a := testCatalog()
	ctx := context.Background()

	assert.Equal(t, []string{"apache", "nginx"}, a.FindIntegrations(ctx, "").Value())
	assert.Equal(t, []string{"1.0.1", "1.0.0"}, a.FindIntegrationVersions(ctx, "nginx").Value())
	assert.Equal(t, []string{"1.0.1", "1.0.0"}, a.Join("nginx").FindIntegrationVersions(ctx, "").Value())
	assert.Empty(t, a.FindIntegrationVersions(ctx, "does-not-exist").Value())
}

func TestJoinDoesNotMutate(t *testing.T) {
	a := testCatalog()
	nginx := a.Join("nginx").(*Adaptor)

	assert.Equal(t, 2, nginx.Len())
	assert.Equal(t, 3, a.Len())
}

func TestReadFile(t *testing.T) {
	a := testCatalog()
	ctx := context.Background()

	r := a.ReadFile(ctx, "nginx-1.0.1.json", catalogs.PartConfig)
	require.True(t, r.IsOk(), "unexpected error: %v", r.Error())
	doc, ok := r.Value().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.0.1", doc["version"])

	validated := integrations.ValidateTemplate(r.Value())
	require.True(t, validated.IsOk(), "unexpected error: %v", validated.Error())
	assert.Equal(t, `{"template":{}}`, validated.Value().Components[0].Data)

	missing := a.ReadFile(ctx, "nginx-9.9.9.json", catalogs.PartConfig)
	assert.True(t, errors.IsNotFound(missing.Error()))

	scoped := a.Join("apache").ReadFile(ctx, "nginx-1.0.1.json", catalogs.PartConfig)
	assert.True(t, errors.IsNotFound(scoped.Error()))

	invalid := a.ReadFile(ctx, "logo.svg", catalogs.PartConfig)
	assert.True(t, errors.IsValidationError(invalid.Error()))
}

func TestUnsupportedOperations(t *testing.T) {
	a := testCatalog()
	ctx := context.Background()

	var raw interface{ Error() error }
	require.NotPanics(t, func() { raw = a.ReadFileRaw(ctx, "logo.svg", catalogs.PartStatic) })
	require.Error(t, raw.Error())
	assert.True(t, errors.IsUnsupported(raw.Error()))
	assert.Contains(t, raw.Error().Error(), "ReadFileRaw")

	for _, part := range []catalogs.PartType{catalogs.PartAssets, catalogs.PartData, catalogs.PartSchemas, catalogs.PartStatic} {
		r := a.ReadFile(ctx, "nginx-1.0.0.ndjson", part)
		assert.True(t, errors.IsUnsupported(r.Error()), string(part))
		assert.Contains(t, r.Error().Error(), string(part))
	}
}

func TestParse(t *testing.T) {
	a, err := Parse([]byte(`[{"name":"nginx","version":"1.0.0"},{"name":"nginx","version":"2.0.0"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"2.0.0", "1.0.0"}, a.FindIntegrationVersions(context.Background(), "").Value())

	_, err = Parse([]byte(`{"name":`))
	assert.True(t, errors.IsMalformed(err))
}
