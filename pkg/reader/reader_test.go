package reader

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/catalogs/embedded"
	"github.com/agentstation/integrations/pkg/catalogs/files"
	"github.com/agentstation/integrations/pkg/catalogs/memory"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/result"
)

func nginxReader(t *testing.T, opts ...Option) *Reader {
	t.Helper()
	root, err := embedded.New()
	require.NoError(t, err)
	return New("nginx", root.Join("nginx"), opts...)
}

// catalog builds a files adaptor scoped to one integration from a map of
// relative paths to contents.
func catalog(t *testing.T, name string, contents map[string]string) catalogs.Adaptor {
	t.Helper()
	fs := memfs.New()
	for path, body := range contents {
		require.NoError(t, util.WriteFile(fs, name+"/"+path, []byte(body), 0o644))
	}
	return files.NewFS(fs, "repository").Join(name)
}

func TestNginxEndToEnd(t *testing.T) {
	r := nginxReader(t)
	ctx := context.Background()

	assert.Equal(t, "1.0.1", r.GetLatestVersion(ctx))

	cfg := r.GetConfig(ctx, "")
	require.True(t, cfg.IsOk(), cfg.Error())
	assert.Equal(t, "nginx", cfg.Value().Name)
	assert.Equal(t, "1.0.1", cfg.Value().Version)

	logo := r.GetStatic(ctx, "logo.svg")
	require.True(t, logo.IsOk(), logo.Error())
	assert.NotEmpty(t, logo.Value())

	serialized := r.Serialize(ctx, "")
	require.True(t, serialized.IsOk(), serialized.Error())
	statics := serialized.Value().Statics
	assert.Equal(t, base64.StdEncoding.EncodeToString(logo.Value()), statics.Logo.Data)
	assert.Equal(t, "logo.svg", statics.Logo.Path)
	require.Len(t, statics.Gallery, 1)
	assert.NotEmpty(t, statics.Gallery[0].Data)

	older := r.GetConfig(ctx, "1.0.0")
	require.True(t, older.IsOk(), older.Error())
	assert.Empty(t, older.Value().Workflows)
}

func TestGetAssets(t *testing.T) {
	r := nginxReader(t)
	ctx := context.Background()

	assets, err := r.GetAssets(ctx, "1.0.1").Get()
	require.NoError(t, err)
	require.NotNil(t, assets.SavedObjects)
	assert.Equal(t, []string{"dashboards"}, assets.SavedObjects.Workflows)
	assert.Len(t, assets.SavedObjects.Objects, 5)

	require.Len(t, assets.Queries, 1)
	assert.Equal(t, "ppl", assets.Queries[0].Language)
	assert.Contains(t, assets.Queries[0].Query, "source = ")
	assert.False(t, assets.Empty())
}

func TestGetSchemas(t *testing.T) {
	r := nginxReader(t)

	schemas, err := r.GetSchemas(context.Background(), "").Get()
	require.NoError(t, err)
	assert.Len(t, schemas.Mappings, 3)
	for _, name := range []string{"communication", "http", "logs"} {
		assert.Contains(t, schemas.Mappings, name)
	}
}

func TestGetSampleData(t *testing.T) {
	now := utc.New(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	r := nginxReader(t,
		WithClock(func() utc.Time { return now }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)

	sample, err := r.GetSampleData(context.Background(), "").Get()
	require.NoError(t, err)
	require.Len(t, sample.SampleData, 3)

	for _, record := range sample.SampleData[:2] {
		doc := record.(map[string]any)
		for _, field := range []string{"@timestamp", "observedTimestamp"} {
			ts, err := time.Parse(time.RFC3339, doc[field].(string))
			require.NoError(t, err)
			assert.False(t, ts.After(now.Time), field)
			assert.True(t, ts.After(now.Time.Add(-10*time.Minute)), field)
		}
	}
	last := sample.SampleData[2].(map[string]any)
	assert.NotContains(t, last, "@timestamp")

	none := New("plain", catalog(t, "plain", map[string]string{
		"plain-1.0.0.json": `{"name":"plain","version":"1.0.0","type":"logs","license":"MIT","components":[],"assets":{}}`,
	}))
	empty, err := none.GetSampleData(context.Background(), "").Get()
	require.NoError(t, err)
	assert.Nil(t, empty.SampleData)
}

func TestSerializeRoundTrip(t *testing.T) {
	r := nginxReader(t)
	ctx := context.Background()

	for _, version := range []string{"1.0.0", "1.0.1"} {
		t.Run(version, func(t *testing.T) {
			serialized, err := r.Serialize(ctx, version).Get()
			require.NoError(t, err)

			mem := New("nginx", memory.New([]integrations.SerializedIntegration{serialized}).Join("nginx"))

			want, err := r.GetConfig(ctx, version).Get()
			require.NoError(t, err)
			got, err := mem.GetConfig(ctx, version).Get()
			require.NoError(t, err)
			assert.Equal(t, want, got)

			wantSchemas, _ := r.GetSchemas(ctx, version).Get()
			gotSchemas, err := mem.GetSchemas(ctx, version).Get()
			require.NoError(t, err)
			assert.Equal(t, wantSchemas, gotSchemas)

			wantAssets, _ := r.GetAssets(ctx, version).Get()
			gotAssets, err := mem.GetAssets(ctx, version).Get()
			require.NoError(t, err)
			assert.Equal(t, wantAssets, gotAssets)

			logo, err := mem.GetStatic(ctx, "logo.svg").Get()
			require.NoError(t, err)
			wantLogo, _ := r.GetStatic(ctx, "logo.svg").Get()
			assert.Equal(t, wantLogo, logo)

			again, err := mem.Serialize(ctx, version).Get()
			require.NoError(t, err)
			assert.Equal(t, serialized, again)
		})
	}
}

func TestMemoryCatalogWithoutInlineData(t *testing.T) {
	cfg := integrations.SerializedIntegration{Config: integrations.Config{
		Name:       "bare",
		Version:    "1.0.0",
		Type:       "logs",
		License:    "MIT",
		Statics:    &integrations.Statics{Logo: &integrations.StaticAsset{Path: "logo.svg"}},
		Components: []integrations.Component{{Name: "logs", Version: "1.0.0"}},
		Assets:     &integrations.Assets{},
	}}
	r := New("bare", memory.New([]integrations.SerializedIntegration{cfg}).Join("bare"))
	ctx := context.Background()

	require.True(t, r.GetConfig(ctx, "").IsOk())

	static := r.GetStatic(ctx, "logo.svg")
	assert.True(t, errors.IsUnsupported(static.Error()))
	assert.Contains(t, static.Error().Error(), "ReadFileRaw")

	assert.True(t, errors.IsUnsupported(r.GetSchemas(ctx, "").Error()))
	assert.True(t, errors.IsUnsupported(r.Serialize(ctx, "").Error()))
}

func TestFailFast(t *testing.T) {
	config := `{"name":"broken","version":"1.0.0","type":"logs","license":"MIT",
		"statics":{"logo":{"path":"logo.svg"},"gallery":[{"path":"missing-one.png"},{"path":"missing-two.png"}]},
		"components":[{"name":"a","version":"1.0.0"},{"name":"b","version":"1.0.0"},{"name":"c","version":"1.0.0"}],
		"assets":{"savedObjects":{"name":"broken","version":"1.0.0"},"queries":[{"name":"q1","version":"1.0.0","language":"sql"},{"name":"q2","version":"1.0.0","language":"sql"}]}}`
	r := New("broken", catalog(t, "broken", map[string]string{
		"broken-1.0.0.json":            config,
		"schemas/a-1.0.0.mapping.json": `{"template":{}}`,
		"assets/broken-1.0.0.ndjson":   `{"type":"dashboard","id":"d1"}`,
		"static/logo.svg":              "<svg/>",
	}))
	ctx := context.Background()

	for range 20 {
		err := r.GetSchemas(ctx, "").Error()
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
		assert.Contains(t, err.Error(), "b-1.0.0.mapping.json")

		err = r.GetAssets(ctx, "").Error()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "q1-1.0.0.sql")

		err = r.Serialize(ctx, "").Error()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing-one.png")
	}
}

func TestGetConfigErrors(t *testing.T) {
	ctx := context.Background()

	malformed := New("bad", catalog(t, "bad", map[string]string{"bad-1.0.0.json": `{"name":`}))
	err := malformed.GetConfig(ctx, "").Error()
	assert.True(t, errors.IsMalformed(err))
	assert.False(t, errors.IsNotFound(err))

	invalid := New("bad", catalog(t, "bad", map[string]string{"bad-1.0.0.json": `{"name":"bad","version":1}`}))
	err = invalid.GetConfig(ctx, "").Error()
	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "version", verr.Field)

	unknown := New("nothing", catalog(t, "nothing", map[string]string{"README.md": "docs"}))
	assert.True(t, errors.IsNotFound(unknown.GetConfig(ctx, "").Error()))
	assert.Empty(t, unknown.GetLatestVersion(ctx))

	nginx := nginxReader(t)
	assert.True(t, errors.IsNotFound(nginx.GetConfig(ctx, "9.9.9").Error()))
}

func TestDeepCheck(t *testing.T) {
	ctx := context.Background()

	cfg, err := nginxReader(t).DeepCheck(ctx).Get()
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", cfg.Version)

	tests := []struct {
		name   string
		config string
		files  map[string]string
	}{
		{
			name:   "no components",
			config: `{"name":"x","version":"1.0.0","type":"logs","license":"MIT","components":[],"assets":{"savedObjects":{"name":"x","version":"1.0.0"}}}`,
			files:  map[string]string{"assets/x-1.0.0.ndjson": `{"type":"dashboard","id":"d"}`},
		},
		{
			name:   "empty assets",
			config: `{"name":"x","version":"1.0.0","type":"logs","license":"MIT","components":[{"name":"logs","version":"1.0.0"}],"assets":{}}`,
			files:  map[string]string{"schemas/logs-1.0.0.mapping.json": `{}`},
		},
		{
			name:   "missing schema",
			config: `{"name":"x","version":"1.0.0","type":"logs","license":"MIT","components":[{"name":"logs","version":"1.0.0"}],"assets":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents := map[string]string{"x-1.0.0.json": tt.config}
			for k, v := range tt.files {
				contents[k] = v
			}
			r := New("x", catalog(t, "x", contents))

			require.True(t, r.GetConfig(ctx, "").IsOk(), "shallow check must pass")

			err := r.DeepCheck(ctx).Error()
			var deep *errors.DeepValidationError
			require.ErrorAs(t, err, &deep)
			assert.Equal(t, "x", deep.Integration)
		})
	}
}

func TestGatherOrder(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ctx := context.Background()

	slowFailure := gather(ctx, []task[int]{
		func(ctx context.Context) result.Result[int] {
			time.Sleep(20 * time.Millisecond)
			return result.Err[int](errA)
		},
		func(ctx context.Context) result.Result[int] { return result.Err[int](errB) },
	})
	assert.Same(t, errA, slowFailure.Error())

	cancelled := gather(ctx, []task[int]{
		func(ctx context.Context) result.Result[int] { return result.Err[int](errA) },
		func(ctx context.Context) result.Result[int] {
			<-ctx.Done()
			return result.Err[int](ctx.Err())
		},
	})
	assert.Same(t, errA, cancelled.Error())

	ok := gather(ctx, []task[int]{
		func(ctx context.Context) result.Result[int] { return result.Ok(1) },
		func(ctx context.Context) result.Result[int] { return result.Ok(2) },
	})
	assert.Equal(t, []int{1, 2}, ok.Value())

	parent, cancel := context.WithCancel(ctx)
	cancel()
	skipped := gather(parent, []task[int]{
		func(ctx context.Context) result.Result[int] { return result.Ok(1) },
	})
	assert.ErrorIs(t, skipped.Error(), context.Canceled)
}
