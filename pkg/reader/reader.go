// Package reader resolves one integration from a catalog adaptor.
//
// A Reader is bound to an integration name and an adaptor already scoped
// to that integration. It resolves versions, loads and validates configs,
// and assembles the derived views: assets, schemas, sample data, statics
// and the self-contained serialized form.
//
// Configs read from a serialized catalog carry their file bodies inline.
// The reader prefers those bodies over adaptor reads and prunes them from
// the config it hands out, so both catalog kinds look the same to callers.
package reader

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/result"
)

// Reader reads one integration.
type Reader struct {
	name    string
	adaptor catalogs.Adaptor
	now     func() utc.Time
	rng     *rand.Rand
}

// Option configures a Reader.
type Option func(*Reader)

// WithClock sets the clock used to rewrite sample timestamps.
func WithClock(now func() utc.Time) Option {
	return func(r *Reader) {
		r.now = now
	}
}

// WithRand sets the random source used to spread sample timestamps.
func WithRand(rng *rand.Rand) Option {
	return func(r *Reader) {
		r.rng = rng
	}
}

// New creates a reader for the integration called name. The adaptor must
// already be scoped to it, as returned by Join.
func New(name string, adaptor catalogs.Adaptor, opts ...Option) *Reader {
	r := &Reader{name: name, adaptor: adaptor, now: utc.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the integration name.
func (r *Reader) Name() string {
	return r.name
}

// GetLatestVersion returns the newest version, or "" when the adaptor
// lists none or cannot be read.
func (r *Reader) GetLatestVersion(ctx context.Context) string {
	versions, err := r.adaptor.FindIntegrationVersions(ctx, "").Get()
	if err != nil {
		logging.FromContext(r.context(ctx)).Debug().Err(err).Msg("Failed to list integration versions")
		return ""
	}
	if len(versions) == 0 {
		return ""
	}
	return versions[0]
}

// GetConfig loads and validates a config. An empty version selects the
// latest one.
func (r *Reader) GetConfig(ctx context.Context, version string) result.Result[integrations.Config] {
	return result.Map(r.config(ctx, version), prune)
}

// config returns the validated config with any inline bodies still attached.
func (r *Reader) config(ctx context.Context, version string) result.Result[integrations.Config] {
	ctx = r.context(ctx)
	if kind := r.adaptor.GetDirectoryType(ctx, ""); kind != catalogs.DirectoryIntegration {
		return result.Err[integrations.Config](errors.NewNotFoundError("integration", r.name))
	}
	if version == "" {
		version = r.GetLatestVersion(ctx)
		if version == "" {
			return result.Err[integrations.Config](errors.NewNotFoundError("integration version", r.name))
		}
	}

	filename := catalogs.ConfigFilename(r.name, version)
	return result.Then(r.adaptor.ReadFile(ctx, filename, catalogs.PartConfig), func(raw any) result.Result[integrations.Config] {
		return integrations.ValidateTemplate(raw)
	})
}

// GetStatic returns the bytes of a static asset. Inline data of the latest
// config is used when present; otherwise the static partition is read.
func (r *Reader) GetStatic(ctx context.Context, path string) result.Result[[]byte] {
	if cfg, err := r.config(ctx, "").Get(); err == nil {
		for _, static := range cfg.Statics.All() {
			if static.Path != path || static.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(static.Data)
			if err != nil {
				return result.Err[[]byte](errors.NewParseError("base64", path, "invalid inline static data", err))
			}
			return result.Ok(data)
		}
	}
	return r.adaptor.ReadFileRaw(ctx, path, catalogs.PartStatic)
}

// DeepCheck validates the latest config and additionally requires that at
// least one schema and one asset resolve.
func (r *Reader) DeepCheck(ctx context.Context) result.Result[integrations.Config] {
	cfg := r.config(ctx, "")
	if !cfg.IsOk() {
		return result.Map(cfg, prune)
	}
	version := cfg.Value().Version

	schemas, err := r.GetSchemas(ctx, version).Get()
	if err != nil {
		return result.Err[integrations.Config](errors.NewDeepValidationError(r.name, "schemas do not resolve", err))
	}
	if len(schemas.Mappings) == 0 {
		return result.Err[integrations.Config](errors.NewDeepValidationError(r.name, "no schemas found", nil))
	}

	assets, err := r.GetAssets(ctx, version).Get()
	if err != nil {
		return result.Err[integrations.Config](errors.NewDeepValidationError(r.name, "assets do not resolve", err))
	}
	if assets.Empty() {
		return result.Err[integrations.Config](errors.NewDeepValidationError(r.name, "no assets found", nil))
	}
	return result.Map(cfg, prune)
}

func (r *Reader) context(ctx context.Context) context.Context {
	return logging.WithIntegration(ctx, r.name)
}

// sampleTimestamp returns a time within the sample window ending now.
func (r *Reader) sampleTimestamp() string {
	window := int64(constants.SampleDataWindow)
	var offset int64
	if r.rng != nil {
		offset = r.rng.Int64N(window)
	} else {
		offset = rand.Int64N(window)
	}
	return r.now().Time.Add(-time.Duration(offset)).UTC().Format(sampleTimeLayout)
}

// sampleTimeLayout matches the millisecond ISO 8601 form used by sample data.
const sampleTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// prune returns a copy of cfg without inline bodies.
func prune(cfg integrations.Config) integrations.Config {
	out := clone(cfg)
	for i := range out.Components {
		out.Components[i].Data = ""
	}
	if out.Assets.SavedObjects != nil {
		out.Assets.SavedObjects.Data = ""
	}
	for i := range out.Assets.Queries {
		out.Assets.Queries[i].Data = ""
	}
	for _, static := range out.Statics.All() {
		static.Data = ""
	}
	if out.SampleData != nil {
		out.SampleData.Data = ""
	}
	return out
}

// clone copies every part of cfg that carries an inline body. Assets is
// always non-nil in the copy.
func clone(cfg integrations.Config) integrations.Config {
	out := cfg
	out.Components = slices.Clone(cfg.Components)

	assets := integrations.Assets{}
	if cfg.Assets != nil {
		assets.Queries = slices.Clone(cfg.Assets.Queries)
		if cfg.Assets.SavedObjects != nil {
			so := *cfg.Assets.SavedObjects
			assets.SavedObjects = &so
		}
	}
	out.Assets = &assets

	if s := cfg.Statics; s != nil {
		statics := integrations.Statics{
			Gallery:         slices.Clone(s.Gallery),
			DarkModeGallery: slices.Clone(s.DarkModeGallery),
		}
		if s.Logo != nil {
			logo := *s.Logo
			statics.Logo = &logo
		}
		if s.DarkModeLogo != nil {
			logo := *s.DarkModeLogo
			statics.DarkModeLogo = &logo
		}
		out.Statics = &statics
	}
	if cfg.SampleData != nil {
		sample := *cfg.SampleData
		out.SampleData = &sample
	}
	return out
}
