// Package indexed provides a catalog adaptor over integration templates
// uploaded to the host object store.
//
// Every operation loads the integration-template objects in scope, decodes
// them into serialized integrations and delegates to the memory adaptor.
// Loads can be cached for a fixed TTL; writers call Invalidate after
// changing the store.
package indexed

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/catalogs/memory"
	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/objects"
	"github.com/agentstation/integrations/pkg/result"
)

// Adaptor reads integration templates from an object store.
type Adaptor struct {
	store objects.Store
	cache *gocache.Cache

	// name is the integration the adaptor is joined to, empty at the root.
	name string
	// empty marks a scope that can never hold an integration, such as a
	// join to a second name.
	empty bool
}

var _ catalogs.Adaptor = (*Adaptor)(nil)

// Option configures an Adaptor.
type Option func(*Adaptor)

// WithCacheTTL caches loaded templates for ttl. A zero ttl disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(a *Adaptor) {
		if ttl > 0 {
			a.cache = gocache.New(ttl, constants.CacheCleanupInterval)
		}
	}
}

// New creates an adaptor over the templates held in store.
func New(store objects.Store, opts ...Option) *Adaptor {
	a := &Adaptor{store: store}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Invalidate drops every cached load, including those of joined adaptors.
func (a *Adaptor) Invalidate() {
	if a.cache != nil {
		a.cache.Flush()
	}
}

// Join returns an adaptor scoped to the integration called name. The cache
// is shared with the receiver.
func (a *Adaptor) Join(name string) catalogs.Adaptor {
	joined := *a
	joined.name = name
	joined.empty = a.empty || (a.name != "" && a.name != name)
	return &joined
}

// ReadFile implements catalogs.Adaptor.
func (a *Adaptor) ReadFile(ctx context.Context, filename string, part catalogs.PartType) result.Result[any] {
	return result.Then(a.load(ctx), func(m *memory.Adaptor) result.Result[any] {
		return m.ReadFile(ctx, filename, part)
	})
}

// ReadFileRaw implements catalogs.Adaptor. Raw reads are never supported.
func (a *Adaptor) ReadFileRaw(ctx context.Context, filename string, part catalogs.PartType) result.Result[[]byte] {
	return result.Then(a.load(ctx), func(m *memory.Adaptor) result.Result[[]byte] {
		return m.ReadFileRaw(ctx, filename, part)
	})
}

// FindIntegrations implements catalogs.Adaptor.
func (a *Adaptor) FindIntegrations(ctx context.Context, dirname string) result.Result[[]string] {
	return result.Then(a.load(ctx), func(m *memory.Adaptor) result.Result[[]string] {
		return m.FindIntegrations(ctx, dirname)
	})
}

// FindIntegrationVersions implements catalogs.Adaptor.
func (a *Adaptor) FindIntegrationVersions(ctx context.Context, dirname string) result.Result[[]string] {
	return result.Then(a.load(ctx), func(m *memory.Adaptor) result.Result[[]string] {
		return m.FindIntegrationVersions(ctx, dirname)
	})
}

// GetDirectoryType implements catalogs.Adaptor. A store failure makes the
// scope unknown.
func (a *Adaptor) GetDirectoryType(ctx context.Context, dirname string) catalogs.DirectoryType {
	m, err := a.load(ctx).Get()
	if err != nil {
		logging.FromContext(ctx).Debug().Err(err).Msg("Indexed catalog unavailable")
		return catalogs.DirectoryUnknown
	}
	return m.GetDirectoryType(ctx, dirname)
}

func (a *Adaptor) load(ctx context.Context) result.Result[*memory.Adaptor] {
	if err := ctx.Err(); err != nil {
		return result.Err[*memory.Adaptor](err)
	}
	if a.empty {
		return result.Ok(memory.New(nil))
	}

	key := "templates/" + a.name
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			return result.Ok(memory.New(cached.([]integrations.SerializedIntegration)))
		}
	}

	templates, err := a.fetch(ctx)
	if err != nil {
		return result.Err[*memory.Adaptor](err)
	}
	if a.cache != nil {
		a.cache.SetDefault(key, templates)
	}
	return result.Ok(memory.New(templates))
}

// fetch pages through every template object in scope.
func (a *Adaptor) fetch(ctx context.Context) ([]integrations.SerializedIntegration, error) {
	logger := logging.FromContext(logging.WithAdaptor(ctx, "indexed"))

	opts := objects.FindOptions{
		Type:    constants.TemplateObjectType,
		PerPage: constants.MaxPageSize,
	}
	if a.name != "" {
		opts.Search = a.name
		opts.SearchFields = []string{"name"}
	}

	templates := []integrations.SerializedIntegration{}
	for opts.Page = 1; ; opts.Page++ {
		res, err := a.store.Find(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, obj := range res.Objects {
			var template integrations.SerializedIntegration
			if err := json.Unmarshal(obj.Attributes, &template); err != nil {
				logger.Warn().Err(err).Str("id", obj.ID).Msg("Skipping undecodable integration template")
				continue
			}
			templates = append(templates, template)
		}
		if len(res.Objects) == 0 || opts.Page*res.PerPage >= res.Total {
			break
		}
	}
	return templates, nil
}
