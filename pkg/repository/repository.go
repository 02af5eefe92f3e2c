// Package repository aggregates catalog adaptors into one logical catalog.
//
// Adaptors are consulted in the order given to New and the first adaptor
// holding a valid integration wins. List overrides, such as an indexed
// catalog of uploaded templates, before the bundled defaults.
package repository

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/reader"
)

// Repository is an ordered list of catalog adaptors.
type Repository struct {
	adaptors []catalogs.Adaptor
	opts     []reader.Option
}

// Option configures a Repository.
type Option func(*Repository)

// WithReaderOptions passes opts to every reader the repository creates.
func WithReaderOptions(opts ...reader.Option) Option {
	return func(r *Repository) {
		r.opts = append(r.opts, opts...)
	}
}

// New creates a repository over adaptors, in precedence order.
func New(adaptors []catalogs.Adaptor, opts ...Option) *Repository {
	r := &Repository{adaptors: slices.Clone(adaptors)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Adaptors returns the adaptors in precedence order.
func (r *Repository) Adaptors() []catalogs.Adaptor {
	return slices.Clone(r.adaptors)
}

// GetIntegrationList returns a reader for every integration whose config
// validates, grouped by adaptor in precedence order and sorted by name
// within each adaptor. An adaptor that cannot be listed contributes
// nothing. A name served by several adaptors appears once per adaptor.
func (r *Repository) GetIntegrationList(ctx context.Context) []*reader.Reader {
	ctx = logging.WithOperation(ctx, "list_integrations")
	perAdaptor := make([][]*reader.Reader, len(r.adaptors))

	var g errgroup.Group
	for i, adaptor := range r.adaptors {
		g.Go(func() error {
			perAdaptor[i] = r.readers(ctx, adaptor)
			return nil
		})
	}
	_ = g.Wait()

	return slices.Concat(perAdaptor...)
}

func (r *Repository) readers(ctx context.Context, adaptor catalogs.Adaptor) []*reader.Reader {
	logger := logging.FromContext(ctx)

	names, err := adaptor.FindIntegrations(ctx, "").Get()
	if err != nil {
		logger.Warn().Err(err).Msg("Skipping catalog that could not be listed")
		return nil
	}

	candidates := make([]*reader.Reader, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			rd := reader.New(name, adaptor.Join(name), r.opts...)
			if err := rd.GetConfig(ctx, "").Error(); err != nil {
				logger.Debug().Err(err).Str("integration", name).Msg("Skipping invalid integration")
				return nil
			}
			candidates[i] = rd
			return nil
		})
	}
	_ = g.Wait()

	return slices.DeleteFunc(candidates, func(rd *reader.Reader) bool { return rd == nil })
}

// GetIntegration returns a reader for the first adaptor that holds a valid
// integration called name. It reports false when none does.
func (r *Repository) GetIntegration(ctx context.Context, name string) (*reader.Reader, bool) {
	ctx = logging.WithIntegration(ctx, name)
	for _, adaptor := range r.adaptors {
		if adaptor.GetDirectoryType(ctx, name) != catalogs.DirectoryIntegration {
			continue
		}
		rd := reader.New(name, adaptor.Join(name), r.opts...)
		if err := rd.GetConfig(ctx, "").Error(); err != nil {
			logging.FromContext(ctx).Debug().Err(err).Msg("Integration config is invalid, trying next catalog")
			continue
		}
		return rd, true
	}
	return nil, false
}
