package reader

import (
	"context"
	"fmt"

	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/result"
)

// Assets are the resolved asset bundles of one config version.
type Assets struct {
	SavedObjects *SavedObjectBundle `json:"savedObjects,omitempty" yaml:"savedObjects,omitempty"`
	Queries      []Query            `json:"queries,omitempty" yaml:"queries,omitempty"`
}

// Empty reports whether nothing would be installed.
func (a Assets) Empty() bool {
	return (a.SavedObjects == nil || len(a.SavedObjects.Objects) == 0) && len(a.Queries) == 0
}

// SavedObjectBundle is a parsed NDJSON bundle of saved objects.
type SavedObjectBundle struct {
	Name      string   `json:"name" yaml:"name"`
	Version   string   `json:"version" yaml:"version"`
	Workflows []string `json:"workflows,omitempty" yaml:"workflows,omitempty"`
	Objects   []any    `json:"objects" yaml:"objects"`
}

// Query is a query asset with its text.
type Query struct {
	Name      string   `json:"name" yaml:"name"`
	Version   string   `json:"version" yaml:"version"`
	Language  string   `json:"language" yaml:"language"`
	Workflows []string `json:"workflows,omitempty" yaml:"workflows,omitempty"`
	Query     string   `json:"query" yaml:"query"`
}

// Schemas maps component names to their index mappings.
type Schemas struct {
	Mappings map[string]any `json:"mappings" yaml:"mappings"`
}

// SampleData holds sample documents with fresh timestamps. SampleData is
// nil when the config declares none.
type SampleData struct {
	SampleData []any `json:"sampleData" yaml:"sampleData"`
}

// GetAssets resolves the saved object bundle and every query of a config
// version. The first failing read, in declaration order, fails the call.
func (r *Reader) GetAssets(ctx context.Context, version string) result.Result[Assets] {
	return result.Then(r.config(ctx, version), func(cfg integrations.Config) result.Result[Assets] {
		if cfg.Assets == nil {
			return result.Ok(Assets{})
		}

		var tasks []task[any]
		if so := cfg.Assets.SavedObjects; so != nil {
			tasks = append(tasks, func(ctx context.Context) result.Result[any] {
				return result.Map(r.savedObjects(ctx, *so), func(objs []any) any { return objs })
			})
		}
		for _, q := range cfg.Assets.Queries {
			tasks = append(tasks, func(ctx context.Context) result.Result[any] {
				return result.Map(r.queryText(ctx, q), func(text string) any { return text })
			})
		}

		return result.Map(gather(ctx, tasks), func(values []any) Assets {
			var assets Assets
			if so := cfg.Assets.SavedObjects; so != nil {
				assets.SavedObjects = &SavedObjectBundle{
					Name:      so.Name,
					Version:   so.Version,
					Workflows: so.Workflows,
					Objects:   values[0].([]any),
				}
				values = values[1:]
			}
			for i, q := range cfg.Assets.Queries {
				assets.Queries = append(assets.Queries, Query{
					Name:      q.Name,
					Version:   q.Version,
					Language:  q.Language,
					Workflows: q.Workflows,
					Query:     values[i].(string),
				})
			}
			return assets
		})
	})
}

func (r *Reader) savedObjects(ctx context.Context, so integrations.SavedObjectsAsset) result.Result[[]any] {
	filename := savedObjectsFilename(so)
	if so.Data != "" {
		return result.From(catalogs.ParseNDJSONText(filename, so.Data))
	}
	return result.Map(r.adaptor.ReadFile(ctx, filename, catalogs.PartAssets), asList)
}

func (r *Reader) queryText(ctx context.Context, q integrations.QueryAsset) result.Result[string] {
	if q.Data != "" {
		return result.Ok(q.Data)
	}
	return result.Map(r.adaptor.ReadFileRaw(ctx, queryFilename(q), catalogs.PartAssets), func(b []byte) string {
		return string(b)
	})
}

// GetSchemas reads the mapping of every component, keyed by component name.
// The first failing read, in component order, fails the call.
func (r *Reader) GetSchemas(ctx context.Context, version string) result.Result[Schemas] {
	return result.Then(r.config(ctx, version), func(cfg integrations.Config) result.Result[Schemas] {
		tasks := make([]task[any], len(cfg.Components))
		for i, c := range cfg.Components {
			tasks[i] = func(ctx context.Context) result.Result[any] {
				return r.mapping(ctx, c)
			}
		}

		return result.Map(gather(ctx, tasks), func(values []any) Schemas {
			mappings := make(map[string]any, len(values))
			for i, c := range cfg.Components {
				mappings[c.Name] = values[i]
			}
			return Schemas{Mappings: mappings}
		})
	})
}

func (r *Reader) mapping(ctx context.Context, c integrations.Component) result.Result[any] {
	filename := mappingFilename(c)
	if c.Data != "" {
		return result.From(catalogs.ParseJSONOrNDJSON(filename, []byte(c.Data)))
	}
	return r.adaptor.ReadFile(ctx, filename, catalogs.PartSchemas)
}

// GetSampleData reads the declared sample documents and moves every
// @timestamp and observedTimestamp to a random point in the last few
// minutes. Each field draws its own offset.
func (r *Reader) GetSampleData(ctx context.Context, version string) result.Result[SampleData] {
	return result.Then(r.config(ctx, version), func(cfg integrations.Config) result.Result[SampleData] {
		if cfg.SampleData == nil {
			return result.Ok(SampleData{})
		}
		return result.Map(r.sampleRecords(ctx, *cfg.SampleData), func(records []any) SampleData {
			for _, record := range records {
				doc, ok := record.(map[string]any)
				if !ok {
					continue
				}
				for _, field := range []string{"@timestamp", "observedTimestamp"} {
					if _, ok := doc[field]; ok {
						doc[field] = r.sampleTimestamp()
					}
				}
			}
			return SampleData{SampleData: records}
		})
	})
}

func (r *Reader) sampleRecords(ctx context.Context, sample integrations.SampleData) result.Result[[]any] {
	if sample.Data != "" {
		return result.Map(result.From(catalogs.ParseJSONOrNDJSON(sample.Path, []byte(sample.Data))), asList)
	}
	return result.Map(r.adaptor.ReadFile(ctx, sample.Path, catalogs.PartData), asList)
}

// asList treats a single JSON document as a one-element list.
func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

func savedObjectsFilename(so integrations.SavedObjectsAsset) string {
	return fmt.Sprintf("%s-%s%s", so.Name, so.Version, constants.SavedObjectsExtension)
}

func queryFilename(q integrations.QueryAsset) string {
	return fmt.Sprintf("%s-%s.%s", q.Name, q.Version, q.Language)
}

func mappingFilename(c integrations.Component) string {
	return fmt.Sprintf("%s-%s%s", c.Name, c.Version, constants.MappingSuffix)
}
