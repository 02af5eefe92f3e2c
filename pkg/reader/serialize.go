package reader

import (
	"context"
	"encoding/base64"

	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/result"
)

// embed is one body Serialize has to fill in.
type embed struct {
	dst  *string
	read task[string]
}

// Serialize produces a self-contained copy of a config version: statics
// carry their bytes as base64, and components, assets and sample data
// carry their file bodies. Bodies already inline are kept. Statics are
// read first, and the first failing read fails the call.
func (r *Reader) Serialize(ctx context.Context, version string) result.Result[integrations.SerializedIntegration] {
	return result.Then(r.config(ctx, version), func(cfg integrations.Config) result.Result[integrations.SerializedIntegration] {
		out := clone(cfg)

		var embeds []embed
		for _, static := range out.Statics.All() {
			if static.Data != "" {
				continue
			}
			embeds = append(embeds, embed{&static.Data, func(ctx context.Context) result.Result[string] {
				return result.Map(r.adaptor.ReadFileRaw(ctx, static.Path, catalogs.PartStatic), base64.StdEncoding.EncodeToString)
			}})
		}
		for i := range out.Components {
			c := &out.Components[i]
			if c.Data == "" {
				embeds = append(embeds, embed{&c.Data, r.rawText(mappingFilename(*c), catalogs.PartSchemas)})
			}
		}
		if so := out.Assets.SavedObjects; so != nil && so.Data == "" {
			embeds = append(embeds, embed{&so.Data, r.rawText(savedObjectsFilename(*so), catalogs.PartAssets)})
		}
		for i := range out.Assets.Queries {
			q := &out.Assets.Queries[i]
			if q.Data == "" {
				embeds = append(embeds, embed{&q.Data, r.rawText(queryFilename(*q), catalogs.PartAssets)})
			}
		}
		if sample := out.SampleData; sample != nil && sample.Data == "" {
			embeds = append(embeds, embed{&sample.Data, r.rawText(sample.Path, catalogs.PartData)})
		}

		tasks := make([]task[string], len(embeds))
		for i, e := range embeds {
			tasks[i] = e.read
		}
		bodies, err := gather(ctx, tasks).Get()
		if err != nil {
			logging.FromContext(r.context(ctx)).Debug().Err(err).Str("version", cfg.Version).Msg("Serialize failed")
			return result.Err[integrations.SerializedIntegration](err)
		}
		for i, e := range embeds {
			*e.dst = bodies[i]
		}
		return result.Ok(integrations.SerializedIntegration{Config: out})
	})
}

func (r *Reader) rawText(filename string, part catalogs.PartType) task[string] {
	return func(ctx context.Context) result.Result[string] {
		return result.Map(r.adaptor.ReadFileRaw(ctx, filename, part), func(b []byte) string {
			return string(b)
		})
	}
}
