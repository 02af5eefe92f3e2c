// Package builder installs an integration template into the host object
// store and returns the resulting instance record.
//
// A build selects the saved objects and queries enabled by the requested
// workflows, gives every object a fresh id, rewrites references and index
// pattern titles for the target data source, and creates everything in one
// bulk call. Asset status is not computed at build time; GetAssetStatus
// probes the store on demand.
package builder

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/objects"
	"github.com/agentstation/integrations/pkg/reader"
)

// QueryObjectType is the saved object type query assets are stored as.
const QueryObjectType = "query"

// Builder creates instances in an object store.
type Builder struct {
	store objects.Store
	now   func() utc.Time
	newID func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the clock used for creation dates.
func WithClock(now func() utc.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithIDGenerator sets the generator of new object ids.
func WithIDGenerator(newID func() string) Option {
	return func(b *Builder) {
		b.newID = newID
	}
}

// New creates a builder writing to store.
func New(store objects.Store, opts ...Option) *Builder {
	b := &Builder{store: store, now: utc.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildOptions describe the instance to create.
type BuildOptions struct {
	Name       string
	DataSource integrations.DataSource
	// Workflows names the workflows to install. When empty, the workflows
	// enabled by default are installed.
	Workflows []string
	Tags      []string
}

// Build installs the latest version of the integration read by rd. Any
// store failure fails the whole build and no instance is returned.
func (b *Builder) Build(ctx context.Context, rd *reader.Reader, opts BuildOptions) (*integrations.Instance, error) {
	ctx = logging.WithOperation(logging.WithIntegration(ctx, rd.Name()), "build")
	logger := logging.FromContext(ctx)

	if opts.Name == "" {
		return nil, errors.NewValidationError("name", opts.Name, "is required")
	}
	if opts.DataSource.IsZero() {
		return nil, errors.NewValidationError("dataSource", nil, "is required")
	}

	cfg, err := rd.GetConfig(ctx, "").Get()
	if err != nil {
		return nil, err
	}
	if cfg, err = integrations.ValidateTemplate(cfg).Get(); err != nil {
		return nil, err
	}
	assets, err := rd.GetAssets(ctx, cfg.Version).Get()
	if err != nil {
		return nil, err
	}

	gate := newGate(cfg.Workflows, opts)
	var pending []objects.Object
	if bundle := assets.SavedObjects; bundle != nil && gate.allows(bundle.Workflows) {
		parsed, err := savedObjects(bundle.Objects)
		if err != nil {
			return nil, err
		}
		pending = append(pending, parsed...)
	}
	for _, q := range assets.Queries {
		if gate.allows(q.Workflows) {
			pending = append(pending, queryObject(q))
		}
	}

	pending = b.remap(pending, opts.DataSource)
	created, err := b.store.BulkCreate(ctx, pending, objects.CreateOptions{})
	if err != nil {
		logger.Error().Err(err).Int("objects", len(pending)).Msg("Failed to create integration assets")
		return nil, err
	}

	instance := integrations.Instance{
		Name:         opts.Name,
		TemplateName: cfg.Name,
		DataSource:   opts.DataSource,
		CreationDate: b.now(),
		Tags:         opts.Tags,
		Assets:       references(created),
		Status:       integrations.StatusUnknown,
	}
	if instance, err = integrations.ValidateInstance(instance).Get(); err != nil {
		return nil, err
	}

	logger.Info().Str("instance", opts.Name).Int("assets", len(instance.Assets)).Msg("Built integration instance")
	return &instance, nil
}

// gate decides which assets a build installs.
type gate struct {
	active     map[string]bool
	declared   map[string]integrations.Workflow
	sourceType string
}

func newGate(workflows []integrations.Workflow, opts BuildOptions) gate {
	g := gate{
		active:     map[string]bool{},
		declared:   map[string]integrations.Workflow{},
		sourceType: opts.DataSource.SourceType,
	}
	for _, w := range workflows {
		g.declared[w.Name] = w
		if len(opts.Workflows) == 0 && w.EnabledByDefault {
			g.active[w.Name] = true
		}
	}
	for _, name := range opts.Workflows {
		g.active[name] = true
	}
	return g
}

// allows reports whether an asset gated by workflows is installed. An asset
// naming no workflows is always installed; otherwise one of its workflows
// must be active and applicable to the data source.
func (g gate) allows(workflows []string) bool {
	if len(workflows) == 0 {
		return true
	}
	for _, name := range workflows {
		if !g.active[name] {
			continue
		}
		w, ok := g.declared[name]
		if !ok || w.AppliesTo(g.sourceType) {
			return true
		}
	}
	return false
}

// savedObjects converts parsed NDJSON entries into store objects. Entries
// without a type and id, such as export summaries, are skipped.
func savedObjects(entries []any) ([]objects.Object, error) {
	var out []objects.Object
	for i, entry := range entries {
		doc, ok := entry.(map[string]any)
		if !ok {
			return nil, errors.NewValidationError("savedObjects", i, "entry is not a JSON object")
		}
		typ, _ := doc["type"].(string)
		id, _ := doc["id"].(string)
		if typ == "" || id == "" {
			continue
		}

		attrs, err := json.Marshal(doc["attributes"])
		if err != nil {
			return nil, errors.NewParseError("json", id, err.Error(), err)
		}
		obj := objects.Object{Type: typ, ID: id, Attributes: attrs}
		if refs, ok := doc["references"]; ok {
			data, _ := json.Marshal(refs)
			if err := json.Unmarshal(data, &obj.References); err != nil {
				return nil, errors.NewValidationError("references", id, "must be a list of {name, type, id}")
			}
		}
		out = append(out, obj)
	}
	return out, nil
}

func queryObject(q reader.Query) objects.Object {
	attrs, _ := json.Marshal(map[string]any{
		"title": q.Name,
		"query": map[string]string{
			"query":    q.Query,
			"language": q.Language,
		},
	})
	id := q.Name + "-" + q.Version + "-" + q.Language
	return objects.Object{Type: QueryObjectType, ID: id, Attributes: attrs}
}

// remap gives every object a fresh id, points references between the
// objects at the new ids and retitles index patterns to the data source.
// Ids are only unique per type, so objects and references are keyed by both.
func (b *Builder) remap(objs []objects.Object, ds integrations.DataSource) []objects.Object {
	ids := make(map[string]string, len(objs))
	for _, obj := range objs {
		key := obj.Type + "/" + obj.ID
		if _, ok := ids[key]; !ok {
			ids[key] = b.newID()
		}
	}

	out := make([]objects.Object, len(objs))
	for i, obj := range objs {
		obj.ID = ids[obj.Type+"/"+obj.ID]
		obj.References = slices.Clone(obj.References)
		for j, ref := range obj.References {
			if id, ok := ids[ref.Type+"/"+ref.ID]; ok {
				obj.References[j].ID = id
			}
		}
		if obj.Type == constants.IndexPatternObjectType {
			obj.Attributes = retitle(obj.Attributes, ds.IndexPattern())
		}
		out[i] = obj
	}
	return out
}

func retitle(attrs json.RawMessage, title string) json.RawMessage {
	var fields map[string]any
	if err := json.Unmarshal(attrs, &fields); err != nil || fields == nil {
		fields = map[string]any{}
	}
	fields["title"] = title
	data, err := json.Marshal(fields)
	if err != nil {
		return attrs
	}
	return data
}

// references maps created objects to asset references. The first dashboard
// becomes the default asset.
func references(created []objects.Object) []integrations.AssetReference {
	refs := make([]integrations.AssetReference, 0, len(created))
	hasDefault := false
	for _, obj := range created {
		var title string
		obj.Attribute("title", &title)

		isDefault := !hasDefault && obj.Type == constants.DashboardObjectType
		hasDefault = hasDefault || isDefault
		refs = append(refs, integrations.AssetReference{
			AssetType:      obj.Type,
			AssetID:        obj.ID,
			Status:         integrations.StatusAvailable,
			IsDefaultAsset: isDefault,
			Description:    title,
		})
	}
	return refs
}
