// Package manager implements the operations behind the integrations HTTP
// routes: template lookups through the repository, and instance lifecycle
// against the host object store.
//
// Every error returned carries a status code through errors.StatusCode:
// 404 for anything missing, 400 for invalid input and 500 otherwise.
package manager

import (
	"context"
	"encoding/json"
	"mime"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/integrations/pkg/builder"
	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/objects"
	"github.com/agentstation/integrations/pkg/reader"
	"github.com/agentstation/integrations/pkg/repository"
)

// Invalidator drops cached catalog state after a write.
type Invalidator interface {
	Invalidate()
}

// Manager serves templates and manages instances.
type Manager struct {
	repo         *repository.Repository
	store        objects.Store
	builder      *builder.Builder
	invalidators []Invalidator
}

// Option configures a Manager.
type Option func(*Manager)

// WithInvalidators registers caches to drop after every write.
func WithInvalidators(invalidators ...Invalidator) Option {
	return func(m *Manager) {
		m.invalidators = append(m.invalidators, invalidators...)
	}
}

// WithBuilder replaces the default builder over the manager's store.
func WithBuilder(b *builder.Builder) Option {
	return func(m *Manager) {
		m.builder = b
	}
}

// New creates a manager reading templates from repo and writing instances
// to store.
func New(repo *repository.Repository, store objects.Store, opts ...Option) *Manager {
	m := &Manager{repo: repo, store: store}
	for _, opt := range opts {
		opt(m)
	}
	if m.builder == nil {
		m.builder = builder.New(store)
	}
	return m
}

// TemplateList is a list of template configs.
type TemplateList struct {
	Hits []integrations.Config `json:"hits" yaml:"hits"`
}

// InstanceList is a list of instances.
type InstanceList struct {
	Hits  []integrations.Instance `json:"hits" yaml:"hits"`
	Total int                     `json:"total" yaml:"total"`
}

// Static is a static asset with its MIME type.
type Static struct {
	Data     []byte
	MimeType string
}

// LoadOptions describe an instance to create.
type LoadOptions = builder.BuildOptions

// GetIntegrationTemplates lists the latest config of every integration, or
// only the named one when name is set.
func (m *Manager) GetIntegrationTemplates(ctx context.Context, name string) (*TemplateList, error) {
	if name != "" {
		cfg, err := m.GetIntegrationTemplate(ctx, name)
		if err != nil {
			return nil, err
		}
		return &TemplateList{Hits: []integrations.Config{*cfg}}, nil
	}

	list := &TemplateList{Hits: []integrations.Config{}}
	for _, rd := range m.repo.GetIntegrationList(ctx) {
		cfg, err := rd.GetConfig(ctx, "").Get()
		if err != nil {
			continue
		}
		list.Hits = append(list.Hits, cfg)
	}
	return list, nil
}

// GetIntegrationTemplate returns the latest config of one integration.
func (m *Manager) GetIntegrationTemplate(ctx context.Context, name string) (*integrations.Config, error) {
	rd, err := m.integration(ctx, name)
	if err != nil {
		return nil, err
	}
	cfg, err := rd.GetConfig(ctx, "").Get()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetStatic returns a static asset of an integration.
func (m *Manager) GetStatic(ctx context.Context, name, staticPath string) (*Static, error) {
	rd, err := m.integration(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := rd.GetStatic(ctx, staticPath).Get()
	if err != nil {
		return nil, err
	}
	return &Static{Data: data, MimeType: mimeType(staticPath)}, nil
}

func mimeType(p string) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// GetSchemas returns the component mappings of the latest version.
func (m *Manager) GetSchemas(ctx context.Context, name string) (*reader.Schemas, error) {
	rd, err := m.integration(ctx, name)
	if err != nil {
		return nil, err
	}
	schemas, err := rd.GetSchemas(ctx, "").Get()
	if err != nil {
		return nil, err
	}
	return &schemas, nil
}

// GetAssets returns the resolved assets of the latest version.
func (m *Manager) GetAssets(ctx context.Context, name string) (*reader.Assets, error) {
	rd, err := m.integration(ctx, name)
	if err != nil {
		return nil, err
	}
	assets, err := rd.GetAssets(ctx, "").Get()
	if err != nil {
		return nil, err
	}
	return &assets, nil
}

// GetSampleData returns the sample documents of the latest version.
func (m *Manager) GetSampleData(ctx context.Context, name string) (*reader.SampleData, error) {
	rd, err := m.integration(ctx, name)
	if err != nil {
		return nil, err
	}
	sample, err := rd.GetSampleData(ctx, "").Get()
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

// Serialize returns the self-contained form of one integration version.
func (m *Manager) Serialize(ctx context.Context, name, version string) (*integrations.SerializedIntegration, error) {
	rd, err := m.integration(ctx, name)
	if err != nil {
		return nil, err
	}
	serialized, err := rd.Serialize(ctx, version).Get()
	if err != nil {
		return nil, err
	}
	return &serialized, nil
}

// DeepCheck validates that an integration is deployable.
func (m *Manager) DeepCheck(ctx context.Context, name string) (*integrations.Config, error) {
	rd, err := m.integration(ctx, name)
	if err != nil {
		return nil, err
	}
	cfg, err := rd.DeepCheck(ctx).Get()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (m *Manager) integration(ctx context.Context, name string) (*reader.Reader, error) {
	rd, ok := m.repo.GetIntegration(ctx, name)
	if !ok {
		return nil, errors.NewNotFoundError("integration", name)
	}
	return rd, nil
}

// UploadTemplate stores a serialized template in the object store, where
// the indexed catalog serves it. Uploading the same name and version again
// replaces the earlier upload.
func (m *Manager) UploadTemplate(ctx context.Context, template integrations.SerializedIntegration) (*objects.Object, error) {
	if _, err := integrations.ValidateTemplate(template).Get(); err != nil {
		return nil, err
	}
	attrs, err := json.Marshal(template)
	if err != nil {
		return nil, errors.NewParseError("json", template.Name, err.Error(), err)
	}

	obj, err := m.store.Create(ctx, objects.Object{
		Type:       constants.TemplateObjectType,
		ID:         template.Name + "-" + template.Version,
		Attributes: attrs,
	}, objects.CreateOptions{Overwrite: true})
	if err != nil {
		return nil, err
	}
	m.invalidate()

	logging.FromContext(ctx).Info().
		Str("integration", template.Name).Str("version", template.Version).
		Msg("Uploaded integration template")
	return obj, nil
}

// LoadIntegrationInstance builds an instance of a template and stores the
// instance record.
func (m *Manager) LoadIntegrationInstance(ctx context.Context, templateName string, opts LoadOptions) (*integrations.Instance, error) {
	rd, err := m.integration(ctx, templateName)
	if err != nil {
		return nil, err
	}

	instance, err := m.builder.Build(ctx, rd, opts)
	// Assets may exist even when the build failed.
	m.invalidate()
	if err != nil {
		return nil, err
	}

	attrs, err := json.Marshal(instance)
	if err != nil {
		return nil, errors.NewParseError("json", instance.Name, err.Error(), err)
	}
	obj, err := m.store.Create(ctx, objects.Object{Type: constants.InstanceObjectType, Attributes: attrs}, objects.CreateOptions{})
	if err != nil {
		if _, cerr := m.deleteAssets(ctx, instance.Assets); cerr != nil {
			logging.FromContext(ctx).Warn().Err(cerr).Str("instance", instance.Name).
				Msg("Failed to remove assets of unsaved instance")
		}
		return nil, errors.WrapResource("save", "instance", instance.Name, err)
	}
	instance.ID = obj.ID
	return instance, nil
}

// GetIntegrationInstances lists every stored instance. Records that no
// longer decode are skipped.
func (m *Manager) GetIntegrationInstances(ctx context.Context) (*InstanceList, error) {
	list := &InstanceList{Hits: []integrations.Instance{}}
	opts := objects.FindOptions{Type: constants.InstanceObjectType, PerPage: constants.MaxPageSize}
	for opts.Page = 1; ; opts.Page++ {
		res, err := m.store.Find(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, obj := range res.Objects {
			instance, err := decodeInstance(obj)
			if err != nil {
				logging.FromContext(ctx).Warn().Err(err).Str("id", obj.ID).Msg("Skipping undecodable instance")
				continue
			}
			list.Hits = append(list.Hits, *instance)
		}
		if len(res.Objects) == 0 || opts.Page*res.PerPage >= res.Total {
			break
		}
	}
	list.Total = len(list.Hits)
	return list, nil
}

// GetIntegrationInstance returns one instance with the current status of
// each asset and of the instance as a whole.
func (m *Manager) GetIntegrationInstance(ctx context.Context, id string) (*integrations.Instance, error) {
	instance, err := m.instance(ctx, id)
	if err != nil {
		return nil, err
	}
	statuses := builder.ProbeAssets(ctx, m.store, instance.Assets)
	for i := range instance.Assets {
		instance.Assets[i].Status = statuses[i]
	}
	instance.Status = builder.AggregateStatus(statuses)
	return instance, nil
}

// DeleteIntegrationInstance deletes every asset of an instance and then
// the instance record. Assets already gone are ignored; any other failure
// stops the delete before the record is removed. It returns the ids
// deleted, the instance id last.
func (m *Manager) DeleteIntegrationInstance(ctx context.Context, id string) ([]string, error) {
	ctx = logging.WithInstance(ctx, id)
	instance, err := m.instance(ctx, id)
	if err != nil {
		return nil, err
	}
	defer m.invalidate()

	deleted, err := m.deleteAssets(ctx, instance.Assets)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("Failed to delete instance assets")
		return nil, errors.WrapResource("delete", "instance", id, err)
	}

	if err := m.store.Delete(ctx, constants.InstanceObjectType, id); err != nil {
		return nil, err
	}
	return append(deleted, id), nil
}

// deleteAssets removes every asset, treating already missing ones as
// deleted, and returns their ids.
func (m *Manager) deleteAssets(ctx context.Context, assets []integrations.AssetReference) ([]string, error) {
	deleted := make([]string, len(assets))
	var g errgroup.Group
	for i, asset := range assets {
		g.Go(func() error {
			err := m.store.Delete(ctx, asset.AssetType, asset.AssetID)
			if err != nil && !errors.IsNotFound(err) {
				return err
			}
			deleted[i] = asset.AssetID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deleted, nil
}

func (m *Manager) instance(ctx context.Context, id string) (*integrations.Instance, error) {
	obj, err := m.store.Get(ctx, constants.InstanceObjectType, id)
	if err != nil {
		return nil, err
	}
	return decodeInstance(*obj)
}

func decodeInstance(obj objects.Object) (*integrations.Instance, error) {
	instance, err := integrations.ValidateInstance(obj.Attributes).Get()
	if err != nil {
		return nil, err
	}
	instance.ID = obj.ID
	return &instance, nil
}

func (m *Manager) invalidate() {
	for _, inv := range m.invalidators {
		inv.Invalidate()
	}
}
