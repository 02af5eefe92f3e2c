// Package integrations defines the integration template and instance data
// model, the shallow validators for both, and the version ordering used to
// resolve the latest template in a catalog.
package integrations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentstation/utc"
)

// Config is a versioned integration template as stored in a catalog.
//
// The serialized form reuses the same type: every Data field is only
// populated by Serialize and is stripped again by the reader.
type Config struct {
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Version     string      `json:"version" yaml:"version" validate:"required"`
	DisplayName string      `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string      `json:"type" yaml:"type" validate:"required"`
	License     string      `json:"license" yaml:"license" validate:"required"`
	Labels      []string    `json:"labels,omitempty" yaml:"labels,omitempty"`
	Author      string      `json:"author,omitempty" yaml:"author,omitempty"`
	SourceURL   string      `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty"`
	Workflows   []Workflow  `json:"workflows,omitempty" yaml:"workflows,omitempty" validate:"dive"`
	Statics     *Statics    `json:"statics,omitempty" yaml:"statics,omitempty"`
	Components  []Component `json:"components" yaml:"components" validate:"required,dive"`
	Assets      *Assets     `json:"assets" yaml:"assets" validate:"required"`
	SampleData  *SampleData `json:"sampleData,omitempty" yaml:"sampleData,omitempty"`
}

// DisplayTitle returns the display name, falling back to the name.
func (c *Config) DisplayTitle() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// Component is one index component. It maps to a
// {name}-{version}.mapping.json file in the schemas partition.
type Component struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Version string `json:"version" yaml:"version" validate:"required"`
	Data    string `json:"data,omitempty" yaml:"data,omitempty"`
}

// Assets declares the bundles an integration installs.
type Assets struct {
	SavedObjects *SavedObjectsAsset `json:"savedObjects,omitempty" yaml:"savedObjects,omitempty"`
	Queries      []QueryAsset       `json:"queries,omitempty" yaml:"queries,omitempty" validate:"dive"`
}

// SavedObjectsAsset names an NDJSON bundle of saved objects.
type SavedObjectsAsset struct {
	Name      string   `json:"name" yaml:"name" validate:"required"`
	Version   string   `json:"version" yaml:"version" validate:"required"`
	Workflows []string `json:"workflows,omitempty" yaml:"workflows,omitempty"`
	Data      string   `json:"data,omitempty" yaml:"data,omitempty"`
}

// QueryAsset names a query file written in Language.
type QueryAsset struct {
	Name      string   `json:"name" yaml:"name" validate:"required"`
	Version   string   `json:"version" yaml:"version" validate:"required"`
	Language  string   `json:"language" yaml:"language" validate:"required"`
	Workflows []string `json:"workflows,omitempty" yaml:"workflows,omitempty"`
	Data      string   `json:"data,omitempty" yaml:"data,omitempty"`
}

// Statics lists the images shown for an integration.
type Statics struct {
	Logo            *StaticAsset  `json:"logo,omitempty" yaml:"logo,omitempty"`
	Gallery         []StaticAsset `json:"gallery,omitempty" yaml:"gallery,omitempty" validate:"dive"`
	DarkModeLogo    *StaticAsset  `json:"darkModeLogo,omitempty" yaml:"darkModeLogo,omitempty"`
	DarkModeGallery []StaticAsset `json:"darkModeGallery,omitempty" yaml:"darkModeGallery,omitempty" validate:"dive"`
}

// All returns pointers to every declared static asset in declaration order:
// logo, gallery, dark mode logo, dark mode gallery.
func (s *Statics) All() []*StaticAsset {
	if s == nil {
		return nil
	}
	var out []*StaticAsset
	if s.Logo != nil {
		out = append(out, s.Logo)
	}
	for i := range s.Gallery {
		out = append(out, &s.Gallery[i])
	}
	if s.DarkModeLogo != nil {
		out = append(out, s.DarkModeLogo)
	}
	for i := range s.DarkModeGallery {
		out = append(out, &s.DarkModeGallery[i])
	}
	return out
}

// StaticAsset references an image in the static partition. Data holds the
// base64 encoded bytes in the serialized form.
type StaticAsset struct {
	Annotation string `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Path       string `json:"path" yaml:"path" validate:"required"`
	Data       string `json:"data,omitempty" yaml:"data,omitempty"`
}

// SampleData references a JSON array of sample documents in the data partition.
type SampleData struct {
	Path string `json:"path" yaml:"path" validate:"required"`
	Data string `json:"data,omitempty" yaml:"data,omitempty"`
}

// Workflow is a named toggle that gates which assets are installed.
type Workflow struct {
	Name                  string   `json:"name" yaml:"name" validate:"required"`
	Label                 string   `json:"label" yaml:"label"`
	Description           string   `json:"description" yaml:"description"`
	EnabledByDefault      bool     `json:"enabled_by_default" yaml:"enabled_by_default"`
	ApplicableDataSources []string `json:"applicable_data_sources,omitempty" yaml:"applicable_data_sources,omitempty"`
}

// AppliesTo reports whether the workflow may run against the given source type.
// An empty applicability list applies everywhere.
func (w Workflow) AppliesTo(sourceType string) bool {
	if len(w.ApplicableDataSources) == 0 || sourceType == "" {
		return true
	}
	for _, s := range w.ApplicableDataSources {
		if strings.EqualFold(s, sourceType) {
			return true
		}
	}
	return false
}

// SerializedIntegration is a self-contained template: every static carries
// its bytes, and assets, components and sample data carry their bodies.
type SerializedIntegration struct {
	Config
}

// Status is the availability of an instance's assets in the object store.
type Status string

// Instance statuses.
const (
	StatusAvailable          Status = "available"
	StatusPartiallyAvailable Status = "partially-available"
	StatusUnavailable        Status = "unavailable"
	StatusUnknown            Status = "unknown"
)

// Instance is one deployment of a template against a data source.
type Instance struct {
	ID           string           `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string           `json:"name" yaml:"name" validate:"required"`
	TemplateName string           `json:"templateName" yaml:"templateName" validate:"required"`
	DataSource   DataSource       `json:"dataSource" yaml:"dataSource"`
	CreationDate utc.Time         `json:"creationDate" yaml:"creationDate"`
	Tags         []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	Assets       []AssetReference `json:"assets" yaml:"assets" validate:"required,dive"`
	Status       Status           `json:"status,omitempty" yaml:"status,omitempty"`
}

// AssetReference points at an object owned by the host object store.
type AssetReference struct {
	AssetType      string `json:"assetType" yaml:"assetType" validate:"required"`
	AssetID        string `json:"assetId" yaml:"assetId" validate:"required"`
	Status         Status `json:"status,omitempty" yaml:"status,omitempty"`
	IsDefaultAsset bool   `json:"isDefaultAsset" yaml:"isDefaultAsset"`
	Description    string `json:"description" yaml:"description"`
}

// DataSource identifies the indices an instance reads from.
//
// The nested object is canonical. A plain string is accepted when decoding:
// "<type>-<dataset>-<namespace>" is split into its parts and anything else
// is kept as an opaque Dataset.
type DataSource struct {
	SourceType string `json:"sourceType,omitempty" yaml:"sourceType,omitempty"`
	Dataset    string `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Namespace  string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// ParseDataSource converts the flat identifier form into a DataSource.
func ParseDataSource(s string) DataSource {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "" {
		return DataSource{SourceType: parts[0], Dataset: parts[1], Namespace: parts[2]}
	}
	return DataSource{Dataset: s}
}

// String renders the flat identifier form.
func (d DataSource) String() string {
	if d.SourceType == "" && d.Namespace == "" {
		return d.Dataset
	}
	return fmt.Sprintf("%s-%s-%s", d.SourceType, d.Dataset, d.Namespace)
}

// IsZero reports whether no part is set.
func (d DataSource) IsZero() bool {
	return d == DataSource{}
}

// IndexPattern returns the index pattern matching this data source.
func (d DataSource) IndexPattern() string {
	if d.SourceType == "" && d.Namespace == "" {
		return d.Dataset
	}
	return d.String() + "*"
}

// UnmarshalJSON accepts either the nested object or the flat string form.
func (d *DataSource) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*d = ParseDataSource(s)
		return nil
	}
	type plain DataSource
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*d = DataSource(p)
	return nil
}
