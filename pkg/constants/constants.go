// Package constants provides shared constants used throughout the integrations
// codebase. This includes object types, file conventions, timeouts and
// permissions that must stay consistent between the catalog, the builder and
// the HTTP layer.
package constants

import "time"

// Object store types
const (
	// TemplateObjectType is the object store type holding serialized integration templates
	TemplateObjectType = "integration-template"

	// InstanceObjectType is the object store type holding integration instances
	InstanceObjectType = "integration-instance"

	// DashboardObjectType is the saved object type preferred as an instance's default asset
	DashboardObjectType = "dashboard"

	// IndexPatternObjectType is the saved object type rewritten to the instance data source
	IndexPatternObjectType = "index-pattern"
)

// Catalog layout conventions
const (
	// ConfigExtension is the extension of integration config files
	ConfigExtension = ".json"

	// SavedObjectsExtension is the extension of saved object bundles
	SavedObjectsExtension = ".ndjson"

	// MappingSuffix is appended to component file names in the schemas partition
	MappingSuffix = ".mapping.json"
)

// Timeout constants define various timeout durations used in the application
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 30 * time.Second

	// SampleDataWindow is the span sample timestamps are spread across, ending now
	SampleDataWindow = 10 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// DefaultPageSize is the default number of items per page for paginated results
	DefaultPageSize = 100

	// MaxPageSize is the maximum allowed page size for paginated results
	MaxPageSize = 10000

	// MaxUploadBytes bounds the size of a template upload request body
	MaxUploadBytes = 32 * 1024 * 1024
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached HTTP responses
	CacheTTL = 5 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 10 * time.Minute
)

// Path constants
const (
	// DefaultConfigName is the config file name searched in $HOME and the working directory
	DefaultConfigName = ".integrations"

	// DefaultStoreDSN is the object store used when none is configured
	DefaultStoreDSN = "sqlite://integrations.db"
)
