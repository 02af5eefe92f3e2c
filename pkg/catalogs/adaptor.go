// Package catalogs defines the Adaptor contract shared by every integration
// catalog backend, plus the file naming and parsing conventions they share.
//
// An Adaptor is an immutable view over one scope of a catalog: the catalog
// root or a single integration. Join narrows the scope and returns a new
// value; no method mutates the receiver. Every read returns a
// result.Result instead of panicking: missing files are not-found errors,
// unparseable content is a malformed error, and operations a backend cannot
// perform are unsupported errors.
//
// Example:
//
//	root := files.New("/etc/integrations")
//	if root.GetDirectoryType(ctx, "nginx") == catalogs.DirectoryIntegration {
//		versions := root.Join("nginx").FindIntegrationVersions(ctx, "")
//	}
package catalogs

import (
	"context"

	"github.com/agentstation/integrations/pkg/result"
)

// PartType is the partition of an integration a file is read from.
type PartType string

// Partitions of an integration directory.
const (
	PartConfig  PartType = ""
	PartAssets  PartType = "assets"
	PartData    PartType = "data"
	PartSchemas PartType = "schemas"
	PartStatic  PartType = "static"
)

// Valid reports whether p is a known partition.
func (p PartType) Valid() bool {
	switch p {
	case PartConfig, PartAssets, PartData, PartSchemas, PartStatic:
		return true
	}
	return false
}

// DirectoryType classifies a catalog scope.
type DirectoryType string

// Directory types.
const (
	DirectoryIntegration DirectoryType = "integration"
	DirectoryRepository  DirectoryType = "repository"
	DirectoryUnknown     DirectoryType = "unknown"
)

// Adaptor reads integration files from one storage backend.
//
// A dirname argument of "" or "." refers to the adaptor's own scope.
type Adaptor interface {
	// ReadFile reads a file and parses it as JSON, falling back to NDJSON.
	// NDJSON content yields []any.
	ReadFile(ctx context.Context, filename string, part PartType) result.Result[any]

	// ReadFileRaw reads a file without interpreting it.
	ReadFileRaw(ctx context.Context, filename string, part PartType) result.Result[[]byte]

	// FindIntegrations lists the integration names visible under dirname.
	FindIntegrations(ctx context.Context, dirname string) result.Result[[]string]

	// FindIntegrationVersions lists the versions of the integration at
	// dirname, newest first.
	FindIntegrationVersions(ctx context.Context, dirname string) result.Result[[]string]

	// GetDirectoryType classifies dirname. Unreadable scopes are unknown.
	GetDirectoryType(ctx context.Context, dirname string) DirectoryType

	// Join returns a new adaptor scoped to the named child.
	Join(name string) Adaptor
}

// IsSelf reports whether dirname refers to the adaptor's own scope.
func IsSelf(dirname string) bool {
	return dirname == "" || dirname == "."
}
