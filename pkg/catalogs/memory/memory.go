// Package memory provides a catalog adaptor over serialized integrations
// held in memory.
//
// Serialized integrations carry every referenced file inside the config, so
// this adaptor only serves config reads. Partition reads and raw reads are
// unsupported; readers resolve those bodies from the embedded data instead.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/result"
)

const backend = "memory"

// Adaptor serves a fixed list of serialized integrations.
type Adaptor struct {
	catalog []integrations.SerializedIntegration
}

var _ catalogs.Adaptor = (*Adaptor)(nil)

// New creates an adaptor over catalog. The slice is copied.
func New(catalog []integrations.SerializedIntegration) *Adaptor {
	return &Adaptor{catalog: slices.Clone(catalog)}
}

// Parse creates an adaptor from a JSON array of serialized integrations.
func Parse(data []byte) (*Adaptor, error) {
	var catalog []integrations.SerializedIntegration
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.NewParseError("json", "", errors.MalformedMessage, err)
	}
	return New(catalog), nil
}

// Len returns the number of integrations in scope.
func (a *Adaptor) Len() int {
	return len(a.catalog)
}

// Join returns an adaptor holding only the integrations named name.
func (a *Adaptor) Join(name string) catalogs.Adaptor {
	return a.join(name)
}

func (a *Adaptor) join(name string) *Adaptor {
	filtered := make([]integrations.SerializedIntegration, 0, 1)
	for _, entry := range a.catalog {
		if entry.Name == name {
			filtered = append(filtered, entry)
		}
	}
	return &Adaptor{catalog: filtered}
}

func (a *Adaptor) scope(dirname string) *Adaptor {
	if catalogs.IsSelf(dirname) {
		return a
	}
	return a.join(dirname)
}

// ReadFile returns the serialized config named by a {name}-{version}.json
// filename, decoded into generic JSON values.
func (a *Adaptor) ReadFile(ctx context.Context, filename string, part catalogs.PartType) result.Result[any] {
	if err := ctx.Err(); err != nil {
		return result.Err[any](err)
	}
	if part != catalogs.PartConfig {
		return result.Err[any](errors.NewUnsupportedError(backend, fmt.Sprintf("ReadFile from the %s partition", part)))
	}
	name, version, ok := catalogs.ParseConfigFilename(filename)
	if !ok {
		return result.Err[any](errors.NewValidationError("filename", filename, "is not a {name}-{version}.json config file"))
	}

	for _, entry := range a.catalog {
		if entry.Name != name || entry.Version != version {
			continue
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return result.Err[any](errors.NewParseError("json", filename, err.Error(), err))
		}
		return result.From(catalogs.ParseJSONOrNDJSON(filename, data))
	}
	return result.Err[any](errors.NewNotFoundError("file", filename))
}

// ReadFileRaw is not supported by the memory adaptor.
func (a *Adaptor) ReadFileRaw(ctx context.Context, filename string, part catalogs.PartType) result.Result[[]byte] {
	return result.Err[[]byte](errors.NewUnsupportedError(backend, "ReadFileRaw"))
}

// FindIntegrations lists the distinct integration names in scope.
func (a *Adaptor) FindIntegrations(ctx context.Context, dirname string) result.Result[[]string] {
	if err := ctx.Err(); err != nil {
		return result.Err[[]string](err)
	}
	return result.Ok(a.scope(dirname).names())
}

// FindIntegrationVersions lists the distinct versions in scope, newest first.
func (a *Adaptor) FindIntegrationVersions(ctx context.Context, dirname string) result.Result[[]string] {
	if err := ctx.Err(); err != nil {
		return result.Err[[]string](err)
	}
	versions := []string{}
	for _, entry := range a.scope(dirname).catalog {
		if !slices.Contains(versions, entry.Version) {
			versions = append(versions, entry.Version)
		}
	}
	integrations.SortVersionsDescending(versions)
	return result.Ok(versions)
}

// GetDirectoryType classifies the scope by the number of distinct names.
func (a *Adaptor) GetDirectoryType(ctx context.Context, dirname string) catalogs.DirectoryType {
	if ctx.Err() != nil {
		return catalogs.DirectoryUnknown
	}
	switch n := len(a.scope(dirname).names()); {
	case n == 1:
		return catalogs.DirectoryIntegration
	case n > 1:
		return catalogs.DirectoryRepository
	}
	return catalogs.DirectoryUnknown
}

func (a *Adaptor) names() []string {
	names := []string{}
	for _, entry := range a.catalog {
		if !slices.Contains(names, entry.Name) {
			names = append(names, entry.Name)
		}
	}
	slices.Sort(names)
	return names
}
