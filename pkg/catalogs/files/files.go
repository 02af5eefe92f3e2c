// Package files provides a catalog adaptor backed by a directory tree.
//
// The layout is one directory per integration holding its versioned config
// files, with sibling assets/, data/, schemas/ and static/ partitions:
//
//	nginx/
//	  nginx-1.0.0.json
//	  assets/nginx-1.0.0.ndjson
//	  schemas/communication-1.0.0.mapping.json
//	  static/logo.svg
package files

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/result"
)

// Option is a function that configures a files Adaptor
type Option func(*config) error

// WithFilesystem serves the catalog from fs instead of the host filesystem.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(cfg *config) error {
		if fs == nil {
			return fmt.Errorf("filesystem cannot be nil")
		}
		cfg.fs = fs
		return nil
	}
}

// config is the configuration for a files Adaptor
type config struct {
	fs billy.Filesystem
}

// Adaptor reads integrations from a billy filesystem. The zero value is not
// usable; construct with New or NewFS.
type Adaptor struct {
	fs   billy.Filesystem
	name string // base name of the scope directory
	err  error  // set when the scope could not be joined
}

var _ catalogs.Adaptor = (*Adaptor)(nil)

// New creates a files adaptor rooted at path.
func New(path string, opts ...Option) (*Adaptor, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required for files adaptor")
	}

	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying files option: %w", err)
		}
	}
	if cfg.fs == nil {
		cfg.fs = osfs.New(path, osfs.WithBoundOS())
	}

	return &Adaptor{fs: cfg.fs, name: filepath.Base(filepath.Clean(path))}, nil
}

// NewFS creates a files adaptor over fs. name is the base name of the scope,
// used to filter config files when the scope is a single integration.
func NewFS(fs billy.Filesystem, name string) *Adaptor {
	return &Adaptor{fs: fs, name: name}
}

// Name returns the base name of the adaptor's scope.
func (a *Adaptor) Name() string {
	return a.name
}

// Join returns an adaptor scoped to the child directory name. Unsafe names
// produce an adaptor whose reads all fail with a validation error.
func (a *Adaptor) Join(name string) catalogs.Adaptor {
	return a.join(name)
}

func (a *Adaptor) join(name string) *Adaptor {
	if a.err != nil {
		return a
	}
	if err := checkSegment(name); err != nil {
		return &Adaptor{name: name, err: err}
	}
	sub, err := a.fs.Chroot(name)
	if err != nil {
		return &Adaptor{name: name, err: errors.WrapIO("chroot", name, err)}
	}
	return &Adaptor{fs: sub, name: name}
}

func (a *Adaptor) scope(dirname string) *Adaptor {
	if catalogs.IsSelf(dirname) {
		return a
	}
	return a.join(dirname)
}

// ReadFile reads filename from part and parses it as JSON or NDJSON.
func (a *Adaptor) ReadFile(ctx context.Context, filename string, part catalogs.PartType) result.Result[any] {
	raw := a.ReadFileRaw(ctx, filename, part)
	if !raw.IsOk() {
		return result.Forward[any](raw)
	}
	return result.From(catalogs.ParseJSONOrNDJSON(filename, raw.Value()))
}

// ReadFileRaw reads the bytes of filename from part.
func (a *Adaptor) ReadFileRaw(ctx context.Context, filename string, part catalogs.PartType) result.Result[[]byte] {
	if a.err != nil {
		return result.Err[[]byte](a.err)
	}
	if err := ctx.Err(); err != nil {
		return result.Err[[]byte](err)
	}
	if !part.Valid() {
		return result.Err[[]byte](errors.NewValidationError("part", part, "unknown partition"))
	}
	if err := checkFilename(filename); err != nil {
		return result.Err[[]byte](err)
	}

	p := path.Join(string(part), filename)
	data, err := util.ReadFile(a.fs, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result.Err[[]byte](errors.NewNotFoundError("file", path.Join(a.name, p)))
		}
		return result.Err[[]byte](errors.WrapIO("read", path.Join(a.name, p), err))
	}
	return result.Ok(data)
}

// FindIntegrations lists child directories that hold an integration.
func (a *Adaptor) FindIntegrations(ctx context.Context, dirname string) result.Result[[]string] {
	s := a.scope(dirname)
	entries, err := s.readDir(ctx)
	if err != nil {
		return result.Err[[]string](err)
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if s.join(e.Name()).GetDirectoryType(ctx, "") == catalogs.DirectoryIntegration {
			names = append(names, e.Name())
			continue
		}
		logging.FromContext(ctx).Debug().
			Str("directory", e.Name()).
			Msg("Skipping directory without integration configs")
	}
	slices.Sort(names)
	return result.Ok(names)
}

// FindIntegrationVersions lists the versions of the scope's config files,
// newest first.
func (a *Adaptor) FindIntegrationVersions(ctx context.Context, dirname string) result.Result[[]string] {
	s := a.scope(dirname)
	entries, err := s.readDir(ctx)
	if err != nil {
		return result.Err[[]string](err)
	}

	versions := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, version, ok := catalogs.ParseConfigFilename(e.Name())
		if !ok || name != s.name {
			continue
		}
		versions = append(versions, version)
	}
	integrations.SortVersionsDescending(versions)
	return result.Ok(versions)
}

// GetDirectoryType reports integration when the scope holds config files of
// exactly one integration, and repository when it holds configs of several
// integrations or at least one child integration directory.
func (a *Adaptor) GetDirectoryType(ctx context.Context, dirname string) catalogs.DirectoryType {
	s := a.scope(dirname)
	entries, err := s.readDir(ctx)
	if err != nil {
		return catalogs.DirectoryUnknown
	}

	names := map[string]struct{}{}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
			continue
		}
		if name, _, ok := catalogs.ParseConfigFilename(e.Name()); ok {
			names[name] = struct{}{}
		}
	}

	switch {
	case len(names) == 1:
		return catalogs.DirectoryIntegration
	case len(names) > 1:
		return catalogs.DirectoryRepository
	}
	for _, d := range dirs {
		if s.join(d).GetDirectoryType(ctx, "") == catalogs.DirectoryIntegration {
			return catalogs.DirectoryRepository
		}
	}
	return catalogs.DirectoryUnknown
}

func (a *Adaptor) readDir(ctx context.Context) ([]os.FileInfo, error) {
	if a.err != nil {
		return nil, a.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := a.fs.ReadDir(".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.NewNotFoundError("directory", a.name)
		}
		return nil, errors.WrapIO("readdir", a.name, err)
	}
	return entries, nil
}

// checkFilename rejects names that could escape the scope. Nested relative
// paths such as gallery/1.png are allowed.
func checkFilename(name string) error {
	switch {
	case name == "":
		return errors.NewValidationError("filename", name, "is required")
	case strings.ContainsRune(name, 0):
		return errors.NewValidationError("filename", name, "contains a NUL byte")
	case strings.Contains(name, `\`):
		return errors.NewValidationError("filename", name, "contains a backslash")
	case path.IsAbs(name) || filepath.IsAbs(name):
		return errors.NewValidationError("filename", name, "must be relative")
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return errors.NewValidationError("filename", name, "must not traverse directories")
		}
	}
	return nil
}

// checkSegment additionally requires a single path element.
func checkSegment(name string) error {
	if err := checkFilename(name); err != nil {
		return err
	}
	if strings.Contains(name, "/") || name == "." {
		return errors.NewValidationError("name", name, "must be a single path element")
	}
	return nil
}
