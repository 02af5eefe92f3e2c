// Package embedded provides the integration catalog compiled into the binary.
//
// The bundled files are copied into an in-memory filesystem and served by
// the files adaptor, so the embedded catalog behaves exactly like a catalog
// directory on disk.
package embedded

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentstation/integrations/pkg/catalogs/files"
	"github.com/agentstation/integrations/pkg/constants"
)

//go:embed catalog
var bundled embed.FS

// Name is the scope name of the embedded catalog root.
const Name = "catalog"

// FS returns the bundled catalog as a read-only filesystem.
func FS() fs.FS {
	sub, err := fs.Sub(bundled, Name)
	if err != nil {
		// fs.Sub only fails on an invalid path, and Name is constant.
		panic(err)
	}
	return sub
}

// New returns a files adaptor over a private copy of the bundled catalog.
func New() (*files.Adaptor, error) {
	mem := memfs.New()
	src := FS()

	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if d.IsDir() {
			return mem.MkdirAll(p, constants.DirPermissions)
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		return util.WriteFile(mem, p, data, constants.FilePermissions)
	})
	if err != nil {
		return nil, fmt.Errorf("loading embedded catalog: %w", err)
	}

	return files.NewFS(mem, Name), nil
}
