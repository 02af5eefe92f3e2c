package server

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/agentstation/integrations/pkg/errors"
)

// watchDebounce coalesces the burst of events one catalog edit produces.
const watchDebounce = 250 * time.Millisecond

// catalogWatcher calls onChange after files under a filesystem catalog
// change. Directories created while watching are added to the watch.
type catalogWatcher struct {
	root     string
	watcher  *fsnotify.Watcher
	onChange func()
	logger   *zerolog.Logger
}

func newCatalogWatcher(root string, onChange func(), logger *zerolog.Logger) (*catalogWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewIOError("watch", root, err)
	}
	cw := &catalogWatcher{root: root, watcher: w, onChange: onChange, logger: logger}
	if err := cw.addTree(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	return cw, nil
}

func (cw *catalogWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.NewIOError("watch", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := cw.watcher.Add(path); err != nil {
			return errors.NewIOError("watch", path, err)
		}
		return nil
	})
}

// run processes events until ctx is done, then closes the watcher.
func (cw *catalogWatcher) run(ctx context.Context) {
	defer cw.watcher.Close()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				// Errors here only mean the new entry is not a directory
				// or is already gone.
				_ = cw.addTree(event.Name)
			}
			cw.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Catalog file changed")
			timer.Reset(watchDebounce)
		case <-timer.C:
			cw.onChange()
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn().Err(err).Str("root", cw.root).Msg("Catalog watch error")
		}
	}
}
