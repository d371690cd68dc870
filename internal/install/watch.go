package install

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"mcpadre.dev/mcpadre/internal/dirs"
	"mcpadre.dev/mcpadre/internal/workspace"
)

// watchDebounce coalesces the burst of events a single save produces (most
// editors write-then-rename) into one reload.
const watchDebounce = 200 * time.Millisecond

// Reload reports one pass through Watch's reload loop: either a config
// reload error or the InstallAll results for a successful one.
type Reload struct {
	Err     error
	Results []Result
}

// Watch reloads and reinstalls the workspace located by loadOpts every time its
// config file changes on disk, until ctx is canceled. Each reload is
// delivered on the returned channel, which is closed when Watch returns.
// It watches the config file's parent directory rather than the file
// itself: an editor that saves via rename-over-original produces a new
// inode fsnotify would otherwise lose track of.
func Watch(ctx context.Context, loadOpts workspace.LoadOptions, installOpts Options) (<-chan Reload, error) {
	wsctx, err := workspace.Load(loadOpts)
	if err != nil {
		return nil, fmt.Errorf("install: initial load: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("install: create watcher: %w", err)
	}
	if err := watcher.Add(wsctx.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("install: watch %s: %w", wsctx.Dir, err)
	}

	out := make(chan Reload)
	go runWatch(ctx, watcher, loadOpts, installOpts, out)
	return out, nil
}

func runWatch(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	loadOpts workspace.LoadOptions,
	installOpts Options,
	out chan<- Reload,
) {
	defer close(out)
	defer watcher.Close()

	var debounce *time.Timer
	trigger := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isConfigEvent(ev) {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(watchDebounce, func() {
					select {
					case trigger <- struct{}{}:
					default:
					}
				})
			} else {
				debounce.Reset(watchDebounce)
			}

		case <-watcher.Errors:
			// surfaced to the caller via the next reload's Err would require
			// correlating with no pending reload; dropped events of this
			// kind are rare enough (watch descriptor torn down externally)
			// that the loop just keeps running and a subsequent fs event,
			// if any, re-establishes state on reload.

		case <-trigger:
			wsctx, err := workspace.Load(loadOpts)
			if err != nil {
				select {
				case out <- Reload{Err: err}:
				case <-ctx.Done():
					return
				}
				continue
			}
			results := InstallAll(ctx, wsctx, installOpts)
			select {
			case out <- Reload{Results: results}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// isConfigEvent reports whether ev touches one of the recognized
// mcpadre.{yaml,yml,json,toml} config filenames.
func isConfigEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	for _, ext := range dirs.ConfigExtensions {
		if base == dirs.ConfigBaseName+"."+ext {
			return true
		}
	}
	return false
}
