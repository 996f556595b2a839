package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// DebounceDelay is how long a path must be quiet before it is read.
// Editors and copy tools write a file in several chunks.
const DebounceDelay = 250 * time.Millisecond

// Watch emits files as they are created or rewritten until ctx is
// cancelled or the connector is closed. New subdirectories are watched too.
//
//nolint:gocognit // Event loop with debounce
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocument, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}
	if err := c.checkRoot(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.config.Root); err != nil {
		watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.closers = append(c.closers, cancel)
	c.mu.Unlock()

	out := make(chan domain.RawDocument)
	ready := make(chan string)

	go func() {
		defer close(out)
		defer watcher.Close()
		defer cancel()

		var (
			timersMu sync.Mutex
			timers   = make(map[string]*time.Timer)
		)
		defer func() {
			timersMu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			timersMu.Unlock()
		}()

		schedule := func(path string) {
			timersMu.Lock()
			defer timersMu.Unlock()
			if t, ok := timers[path]; ok {
				t.Reset(DebounceDelay)
				return
			}
			timers[path] = time.AfterFunc(DebounceDelay, func() {
				timersMu.Lock()
				delete(timers, path)
				timersMu.Unlock()
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if c.config.IncludeHidden || !isHidden(info.Name()) {
							if err := c.addTree(watcher, event.Name); err != nil {
								logger.Warn("filesystem: watch %s: %v", event.Name, err)
							}
						}
						continue
					}
				}
				if c.relevant(event) {
					schedule(event.Name)
				}

			case path := <-ready:
				doc, ok := c.handleFsEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
				if !ok {
					continue
				}
				select {
				case out <- doc:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem: watcher: %v", err)
			}
		}
	}()

	return out, nil
}

// addTree watches dir and every non-hidden subdirectory.
func (c *Connector) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("root path error: %w", err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.config.Root && !c.config.IncludeHidden && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// relevant reports whether an event can produce a document.
func (c *Connector) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	rel, err := filepath.Rel(c.config.Root, event.Name)
	if err != nil {
		return false
	}
	if !c.config.IncludeHidden && isHidden(rel) {
		return false
	}
	return c.config.wants(event.Name)
}

// handleFsEvent reads the file behind a create or write event.
// Removals, renames, directories and filtered files yield nothing.
func (c *Connector) handleFsEvent(event fsnotify.Event) (domain.RawDocument, bool) {
	if !c.relevant(event) {
		return domain.RawDocument{}, false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() || info.Size() > c.config.MaxFileSize {
		return domain.RawDocument{}, false
	}
	doc, err := c.readDocument(event.Name, info)
	if err != nil {
		logger.Warn("filesystem: read %s: %v", event.Name, err)
		return domain.RawDocument{}, false
	}
	return doc, true
}
