// Package daemon re-extracts files as they change on disk.
package daemon

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/heefoo/loomgraph/internal/graph"
	"github.com/heefoo/loomgraph/internal/util"
	"github.com/sirupsen/logrus"
)

// FileIndexer is the part of the indexer the watcher drives.
type FileIndexer interface {
	IndexFile(ctx context.Context, path string) (*graph.FileRecord, error)
	DeleteFile(ctx context.Context, path string) error
	Supported(path string) bool
}

type pendingOp struct {
	queuedAt time.Time
	remove   bool
}

type Watcher struct {
	watcher         *fsnotify.Watcher
	indexer         FileIndexer
	excludePatterns []string
	logger          logrus.FieldLogger
	debounceMs      atomic.Int64
	indexTimeoutMs  atomic.Int64

	mu           sync.Mutex
	roots        []string
	pendingFiles map[string]pendingOp

	stopCh   chan struct{}
	stopOnce sync.Once
}

type WatcherConfig struct {
	Indexer         FileIndexer
	ExcludePatterns []string
	DebounceMs      int
	IndexTimeoutMs  int
	Logger          logrus.FieldLogger
}

func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Indexer == nil {
		return nil, errors.New("watcher needs an indexer")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceMs := cfg.DebounceMs
	if debounceMs <= 0 {
		debounceMs = 100
	}
	indexTimeoutMs := cfg.IndexTimeoutMs
	if indexTimeoutMs <= 0 {
		indexTimeoutMs = 60000
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	w := &Watcher{
		watcher:         fsWatcher,
		indexer:         cfg.Indexer,
		excludePatterns: cfg.ExcludePatterns,
		logger:          logger,
		pendingFiles:    make(map[string]pendingOp),
		stopCh:          make(chan struct{}),
	}
	w.debounceMs.Store(int64(debounceMs))
	w.indexTimeoutMs.Store(int64(indexTimeoutMs))
	return w, nil
}

// Watch blocks until ctx is done or Stop is called.
func (w *Watcher) Watch(ctx context.Context, dirs []string) error {
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			w.logger.WithError(err).WithField("dir", dir).Warn("Failed to resolve watch directory")
			continue
		}
		w.mu.Lock()
		w.roots = append(w.roots, abs)
		w.mu.Unlock()
		if err := w.addDirRecursive(abs); err != nil {
			w.logger.WithError(err).WithField("dir", abs).Warn("Failed to watch directory")
		}
	}

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *Watcher) addDirRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.shouldExclude(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// rootOf returns the watched root containing path, or "" when there is none.
func (w *Watcher) rootOf(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	best := ""
	for _, root := range w.roots {
		if (path == root || strings.HasPrefix(path, root+string(filepath.Separator))) && len(root) > len(best) {
			best = root
		}
	}
	return best
}

func (w *Watcher) shouldExclude(path string) bool {
	root := w.rootOf(path)
	if root == "" {
		root = filepath.Dir(path)
	}
	return util.ShouldExclude(root, path, w.excludePatterns)
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.shouldExclude(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addDirRecursive(event.Name); err != nil {
				w.logger.WithError(err).WithField("dir", event.Name).Warn("Failed to watch new directory")
			}
			return
		}
	}

	if !w.indexer.Supported(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.queueFile(event.Name, false)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.queueFile(event.Name, true)
	}
}

// queueFile records the latest operation for path. A later event replaces an
// earlier one and restarts its debounce interval.
func (w *Watcher) queueFile(path string, remove bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingFiles[path] = pendingOp{queuedAt: time.Now(), remove: remove}
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(w.debounceMs.Load()) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	threshold := time.Duration(w.debounceMs.Load()) * time.Millisecond

	ready := make(map[string]bool)
	for path, op := range w.pendingFiles {
		if now.Sub(op.queuedAt) >= threshold {
			ready[path] = op.remove
			delete(w.pendingFiles, path)
		}
	}
	w.mu.Unlock()

	for path, remove := range ready {
		if ctx.Err() != nil {
			return
		}
		if remove {
			w.handleDelete(ctx, path)
			continue
		}
		if err := w.indexFile(ctx, path); err != nil {
			w.logger.WithError(err).WithField("path", path).Warn("Failed to index file")
		}
	}
}

func (w *Watcher) indexFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	indexCtx, cancel := context.WithTimeout(ctx, time.Duration(w.indexTimeoutMs.Load())*time.Millisecond)
	defer cancel()

	rec, err := w.indexer.IndexFile(indexCtx, path)
	if err != nil {
		return err
	}
	w.logger.WithFields(logrus.Fields{
		"path":          path,
		"entities":      rec.EntityCount,
		"relationships": rec.RelationshipCount,
	}).Info("Indexed")
	return nil
}

func (w *Watcher) handleDelete(ctx context.Context, path string) {
	if path == "" {
		return
	}
	// A rename that replaced the file in place leaves it on disk.
	if _, err := os.Stat(path); err == nil {
		if err := w.indexFile(ctx, path); err != nil {
			w.logger.WithError(err).WithField("path", path).Warn("Failed to index file")
		}
		return
	}

	indexCtx, cancel := context.WithTimeout(ctx, time.Duration(w.indexTimeoutMs.Load())*time.Millisecond)
	defer cancel()
	if err := w.indexer.DeleteFile(indexCtx, path); err != nil {
		w.logger.WithError(err).WithField("path", path).Warn("Failed to delete file")
		return
	}
	w.logger.WithField("path", path).Info("Deleted")
}
