// Package indexer keeps a Store in sync with the supported source files of a
// directory tree.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heefoo/loomgraph/internal/config"
	"github.com/heefoo/loomgraph/internal/graph"
	"github.com/heefoo/loomgraph/internal/parser"
	"github.com/heefoo/loomgraph/internal/util"
	"github.com/sirupsen/logrus"
)

const (
	StateIdle     = "idle"
	StateIndexing = "indexing"
	StateError    = "error"
)

// Status represents the current indexing status
type Status struct {
	State              string    `json:"state"`
	Directory          string    `json:"directory,omitempty"`
	RunID              string    `json:"run_id,omitempty"`
	FilesTotal         int64     `json:"files_total"`   // supported files found
	FilesIndexed       int64     `json:"files_indexed"` // files extracted and saved
	FilesSkipped       int64     `json:"files_skipped"` // unchanged since the last run
	FilesDeleted       int64     `json:"files_deleted"`
	FilesFailed        int64     `json:"files_failed"`
	EntitiesTotal      int64     `json:"entities_total"`
	RelationshipsTotal int64     `json:"relationships_total"`
	Incremental        bool      `json:"incremental"`
	Errors             []string  `json:"errors,omitempty"`
	StartedAt          time.Time `json:"started_at,omitempty"`
	CompletedAt        time.Time `json:"completed_at,omitempty"`
	LastError          string    `json:"last_error,omitempty"`
}

// Config holds indexer configuration
type Config struct {
	Registry        *parser.Registry
	Store           graph.Store
	ExcludePatterns []string // nil means the default patterns
	Workers         int
	Logger          logrus.FieldLogger
}

// Indexer handles directory and single-file indexing. Runs are serialized.
type Indexer struct {
	registry        *parser.Registry
	store           graph.Store
	excludePatterns []string
	workers         int
	logger          logrus.FieldLogger

	run sync.Mutex

	mu     sync.RWMutex
	status Status
}

func New(cfg Config) *Indexer {
	if cfg.ExcludePatterns == nil {
		cfg.ExcludePatterns = config.DefaultConfig().Index.ExcludePatterns
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Indexer{
		registry:        cfg.Registry,
		store:           cfg.Store,
		excludePatterns: cfg.ExcludePatterns,
		workers:         cfg.Workers,
		logger:          cfg.Logger,
		status:          Status{State: StateIdle},
	}
}

// GetStatus returns a snapshot of the current status.
func (idx *Indexer) GetStatus() Status {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	s := idx.status
	s.Errors = append([]string(nil), idx.status.Errors...)
	return s
}

// Excluded reports whether path below root is filtered out by the exclude
// patterns.
func (idx *Indexer) Excluded(root, path string) bool {
	return util.ShouldExclude(root, path, idx.excludePatterns)
}

// Supported reports whether some registered extractor accepts path.
func (idx *Indexer) Supported(path string) bool {
	return idx.registry.CanParse(path)
}

// computeFileHash returns the hex sha256 of the file, checking ctx between
// chunks.
func computeFileHash(ctx context.Context, filePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := f.Read(buf)
		h.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type scannedFile struct {
	path    string
	modTime int64
	size    int64
	hash    string // set when already computed during change detection
}

// IndexDirectory indexes every supported file under dir. Files whose
// modification time and size match the stored metadata are skipped; when
// only the time changed the content hash decides.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, progress func(Status)) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return fmt.Errorf("index %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("index %s: not a directory", dir)
	}

	idx.run.Lock()
	defer idx.run.Unlock()

	runID := uuid.NewString()
	log := idx.logger.WithFields(logrus.Fields{"directory": absDir, "run_id": runID})

	idx.mu.Lock()
	idx.status = Status{
		State:       StateIndexing,
		Directory:   absDir,
		RunID:       runID,
		StartedAt:   time.Now(),
		Errors:      []string{},
		Incremental: true,
	}
	idx.mu.Unlock()
	idx.report(progress)

	existingMeta, err := idx.store.ListFiles(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not load file metadata, indexing everything")
		existingMeta = nil
	}
	existing := make(map[string]graph.FileMetadata)
	for _, m := range existingMeta {
		if withinDir(absDir, m.Path) {
			existing[m.Path] = m
		}
	}
	if len(existing) == 0 {
		idx.mu.Lock()
		idx.status.Incremental = false
		idx.mu.Unlock()
	}

	var changed []scannedFile
	var unchanged int64
	current := make(map[string]bool)

	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithError(err).WithField("path", path).Debug("Skipping unreadable path")
			if d != nil && d.IsDir() && path != absDir {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != absDir && idx.Excluded(absDir, path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !idx.registry.CanParse(path) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}

		current[path] = true
		file := scannedFile{path: path, modTime: fi.ModTime().UnixNano(), size: fi.Size()}

		prev, ok := existing[path]
		if !ok {
			changed = append(changed, file)
			return nil
		}
		if prev.ModTime == file.modTime && prev.Size == file.size {
			unchanged++
			return nil
		}
		hash, err := computeFileHash(ctx, path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("Could not hash file")
			changed = append(changed, file)
			return nil
		}
		file.hash = hash
		if hash == prev.ContentHash {
			// Touched but identical.
			unchanged++
			return nil
		}
		changed = append(changed, file)
		return nil
	})
	if err != nil {
		idx.setError(fmt.Sprintf("directory walk error: %v", err))
		return fmt.Errorf("walk %s: %w", absDir, err)
	}

	var deleted []string
	for path := range existing {
		if !current[path] {
			deleted = append(deleted, path)
		}
	}

	idx.mu.Lock()
	idx.status.FilesTotal = int64(len(current))
	idx.status.FilesSkipped = unchanged
	idx.mu.Unlock()
	idx.report(progress)

	var deletedCount int64
	for _, path := range deleted {
		if err := idx.store.DeleteFile(ctx, path); err != nil {
			log.WithError(err).WithField("path", path).Warn("Failed to delete removed file")
			idx.addError(fmt.Sprintf("delete %s: %v", path, err))
			continue
		}
		deletedCount++
	}
	idx.mu.Lock()
	idx.status.FilesDeleted = deletedCount
	idx.mu.Unlock()

	if len(changed) > 0 {
		if err := idx.indexChanged(ctx, runID, changed, progress); err != nil {
			idx.setError(err.Error())
			return err
		}
	}

	idx.mu.Lock()
	idx.status.State = StateIdle
	idx.status.CompletedAt = time.Now()
	s := idx.status
	idx.mu.Unlock()
	idx.report(progress)

	log.WithFields(logrus.Fields{
		"indexed": s.FilesIndexed,
		"skipped": s.FilesSkipped,
		"deleted": s.FilesDeleted,
		"failed":  s.FilesFailed,
	}).Info("Indexing complete")
	return nil
}

func (idx *Indexer) indexChanged(ctx context.Context, runID string, changed []scannedFile, progress func(Status)) error {
	paths := make([]string, len(changed))
	for i, f := range changed {
		paths[i] = f.path
	}
	results, err := parser.ParseFiles(ctx, idx.registry, paths, idx.workers)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	now := time.Now().Unix()
	for i, result := range results {
		file := changed[i]
		if result.Failed() {
			idx.fileFailed(file.path, result.Errors)
			continue
		}
		hash := file.hash
		if hash == "" {
			hash, err = computeFileHash(ctx, file.path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				idx.fileFailed(file.path, []string{fmt.Sprintf("hash: %v", err)})
				continue
			}
		}
		rec := graph.NewFileRecord(graph.FileMetadata{
			ContentHash: hash,
			ModTime:     file.modTime,
			Size:        file.size,
			IndexedAt:   now,
			RunID:       runID,
		}, result)
		if err := idx.store.SaveFile(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			idx.fileFailed(file.path, []string{fmt.Sprintf("save: %v", err)})
			continue
		}

		idx.mu.Lock()
		idx.status.FilesIndexed++
		idx.status.EntitiesTotal += int64(rec.EntityCount)
		idx.status.RelationshipsTotal += int64(rec.RelationshipCount)
		for _, e := range result.Errors {
			idx.status.Errors = append(idx.status.Errors, fmt.Sprintf("%s: %s", file.path, e))
		}
		idx.mu.Unlock()
		idx.report(progress)
	}
	return nil
}

// IndexFile extracts and saves a single file regardless of its stored
// metadata.
func (idx *Indexer) IndexFile(ctx context.Context, filePath string) (*graph.FileRecord, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if !idx.registry.CanParse(absPath) {
		return nil, fmt.Errorf("unsupported file type: %s", absPath)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", absPath, err)
	}

	idx.run.Lock()
	defer idx.run.Unlock()

	result := idx.registry.ParseFile(absPath, nil)
	if result.Failed() {
		return nil, fmt.Errorf("extract %s: %s", absPath, result.Errors[0])
	}
	hash, err := computeFileHash(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", absPath, err)
	}
	rec := graph.NewFileRecord(graph.FileMetadata{
		ContentHash: hash,
		ModTime:     info.ModTime().UnixNano(),
		Size:        info.Size(),
		IndexedAt:   time.Now().Unix(),
		RunID:       uuid.NewString(),
	}, result)
	if err := idx.store.SaveFile(ctx, rec); err != nil {
		return nil, err
	}
	idx.logger.WithFields(logrus.Fields{
		"path":     absPath,
		"entities": rec.EntityCount,
	}).Debug("Indexed file")
	return rec, nil
}

// DeleteFile removes a file's record from the store.
func (idx *Indexer) DeleteFile(ctx context.Context, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	idx.run.Lock()
	defer idx.run.Unlock()
	return idx.store.DeleteFile(ctx, absPath)
}

func (idx *Indexer) report(progress func(Status)) {
	if progress != nil {
		progress(idx.GetStatus())
	}
}

func (idx *Indexer) fileFailed(path string, errs []string) {
	idx.logger.WithField("path", path).WithField("errors", errs).Warn("Failed to index file")
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.status.FilesFailed++
	for _, e := range errs {
		idx.status.Errors = append(idx.status.Errors, fmt.Sprintf("%s: %s", path, e))
	}
}

func (idx *Indexer) addError(msg string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.status.Errors = append(idx.status.Errors, msg)
}

func (idx *Indexer) setError(msg string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.status.State = StateError
	idx.status.LastError = msg
	idx.status.Errors = append(idx.status.Errors, msg)
	idx.status.CompletedAt = time.Now()
}

func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
