// Package graph persists extraction results per source file.
package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/heefoo/loomgraph/internal/config"
	"github.com/heefoo/loomgraph/internal/parser"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a path has no stored record.
var ErrNotFound = errors.New("graph: file not found")

// FileMetadata is what change detection needs to know about an indexed file.
type FileMetadata struct {
	Path              string          `json:"path"`
	Language          parser.Language `json:"language"`
	ContentHash       string          `json:"content_hash"`
	ModTime           int64           `json:"mod_time"`
	Size              int64           `json:"size"`
	IndexedAt         int64           `json:"indexed_at"`
	RunID             string          `json:"run_id"`
	EntityCount       int             `json:"entity_count"`
	RelationshipCount int             `json:"relationship_count"`
	Errors            []string        `json:"errors,omitempty"`
}

// FileRecord is one stored file: its metadata and everything extracted from
// it.
type FileRecord struct {
	FileMetadata
	Entities      []parser.Entity       `json:"entities"`
	Relationships []parser.Relationship `json:"relationships"`
}

// NewFileRecord builds a record from an extraction result. The counts are
// filled from the result.
func NewFileRecord(meta FileMetadata, result *parser.ParseResult) *FileRecord {
	meta.Path = result.File
	meta.Language = result.Language
	meta.EntityCount = len(result.Entities)
	meta.RelationshipCount = len(result.Relationships)
	meta.Errors = result.Errors
	return &FileRecord{
		FileMetadata:  meta,
		Entities:      result.Entities,
		Relationships: result.Relationships,
	}
}

// Store keeps one FileRecord per path. Saving a path replaces whatever was
// stored for it before.
type Store interface {
	SaveFile(ctx context.Context, rec *FileRecord) error
	GetFile(ctx context.Context, path string) (*FileRecord, error)
	DeleteFile(ctx context.Context, path string) error
	ListFiles(ctx context.Context) ([]FileMetadata, error)
	Close() error
}

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig, logger logrus.FieldLogger) (Store, error) {
	switch cfg.Backend {
	case config.BackendBolt:
		return OpenBolt(cfg.Bolt.Path)
	case config.BackendSurrealDB:
		return NewSurrealStore(ctx, cfg.SurrealDB, logger)
	case config.BackendNone, "":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// FormatEntityID is the storage key of an entity. Qualified names are not
// unique across files, so the file is part of the key.
func FormatEntityID(file, name string) string {
	return file + "::" + name
}

// FormatEdgeID is the storage key of a relationship. The kind is part of the
// key so that two edges between the same names never collide.
func FormatEdgeID(from, to string, kind parser.RelationKind) string {
	return fmt.Sprintf("%s->%s:%s", from, to, kind)
}

func sortMetadata(files []FileMetadata) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
