package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/heefoo/loomgraph/internal/config"
	"github.com/heefoo/loomgraph/internal/parser"
	"github.com/sirupsen/logrus"
	"github.com/surrealdb/surrealdb.go"
)

// SurrealStore keeps files, entities and relationships in three SurrealDB
// tables keyed by file path.
type SurrealStore struct {
	db        *surrealdb.DB
	namespace string
	database  string
	logger    logrus.FieldLogger
}

type entityRow struct {
	EntityID  string            `json:"entity_id"`
	File      string            `json:"file"`
	Ordinal   int               `json:"ordinal"`
	Name      string            `json:"qualified_name"`
	Kind      parser.EntityKind `json:"kind"`
	StartLine int               `json:"start_line"`
	EndLine   int               `json:"end_line"`
	Intent    string            `json:"intent,omitempty"`
	Code      string            `json:"code,omitempty"`
	Metadata  parser.Metadata   `json:"metadata,omitempty"`
}

type relationshipRow struct {
	EdgeID   string              `json:"edge_id"`
	File     string              `json:"file"`
	Ordinal  int                 `json:"ordinal"`
	From     string              `json:"from"`
	To       string              `json:"to"`
	Kind     parser.RelationKind `json:"kind"`
	Metadata parser.Metadata     `json:"metadata,omitempty"`
}

// NewSurrealStore connects, signs in when a username is set, selects the
// namespace and database, and runs migrations.
func NewSurrealStore(ctx context.Context, cfg config.SurrealDBConfig, logger logrus.FieldLogger) (*SurrealStore, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	db, err := surrealdb.New(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" {
		_, err = db.SignIn(ctx, map[string]interface{}{
			"user": cfg.Username,
			"pass": cfg.Password,
		})
		if err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("failed to sign in: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	s := &SurrealStore{
		db:        db,
		namespace: cfg.Namespace,
		database:  cfg.Database,
		logger:    logger,
	}
	if err := s.RunMigrations(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// SaveFile replaces everything stored for rec.Path in one transaction.
func (s *SurrealStore) SaveFile(ctx context.Context, rec *FileRecord) error {
	query := `
		BEGIN TRANSACTION;
		DELETE entities WHERE file = $path;
		DELETE relationships WHERE file = $path;
		DELETE files WHERE path = $path;
		CREATE files CONTENT $meta;
		INSERT INTO entities $entities;
		INSERT INTO relationships $relationships;
		COMMIT TRANSACTION;
	`
	_, err := surrealdb.Query[any](ctx, s.db, query, map[string]any{
		"path":          rec.Path,
		"meta":          rec.FileMetadata,
		"entities":      entityRows(rec),
		"relationships": relationshipRows(rec),
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.Path, err)
	}
	return nil
}

func (s *SurrealStore) GetFile(ctx context.Context, path string) (*FileRecord, error) {
	vars := map[string]any{"path": path}

	metas, err := queryRows[FileMetadata](ctx, s.db, `SELECT * FROM files WHERE path = $path`, vars)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	if len(metas) == 0 {
		return nil, ErrNotFound
	}
	ents, err := queryRows[entityRow](ctx, s.db, `SELECT * FROM entities WHERE file = $path ORDER BY ordinal`, vars)
	if err != nil {
		return nil, fmt.Errorf("get entities of %s: %w", path, err)
	}
	rels, err := queryRows[relationshipRow](ctx, s.db, `SELECT * FROM relationships WHERE file = $path ORDER BY ordinal`, vars)
	if err != nil {
		return nil, fmt.Errorf("get relationships of %s: %w", path, err)
	}
	return recordFromRows(metas[0], ents, rels), nil
}

func (s *SurrealStore) DeleteFile(ctx context.Context, path string) error {
	query := `
		BEGIN TRANSACTION;
		DELETE entities WHERE file = $path;
		DELETE relationships WHERE file = $path;
		DELETE files WHERE path = $path;
		COMMIT TRANSACTION;
	`
	_, err := surrealdb.Query[any](ctx, s.db, query, map[string]any{"path": path})
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *SurrealStore) ListFiles(ctx context.Context) ([]FileMetadata, error) {
	files, err := queryRows[FileMetadata](ctx, s.db, `SELECT * FROM files ORDER BY path`, nil)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

func queryRows[T any](ctx context.Context, db *surrealdb.DB, query string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, query, vars)
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

func (s *SurrealStore) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`DEFINE TABLE files SCHEMALESS`,
		`DEFINE INDEX idx_files_path ON files FIELDS path UNIQUE`,

		`DEFINE TABLE entities SCHEMALESS`,
		`DEFINE INDEX idx_entities_file ON entities FIELDS file`,
		`DEFINE INDEX idx_entities_name ON entities FIELDS qualified_name`,
		`DEFINE INDEX idx_entities_kind ON entities FIELDS kind`,

		`DEFINE TABLE relationships SCHEMALESS`,
		`DEFINE INDEX idx_relationships_file ON relationships FIELDS file`,
		`DEFINE INDEX idx_relationships_from ON relationships FIELDS from`,
		`DEFINE INDEX idx_relationships_to ON relationships FIELDS to`,
	}

	var failed int
	for _, m := range migrations {
		if _, err := surrealdb.Query[any](ctx, s.db, m, nil); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isBenignMigrationError(err) {
				continue
			}
			failed++
			s.logger.WithError(err).WithField("statement", m).Warn("Migration failed")
		}
	}
	if failed == len(migrations) {
		return fmt.Errorf("all %d migrations failed", failed)
	}
	return nil
}

// isBenignMigrationError reports errors that only mean the definition is
// already in place.
func isBenignMigrationError(err error) bool {
	if err == nil {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already defined") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "duplicate index") ||
		strings.Contains(msg, "duplicate field")
}

func entityRows(rec *FileRecord) []entityRow {
	rows := make([]entityRow, 0, len(rec.Entities))
	for i, e := range rec.Entities {
		rows = append(rows, entityRow{
			EntityID:  FormatEntityID(rec.Path, e.Name),
			File:      rec.Path,
			Ordinal:   i,
			Name:      e.Name,
			Kind:      e.Kind,
			StartLine: e.StartLine,
			EndLine:   e.EndLine,
			Intent:    e.Intent,
			Code:      e.Code,
			Metadata:  e.Metadata,
		})
	}
	return rows
}

func relationshipRows(rec *FileRecord) []relationshipRow {
	rows := make([]relationshipRow, 0, len(rec.Relationships))
	for i, r := range rec.Relationships {
		rows = append(rows, relationshipRow{
			EdgeID:   FormatEdgeID(r.From, r.To, r.Kind),
			File:     rec.Path,
			Ordinal:  i,
			From:     r.From,
			To:       r.To,
			Kind:     r.Kind,
			Metadata: r.Metadata,
		})
	}
	return rows
}

func recordFromRows(meta FileMetadata, ents []entityRow, rels []relationshipRow) *FileRecord {
	rec := &FileRecord{
		FileMetadata:  meta,
		Entities:      make([]parser.Entity, 0, len(ents)),
		Relationships: make([]parser.Relationship, 0, len(rels)),
	}
	for _, e := range ents {
		rec.Entities = append(rec.Entities, parser.Entity{
			Name:      e.Name,
			Kind:      e.Kind,
			File:      e.File,
			StartLine: e.StartLine,
			EndLine:   e.EndLine,
			Intent:    e.Intent,
			Code:      e.Code,
			Metadata:  e.Metadata,
		})
	}
	for _, r := range rels {
		rec.Relationships = append(rec.Relationships, parser.Relationship{
			From:     r.From,
			To:       r.To,
			Kind:     r.Kind,
			Metadata: r.Metadata,
		})
	}
	return rec
}
