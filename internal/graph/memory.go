package graph

import (
	"context"
	"sync"
)

// MemoryStore is the store behind the "none" backend. Nothing survives the
// process.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]*FileRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]*FileRecord)}
}

func (s *MemoryStore) SaveFile(ctx context.Context, rec *FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *rec
	s.mu.Lock()
	s.files[rec.Path] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetFile(ctx context.Context, path string) (*FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.files[path]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) DeleteFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.files, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListFiles(ctx context.Context) ([]FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	files := make([]FileMetadata, 0, len(s.files))
	for _, rec := range s.files {
		files = append(files, rec.FileMetadata)
	}
	s.mu.RUnlock()
	sortMetadata(files)
	return files, nil
}

func (s *MemoryStore) Close() error { return nil }
