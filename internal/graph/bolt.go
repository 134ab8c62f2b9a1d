package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var filesBucket = []byte("files")

// BoltStore keeps records in a local bbolt file, one JSON value per path.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path. Parent directories are
// created as needed.
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(filesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create files bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) SaveFile(ctx context.Context, rec *FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.Path, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(filesBucket).Put([]byte(rec.Path), data)
	})
}

func (s *BoltStore) GetFile(ctx context.Context, path string) (*FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *FileRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(filesBucket).Get([]byte(path))
		if data == nil {
			return ErrNotFound
		}
		rec = &FileRecord{}
		return json.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *BoltStore) DeleteFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(filesBucket).Delete([]byte(path))
	})
}

// ListFiles returns metadata only; entities and relationships are skipped
// while decoding.
func (s *BoltStore) ListFiles(ctx context.Context) ([]FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var files []FileMetadata
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(filesBucket).ForEach(func(k, v []byte) error {
			var meta FileMetadata
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			files = append(files, meta)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	// bbolt iterates in key order already.
	return files, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
