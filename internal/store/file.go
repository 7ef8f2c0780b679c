package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"velo/internal/model"
)

// FileStore keeps everything under one directory:
//
//	index.json
//	docs/<doc>/<tab>.json
//	images/<id>.png
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	for _, sub := range []string{"docs", "images"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) indexPath() string { return filepath.Join(s.dir, "index.json") }

func (s *FileStore) docDir(doc uuid.UUID) string {
	return filepath.Join(s.dir, "docs", doc.String())
}

func (s *FileStore) tabPath(doc, tab uuid.UUID) string {
	return filepath.Join(s.docDir(doc), tab.String()+".json")
}

func (s *FileStore) imagePath(id uuid.UUID) string {
	return filepath.Join(s.dir, "images", id.String()+".png")
}

func (s *FileStore) SaveCheckpoint(ctx context.Context, doc, tab uuid.UUID, cp *model.Checkpoint) error {
	data, err := EncodeCheckpoint(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.docDir(doc), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	return writeFile(s.tabPath(doc, tab), data)
}

func (s *FileStore) LoadCheckpoint(ctx context.Context, doc, tab uuid.UUID) (*model.Checkpoint, error) {
	data, err := s.read(s.tabPath(doc, tab))
	if err != nil {
		return nil, err
	}
	return DecodeCheckpoint(data)
}

func (s *FileStore) SaveIndex(ctx context.Context, idx Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFile(s.indexPath(), data)
}

func (s *FileStore) LoadIndex(ctx context.Context) (Index, error) {
	data, err := s.read(s.indexPath())
	if err != nil {
		return Index{}, err
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return Index{}, fmt.Errorf("parse index: %w", err)
	}
	return idx, nil
}

func (s *FileStore) SaveImage(ctx context.Context, id uuid.UUID, png []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFile(s.imagePath(id), png)
}

func (s *FileStore) LoadImage(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return s.read(s.imagePath(id))
}

func (s *FileStore) DeleteTab(ctx context.Context, doc, tab uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.tabPath(doc, tab)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove tab file: %w", err)
	}
	return nil
}

func (s *FileStore) DeleteDocument(ctx context.Context, doc uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.RemoveAll(s.docDir(doc)); err != nil {
		return fmt.Errorf("remove document dir: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// writeFile replaces path atomically so a crash never leaves half a record.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
