package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in memory and rewrites a single JSON document on
// each Set. It suits the small amount of state a single user accumulates.
// An empty path gives a store that never touches disk.
type FileStore struct {
	mu     sync.Mutex
	path   string
	closed bool

	Data map[string]string `json:"Data"`
}

// OpenFile loads the JSON document at path. A missing file starts an empty
// store; a corrupt one is an error so it is never silently overwritten.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		Data: map[string]string{},
	}
	if path == "" {
		return s, nil
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(content) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(content, s); err != nil {
		return nil, fmt.Errorf("couldn't unmarshal %s: %w", path, err)
	}
	if s.Data == nil {
		s.Data = map[string]string{}
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	value, found := s.Data[key]
	if !found {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (s *FileStore) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, found := s.Data[key]; found {
			result[key] = []byte(value)
		}
	}
	return result, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	old, existed := s.Data[key]
	s.Data[key] = string(value)
	if err := s.persist(); err != nil {
		// keep memory in line with what is on disk
		if existed {
			s.Data[key] = old
		} else {
			delete(s.Data, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// persist writes to a temp file and renames it over the old document so a
// crash mid-write leaves the previous version intact.
func (s *FileStore) persist() error {
	if s.path == "" {
		return nil
	}
	jsonData, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
