package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const fileSuffix = ".snapshot.json"

// fileRecord is the on-disk layout: {"props": <json>, "html": "..."}.
type fileRecord struct {
	Props json.RawMessage `json:"props"`
	HTML  string          `json:"html"`
}

// FileStore keeps one JSON file per snapshot under a directory, with an
// in-memory cache of everything it has read or written.
type FileStore struct {
	dir string

	mu    sync.Mutex
	cache map[string]Record
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, cache: make(map[string]Record)}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, filepath.FromSlash(id)+fileSuffix)
}

func (s *FileStore) Load(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.cache[id]; ok {
		return &rec, nil
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}
	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", id, err)
	}
	var props bytes.Buffer
	if len(fr.Props) == 0 {
		fr.Props = json.RawMessage("null")
	}
	if err := json.Compact(&props, fr.Props); err != nil {
		return nil, fmt.Errorf("parse snapshot %s props: %w", id, err)
	}
	rec := Record{Props: props.Bytes(), HTML: fr.HTML}
	s.cache[id] = rec
	return &rec, nil
}

func (s *FileStore) Save(_ context.Context, id string, rec *Record) error {
	props := json.RawMessage(rec.Props)
	if len(props) == 0 {
		props = json.RawMessage("null")
	}
	data, err := json.MarshalIndent(fileRecord{Props: props, HTML: rec.HTML}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	p := s.path(id)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", id, err)
	}
	s.cache[id] = Record{Props: append([]byte(nil), rec.Props...), HTML: rec.HTML}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, id)
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, fileSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(strings.TrimSuffix(rel, fileSuffix)))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
