package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/matzehuels/spritepack/pkg/errors"
)

// FileStore keeps one JSON file per record under <dir>/<sheet>/.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir.
// If baseDir is empty, it defaults to $XDG_DATA_HOME/spritepack/history
// (~/.local/share/spritepack/history).
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// DefaultDir returns the default history directory.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "spritepack", "history"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "spritepack", "history"), nil
}

func (s *FileStore) recordPath(sheet, id string) string {
	return filepath.Join(s.baseDir, sheet, id+".json")
}

func (s *FileStore) Put(ctx context.Context, r *Record) error {
	if err := errors.ValidateSheetName(r.Sheet); err != nil {
		return err
	}
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	path := s.recordPath(r.Sheet, r.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create sheet dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write record file: %w", err)
	}
	return nil
}

func (s *FileStore) Latest(ctx context.Context, sheet string) (*Record, error) {
	records, err := s.List(ctx, sheet, 1)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

func (s *FileStore) List(ctx context.Context, sheet string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sheets []string
	if sheet != "" {
		if err := errors.ValidateSheetName(sheet); err != nil {
			return nil, err
		}
		sheets = []string{sheet}
	} else {
		entries, err := os.ReadDir(s.baseDir)
		if err != nil {
			return nil, fmt.Errorf("read history dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				sheets = append(sheets, e.Name())
			}
		}
	}

	var records []*Record
	for _, name := range sheets {
		rs, err := s.readSheet(name)
		if err != nil {
			return nil, err
		}
		records = append(records, rs...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// readSheet loads every record of one sheet. Unreadable files are skipped.
func (s *FileStore) readSheet(sheet string) ([]*Record, error) {
	dir := filepath.Join(s.baseDir, sheet)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sheet dir: %w", err)
	}

	var records []*Record
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		records = append(records, &r)
	}
	return records, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for record files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
