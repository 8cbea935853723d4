package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage persists a flat JSON object of keys to values.
type FileStorage struct {
	filePath string
	mu       sync.Mutex
}

// NewFileStorage creates a file-backed storage at filePath. The file and its
// directory are created on first write.
func NewFileStorage(filePath string) *FileStorage {
	return &FileStorage{filePath: filePath}
}

func (f *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.loadUnlocked()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStorage) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.loadUnlocked()
	if err != nil {
		if !isCorrupt(err) {
			return err
		}
		// Corrupted file - start fresh rather than refusing to persist
		values = map[string]string{}
	}
	values[key] = value
	return f.saveUnlocked(values)
}

func isCorrupt(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// loadUnlocked reads the file (must be called with lock held)
func (f *FileStorage) loadUnlocked() (map[string]string, error) {
	data, err := os.ReadFile(f.filePath)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse identity file: %w", err)
	}
	return values, nil
}

// saveUnlocked writes the file atomically (must be called with lock held)
func (f *FileStorage) saveUnlocked(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal identity file: %w", err)
	}

	tempPath := f.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, f.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
