package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage serves files from a directory on the local filesystem.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage は LocalStorage を生成する。
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

var _ Storage = (*LocalStorage)(nil)

func (s *LocalStorage) Open(_ context.Context, key string) (File, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: stat %s: %w", key, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("storage: %s: %w", key, ErrNotRegular)
	}

	return &localFile{File: f, size: info.Size(), modTime: info.ModTime()}, nil
}

// resolve maps key to a path inside baseDir.
func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return "", ErrInvalidKey
	}

	absDir, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("storage: resolve base dir: %w", err)
	}
	path := filepath.Join(absDir, key)
	if !strings.HasPrefix(path, absDir+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return path, nil
}

type localFile struct {
	*os.File
	size    int64
	modTime time.Time
}

func (f *localFile) Size() int64        { return f.size }
func (f *localFile) ModTime() time.Time { return f.modTime }
