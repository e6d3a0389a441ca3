package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"
)

var (
	// ErrNotExist is returned when no file exists for a key.
	ErrNotExist = fs.ErrNotExist
	// ErrNotRegular is returned when the key names a directory or device.
	ErrNotRegular = errors.New("storage: not a regular file")
	// ErrInvalidKey is returned for keys that escape the storage root.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// File is an opened stored file.
type File interface {
	io.ReadSeekCloser
	Size() int64
	ModTime() time.Time
}

// Storage は配信用の静的ファイルを開くためのインターフェース。
type Storage interface {
	// Open returns the file stored under key (e.g. "resume.pdf").
	Open(ctx context.Context, key string) (File, error)
}
