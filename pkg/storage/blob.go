package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotExist is returned when a key has no stored object.
var ErrNotExist = errors.New("storage: object does not exist")

// Blob is a path-addressable object store with immediately consistent reads.
type Blob interface {
	Save(ctx context.Context, key string, r io.Reader, size int64) error
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// Object is an open handle on a stored blob. Callers must Close it.
type Object struct {
	io.ReadSeekCloser
	io.ReaderAt
	Size int64
}

// Key joins segments into a normalised slash separated key.
func Key(segments ...string) string {
	return strings.TrimPrefix(path.Join(segments...), "/")
}

func cleanKey(key string) (string, error) {
	key = strings.Trim(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", errors.New("storage: empty key")
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", errors.New("storage: key escapes root")
		}
	}
	return path.Clean(key), nil
}
