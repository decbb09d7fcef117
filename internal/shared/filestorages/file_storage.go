package filestorages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrFileAlreadyExists = errors.New("file already exists")
	ErrInvalidKey        = errors.New("invalid file key")
	ErrInvalidRootDir    = errors.New("invalid root directory")
)

type PutResult struct {
	FileKey string
	Bytes   int64
}

type PutOptions struct {
	AllowOverwrite bool
}

// FileStorage is a key/value blob store on the local filesystem. Puts are
// atomic: readers see either no file or the complete content.
//
//go:generate mockgen -source=file_storage.go -destination=./mocks/file_storage_mock.go -package=mocks
type FileStorage interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (*PutResult, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Ping(ctx context.Context) error
}

type fileStorage struct {
	dir string
}

func NewFileStorage(rootDir string) (FileStorage, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("%w: root directory cannot be empty", ErrInvalidRootDir)
	}

	absRootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve absolute path: %w", ErrInvalidRootDir, err)
	}

	return &fileStorage{dir: absRootDir}, nil
}

// Ping creates the root directory if needed and checks that it accepts writes.
func (s *fileStorage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRootDir, err)
	}
	probe, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("%w: not writable: %w", ErrInvalidRootDir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

func (s *fileStorage) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (*PutResult, error) {
	if err := s.validateKey(key); err != nil {
		return nil, err
	}
	finalPath := filepath.Join(s.dir, filepath.Clean(key))

	tmpPath, written, err := s.writeTemp(ctx, filepath.Dir(finalPath), r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmpPath) }()

	if opts.AllowOverwrite {
		// rename replaces atomically on POSIX
		if err := os.Rename(tmpPath, finalPath); err != nil {
			return nil, err
		}
	} else {
		// link fails if finalPath exists, giving create-if-absent
		if err := os.Link(tmpPath, finalPath); err != nil {
			if errors.Is(err, os.ErrExist) {
				return nil, ErrFileAlreadyExists
			}
			return nil, err
		}
	}

	return &PutResult{FileKey: key, Bytes: written}, nil
}

func (s *fileStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := s.validateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

// writeTemp copies r into a synced temp file inside dir and returns its path.
func (s *fileStorage) writeTemp(ctx context.Context, dir string, r io.Reader) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", 0, err
	}
	tmpPath := tmp.Name()
	fail := func(err error) (string, int64, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}
		return "", 0, err
	}

	written, err := io.Copy(tmp, r)
	if err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	return tmpPath, written, nil
}

// validateKey rejects keys that are empty, absolute or escape the root directory.
func (s *fileStorage) validateKey(key string) error {
	if key == "" || filepath.IsAbs(key) {
		return ErrInvalidKey
	}
	cleanPath := filepath.Clean(key)
	if cleanPath == "." || cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return ErrInvalidKey
	}
	rel, err := filepath.Rel(s.dir, filepath.Join(s.dir, cleanPath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ErrInvalidKey
	}
	return nil
}
