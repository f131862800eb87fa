// Package objectstore holds the backup destinations.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
)

// Local writes backups below a directory on the local filesystem
type Local struct {
	dir string
}

var _ repository.ObjectStore = (*Local)(nil)

// NewLocal creates the directory if needed
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Name() string { return "local" }

// Put writes to a temporary file and renames it into place, so a partial
// backup is never visible under its final name
func (l *Local) Put(ctx context.Context, key string, body io.Reader) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(key, "..") || clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	path := filepath.Join(l.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".partial-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: body}); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// Ping checks the directory is writable
func (l *Local) Ping(ctx context.Context) error {
	f, err := os.CreateTemp(l.dir, ".health-*")
	if err != nil {
		return fmt.Errorf("backup directory not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
