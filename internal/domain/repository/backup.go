package repository

import (
	"context"
	"io"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// BackupRepository exports a consistent snapshot of the store
type BackupRepository interface {
	// Snapshot reads every table inside a single read transaction
	Snapshot(ctx context.Context) (*entities.Snapshot, error)
}

// ObjectStore is a backup destination
type ObjectStore interface {
	// Put stores the object under key and returns its location
	Put(ctx context.Context, key string, body io.Reader) (string, error)

	// Ping verifies the destination is reachable
	Ping(ctx context.Context) error

	// Name identifies the backend ("local", "s3")
	Name() string
}
