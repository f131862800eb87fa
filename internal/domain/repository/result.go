package repository

import (
	"context"
	"time"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// ResultRepository persists scan outcomes as a unit of work
type ResultRepository interface {
	// WithinTx runs fn inside one write transaction. A non-nil error from fn
	// rolls back every statement issued through tx.
	WithinTx(ctx context.Context, fn func(tx ResultTx) error) error
}

// ResultTx is the set of writes available inside a result transaction
type ResultTx interface {
	// ResolveFile returns the id of the file with the metadata's fingerprint,
	// inserting it first when absent
	ResolveFile(ctx context.Context, meta entities.FileMetadata, storedName string, at time.Time) (int64, error)

	// UploaderExists reports whether a user row with the id exists
	UploaderExists(ctx context.Context, userID int64) (bool, error)

	// InsertScan stores a scan and returns its id
	InsertScan(ctx context.Context, scan *entities.Scan) (entities.ScanRecordID, error)

	// UpsertThreat creates the threat or atomically increments its counter,
	// returning the threat id and the counter after the write
	UpsertThreat(ctx context.Context, d entities.DetectionInput, seen time.Time) (int64, int64, error)

	// InsertDetection links a scan to a threat
	InsertDetection(ctx context.Context, det *entities.Detection) error
}
