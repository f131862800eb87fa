package repository

import (
	"context"
	"time"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// RetentionRepository removes aged scan data
type RetentionRepository interface {
	// PurgeBefore deletes files uploaded before cutoff together with their
	// scans and detections. Threats and statistics are kept.
	PurgeBefore(ctx context.Context, cutoff time.Time) (*entities.PurgeResult, error)
}
