package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/metrics"
)

// Retention removes files that have not been scanned within a window
type Retention struct {
	repo    repository.RetentionRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRetention creates a new retention use case
func NewRetention(repo repository.RetentionRepository, m *metrics.Metrics, logger *zap.Logger) *Retention {
	return &Retention{
		repo:    repo,
		metrics: m,
		logger:  logger.Named("retention"),
		now:     time.Now,
	}
}

// Purge deletes files uploaded more than olderThan ago, with their scans and
// detections. Threats and statistics rows are kept.
func (r *Retention) Purge(ctx context.Context, olderThan time.Duration) (*entities.PurgeResult, error) {
	if olderThan <= 0 {
		return nil, errs.Constraint("purge", "retention window must be positive, got %s", olderThan)
	}

	cutoff := r.now().UTC().Add(-olderThan)
	result, err := r.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		r.logger.Error("retention purge failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return nil, err
	}

	r.metrics.Purged(result.Files, result.Scans, result.Detections)
	r.logger.Info("retention purge completed",
		zap.Time("cutoff", cutoff),
		zap.Int64("files", result.Files),
		zap.Int64("scans", result.Scans),
		zap.Int64("detections", result.Detections))
	return result, nil
}

// PurgeDays is Purge with the window given in days
func (r *Retention) PurgeDays(ctx context.Context, days int) (*entities.PurgeResult, error) {
	return r.Purge(ctx, time.Duration(days)*24*time.Hour)
}
