package usecase

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/fingerprint"
	"github.com/akumakusss123/DBT-Antivirus/internal/metrics"
)

// BackupUseCase handles backup business logic
type BackupUseCase struct {
	backupRepo repository.BackupRepository
	store      repository.ObjectStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewBackupUseCase creates a new backup use case
func NewBackupUseCase(backupRepo repository.BackupRepository, store repository.ObjectStore, m *metrics.Metrics, logger *zap.Logger) *BackupUseCase {
	return &BackupUseCase{
		backupRepo: backupRepo,
		store:      store,
		metrics:    m,
		logger:     logger.Named("backup"),
		now:        time.Now,
	}
}

// CreateBackup exports a consistent snapshot of every table as gzip JSON and
// stores it in the configured destination. A failed backup is returned with
// status failed together with the error.
func (b *BackupUseCase) CreateBackup(ctx context.Context) (*entities.Backup, error) {
	started := b.now().UTC()
	backup := &entities.Backup{
		ID:        uuid.NewString(),
		Status:    entities.BackupStatusInProgress,
		StartedAt: started,
		Metadata: entities.BackupMeta{
			Compression: "gzip",
			Target:      b.store.Name(),
		},
	}

	if err := b.create(ctx, backup); err != nil {
		backup.Status = entities.BackupStatusFailed
		backup.ErrorMessage = err.Error()
		b.metrics.BackupFinished(string(backup.Status))
		b.logger.Error("backup failed", zap.String("backup_id", backup.ID), zap.Error(err))
		return backup, fmt.Errorf("failed to create backup: %w", err)
	}

	completed := b.now().UTC()
	backup.CompletedAt = &completed
	backup.Status = entities.BackupStatusCompleted
	b.metrics.BackupFinished(string(backup.Status))
	b.logger.Info("backup completed",
		zap.String("backup_id", backup.ID),
		zap.String("location", backup.Location),
		zap.Int64("size", backup.Size),
		zap.Any("rows", backup.RowCounts))
	return backup, nil
}

func (b *BackupUseCase) create(ctx context.Context, backup *entities.Backup) error {
	snap, err := b.backupRepo.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	backup.RowCounts = snap.RowCounts()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	sum, size, err := fingerprint.Sum(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	backup.Size = size
	backup.Metadata.Checksum = sum.String()

	key := fmt.Sprintf("%s/dbt-backup-%s-%s.json.gz",
		backup.StartedAt.Format("2006/01/02"),
		backup.StartedAt.Format("20060102T150405Z"),
		backup.ID[:8])

	location, err := b.store.Put(ctx, key, &buf)
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	backup.Location = location
	return nil
}
