package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
)

// RetentionRepository deletes aged files with their scan trail
type RetentionRepository struct {
	db *storage.DB
}

var _ repository.RetentionRepository = (*RetentionRepository)(nil)

// NewRetentionRepository creates a new retention repository
func NewRetentionRepository(db *storage.DB) *RetentionRepository {
	return &RetentionRepository{db: db}
}

// A file is expired when it was uploaded before the cutoff and no scan of it
// started at or after the cutoff.
const expiredFiles = `
	SELECT f.id FROM files f
	WHERE f.upload_time < ?
		AND NOT EXISTS (SELECT 1 FROM scans s WHERE s.file_id = f.id AND s.started_at >= ?)`

// PurgeBefore removes expired files in one transaction, children first
func (r *RetentionRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (*entities.PurgeResult, error) {
	cutoff = cutoff.UTC()
	result := &entities.PurgeResult{Cutoff: cutoff}

	ctx, cancel := r.db.WriteContext(ctx)
	defer cancel()

	err := r.db.WithTx(ctx, "purge", nil, func(tx *sqlx.Tx) error {
		var err error
		result.Detections, err = affected(tx.ExecContext(ctx, tx.Rebind(`
			DELETE FROM detections WHERE scan_id IN (
				SELECT id FROM scans WHERE file_id IN (`+expiredFiles+`))`), cutoff, cutoff))
		if err != nil {
			return err
		}

		result.Scans, err = affected(tx.ExecContext(ctx, tx.Rebind(`
			DELETE FROM scans WHERE file_id IN (`+expiredFiles+`)`), cutoff, cutoff))
		if err != nil {
			return err
		}

		result.Files, err = affected(tx.ExecContext(ctx, tx.Rebind(`
			DELETE FROM files WHERE id IN (`+expiredFiles+`)`), cutoff, cutoff))
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
