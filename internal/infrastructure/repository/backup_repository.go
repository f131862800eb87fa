package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
)

// SnapshotVersion is bumped whenever the snapshot layout changes
const SnapshotVersion = 1

// BackupRepository reads the full store for export
type BackupRepository struct {
	db *storage.DB
}

var _ repository.BackupRepository = (*BackupRepository)(nil)

// NewBackupRepository creates a new backup repository
func NewBackupRepository(db *storage.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

// Snapshot reads every table inside one transaction so the export is
// consistent even while results are being recorded
func (r *BackupRepository) Snapshot(ctx context.Context) (*entities.Snapshot, error) {
	var opts *sql.TxOptions
	if r.db.Dialect() == storage.DialectPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}

	snap := &entities.Snapshot{
		Version:    SnapshotVersion,
		TakenAt:    time.Now().UTC(),
		Users:      []entities.User{},
		Files:      []entities.File{},
		Scans:      []entities.Scan{},
		Threats:    []entities.Threat{},
		Detections: []entities.Detection{},
	}

	err := r.db.WithTx(ctx, "snapshot", opts, func(tx *sqlx.Tx) error {
		reads := []struct {
			table string
			dest  interface{}
			query string
		}{
			{"users", &snap.Users, `SELECT ` + userColumns + ` FROM users ORDER BY id`},
			{"files", &snap.Files, `SELECT id, file_hash, original_name, stored_name, file_size, mime_type, uploaded_by, upload_time FROM files ORDER BY id`},
			{"scans", &snap.Scans, `SELECT id, file_id, scan_type, status, threat_level, detection_count, scan_duration, started_at, completed_at FROM scans ORDER BY id`},
			{"threats", &snap.Threats, `SELECT ` + threatColumns + ` FROM threats ORDER BY id`},
			{"detections", &snap.Detections, `SELECT id, scan_id, threat_id, engine_name, detection_name, confidence, details, created_at FROM detections ORDER BY id`},
		}
		for _, read := range reads {
			if err := tx.SelectContext(ctx, read.dest, read.query); err != nil {
				return fmt.Errorf("read %s: %w", read.table, err)
			}
		}

		var rows []statisticsRow
		if err := tx.SelectContext(ctx, &rows, `SELECT `+statisticsColumns+` FROM statistics ORDER BY date`); err != nil {
			return fmt.Errorf("read statistics: %w", err)
		}
		snap.Statistics = make([]entities.Statistics, 0, len(rows))
		for _, row := range rows {
			stats, err := row.entity()
			if err != nil {
				return err
			}
			snap.Statistics = append(snap.Statistics, stats)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
