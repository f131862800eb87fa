package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
)

// ResultRepository writes scan outcomes inside one transaction
type ResultRepository struct {
	db *storage.DB
}

var _ repository.ResultRepository = (*ResultRepository)(nil)

// NewResultRepository creates a new result repository
func NewResultRepository(db *storage.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// WithinTx runs fn in a write transaction
func (r *ResultRepository) WithinTx(ctx context.Context, fn func(tx repository.ResultTx) error) error {
	return r.db.WithTx(ctx, "record scan", nil, func(tx *sqlx.Tx) error {
		return fn(&resultTx{tx: tx})
	})
}

type resultTx struct {
	tx *sqlx.Tx
}

// ResolveFile inserts the file unless its hash is known, then reads the id.
// The unique constraint settles concurrent inserts of the same content.
func (t *resultTx) ResolveFile(ctx context.Context, meta entities.FileMetadata, storedName string, at time.Time) (int64, error) {
	insert := t.tx.Rebind(`
		INSERT INTO files (file_hash, original_name, stored_name, file_size, mime_type, uploaded_by, upload_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_hash) DO NOTHING`)

	if _, err := t.tx.ExecContext(ctx, insert,
		meta.Fingerprint, meta.Name, storedName, meta.Size, meta.MimeType, meta.UploadedBy, at.UTC(),
	); err != nil {
		return 0, storage.Classify("resolve file: insert", err)
	}

	var id int64
	if err := t.tx.GetContext(ctx, &id, t.tx.Rebind(`SELECT id FROM files WHERE file_hash = ?`), meta.Fingerprint); err != nil {
		return 0, storage.Classify("resolve file: select", err)
	}
	return id, nil
}

func (t *resultTx) UploaderExists(ctx context.Context, userID int64) (bool, error) {
	var n int
	if err := t.tx.GetContext(ctx, &n, t.tx.Rebind(`SELECT COUNT(*) FROM users WHERE id = ?`), userID); err != nil {
		return false, storage.Classify("uploader lookup", err)
	}
	return n > 0, nil
}

func (t *resultTx) InsertScan(ctx context.Context, scan *entities.Scan) (entities.ScanRecordID, error) {
	query := t.tx.Rebind(`
		INSERT INTO scans (file_id, scan_type, status, threat_level, detection_count, scan_duration, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var completedAt interface{}
	if scan.CompletedAt != nil {
		completedAt = scan.CompletedAt.UTC()
	}

	var id int64
	if err := t.tx.GetContext(ctx, &id, query,
		scan.FileID, scan.ScanType, string(scan.Status), scan.ThreatLevel, scan.DetectionCount,
		scan.ScanDuration, scan.StartedAt.UTC(), completedAt,
	); err != nil {
		return 0, storage.Classify("insert scan", err)
	}

	scan.ID = entities.ScanRecordID(id)
	return scan.ID, nil
}

// UpsertThreat increments in the database, never in application code, so
// concurrent reports of one name cannot lose an update. Type and severity
// keep the values the threat was created with.
func (t *resultTx) UpsertThreat(ctx context.Context, d entities.DetectionInput, seen time.Time) (int64, int64, error) {
	query := t.tx.Rebind(`
		INSERT INTO threats (name, type, severity, first_seen, last_seen, detection_count)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT (name) DO UPDATE SET
			detection_count = threats.detection_count + 1,
			last_seen = CASE WHEN excluded.last_seen > threats.last_seen
				THEN excluded.last_seen ELSE threats.last_seen END
		RETURNING id, detection_count`)

	threatType := d.ThreatType
	if threatType == "" {
		threatType = entities.DefaultThreatType
	}

	var row struct {
		ID             int64 `db:"id"`
		DetectionCount int64 `db:"detection_count"`
	}
	seen = seen.UTC()
	if err := t.tx.GetContext(ctx, &row, query, d.ThreatName, threatType, d.Severity, seen, seen); err != nil {
		return 0, 0, storage.Classify("upsert threat", err)
	}
	return row.ID, row.DetectionCount, nil
}

func (t *resultTx) InsertDetection(ctx context.Context, det *entities.Detection) error {
	query := t.tx.Rebind(`
		INSERT INTO detections (scan_id, threat_id, engine_name, detection_name, confidence, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	if err := t.tx.GetContext(ctx, &det.ID, query,
		det.ScanID, det.ThreatID, det.EngineName, det.DetectionName, det.Confidence, det.Details, det.CreatedAt.UTC(),
	); err != nil {
		return storage.Classify("insert detection", err)
	}
	return nil
}
