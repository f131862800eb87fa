package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
)

// QueryRepository serves the read side over tables and views
type QueryRepository struct {
	db *storage.DB
}

var _ repository.QueryRepository = (*QueryRepository)(nil)

// NewQueryRepository creates a new query repository
func NewQueryRepository(db *storage.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

type historyRow struct {
	ScanID         int64      `db:"scan_id"`
	FileHash       string     `db:"file_hash"`
	FileName       string     `db:"file_name"`
	FileSize       int64      `db:"file_size"`
	Uploader       string     `db:"uploader"`
	ScanType       string     `db:"scan_type"`
	Status         string     `db:"status"`
	ThreatLevel    int        `db:"threat_level"`
	DetectionCount int        `db:"detection_count"`
	ScanDuration   float64    `db:"scan_duration"`
	StartedAt      time.Time  `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
}

// History lists scans newest first with their distinct detection names
func (r *QueryRepository) History(ctx context.Context, limit, offset int, filter entities.HistoryFilter) ([]entities.ScanHistoryRow, error) {
	query := `
		SELECT s.id AS scan_id, f.file_hash, f.original_name AS file_name, f.file_size,
			COALESCE(u.username, '') AS uploader,
			s.scan_type, s.status, s.threat_level, s.detection_count, s.scan_duration,
			s.started_at, s.completed_at
		FROM scans s
		JOIN files f ON f.id = s.file_id
		LEFT JOIN users u ON u.id = f.uploaded_by
		WHERE 1=1`
	var args []interface{}

	if filter.MinThreatLevel != nil {
		query += ` AND s.threat_level >= ?`
		args = append(args, *filter.MinThreatLevel)
	}

	if filter.DateFrom != nil {
		query += ` AND s.started_at >= ?`
		args = append(args, filter.DateFrom.UTC())
	}

	if filter.Text != "" {
		pattern := ContainsPattern(filter.Text)
		query += ` AND (` + r.db.Fold("f.original_name") + ` LIKE ? ESCAPE '\'
			OR EXISTS (
				SELECT 1 FROM detections d
				JOIN threats t ON t.id = d.threat_id
				WHERE d.scan_id = s.id
					AND (` + r.db.Fold("t.name") + ` LIKE ? ESCAPE '\'
						OR ` + r.db.Fold("d.detection_name") + ` LIKE ? ESCAPE '\')
			))`
		args = append(args, pattern, pattern, pattern)
	}

	query += ` ORDER BY s.started_at DESC, s.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, storage.Classify("history", err)
	}

	out := make([]entities.ScanHistoryRow, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, len(rows))
	index := make(map[int64]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ScanID
		index[row.ScanID] = i
		out[i] = entities.ScanHistoryRow{
			ScanID:         entities.ScanRecordID(row.ScanID),
			FileHash:       row.FileHash,
			FileName:       row.FileName,
			FileSize:       row.FileSize,
			Uploader:       row.Uploader,
			ScanType:       row.ScanType,
			Status:         entities.ScanStatus(row.Status),
			ThreatLevel:    row.ThreatLevel,
			DetectionCount: row.DetectionCount,
			ScanDuration:   row.ScanDuration,
			StartedAt:      row.StartedAt.UTC(),
			CompletedAt:    utcPtr(row.CompletedAt),
			Detections:     []string{},
		}
	}

	names, err := r.detectionNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		i := index[n.ScanID]
		out[i].Detections = append(out[i].Detections, n.Name)
	}
	return out, nil
}

type detectionName struct {
	ScanID int64  `db:"scan_id"`
	Name   string `db:"name"`
}

func (r *QueryRepository) detectionNames(ctx context.Context, scanIDs []int64) ([]detectionName, error) {
	query, args, err := sqlx.In(`
		SELECT DISTINCT d.scan_id, COALESCE(NULLIF(d.detection_name, ''), t.name) AS name
		FROM detections d
		JOIN threats t ON t.id = d.threat_id
		WHERE d.scan_id IN (?)
		ORDER BY d.scan_id, name`, scanIDs)
	if err != nil {
		return nil, errs.Unavailable("history detections", err)
	}

	var names []detectionName
	if err := r.db.SelectContext(ctx, &names, r.db.Rebind(query), args...); err != nil {
		return nil, storage.Classify("history detections", err)
	}
	return names, nil
}

// SearchThreats matches a case-insensitive substring of the threat name
func (r *QueryRepository) SearchThreats(ctx context.Context, text string, limit, offset int) ([]entities.Threat, error) {
	threats := []entities.Threat{}
	query := r.db.Rebind(`
		SELECT ` + threatColumns + `
		FROM threats
		WHERE ` + r.db.Fold("name") + ` LIKE ? ESCAPE '\'
		ORDER BY detection_count DESC, name ASC
		LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &threats, query, ContainsPattern(text), limit, offset); err != nil {
		return nil, storage.Classify("search threats", err)
	}
	return threats, nil
}

func (r *QueryRepository) FileByHash(ctx context.Context, hash string) (*entities.File, error) {
	var f entities.File
	query := r.db.Rebind(`
		SELECT id, file_hash, original_name, stored_name, file_size, mime_type, uploaded_by, upload_time
		FROM files WHERE file_hash = ?`)
	if err := r.db.GetContext(ctx, &f, query, hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NotFound("file by hash", "no file with fingerprint %s", hash)
		}
		return nil, storage.Classify("file by hash", err)
	}
	f.UploadedAt = f.UploadedAt.UTC()
	return &f, nil
}

func (r *QueryRepository) DailyRollups(ctx context.Context, limit int) ([]entities.DailyRollup, error) {
	rollups := []entities.DailyRollup{}
	query := r.db.Rebind(`
		SELECT scan_date, total_scans, clean_scans, threats_found, avg_scan_time, unique_threats
		FROM scan_stats_view
		ORDER BY scan_date DESC
		LIMIT ?`)
	if err := r.db.SelectContext(ctx, &rollups, query, limit); err != nil {
		return nil, storage.Classify("daily rollups", err)
	}
	return rollups, nil
}

// DailyThreats reads the per-day breakdown; an empty date means every day
func (r *QueryRepository) DailyThreats(ctx context.Context, date string, limit int) ([]entities.DailyThreat, error) {
	query := `SELECT scan_date, threat_name, threat_type, severity, detections FROM daily_threats_view`
	var args []interface{}
	if date != "" {
		query += ` WHERE scan_date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY scan_date DESC, detections DESC, threat_name ASC LIMIT ?`
	args = append(args, limit)

	out := []entities.DailyThreat{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, storage.Classify("daily threats", err)
	}
	return out, nil
}

func (r *QueryRepository) UserActivity(ctx context.Context, limit int) ([]entities.UserActivity, error) {
	var rows []struct {
		UserID         int64          `db:"user_id"`
		Username       string         `db:"username"`
		Role           string         `db:"role"`
		FilesUploaded  int64          `db:"files_uploaded"`
		ScansPerformed int64          `db:"scans_performed"`
		TotalSize      int64          `db:"total_upload_size"`
		LastScan       sql.NullString `db:"last_scan"`
	}
	query := r.db.Rebind(`
		SELECT user_id, username, role, files_uploaded, scans_performed, total_upload_size, last_scan
		FROM user_activity_view
		ORDER BY scans_performed DESC, username ASC
		LIMIT ?`)
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, storage.Classify("user activity", err)
	}

	out := make([]entities.UserActivity, len(rows))
	for i, row := range rows {
		last, err := storage.NullTime(row.LastScan)
		if err != nil {
			return nil, errs.Unavailable("user activity", err)
		}
		out[i] = entities.UserActivity{
			UserID:         row.UserID,
			Username:       row.Username,
			Role:           row.Role,
			FilesUploaded:  row.FilesUploaded,
			ScansPerformed: row.ScansPerformed,
			TotalSize:      row.TotalSize,
			LastScan:       last,
		}
	}
	return out, nil
}

// ContainsPattern builds a LIKE pattern matching text anywhere, case-folded,
// with wildcard characters in text taken literally
func ContainsPattern(text string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(text))
	return "%" + escaped + "%"
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
