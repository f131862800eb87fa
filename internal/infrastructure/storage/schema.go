package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Tables lists the durable tables in dependency order
var Tables = []string{"users", "files", "scans", "threats", "detections", "statistics"}

// Views lists the derived read-only projections
var Views = []string{"scan_stats_view", "user_activity_view", "daily_threats_view"}

var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{id}},
		username VARCHAR(50) NOT NULL UNIQUE,
		email VARCHAR(100) UNIQUE,
		role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		max_file_size BIGINT NOT NULL DEFAULT 104857600 CHECK (max_file_size > 0),
		max_files_per_day INTEGER NOT NULL DEFAULT 100 CHECK (max_files_per_day >= 0),
		max_concurrent_scans INTEGER NOT NULL DEFAULT 5 CHECK (max_concurrent_scans >= 0),
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS files (
		id {{id}},
		file_hash CHAR(64) NOT NULL UNIQUE,
		original_name VARCHAR(255) NOT NULL,
		stored_name VARCHAR(100) NOT NULL UNIQUE,
		file_size BIGINT NOT NULL CHECK (file_size > 0),
		mime_type VARCHAR(100) NOT NULL DEFAULT 'application/octet-stream',
		uploaded_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		upload_time {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scans (
		id {{id}},
		file_id BIGINT NOT NULL REFERENCES files(id),
		scan_type VARCHAR(30) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'failed')),
		threat_level INTEGER NOT NULL DEFAULT 0 CHECK (threat_level BETWEEN 0 AND 10),
		detection_count INTEGER NOT NULL DEFAULT 0 CHECK (detection_count >= 0),
		scan_duration DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (scan_duration >= 0),
		started_at {{ts}} NOT NULL,
		completed_at {{ts}},
		CHECK (completed_at IS NULL OR completed_at >= started_at)
	)`,
	`CREATE TABLE IF NOT EXISTS threats (
		id {{id}},
		name VARCHAR(100) NOT NULL UNIQUE,
		type VARCHAR(50) NOT NULL,
		severity INTEGER NOT NULL CHECK (severity BETWEEN 1 AND 10),
		description TEXT NOT NULL DEFAULT '',
		first_seen {{ts}} NOT NULL,
		last_seen {{ts}} NOT NULL,
		detection_count BIGINT NOT NULL DEFAULT 1 CHECK (detection_count >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS detections (
		id {{id}},
		scan_id BIGINT NOT NULL REFERENCES scans(id),
		threat_id BIGINT NOT NULL REFERENCES threats(id),
		engine_name VARCHAR(50) NOT NULL,
		detection_name VARCHAR(100) NOT NULL,
		confidence DOUBLE PRECISION NOT NULL CHECK (confidence BETWEEN 0 AND 1),
		details TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS statistics (
		id {{id}},
		date DATE NOT NULL UNIQUE,
		total_scans BIGINT NOT NULL DEFAULT 0 CHECK (total_scans >= 0),
		clean_files BIGINT NOT NULL DEFAULT 0 CHECK (clean_files >= 0),
		threats_found BIGINT NOT NULL DEFAULT 0 CHECK (threats_found >= 0),
		avg_scan_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		top_threats TEXT NOT NULL DEFAULT '[]',
		CHECK (threats_found <= total_scans),
		CHECK (clean_files + threats_found = total_scans)
	)`,
}

var indexDDL = []string{
	`CREATE INDEX IF NOT EXISTS idx_files_upload_time ON files(upload_time)`,
	`CREATE INDEX IF NOT EXISTS idx_files_uploaded_by ON files(uploaded_by)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_file_id ON scans(file_id)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans(started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_threat_level ON scans(threat_level)`,
	`CREATE INDEX IF NOT EXISTS idx_detections_scan ON detections(scan_id)`,
	`CREATE INDEX IF NOT EXISTS idx_detections_threat ON detections(threat_id)`,
	`CREATE INDEX IF NOT EXISTS idx_threats_detection_count ON threats(detection_count DESC)`,
}

// Join fan-out would double count scans, so each aggregate is computed on
// its own grain before joining.
var viewDDL = []string{
	`{{view}} scan_stats_view AS
	SELECT a.scan_date, a.total_scans, a.clean_scans, a.threats_found, a.avg_scan_time,
		COALESCE(u.unique_threats, 0) AS unique_threats
	FROM (
		SELECT CAST(DATE(started_at) AS TEXT) AS scan_date,
			COUNT(*) AS total_scans,
			SUM(CASE WHEN threat_level = 0 THEN 1 ELSE 0 END) AS clean_scans,
			SUM(CASE WHEN threat_level > 0 THEN 1 ELSE 0 END) AS threats_found,
			AVG(scan_duration) AS avg_scan_time
		FROM scans
		WHERE completed_at IS NOT NULL
		GROUP BY DATE(started_at)
	) a
	LEFT JOIN (
		SELECT CAST(DATE(s.started_at) AS TEXT) AS scan_date,
			COUNT(DISTINCT d.threat_id) AS unique_threats
		FROM scans s
		JOIN detections d ON d.scan_id = s.id
		WHERE s.completed_at IS NOT NULL
		GROUP BY DATE(s.started_at)
	) u ON u.scan_date = a.scan_date`,
	`{{view}} user_activity_view AS
	SELECT u.id AS user_id, u.username, u.role,
		COUNT(DISTINCT f.id) AS files_uploaded,
		COUNT(s.id) AS scans_performed,
		COALESCE((SELECT SUM(f2.file_size) FROM files f2 WHERE f2.uploaded_by = u.id), 0) AS total_upload_size,
		CAST(MAX(s.started_at) AS TEXT) AS last_scan
	FROM users u
	LEFT JOIN files f ON f.uploaded_by = u.id
	LEFT JOIN scans s ON s.file_id = f.id
	GROUP BY u.id, u.username, u.role`,
	`{{view}} daily_threats_view AS
	SELECT CAST(DATE(s.started_at) AS TEXT) AS scan_date,
		t.name AS threat_name, t.type AS threat_type, t.severity,
		COUNT(*) AS detections
	FROM detections d
	JOIN scans s ON s.id = d.scan_id
	JOIN threats t ON t.id = d.threat_id
	GROUP BY DATE(s.started_at), t.name, t.type, t.severity`,
}

func (db *DB) replacer() *strings.Replacer {
	if db.dialect == DialectPostgres {
		return strings.NewReplacer(
			"{{id}}", "BIGSERIAL PRIMARY KEY",
			"{{ts}}", "TIMESTAMPTZ",
			"{{view}}", "CREATE OR REPLACE VIEW",
		)
	}
	return strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TIMESTAMP",
		"{{view}}", "CREATE VIEW IF NOT EXISTS",
	)
}

// Migrate creates tables, indexes and views. Running it against an existing
// schema is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	r := db.replacer()

	err := db.WithTx(ctx, "migrate", nil, func(tx *sqlx.Tx) error {
		for _, group := range [][]string{tableDDL, indexDDL, viewDDL} {
			for _, stmt := range group {
				if _, err := tx.ExecContext(ctx, r.Replace(stmt)); err != nil {
					return fmt.Errorf("%s: %w", firstLine(stmt), err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.Info("schema ready",
		zap.Int("tables", len(Tables)),
		zap.Int("views", len(Views)))
	return nil
}

// MissingObjects returns the tables and views that do not exist
func (db *DB) MissingObjects(ctx context.Context) ([]string, error) {
	var query string
	if db.dialect == DialectPostgres {
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema()`
	} else {
		query = `SELECT name FROM sqlite_master WHERE type IN ('table', 'view')`
	}

	var names []string
	if err := db.SelectContext(ctx, &names, query); err != nil {
		return nil, Classify("schema objects", err)
	}

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	var missing []string
	for _, group := range [][]string{Tables, Views} {
		for _, name := range group {
			if !present[name] {
				missing = append(missing, name)
			}
		}
	}
	return missing, nil
}

func firstLine(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		stmt = stmt[:i]
	}
	return strings.TrimSuffix(strings.TrimSpace(stmt), "(")
}
