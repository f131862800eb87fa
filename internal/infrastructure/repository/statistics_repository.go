package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
)

// TopThreatsPerDay bounds the per-day snapshot stored with each statistics row
const TopThreatsPerDay = 5

// StatisticsRepository materialises daily rollups
type StatisticsRepository struct {
	db *storage.DB
}

var _ repository.StatisticsRepository = (*StatisticsRepository)(nil)

// NewStatisticsRepository creates a new statistics repository
func NewStatisticsRepository(db *storage.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

type statisticsRow struct {
	Date         string  `db:"date"`
	TotalScans   int64   `db:"total_scans"`
	CleanFiles   int64   `db:"clean_files"`
	ThreatsFound int64   `db:"threats_found"`
	AvgScanTime  float64 `db:"avg_scan_time"`
	TopThreats   string  `db:"top_threats"`
}

func (r statisticsRow) entity() (entities.Statistics, error) {
	s := entities.Statistics{
		Date:         r.Date,
		TotalScans:   r.TotalScans,
		CleanFiles:   r.CleanFiles,
		ThreatsFound: r.ThreatsFound,
		AvgScanTime:  r.AvgScanTime,
		TopThreats:   []entities.TopThreat{},
	}
	if r.TopThreats != "" {
		if err := json.Unmarshal([]byte(r.TopThreats), &s.TopThreats); err != nil {
			return s, fmt.Errorf("decode top threats for %s: %w", r.Date, err)
		}
	}
	s.ThreatPercentage = ThreatPercentage(s.ThreatsFound, s.TotalScans)
	return s, nil
}

// ThreatPercentage is threats/total*100 rounded to two decimals, 0 for an empty day
func ThreatPercentage(threats, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(threats)/float64(total)*10000) / 100
}

// RefreshDay recomputes the row from source tables and overwrites the stored
// one. Both steps share a transaction, so the row is replaced by a complete
// recomputation or left as it was. Refreshes of the same date are serialised,
// so the last one to commit counted every scan committed before it started.
func (r *StatisticsRepository) RefreshDay(ctx context.Context, dayStart time.Time) (*entities.Statistics, error) {
	start, end := storage.DayBounds(dayStart)
	row := statisticsRow{Date: start.Format(entities.DateLayout)}

	err := r.db.WithTx(ctx, "refresh statistics", nil, func(tx *sqlx.Tx) error {
		if err := r.db.LockKey(ctx, tx, "statistics:"+row.Date); err != nil {
			return err
		}

		counts := tx.Rebind(`
			SELECT COUNT(*) AS total_scans,
				COALESCE(SUM(CASE WHEN threat_level = 0 THEN 1 ELSE 0 END), 0) AS clean_files,
				COALESCE(SUM(CASE WHEN threat_level > 0 THEN 1 ELSE 0 END), 0) AS threats_found,
				COALESCE(AVG(scan_duration), 0.0) AS avg_scan_time
			FROM scans
			WHERE started_at >= ? AND started_at < ? AND status = 'completed'`)
		if err := tx.GetContext(ctx, &row, counts, start, end); err != nil {
			return fmt.Errorf("count scans: %w", err)
		}

		top := []entities.TopThreat{}
		topQuery := tx.Rebind(`
			SELECT t.name AS name, COUNT(*) AS count
			FROM detections d
			JOIN scans s ON s.id = d.scan_id
			JOIN threats t ON t.id = d.threat_id
			WHERE s.started_at >= ? AND s.started_at < ? AND s.status = 'completed'
			GROUP BY t.name
			ORDER BY count DESC, t.name ASC
			LIMIT ?`)
		if err := tx.SelectContext(ctx, &top, topQuery, start, end, TopThreatsPerDay); err != nil {
			return fmt.Errorf("top threats: %w", err)
		}
		encoded, err := json.Marshal(top)
		if err != nil {
			return err
		}
		row.TopThreats = string(encoded)

		upsert := tx.Rebind(`
			INSERT INTO statistics (date, total_scans, clean_files, threats_found, avg_scan_time, top_threats)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (date) DO UPDATE SET
				total_scans = excluded.total_scans,
				clean_files = excluded.clean_files,
				threats_found = excluded.threats_found,
				avg_scan_time = excluded.avg_scan_time,
				top_threats = excluded.top_threats`)
		_, err = tx.ExecContext(ctx, upsert,
			row.Date, row.TotalScans, row.CleanFiles, row.ThreatsFound, row.AvgScanTime, row.TopThreats)
		return err
	})
	if err != nil {
		return nil, err
	}

	stats, err := row.entity()
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

const statisticsColumns = `CAST(date AS TEXT) AS date, total_scans, clean_files, threats_found, avg_scan_time, top_threats`

func (r *StatisticsRepository) GetStatistics(ctx context.Context, date string) (*entities.Statistics, error) {
	var row statisticsRow
	query := r.db.Rebind(`SELECT ` + statisticsColumns + ` FROM statistics WHERE date = ?`)
	if err := r.db.GetContext(ctx, &row, query, date); err != nil {
		return nil, storage.Classify("get statistics", err)
	}

	stats, err := row.entity()
	if err != nil {
		return nil, errs.Unavailable("get statistics", err)
	}
	return &stats, nil
}

// RecentStatistics returns the newest n rows, oldest first
func (r *StatisticsRepository) RecentStatistics(ctx context.Context, n int) ([]entities.Statistics, error) {
	var rows []statisticsRow
	query := r.db.Rebind(`SELECT ` + statisticsColumns + ` FROM statistics ORDER BY date DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &rows, query, n); err != nil {
		return nil, storage.Classify("recent statistics", err)
	}

	out := make([]entities.Statistics, len(rows))
	for i, row := range rows {
		stats, err := row.entity()
		if err != nil {
			return nil, errs.Unavailable("recent statistics", err)
		}
		out[len(rows)-1-i] = stats
	}
	return out, nil
}

func (r *StatisticsRepository) DashboardTotals(ctx context.Context) (entities.DashboardTotals, error) {
	var totals struct {
		TotalFiles int64 `db:"total_files"`
		TotalUsers int64 `db:"total_users"`
		TotalSize  int64 `db:"total_size"`
	}
	err := r.db.GetContext(ctx, &totals, `
		SELECT COUNT(*) AS total_files,
			COUNT(DISTINCT uploaded_by) AS total_users,
			COALESCE(SUM(file_size), 0) AS total_size
		FROM files`)
	if err != nil {
		return entities.DashboardTotals{}, storage.Classify("dashboard totals", err)
	}
	return entities.DashboardTotals(totals), nil
}

func (r *StatisticsRepository) ThreatTotals(ctx context.Context) (entities.ThreatTotals, error) {
	var totals struct {
		TotalThreats int64   `db:"total_threats"`
		AvgSeverity  float64 `db:"avg_severity"`
		MaxSeverity  int     `db:"max_severity"`
	}
	err := r.db.GetContext(ctx, &totals, `
		SELECT COUNT(*) AS total_threats,
			COALESCE(AVG(CAST(severity AS DOUBLE PRECISION)), 0.0) AS avg_severity,
			COALESCE(MAX(severity), 0) AS max_severity
		FROM threats`)
	if err != nil {
		return entities.ThreatTotals{}, storage.Classify("threat totals", err)
	}
	return entities.ThreatTotals{
		TotalThreats: totals.TotalThreats,
		AvgSeverity:  math.Round(totals.AvgSeverity*100) / 100,
		MaxSeverity:  totals.MaxSeverity,
	}, nil
}

func (r *StatisticsRepository) TopThreats(ctx context.Context, limit int) ([]entities.Threat, error) {
	threats := []entities.Threat{}
	query := r.db.Rebind(`SELECT ` + threatColumns + ` FROM threats ORDER BY detection_count DESC, name ASC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &threats, query, limit); err != nil {
		return nil, storage.Classify("top threats", err)
	}
	return threats, nil
}

const threatColumns = `id, name, type, severity, description, first_seen, last_seen, detection_count`
