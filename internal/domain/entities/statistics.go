package entities

import "time"

// DateLayout is the calendar date format used for statistics keys
const DateLayout = "2006-01-02"

// TopThreat is one entry of a day's top-threat snapshot
type TopThreat struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Statistics is the daily rollup row, one per calendar date
type Statistics struct {
	Date             string      `json:"date"`
	TotalScans       int64       `json:"total_scans"`
	CleanFiles       int64       `json:"clean_files"`
	ThreatsFound     int64       `json:"threats_found"`
	AvgScanTime      float64     `json:"avg_scan_time"`
	TopThreats       []TopThreat `json:"top_threats"`
	ThreatPercentage float64     `json:"threat_percentage"`
}

// DashboardTotals are all-time file and uploader counts
type DashboardTotals struct {
	TotalFiles int64 `json:"total_files"`
	TotalUsers int64 `json:"total_users"`
	TotalSize  int64 `json:"total_size"`
}

// ThreatTotals summarise the threat catalogue
type ThreatTotals struct {
	TotalThreats int64   `json:"total_threats"`
	AvgSeverity  float64 `json:"avg_severity"`
	MaxSeverity  int     `json:"max_severity"`
}

// DashboardStats is the composed dashboard snapshot
type DashboardStats struct {
	Totals      DashboardTotals `json:"totals"`
	Threats     ThreatTotals    `json:"threats"`
	Daily       []Statistics    `json:"daily"`
	TopThreats  []Threat        `json:"top_threats"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// DailyRollup is a row of the per-day scan/threat view
type DailyRollup struct {
	Date          string  `db:"scan_date" json:"date"`
	TotalScans    int64   `db:"total_scans" json:"total_scans"`
	CleanScans    int64   `db:"clean_scans" json:"clean_scans"`
	ThreatsFound  int64   `db:"threats_found" json:"threats_found"`
	AvgScanTime   float64 `db:"avg_scan_time" json:"avg_scan_time"`
	UniqueThreats int64   `db:"unique_threats" json:"unique_threats"`
}

// DailyThreat is a row of the per-day named-threat breakdown
type DailyThreat struct {
	Date       string `db:"scan_date" json:"date"`
	ThreatName string `db:"threat_name" json:"threat_name"`
	ThreatType string `db:"threat_type" json:"threat_type"`
	Severity   int    `db:"severity" json:"severity"`
	Detections int64  `db:"detections" json:"detections"`
}

// UserActivity is a row of the per-user activity view
type UserActivity struct {
	UserID         int64      `json:"user_id"`
	Username       string     `json:"username"`
	Role           string     `json:"role"`
	FilesUploaded  int64      `json:"files_uploaded"`
	ScansPerformed int64      `json:"scans_performed"`
	TotalSize      int64      `json:"total_upload_size"`
	LastScan       *time.Time `json:"last_scan,omitempty"`
}
