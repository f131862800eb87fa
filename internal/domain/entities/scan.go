package entities

import (
	"math"
	"time"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
)

// Threat level and severity domains
const (
	MinThreatLevel = 0
	MaxThreatLevel = 10
	MinSeverity    = 1
	MaxSeverity    = 10
)

// ScanStatus defines the lifecycle state of a scan
type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// ScanRecordID identifies a persisted scan
type ScanRecordID int64

// Scan is one execution of one scanner against one file
type Scan struct {
	ID             ScanRecordID `db:"id" json:"id"`
	FileID         int64        `db:"file_id" json:"file_id"`
	ScanType       string       `db:"scan_type" json:"scan_type"`
	Status         ScanStatus   `db:"status" json:"status"`
	ThreatLevel    int          `db:"threat_level" json:"threat_level"`
	DetectionCount int          `db:"detection_count" json:"detection_count"`
	ScanDuration   float64      `db:"scan_duration" json:"scan_duration"`
	StartedAt      time.Time    `db:"started_at" json:"started_at"`
	CompletedAt    *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}

// DetectionInput is one engine's assertion inside a finding
type DetectionInput struct {
	ThreatName    string  `json:"threat_name"`
	ThreatType    string  `json:"threat_type"`
	Severity      int     `json:"severity"`
	EngineName    string  `json:"engine_name"`
	DetectionName string  `json:"detection_name,omitempty"`
	Confidence    float64 `json:"confidence"`
	Details       string  `json:"details,omitempty"`
}

// ScanFinding is the structured output of one scanner execution
type ScanFinding struct {
	ThreatLevel     int              `json:"threat_level"`
	Detections      []DetectionInput `json:"detections"`
	DurationSeconds float64          `json:"duration_seconds"`
}

// Clean reports whether the finding carries no threat
func (f ScanFinding) Clean() bool {
	return f.ThreatLevel == 0 && len(f.Detections) == 0
}

// Validate enforces the value domains of a finding
func (f ScanFinding) Validate() error {
	const op = "finding.validate"

	if f.ThreatLevel < MinThreatLevel || f.ThreatLevel > MaxThreatLevel {
		return errs.Constraint(op, "threat level %d outside [%d,%d]", f.ThreatLevel, MinThreatLevel, MaxThreatLevel)
	}
	if f.DurationSeconds < 0 || math.IsNaN(f.DurationSeconds) || math.IsInf(f.DurationSeconds, 0) {
		return errs.Constraint(op, "duration %v must be a non-negative number of seconds", f.DurationSeconds)
	}
	for i, d := range f.Detections {
		if d.ThreatName == "" {
			return errs.Constraint(op, "detection %d: threat name is empty", i)
		}
		if d.EngineName == "" {
			return errs.Constraint(op, "detection %d: engine name is empty", i)
		}
		if d.Severity < MinSeverity || d.Severity > MaxSeverity {
			return errs.Constraint(op, "detection %d: severity %d outside [%d,%d]", i, d.Severity, MinSeverity, MaxSeverity)
		}
		// NaN fails both comparisons, so test the accepted range instead
		if !(d.Confidence >= 0 && d.Confidence <= 1) {
			return errs.Constraint(op, "detection %d: confidence %v outside [0,1]", i, d.Confidence)
		}
	}
	return nil
}

// Detection links a scan to a threat
type Detection struct {
	ID            int64     `db:"id" json:"id"`
	ScanID        int64     `db:"scan_id" json:"scan_id"`
	ThreatID      int64     `db:"threat_id" json:"threat_id"`
	EngineName    string    `db:"engine_name" json:"engine_name"`
	DetectionName string    `db:"detection_name" json:"detection_name"`
	Confidence    float64   `db:"confidence" json:"confidence"`
	Details       string    `db:"details" json:"details,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ScanHistoryRow is one scan as presented in the history listing
type ScanHistoryRow struct {
	ScanID         ScanRecordID `json:"scan_id"`
	FileHash       string       `json:"file_hash"`
	FileName       string       `json:"file_name"`
	FileSize       int64        `json:"file_size"`
	Uploader       string       `json:"uploader,omitempty"`
	ScanType       string       `json:"scan_type"`
	Status         ScanStatus   `json:"status"`
	ThreatLevel    int          `json:"threat_level"`
	DetectionCount int          `json:"detection_count"`
	ScanDuration   float64      `json:"scan_duration"`
	StartedAt      time.Time    `json:"started_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	Detections     []string     `json:"detections"`
}

// HistoryFilter narrows a history query. Nil or empty fields impose no restriction.
type HistoryFilter struct {
	MinThreatLevel *int       `json:"min_threat_level,omitempty"`
	DateFrom       *time.Time `json:"date_from,omitempty"`
	Text           string     `json:"text,omitempty"`
}
