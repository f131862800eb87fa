package entities

import "time"

// BackupStatus defines the status of a backup operation
type BackupStatus string

const (
	BackupStatusInProgress BackupStatus = "in_progress"
	BackupStatusCompleted  BackupStatus = "completed"
	BackupStatusFailed     BackupStatus = "failed"
)

// Backup describes one exported snapshot of the scan-result store
type Backup struct {
	ID           string         `json:"id"`
	Status       BackupStatus   `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Size         int64          `json:"size"`
	RowCounts    map[string]int `json:"row_counts"`
	Location     string         `json:"location"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     BackupMeta     `json:"metadata"`
}

// BackupMeta contains integrity metadata for a backup
type BackupMeta struct {
	Checksum    string `json:"checksum"`
	Compression string `json:"compression"`
	Target      string `json:"target"`
}

// Snapshot is the serialised content of a backup
type Snapshot struct {
	Version    int          `json:"version"`
	TakenAt    time.Time    `json:"taken_at"`
	Users      []User       `json:"users"`
	Files      []File       `json:"files"`
	Scans      []Scan       `json:"scans"`
	Threats    []Threat     `json:"threats"`
	Detections []Detection  `json:"detections"`
	Statistics []Statistics `json:"statistics"`
}

// RowCounts returns the number of rows per table in the snapshot
func (s *Snapshot) RowCounts() map[string]int {
	return map[string]int{
		"users":      len(s.Users),
		"files":      len(s.Files),
		"scans":      len(s.Scans),
		"threats":    len(s.Threats),
		"detections": len(s.Detections),
		"statistics": len(s.Statistics),
	}
}
