package entities

import "time"

// Threat is a named malware or signature class shared across scans
type Threat struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Type           string    `db:"type" json:"type"`
	Severity       int       `db:"severity" json:"severity"`
	Description    string    `db:"description" json:"description,omitempty"`
	FirstSeen      time.Time `db:"first_seen" json:"first_seen"`
	LastSeen       time.Time `db:"last_seen" json:"last_seen"`
	DetectionCount int64     `db:"detection_count" json:"detection_count"`
}

// DefaultThreatType is stored when a detection carries no type
const DefaultThreatType = "unknown"
