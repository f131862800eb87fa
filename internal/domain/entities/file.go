package entities

import (
	"strings"
	"time"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
)

// FingerprintLength is the hex length of a SHA-256 content fingerprint
const FingerprintLength = 64

// File represents a unique uploaded artifact, keyed by content
type File struct {
	ID           int64     `db:"id" json:"id"`
	FileHash     string    `db:"file_hash" json:"file_hash"`
	OriginalName string    `db:"original_name" json:"original_name"`
	StoredName   string    `db:"stored_name" json:"stored_name"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	UploadedBy   *int64    `db:"uploaded_by" json:"uploaded_by,omitempty"`
	UploadedAt   time.Time `db:"upload_time" json:"upload_time"`
}

// FileMetadata is what the caller knows about an artifact before it is stored
type FileMetadata struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	Size        int64  `json:"size"`
	MimeType    string `json:"mime_type,omitempty"`
	UploadedBy  *int64 `json:"uploaded_by,omitempty"`
}

// Validate checks the metadata and fills in defaults
func (m *FileMetadata) Validate() error {
	const op = "file.validate"

	if !IsFingerprint(m.Fingerprint) {
		return errs.Constraint(op, "fingerprint must be %d lowercase hex characters", FingerprintLength)
	}
	if m.Size <= 0 {
		return errs.Constraint(op, "file size must be positive, got %d", m.Size)
	}
	if m.Name == "" {
		return errs.Constraint(op, "file name cannot be empty")
	}
	if len(m.Name) > 255 {
		return errs.Constraint(op, "file name cannot exceed 255 characters")
	}
	if m.MimeType == "" {
		m.MimeType = "application/octet-stream"
	}
	return nil
}

// IsFingerprint reports whether s looks like a SHA-256 hex digest
func IsFingerprint(s string) bool {
	if len(s) != FingerprintLength {
		return false
	}
	return strings.Trim(s, "0123456789abcdef") == ""
}

// PurgeResult reports what a retention pass removed
type PurgeResult struct {
	Cutoff     time.Time `json:"cutoff"`
	Files      int64     `json:"files"`
	Scans      int64     `json:"scans"`
	Detections int64     `json:"detections"`
}
