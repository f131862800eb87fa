package entities

import "time"

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an uploader identity. The core stores references to users and
// never authenticates them.
type User struct {
	ID                 int64     `db:"id" json:"id"`
	Username           string    `db:"username" json:"username"`
	Email              string    `db:"email" json:"email,omitempty"`
	Role               string    `db:"role" json:"role"`
	MaxFileSize        int64     `db:"max_file_size" json:"max_file_size"`
	MaxFilesPerDay     int       `db:"max_files_per_day" json:"max_files_per_day"`
	MaxConcurrentScans int       `db:"max_concurrent_scans" json:"max_concurrent_scans"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
