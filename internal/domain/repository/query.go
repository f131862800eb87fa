package repository

import (
	"context"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// QueryRepository answers read-only history and search requests
type QueryRepository interface {
	// History lists scans most recent first
	History(ctx context.Context, limit, offset int, filter entities.HistoryFilter) ([]entities.ScanHistoryRow, error)

	// SearchThreats matches threat names case-insensitively, one page at a time
	SearchThreats(ctx context.Context, text string, limit, offset int) ([]entities.Threat, error)

	// FileByHash looks a file up by content fingerprint
	FileByHash(ctx context.Context, hash string) (*entities.File, error)

	// DailyRollups reads the per-day scan view
	DailyRollups(ctx context.Context, limit int) ([]entities.DailyRollup, error)

	// DailyThreats reads the per-day threat breakdown, optionally for one date
	DailyThreats(ctx context.Context, date string, limit int) ([]entities.DailyThreat, error)

	// UserActivity reads the per-user activity view
	UserActivity(ctx context.Context, limit int) ([]entities.UserActivity, error)
}
