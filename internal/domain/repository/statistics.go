package repository

import (
	"context"
	"time"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// StatisticsRepository materialises and reads the daily rollups
type StatisticsRepository interface {
	// RefreshDay recomputes the statistics row for the UTC day starting at
	// dayStart and overwrites any existing row for that date
	RefreshDay(ctx context.Context, dayStart time.Time) (*entities.Statistics, error)

	// GetStatistics returns the stored row for a date (YYYY-MM-DD)
	GetStatistics(ctx context.Context, date string) (*entities.Statistics, error)

	// RecentStatistics returns up to n most recent rows ordered by date ascending
	RecentStatistics(ctx context.Context, n int) ([]entities.Statistics, error)

	// DashboardTotals counts distinct files, uploaders and stored bytes
	DashboardTotals(ctx context.Context) (entities.DashboardTotals, error)

	// ThreatTotals summarises the threat catalogue
	ThreatTotals(ctx context.Context) (entities.ThreatTotals, error)

	// TopThreats returns the most detected threats
	TopThreats(ctx context.Context, limit int) ([]entities.Threat, error)
}
