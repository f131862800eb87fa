package repository

import (
	"context"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// HealthRepository defines the interface for health check operations
type HealthRepository interface {
	// CheckHealth performs a comprehensive health check
	CheckHealth(ctx context.Context) (*entities.HealthCheck, error)

	// CheckDatabase verifies database connectivity and pool health
	CheckDatabase(ctx context.Context) entities.CheckResult

	// CheckSchema verifies the tables and views exist
	CheckSchema(ctx context.Context) entities.CheckResult

	// CheckStorage verifies the backup destination is reachable
	CheckStorage(ctx context.Context) entities.CheckResult

	// GetSystemInfo retrieves process and pool information
	GetSystemInfo(ctx context.Context) (*entities.SystemInfo, error)

	// IsReady checks if the service is ready to handle requests
	IsReady(ctx context.Context) (bool, string)
}
