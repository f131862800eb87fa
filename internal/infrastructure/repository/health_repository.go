package repository

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
)

const storePingTimeout = 5 * time.Second

// HealthRepositoryImpl implements HealthRepository
type HealthRepositoryImpl struct {
	db    *storage.DB
	store repository.ObjectStore
}

// NewHealthRepository creates a new health repository. store may be nil
// when backups are disabled.
func NewHealthRepository(db *storage.DB, store repository.ObjectStore) repository.HealthRepository {
	return &HealthRepositoryImpl{
		db:    db,
		store: store,
	}
}

// CheckHealth performs a comprehensive health check
func (h *HealthRepositoryImpl) CheckHealth(ctx context.Context) (*entities.HealthCheck, error) {
	checks := map[string]entities.CheckResult{
		"database": h.CheckDatabase(ctx),
		"schema":   h.CheckSchema(ctx),
		"storage":  h.CheckStorage(ctx),
	}

	systemInfo, err := h.GetSystemInfo(ctx)
	if err != nil {
		systemInfo = &entities.SystemInfo{}
	}

	return &entities.HealthCheck{
		Status:     entities.OverallStatus(checks),
		Checks:     checks,
		SystemInfo: *systemInfo,
	}, nil
}

// CheckDatabase verifies database connectivity and pool health
func (h *HealthRepositoryImpl) CheckDatabase(ctx context.Context) entities.CheckResult {
	if h.db == nil {
		return entities.CheckResult{
			Status:  entities.HealthStatusDown,
			Message: "database handle is nil",
		}
	}

	ctx, cancel := h.db.ReadContext(ctx)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		return entities.CheckResult{
			Status:  entities.HealthStatusDown,
			Message: fmt.Sprintf("database ping failed: %v", storage.Classify("ping", err)),
		}
	}

	stats := h.db.Stats()
	details := map[string]interface{}{
		"dialect":              string(h.db.Dialect()),
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": stats.MaxOpenConnections,
		"wait_count":           stats.WaitCount,
	}

	status := entities.HealthStatusUp
	message := "database is healthy"
	if stats.MaxOpenConnections > 0 && stats.InUse > stats.MaxOpenConnections*8/10 {
		status = entities.HealthStatusPartial
		message = "high database connection usage"
	}

	return entities.CheckResult{
		Status:  status,
		Message: message,
		Details: details,
	}
}

// CheckSchema verifies every table and view exists
func (h *HealthRepositoryImpl) CheckSchema(ctx context.Context) entities.CheckResult {
	if h.db == nil {
		return entities.CheckResult{
			Status:  entities.HealthStatusDown,
			Message: "database handle is nil",
		}
	}

	ctx, cancel := h.db.ReadContext(ctx)
	defer cancel()

	missing, err := h.db.MissingObjects(ctx)
	if err != nil {
		return entities.CheckResult{
			Status:  entities.HealthStatusDown,
			Message: fmt.Sprintf("schema lookup failed: %v", err),
		}
	}
	if len(missing) > 0 {
		return entities.CheckResult{
			Status:  entities.HealthStatusDown,
			Message: "missing schema objects: " + strings.Join(missing, ", "),
			Details: map[string]interface{}{"missing": missing},
		}
	}

	return entities.CheckResult{
		Status:  entities.HealthStatusUp,
		Message: "schema is complete",
		Details: map[string]interface{}{
			"tables": len(storage.Tables),
			"views":  len(storage.Views),
		},
	}
}

// CheckStorage verifies the backup destination. An unreachable destination
// degrades the service without taking it down.
func (h *HealthRepositoryImpl) CheckStorage(ctx context.Context) entities.CheckResult {
	if h.store == nil {
		return entities.CheckResult{
			Status:  entities.HealthStatusUp,
			Message: "backups disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		return entities.CheckResult{
			Status:  entities.HealthStatusPartial,
			Message: fmt.Sprintf("backup destination unreachable: %v", err),
			Details: map[string]interface{}{"target": h.store.Name()},
		}
	}

	return entities.CheckResult{
		Status:  entities.HealthStatusUp,
		Message: "backup destination is reachable",
		Details: map[string]interface{}{"target": h.store.Name()},
	}
}

// GetSystemInfo retrieves process and pool information
func (h *HealthRepositoryImpl) GetSystemInfo(ctx context.Context) (*entities.SystemInfo, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	info := &entities.SystemInfo{
		GoRoutines:     runtime.NumGoroutine(),
		HeapAllocBytes: memStats.HeapAlloc,
	}
	if h.db != nil {
		stats := h.db.Stats()
		info.Dialect = string(h.db.Dialect())
		info.OpenConns = stats.OpenConnections
		info.InUseConns = stats.InUse
	}
	return info, nil
}

// IsReady checks if the service is ready to handle requests
func (h *HealthRepositoryImpl) IsReady(ctx context.Context) (bool, string) {
	if check := h.CheckDatabase(ctx); check.Status == entities.HealthStatusDown {
		return false, check.Message
	}
	if check := h.CheckSchema(ctx); check.Status == entities.HealthStatusDown {
		return false, check.Message
	}
	return true, "service is ready"
}
