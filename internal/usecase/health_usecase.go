package usecase

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
)

// HealthUseCase reports whether the scan-result store can take writes and
// answer queries, and whether the backup destination is reachable
type HealthUseCase struct {
	repo     repository.HealthRepository
	version  string
	timeout  time.Duration
	started  time.Time
	draining atomic.Bool
	logger   *zap.Logger
}

func NewHealthUseCase(repo repository.HealthRepository, version string, timeout time.Duration, logger *zap.Logger) *HealthUseCase {
	return &HealthUseCase{
		repo:    repo,
		version: version,
		timeout: timeout,
		started: time.Now(),
		logger:  logger.Named("health"),
	}
}

// GetHealth runs every check under one deadline and derives the overall status
func (h *HealthUseCase) GetHealth(ctx context.Context) (*entities.HealthCheck, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	health, err := h.repo.CheckHealth(ctx)
	if err != nil {
		return nil, err
	}

	health.Version = h.version
	health.Uptime = time.Since(h.started)
	health.Timestamp = time.Now().UTC()
	health.Status = entities.OverallStatus(health.Checks)

	if health.Status != entities.HealthStatusUp {
		h.logger.Warn("degraded", zap.String("status", string(health.Status)), zap.Strings("failing", failing(health.Checks)))
	}
	return health, nil
}

// GetReadiness is false while draining or when the database or schema is down
func (h *HealthUseCase) GetReadiness(ctx context.Context) (bool, string) {
	if h.draining.Load() {
		return false, "shutting down"
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.repo.IsReady(ctx)
}

// GetLiveness stays true while draining so in-flight writes can finish
func (h *HealthUseCase) GetLiveness(context.Context) bool {
	return true
}

// Drain marks the service not ready ahead of shutdown
func (h *HealthUseCase) Drain() {
	if h.draining.CompareAndSwap(false, true) {
		h.logger.Info("draining")
	}
}

func failing(checks map[string]entities.CheckResult) []string {
	names := make([]string, 0, len(checks))
	for name, check := range checks {
		if check.Status != entities.HealthStatusUp {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
