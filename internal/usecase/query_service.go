package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/metrics"
	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

// QueryService answers history, search and rollup reads
type QueryService struct {
	repo    repository.QueryRepository
	cfg     config.ServiceConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewQueryService creates a new query service. Reads are bounded by timeout
// and still honour the caller's cancellation.
func NewQueryService(repo repository.QueryRepository, cfg config.ServiceConfig, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *QueryService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QueryService{
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		logger:  logger.Named("query"),
		timeout: timeout,
	}
}

// pageSize applies the default to a missing limit and clamps to the maximum
func (s *QueryService) pageSize(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return limit
}

// GetHistory lists scans most recent first
func (s *QueryService) GetHistory(ctx context.Context, limit, offset int, filter entities.HistoryFilter) ([]entities.ScanHistoryRow, error) {
	const op = "history"

	if offset < 0 {
		return nil, errs.Constraint(op, "offset must not be negative")
	}
	if lvl := filter.MinThreatLevel; lvl != nil && (*lvl < entities.MinThreatLevel || *lvl > entities.MaxThreatLevel) {
		return nil, errs.Constraint(op, "min threat level %d outside [%d,%d]", *lvl, entities.MinThreatLevel, entities.MaxThreatLevel)
	}
	filter.Text = strings.TrimSpace(filter.Text)

	s.metrics.Query(op)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.History(ctx, s.pageSize(limit), offset, filter)
}

// SearchThreats matches threat names case-insensitively, most detected first.
// Paging follows GetHistory: a non-positive limit means the default page size.
func (s *QueryService) SearchThreats(ctx context.Context, text string, limit, offset int) ([]entities.Threat, error) {
	const op = "search_threats"

	if offset < 0 {
		return nil, errs.Constraint(op, "offset must not be negative")
	}

	s.metrics.Query(op)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.SearchThreats(ctx, strings.TrimSpace(text), s.pageSize(limit), offset)
}

// LookupFile reports whether content with this fingerprint was seen before
func (s *QueryService) LookupFile(ctx context.Context, fingerprint string) (*entities.File, error) {
	fingerprint = strings.ToLower(strings.TrimSpace(fingerprint))
	if !entities.IsFingerprint(fingerprint) {
		return nil, errs.Constraint("lookup file", "fingerprint must be %d hex characters", entities.FingerprintLength)
	}

	s.metrics.Query("lookup_file")
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.FileByHash(ctx, fingerprint)
}

func (s *QueryService) DailyRollups(ctx context.Context, limit int) ([]entities.DailyRollup, error) {
	s.metrics.Query("daily_rollups")
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.DailyRollups(ctx, s.pageSize(limit))
}

// DailyThreats reads the per-day threat breakdown; an empty date means all days
func (s *QueryService) DailyThreats(ctx context.Context, date string, limit int) ([]entities.DailyThreat, error) {
	if date != "" {
		if _, err := time.Parse(entities.DateLayout, date); err != nil {
			return nil, invalidDate(date)
		}
	}

	s.metrics.Query("daily_threats")
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.DailyThreats(ctx, date, s.pageSize(limit))
}

func (s *QueryService) UserActivity(ctx context.Context, limit int) ([]entities.UserActivity, error) {
	s.metrics.Query("user_activity")
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.UserActivity(ctx, s.pageSize(limit))
}

func invalidDate(date string) error {
	return errs.Constraint("parse date", "date %q is not in YYYY-MM-DD form", date)
}
