package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/metrics"
	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

// Aggregator materialises daily statistics and composes the dashboard
type Aggregator struct {
	repo    repository.StatisticsRepository
	cfg     config.ServiceConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewAggregator creates a new aggregator. timeout bounds each refresh once it
// is detached from the caller.
func NewAggregator(repo repository.StatisticsRepository, cfg config.ServiceConfig, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Aggregator{
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		logger:  logger.Named("aggregator"),
		timeout: timeout,
		now:     time.Now,
	}
}

// RefreshDailyStatistics recomputes the UTC day containing date from the
// source rows and overwrites the stored row
func (a *Aggregator) RefreshDailyStatistics(ctx context.Context, date time.Time) (*entities.Statistics, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	stats, err := a.repo.RefreshDay(ctx, date)
	a.metrics.StatisticsRefreshed(err)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("statistics refreshed",
		zap.String("date", stats.Date),
		zap.Int64("total_scans", stats.TotalScans),
		zap.Int64("threats_found", stats.ThreatsFound))
	return stats, nil
}

// RefreshRecent refreshes today and yesterday. A write landing just before
// midnight may have refreshed the wrong side of the boundary, so both are
// recomputed.
func (a *Aggregator) RefreshRecent(ctx context.Context) error {
	today := a.now().UTC()
	for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
		if _, err := a.RefreshDailyStatistics(ctx, day); err != nil {
			return err
		}
	}
	return nil
}

// GetDashboardSnapshot reads the dashboard parts concurrently
func (a *Aggregator) GetDashboardSnapshot(ctx context.Context) (*entities.DashboardStats, error) {
	a.metrics.Query("dashboard")

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	snapshot := &entities.DashboardStats{GeneratedAt: a.now().UTC()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		totals, err := a.repo.DashboardTotals(gctx)
		snapshot.Totals = totals
		return err
	})
	g.Go(func() error {
		threats, err := a.repo.ThreatTotals(gctx)
		snapshot.Threats = threats
		return err
	})
	g.Go(func() error {
		daily, err := a.repo.RecentStatistics(gctx, a.cfg.DashboardDays)
		snapshot.Daily = daily
		return err
	})
	g.Go(func() error {
		top, err := a.repo.TopThreats(gctx, a.cfg.TopThreats)
		snapshot.TopThreats = top
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if snapshot.Daily == nil {
		snapshot.Daily = []entities.Statistics{}
	}
	if snapshot.TopThreats == nil {
		snapshot.TopThreats = []entities.Threat{}
	}
	return snapshot, nil
}

// GetStatistics returns the stored row for a date
func (a *Aggregator) GetStatistics(ctx context.Context, date string) (*entities.Statistics, error) {
	if _, err := time.Parse(entities.DateLayout, date); err != nil {
		return nil, invalidDate(date)
	}
	return a.repo.GetStatistics(ctx, date)
}
