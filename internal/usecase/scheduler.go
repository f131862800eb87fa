package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

// RecentRefresher recomputes the most recent statistics rows
type RecentRefresher interface {
	RefreshRecent(ctx context.Context) error
}

// Purger applies the retention window
type Purger interface {
	PurgeDays(ctx context.Context, days int) (*entities.PurgeResult, error)
}

// BackupCreator takes one backup
type BackupCreator interface {
	CreateBackup(ctx context.Context) (*entities.Backup, error)
}

// Scheduler runs periodic maintenance: statistics refresh, retention and
// backups. Each job runs on its own ticker; a slow job delays only itself.
type Scheduler struct {
	refresher RecentRefresher
	purger    Purger
	backups   BackupCreator
	logger    *zap.Logger

	mu     sync.Mutex
	cfg    config.SchedulerConfig
	backup config.BackupConfig

	reconfigure chan struct{}
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewScheduler creates a scheduler. purger and backups may be nil.
func NewScheduler(refresher RecentRefresher, purger Purger, backups BackupCreator, cfg config.SchedulerConfig, backup config.BackupConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		refresher:   refresher,
		purger:      purger,
		backups:     backups,
		logger:      logger.Named("scheduler"),
		cfg:         cfg,
		backup:      backup,
		reconfigure: make(chan struct{}, 1),
	}
}

// Start launches the loop. It refreshes recent statistics once immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
}

// Stop cancels the loop and waits for the running job to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Update applies new intervals without restarting the loop
func (s *Scheduler) Update(cfg config.SchedulerConfig, backup config.BackupConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.backup = backup
	s.mu.Unlock()

	select {
	case s.reconfigure <- struct{}{}:
	default:
	}
}

func (s *Scheduler) settings() (config.SchedulerConfig, config.BackupConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.backup
}

// a stopped ticker never fires, which disables the job
func newTicker(enabled bool, interval time.Duration) *time.Ticker {
	if !enabled || interval <= 0 {
		t := time.NewTicker(time.Hour)
		t.Stop()
		return t
	}
	return time.NewTicker(interval)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	cfg, backup := s.settings()
	refresh := newTicker(cfg.Enabled, cfg.RefreshInterval)
	retention := newTicker(cfg.Enabled && s.purger != nil, cfg.RetentionInterval)
	backups := newTicker(backup.Enabled && s.backups != nil, backup.Interval)
	defer func() {
		refresh.Stop()
		retention.Stop()
		backups.Stop()
	}()

	if cfg.Enabled {
		s.RunRefresh(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-s.reconfigure:
			refresh.Stop()
			retention.Stop()
			backups.Stop()
			cfg, backup = s.settings()
			refresh = newTicker(cfg.Enabled, cfg.RefreshInterval)
			retention = newTicker(cfg.Enabled && s.purger != nil, cfg.RetentionInterval)
			backups = newTicker(backup.Enabled && s.backups != nil, backup.Interval)
			s.logger.Info("scheduler reconfigured",
				zap.Bool("enabled", cfg.Enabled),
				zap.Duration("refresh_interval", cfg.RefreshInterval),
				zap.Duration("retention_interval", cfg.RetentionInterval),
				zap.Duration("backup_interval", backup.Interval))
		case <-refresh.C:
			s.RunRefresh(ctx)
		case <-retention.C:
			s.RunRetention(ctx)
		case <-backups.C:
			s.RunBackup(ctx)
		}
	}
}

// RunRefresh refreshes today and yesterday
func (s *Scheduler) RunRefresh(ctx context.Context) {
	if err := s.refresher.RefreshRecent(ctx); err != nil {
		s.logger.Warn("periodic statistics refresh failed", zap.Error(err))
	}
}

// RunRetention applies the configured retention window
func (s *Scheduler) RunRetention(ctx context.Context) {
	if s.purger == nil {
		return
	}
	cfg, _ := s.settings()
	if cfg.RetentionDays <= 0 {
		return
	}
	if _, err := s.purger.PurgeDays(ctx, cfg.RetentionDays); err != nil {
		s.logger.Warn("periodic retention failed", zap.Error(err))
	}
}

// RunBackup takes one backup
func (s *Scheduler) RunBackup(ctx context.Context) {
	if s.backups == nil {
		return
	}
	if _, err := s.backups.CreateBackup(ctx); err != nil {
		s.logger.Warn("periodic backup failed", zap.Error(err))
	}
}
