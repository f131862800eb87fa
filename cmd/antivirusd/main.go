package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/adapter/handler"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	domainrepo "github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/objectstore"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
	"github.com/akumakusss123/DBT-Antivirus/internal/logging"
	"github.com/akumakusss123/DBT-Antivirus/internal/metrics"
	"github.com/akumakusss123/DBT-Antivirus/internal/scanner"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase"
	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

var version = "dev"

func main() {
	configFile := flag.String("config", "", "Configuration file path (default $DBT_CONFIG or config.yaml)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if err := run(config.ResolvePath(*configFile)); err != nil {
		fmt.Fprintf(os.Stderr, "antivirusd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	manager := config.NewConfigManager()
	cfg, err := manager.Load(configPath)
	if err != nil {
		return err
	}

	logger, level, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting antivirusd",
		zap.String("version", version),
		zap.String("config", configPath),
		zap.String("database", cfg.Database.Type))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	admin, err := users.Ensure(ctx, &entities.User{Username: cfg.Service.AdminUsername, Role: entities.RoleAdmin})
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	logger.Info("admin user ready", zap.Int64("id", admin.ID), zap.String("username", admin.Username))

	var m *metrics.Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(cfg.Metrics.Namespace, reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	var store domainrepo.ObjectStore
	var backups *usecase.BackupUseCase
	if cfg.Backup.Enabled {
		store, err = objectstore.New(cfg.Backup)
		if err != nil {
			return fmt.Errorf("backup target: %w", err)
		}
		backups = usecase.NewBackupUseCase(repository.NewBackupRepository(db), store, m, logger)
	}

	timeout := cfg.Database.StatementTimeout
	aggregator := usecase.NewAggregator(repository.NewStatisticsRepository(db), cfg.Service, timeout, m, logger)
	writer := usecase.NewResultWriter(repository.NewResultRepository(db), aggregator, logger,
		usecase.WithWriteTimeout(timeout), usecase.WithMetrics(m))
	query := usecase.NewQueryService(repository.NewQueryRepository(db), cfg.Service, timeout, m, logger)
	retention := usecase.NewRetention(repository.NewRetentionRepository(db), m, logger)
	health := usecase.NewHealthUseCase(repository.NewHealthRepository(db, store), version, timeout, logger)

	scanners := []scanner.Scanner{scanner.NewHashlist(nil)}
	if cfg.Intake.SignatureScanner {
		scanners = append(scanners, scanner.NewSignature())
	}
	intake := usecase.NewIntake(writer, scanners, cfg.Intake, logger)

	var purger usecase.Purger
	if cfg.Scheduler.RetentionDays > 0 {
		purger = retention
	}
	var backupCreator usecase.BackupCreator
	if backups != nil {
		backupCreator = backups
	}
	scheduler := usecase.NewScheduler(aggregator, purger, backupCreator, cfg.Scheduler, cfg.Backup, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if manager.Path() != "" {
		if _, statErr := os.Stat(manager.Path()); statErr == nil {
			watcher, err := config.NewWatcher(manager, logger)
			if err != nil {
				logger.Warn("config hot reload disabled", zap.Error(err))
			} else {
				watcher.OnChange(func(oldConfig, newConfig *config.Config) {
					if err := logging.SetLevel(level, newConfig.Logging.Level); err != nil {
						logger.Warn("ignoring log level", zap.Error(err))
					}
					scheduler.Update(newConfig.Scheduler, newConfig.Backup)
				})
				watcher.Start()
				defer watcher.Stop()
			}
		}
	}

	gin.SetMode(cfg.Server.Mode)
	engine := handler.Router{
		Scans:      handler.NewScanHandler(writer, intake),
		Queries:    handler.NewQueryHandler(query),
		Statistics: handler.NewStatisticsHandler(aggregator),
		Admin: handler.NewAdminHandler(retention, backups, func() int {
			return manager.GetConfig().Scheduler.RetentionDays
		}),
		Health:         handler.NewHealthHandler(health),
		Metrics:        m,
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		Logger:         logger,
	}.Engine()

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	health.Drain()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}

	// wait for an in-flight refresh, retention pass or backup before closing the pool
	scheduler.Stop()
	logger.Info("stopped")
	return nil
}
