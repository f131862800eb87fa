package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validator provides configuration validation functions
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig performs configuration validation section by section
func (v *Validator) ValidateConfig(config *Config) error {
	if err := v.validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := v.validateDatabaseConfig(&config.Database); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}

	if err := v.validateLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	if err := v.validateServiceConfig(&config.Service); err != nil {
		return fmt.Errorf("service config validation failed: %w", err)
	}

	if err := v.validateSchedulerConfig(&config.Scheduler); err != nil {
		return fmt.Errorf("scheduler config validation failed: %w", err)
	}

	if err := v.validateBackupConfig(&config.Backup); err != nil {
		return fmt.Errorf("backup config validation failed: %w", err)
	}

	if err := v.validateIntakeConfig(&config.Intake); err != nil {
		return fmt.Errorf("intake config validation failed: %w", err)
	}

	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		return fmt.Errorf("metrics config validation failed: path must start with /")
	}

	return nil
}

func (v *Validator) validateServerConfig(config *ServerConfig) error {
	if config.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch config.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server mode: %s", config.Mode)
	}

	if config.ReadTimeout < 0 || config.WriteTimeout < 0 || config.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts cannot be negative")
	}

	return nil
}

func (v *Validator) validateDatabaseConfig(config *DatabaseConfig) error {
	switch config.Type {
	case "sqlite":
		if config.Name == "" {
			return fmt.Errorf("database name cannot be empty for SQLite")
		}

		// Ensure parent directory exists
		if config.Name != ":memory:" {
			dbDir := filepath.Dir(config.Name)
			if dbDir != "." && dbDir != "/" {
				if err := os.MkdirAll(dbDir, 0755); err != nil {
					return fmt.Errorf("failed to create database directory: %w", err)
				}
			}
		}
	case "postgres":
		if config.Host == "" {
			return fmt.Errorf("database host cannot be empty for postgres")
		}

		if config.Port <= 0 || config.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", config.Port)
		}

		if config.Name == "" || config.User == "" {
			return fmt.Errorf("database name and user are required for postgres")
		}
	default:
		return fmt.Errorf("invalid database type: %s, must be sqlite or postgres", config.Type)
	}

	if config.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be positive")
	}

	if config.MaxIdleConns < 0 {
		return fmt.Errorf("max idle connections cannot be negative")
	}

	if config.MaxIdleConns > config.MaxOpenConns {
		return fmt.Errorf("max idle connections cannot be greater than max open connections")
	}

	if config.StatementTimeout <= 0 {
		return fmt.Errorf("statement timeout must be positive")
	}

	return nil
}

func (v *Validator) validateLoggingConfig(config *LoggingConfig) error {
	switch config.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", config.Level)
	}

	switch config.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s, must be json or console", config.Format)
	}

	switch config.Output {
	case "stdout", "stderr":
	case "file":
		if config.File == "" {
			return fmt.Errorf("log file path cannot be empty when output is file")
		}
	default:
		return fmt.Errorf("invalid log output: %s", config.Output)
	}

	return nil
}

func (v *Validator) validateServiceConfig(config *ServiceConfig) error {
	if config.DefaultPageSize <= 0 || config.MaxPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}

	if config.DefaultPageSize > config.MaxPageSize {
		return fmt.Errorf("default page size %d exceeds max page size %d", config.DefaultPageSize, config.MaxPageSize)
	}

	if config.TopThreats <= 0 || config.DashboardDays <= 0 {
		return fmt.Errorf("dashboard limits must be positive")
	}

	return nil
}

func (v *Validator) validateSchedulerConfig(config *SchedulerConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}

	if config.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative")
	}

	if config.RetentionDays > 0 && config.RetentionInterval <= 0 {
		return fmt.Errorf("retention interval must be positive when retention is enabled")
	}

	return nil
}

func (v *Validator) validateBackupConfig(config *BackupConfig) error {
	switch config.Target {
	case "local":
		if config.Dir == "" {
			return fmt.Errorf("backup dir is required for the local target")
		}
	case "s3":
		if config.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required for the s3 target")
		}
		if (config.S3.AccessKey == "") != (config.S3.SecretKey == "") {
			return fmt.Errorf("S3 access key and secret key must be set together")
		}
	default:
		return fmt.Errorf("invalid backup target: %s, must be local or s3", config.Target)
	}

	if config.Enabled && config.Interval <= 0 {
		return fmt.Errorf("backup interval must be positive")
	}

	return nil
}

func (v *Validator) validateIntakeConfig(config *IntakeConfig) error {
	if config.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive")
	}

	if config.Workers <= 0 {
		return fmt.Errorf("intake workers must be positive")
	}

	return nil
}
