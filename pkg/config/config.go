package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v2"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "DBT_CONFIG"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Service   ServiceConfig   `yaml:"service" json:"service"`
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler"`
	Backup    BackupConfig    `yaml:"backup" json:"backup"`
	Intake    IntakeConfig    `yaml:"intake" json:"intake"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" env:"SERVER_HOST"`
	Port            string        `yaml:"port" json:"port" env:"SERVER_PORT"`
	Mode            string        `yaml:"mode" json:"mode" env:"GIN_MODE"` // debug, release, test
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type             string        `yaml:"type" json:"type" env:"DB_TYPE"` // sqlite, postgres
	Name             string        `yaml:"name" json:"name" env:"DB_NAME"` // file path for sqlite
	Host             string        `yaml:"host" json:"host" env:"DB_HOST"`
	Port             int           `yaml:"port" json:"port" env:"DB_PORT"`
	User             string        `yaml:"user" json:"user" env:"DB_USER"`
	Password         string        `yaml:"password" json:"-" env:"DB_PASSWORD" sensitive:"true"`
	SSLMode          string        `yaml:"ssl_mode" json:"ssl_mode" env:"DB_SSL_MODE"`
	MaxOpenConns     int           `yaml:"max_open_conns" json:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns     int           `yaml:"max_idle_conns" json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	StatementTimeout time.Duration `yaml:"statement_timeout" json:"statement_timeout" env:"DB_STATEMENT_TIMEOUT"`
	BusyTimeout      time.Duration `yaml:"busy_timeout" json:"busy_timeout" env:"DB_BUSY_TIMEOUT"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string `yaml:"level" json:"level" env:"LOG_LEVEL"`
	Format           string `yaml:"format" json:"format" env:"LOG_FORMAT"` // json, console
	Output           string `yaml:"output" json:"output" env:"LOG_OUTPUT"` // stdout, stderr, file
	File             string `yaml:"file" json:"file" env:"LOG_FILE"`
	EnableStackTrace bool   `yaml:"enable_stack_trace" json:"enable_stack_trace" env:"LOG_STACK_TRACE"`
}

// ServiceConfig holds read-side limits
type ServiceConfig struct {
	DefaultPageSize int    `yaml:"default_page_size" json:"default_page_size" env:"SERVICE_DEFAULT_PAGE_SIZE"`
	MaxPageSize     int    `yaml:"max_page_size" json:"max_page_size" env:"SERVICE_MAX_PAGE_SIZE"`
	TopThreats      int    `yaml:"top_threats" json:"top_threats" env:"SERVICE_TOP_THREATS"`
	DashboardDays   int    `yaml:"dashboard_days" json:"dashboard_days" env:"SERVICE_DASHBOARD_DAYS"`
	AdminUsername   string `yaml:"admin_username" json:"admin_username" env:"SERVICE_ADMIN_USERNAME"`
}

// SchedulerConfig holds the periodic maintenance configuration
type SchedulerConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled" env:"SCHEDULER_ENABLED"`
	RefreshInterval   time.Duration `yaml:"refresh_interval" json:"refresh_interval" env:"SCHEDULER_REFRESH_INTERVAL"`
	RetentionInterval time.Duration `yaml:"retention_interval" json:"retention_interval" env:"SCHEDULER_RETENTION_INTERVAL"`
	RetentionDays     int           `yaml:"retention_days" json:"retention_days" env:"SCHEDULER_RETENTION_DAYS"`
}

// BackupConfig holds backup configuration
type BackupConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled" env:"BACKUP_ENABLED"`
	Interval time.Duration `yaml:"interval" json:"interval" env:"BACKUP_INTERVAL"`
	Target   string        `yaml:"target" json:"target" env:"BACKUP_TARGET"` // local, s3
	Dir      string        `yaml:"dir" json:"dir" env:"BACKUP_DIR"`
	S3       S3Config      `yaml:"s3" json:"s3"`
}

// S3Config holds S3 configuration for the backup target
type S3Config struct {
	Bucket         string `yaml:"bucket" json:"bucket" env:"S3_BUCKET"`
	Prefix         string `yaml:"prefix" json:"prefix" env:"S3_PREFIX"`
	Region         string `yaml:"region" json:"region" env:"S3_REGION"`
	Endpoint       string `yaml:"endpoint" json:"endpoint" env:"S3_ENDPOINT"`
	AccessKey      string `yaml:"access_key" json:"-" env:"S3_ACCESS_KEY" sensitive:"true"`
	SecretKey      string `yaml:"secret_key" json:"-" env:"S3_SECRET_KEY" sensitive:"true"`
	ForcePathStyle bool   `yaml:"force_path_style" json:"force_path_style" env:"S3_FORCE_PATH_STYLE"`
}

// IntakeConfig holds upload pipeline configuration
type IntakeConfig struct {
	TempDir          string `yaml:"temp_dir" json:"temp_dir" env:"INTAKE_TEMP_DIR"`
	MaxFileSize      int64  `yaml:"max_file_size" json:"max_file_size" env:"INTAKE_MAX_FILE_SIZE"`
	Workers          int    `yaml:"workers" json:"workers" env:"INTAKE_WORKERS"`
	SignatureScanner bool   `yaml:"signature_scanner" json:"signature_scanner" env:"INTAKE_SIGNATURE_SCANNER"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled" env:"METRICS_ENABLED"`
	Path      string `yaml:"path" json:"path" env:"METRICS_PATH"`
	Namespace string `yaml:"namespace" json:"namespace" env:"METRICS_NAMESPACE"`
}

// ConfigManager manages configuration loading and validation
type ConfigManager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	watchers   []func(*Config)
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		watchers: make([]func(*Config), 0),
	}
}

// ResolvePath picks the config file path from the flag value or DBT_CONFIG
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return "config.yaml"
}

// Load loads configuration from file and environment variables
func (cm *ConfigManager) Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	// A missing file means defaults plus environment
	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := NewValidator().ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cm.mu.Lock()
	cm.configPath = configPath
	cm.config = config
	cm.mu.Unlock()

	return config, nil
}

// Reload reloads the configuration and notifies watchers
func (cm *ConfigManager) Reload() error {
	cm.mu.RLock()
	path := cm.configPath
	cm.mu.RUnlock()

	if path == "" {
		return fmt.Errorf("no config path set")
	}

	config, err := cm.Load(path)
	if err != nil {
		return err
	}

	cm.mu.RLock()
	watchers := append([]func(*Config){}, cm.watchers...)
	cm.mu.RUnlock()

	for _, watcher := range watchers {
		watcher(config)
	}

	return nil
}

// Watch adds a configuration change watcher
func (cm *ConfigManager) Watch(watcher func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.watchers = append(cm.watchers, watcher)
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// Path returns the file the configuration was loaded from
func (cm *ConfigManager) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, config)
}

func loadFromEnv(config *Config) error {
	return setEnvVars(reflect.ValueOf(config).Elem())
}

// setEnvVars recursively applies env-tagged overrides to struct fields
func setEnvVars(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			if field.Kind() == reflect.Struct {
				if err := setEnvVars(field); err != nil {
					return err
				}
			}
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

// setFieldValue sets a field value from an environment variable string
func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			var intValue int64
			if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
				return err
			}
			field.SetInt(intValue)
		}
	case reflect.Bool:
		v := strings.ToLower(value)
		field.SetBool(v == "true" || v == "1" || v == "yes" || v == "on")
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			Mode:            "release",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Type:             "sqlite",
			Name:             "./data/dbt_antivirus.db",
			Host:             "localhost",
			Port:             5432,
			SSLMode:          "disable",
			MaxOpenConns:     25,
			MaxIdleConns:     5,
			ConnMaxLifetime:  time.Hour,
			StatementTimeout: 30 * time.Second,
			BusyTimeout:      5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Service: ServiceConfig{
			DefaultPageSize: 50,
			MaxPageSize:     200,
			TopThreats:      10,
			DashboardDays:   7,
			AdminUsername:   "admin",
		},
		Scheduler: SchedulerConfig{
			Enabled:           true,
			RefreshInterval:   15 * time.Minute,
			RetentionInterval: 24 * time.Hour,
			RetentionDays:     30,
		},
		Backup: BackupConfig{
			Enabled:  false,
			Interval: 24 * time.Hour,
			Target:   "local",
			Dir:      "./backups",
			S3: S3Config{
				Region: "us-east-1",
				Prefix: "dbt-antivirus/",
			},
		},
		Intake: IntakeConfig{
			TempDir:          os.TempDir(),
			MaxFileSize:      32 * 1024 * 1024,
			Workers:          4,
			SignatureScanner: true,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "dbt",
		},
	}
}
