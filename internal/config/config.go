// Package config loads service configuration from YAML with environment
// variable expansion and overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dvloznov/savings-coach/internal/badges"
	"github.com/dvloznov/savings-coach/internal/domain"
	"go.uber.org/config"
)

type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	BigQuery  BigQueryConfig  `yaml:"bigquery"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Reports   ReportsConfig   `yaml:"reports"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Badges    badges.Settings `yaml:"badges"`
	Coach     CoachConfig     `yaml:"coach"`
	Notion    NotionConfig    `yaml:"notion"`

	// Prototypes is the goal catalog offered to users. Empty means goals
	// may carry any prototype ID.
	Prototypes []PrototypeConfig `yaml:"prototypes"`
}

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	APIToken        string        `yaml:"api_token"` // empty disables bearer token checks
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// BigQueryConfig selects the storage backend. An empty ProjectID runs on
// in-memory repositories.
type BigQueryConfig struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
}

type StorageConfig struct {
	Bucket    string        `yaml:"bucket"`
	Retention time.Duration `yaml:"retention"`
}

// RedisConfig enables the Redis job store when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	JobTTL   time.Duration `yaml:"job_ttl"`
}

type JobsConfig struct {
	BufferSize int `yaml:"buffer_size"`
	Workers    int `yaml:"workers"`
}

type ReportsConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
	Types   []string      `yaml:"types"`
}

type SchedulerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ReportSpec  string `yaml:"report_spec"`
	CleanupSpec string `yaml:"cleanup_spec"`
}

type CoachConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

type PrototypeConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Disabled    bool   `yaml:"disabled"`
}

// GoalPrototypes converts the configured catalog.
func (c *Config) GoalPrototypes() []domain.GoalPrototype {
	out := make([]domain.GoalPrototype, 0, len(c.Prototypes))
	for _, p := range c.Prototypes {
		out = append(out, domain.GoalPrototype{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Active:      !p.Disabled,
		})
	}
	return out
}

// Load loads configuration from CONFIG_PATH (default ./config/base.yaml).
func Load() (*Config, error) {
	return LoadFile(getEnv("CONFIG_PATH", "./config/base.yaml"))
}

// LoadFile loads configuration from a YAML file with environment variable
// overrides.
func LoadFile(path string) (*Config, error) {
	provider, err := config.NewYAML(
		config.File(path),
		config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	var cfg Config
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables if present
func (c *Config) overrideFromEnv() {
	if val := os.Getenv("SERVICE_ENVIRONMENT"); val != "" {
		c.Service.Environment = val
	}
	if val := os.Getenv("PORT"); val != "" {
		c.Server.Port = val
	}
	if val := os.Getenv("API_TOKEN"); val != "" {
		c.Server.APIToken = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Logging.Format = val
	}
	if val := os.Getenv("GCP_PROJECT_ID"); val != "" {
		c.BigQuery.ProjectID = val
	}
	if val := os.Getenv("BQ_DATASET"); val != "" {
		c.BigQuery.Dataset = val
	}
	if val := os.Getenv("GCS_BUCKET"); val != "" {
		c.Storage.Bucket = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			c.Redis.DB = db
		}
	}
	if val := os.Getenv("SCHEDULER_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Scheduler.Enabled = enabled
		}
	}
	if val := os.Getenv("COACH_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Coach.Enabled = enabled
		}
	}
	if val := os.Getenv("NOTION_TOKEN"); val != "" {
		c.Notion.Token = val
	}
	if val := os.Getenv("NOTION_DATABASE_ID"); val != "" {
		c.Notion.DatabaseID = val
	}
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "savings-coach"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.BigQuery.Dataset == "" {
		c.BigQuery.Dataset = "savings"
	}
	if c.Storage.Retention == 0 {
		c.Storage.Retention = 30 * 24 * time.Hour
	}
	if c.Redis.JobTTL == 0 {
		c.Redis.JobTTL = 7 * 24 * time.Hour
	}
	if c.Jobs.BufferSize == 0 {
		c.Jobs.BufferSize = 100
	}
	if c.Jobs.Workers == 0 {
		c.Jobs.Workers = 2
	}
	if c.Reports.Workers == 0 {
		c.Reports.Workers = 4
	}
	if c.Reports.Timeout == 0 {
		c.Reports.Timeout = 10 * time.Minute
	}
	if len(c.Reports.Types) == 0 {
		c.Reports.Types = []string{"goals", "engagement"}
	}
	if c.Scheduler.ReportSpec == "" {
		c.Scheduler.ReportSpec = "0 3 * * *"
	}
	if c.Scheduler.CleanupSpec == "" {
		c.Scheduler.CleanupSpec = "30 3 * * *"
	}
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging.format %q: want console or json", c.Logging.Format)
	}
	if c.Storage.Retention < 0 {
		return fmt.Errorf("storage.retention must not be negative")
	}
	if c.Jobs.Workers < 0 || c.Reports.Workers < 0 {
		return fmt.Errorf("worker counts must not be negative")
	}
	seen := make(map[string]bool, len(c.Prototypes))
	for i, p := range c.Prototypes {
		if p.ID == "" || p.Name == "" {
			return fmt.Errorf("prototypes[%d]: id and name are required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("prototypes[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// UseBigQuery reports whether a BigQuery project is configured.
func (c *Config) UseBigQuery() bool {
	return c.BigQuery.ProjectID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
