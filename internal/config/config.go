package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Rana718/quarry/internal/schema"
	"github.com/Rana718/quarry/internal/seeder"
	"github.com/spf13/viper"
)

type Config struct {
	Version    string   `json:"version" mapstructure:"version"`
	Database   Database `json:"database" mapstructure:"database"`
	Migrations Migrate  `json:"migrations" mapstructure:"migrations"`
	Seed       Seed     `json:"seed" mapstructure:"seed"`
	Log        Log      `json:"log" mapstructure:"log"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

type Migrate struct {
	Table string `json:"table" mapstructure:"table"`
}

type Seed struct {
	BatchSize   int           `json:"batch_size" mapstructure:"batch_size"`
	OnDuplicate string        `json:"on_duplicate" mapstructure:"on_duplicate"`
	StopOnError bool          `json:"stop_on_error" mapstructure:"stop_on_error"`
	Pause       time.Duration `json:"pause" mapstructure:"pause"`
	Fixtures    string        `json:"fixtures" mapstructure:"fixtures"`
}

type Log struct {
	Level       string `json:"level" mapstructure:"level"`
	Development bool   `json:"development" mapstructure:"development"`
}

// Load reads the active viper configuration and fills defaults.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.Migrations.Table == "" {
		cfg.Migrations.Table = schema.DefaultMigrationsTable
	}
	if cfg.Seed.BatchSize <= 0 {
		cfg.Seed.BatchSize = seeder.DefaultBatchSize
	}
	if cfg.Seed.OnDuplicate == "" {
		cfg.Seed.OnDuplicate = string(seeder.OnDuplicateSkip)
	}
	if !v.IsSet("seed.pause") {
		cfg.Seed.Pause = seeder.DefaultPause
	}
	if cfg.Seed.Fixtures == "" {
		cfg.Seed.Fixtures = "db/seeds"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	switch seeder.DuplicateStrategy(c.Seed.OnDuplicate) {
	case seeder.OnDuplicateSkip, seeder.OnDuplicateUpdate, seeder.OnDuplicateError:
	default:
		return fmt.Errorf("seed.on_duplicate must be skip, update or error, got %q", c.Seed.OnDuplicate)
	}

	if c.Migrations.Table == "" {
		return fmt.Errorf("migrations.table cannot be empty")
	}
	return nil
}

// InsertOptions returns the seeding defaults for SafeInsert.
func (c *Config) InsertOptions() seeder.InsertOptions {
	return seeder.InsertOptions{
		OnDuplicate: seeder.DuplicateStrategy(c.Seed.OnDuplicate),
		BatchSize:   c.Seed.BatchSize,
		StopOnError: c.Seed.StopOnError,
		Pause:       c.Seed.Pause,
		Timestamps:  true,
	}
}
