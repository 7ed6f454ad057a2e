package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rana718/quarry/internal/seeder"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "postgresql", cfg.Database.Provider)
	assert.Equal(t, "DATABASE_URL", cfg.Database.URLEnv)
	assert.Equal(t, "_quarry_migrations", cfg.Migrations.Table)
	assert.Equal(t, 100, cfg.Seed.BatchSize)
	assert.Equal(t, "skip", cfg.Seed.OnDuplicate)
	assert.Equal(t, 10*time.Millisecond, cfg.Seed.Pause)
	assert.Equal(t, "db/seeds", cfg.Seed.Fixtures)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quarry.config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"database": {"provider": "sqlite", "url_env": "SONGS_DB"},
		"seed": {"batch_size": 25, "on_duplicate": "update", "stop_on_error": true, "pause": "0s"},
		"log": {"level": "debug", "development": true}
	}`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	opts := cfg.InsertOptions()
	assert.Equal(t, seeder.OnDuplicateUpdate, opts.OnDuplicate)
	assert.Equal(t, 25, opts.BatchSize)
	assert.True(t, opts.StopOnError)
	assert.Zero(t, opts.Pause)
	assert.True(t, cfg.Log.Development)

	t.Setenv("SONGS_DB", "sqlite://songs.db")
	url, err := cfg.GetDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "sqlite://songs.db", url)
}

func TestValidate(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	cfg.Database.Provider = "oracle"
	assert.ErrorContains(t, cfg.Validate(), "unsupported database provider")

	cfg.Database.Provider = "mysql"
	cfg.Seed.OnDuplicate = "merge"
	assert.ErrorContains(t, cfg.Validate(), "on_duplicate")

	t.Setenv("DATABASE_URL", "")
	_, err = cfg.GetDatabaseURL()
	assert.ErrorContains(t, err, "DATABASE_URL")
}
