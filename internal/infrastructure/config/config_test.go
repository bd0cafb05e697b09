package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no config.toml or .env is picked up
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		inTempDir(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "woosync", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "woosync", cfg.Database.DBName)
		assert.Equal(t, 10, cfg.Database.MaxOpenConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 2, cfg.Scheduler.Workers)
		assert.Equal(t, time.Minute, cfg.Scheduler.LockTTL)
		assert.Equal(t, "wp-json/wc/v3", cfg.WooCommerce.APIPath)
		assert.Equal(t, 100, cfg.WooCommerce.PageSize)
		assert.Equal(t, 10, cfg.WooCommerce.TestPageSize)
		assert.Equal(t, 10*time.Second, cfg.WooCommerce.ImageTimeout)
		assert.Equal(t, int64(10<<20), cfg.WooCommerce.MaxResponseSize)
		assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
		assert.Equal(t, 6, cfg.HTTP.RunRateLimit)
		assert.Equal(t, time.Minute, cfg.HTTP.RunRateWindow)
		assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
		assert.Equal(t, "woosync", cfg.JWT.Issuer)
		assert.Equal(t, 90*24*time.Hour, cfg.JWT.TokenTTL)
		assert.False(t, cfg.Telemetry.LogsEnabled)
	})

	t.Run("reads http limits", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_HTTP_RUN_RATE_LIMIT", "2")
		t.Setenv("WOOSYNC_HTTP_RUN_RATE_WINDOW", "30s")
		t.Setenv("WOOSYNC_HTTP_REQUEST_TIMEOUT", "5s")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.HTTP.RunRateLimit)
		assert.Equal(t, 30*time.Second, cfg.HTTP.RunRateWindow)
		assert.Equal(t, 5*time.Second, cfg.HTTP.RequestTimeout)
	})

	t.Run("loads values from environment variables with WOOSYNC prefix", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_APP_PORT", "9000")
		t.Setenv("WOOSYNC_DATABASE_DRIVER", "sqlite")
		t.Setenv("WOOSYNC_DATABASE_PATH", ":memory:")
		t.Setenv("WOOSYNC_REDIS_ENABLED", "true")
		t.Setenv("WOOSYNC_SCHEDULER_WORKERS", "4")
		t.Setenv("WOOSYNC_WOOCOMMERCE_REQUESTS_PER_SECOND", "2.5")
		t.Setenv("WOOSYNC_WOOCOMMERCE_PAGE_SIZE", "50")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, ":memory:", cfg.Database.Path)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, 4, cfg.Scheduler.Workers)
		assert.Equal(t, 2.5, cfg.WooCommerce.RequestsPerSecond)
		assert.Equal(t, 50, cfg.WooCommerce.PageSize)
	})

	t.Run("reads .env before the environment lookup", func(t *testing.T) {
		dir := inTempDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WOOSYNC_LOG_LEVEL=debug\n"), 0o600))
		t.Cleanup(func() { _ = os.Unsetenv("WOOSYNC_LOG_LEVEL") })

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("reads config.toml", func(t *testing.T) {
		dir := inTempDir(t)
		toml := "[woocommerce]\nuser_agent = \"shop-sync\"\n\n[scheduler]\nenabled = true\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "shop-sync", cfg.WooCommerce.UserAgent)
		assert.True(t, cfg.Scheduler.Enabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("WOOSYNC_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects page size above the API maximum", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_WOOCOMMERCE_PAGE_SIZE", "101")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "woocommerce.page_size")
	})

	t.Run("lock refresh must be shorter than the lock ttl", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_SCHEDULER_LOCK_TTL", "10s")
		t.Setenv("WOOSYNC_SCHEDULER_LOCK_REFRESH_INTERVAL", "30s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock_refresh_interval")
	})

	t.Run("storage credentials required when enabled", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key")
	})
}

const productionSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires jwt.secret in production", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_APP_ENV", "production")
		t.Setenv("WOOSYNC_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("rejects a short jwt.secret in production", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_APP_ENV", "production")
		t.Setenv("WOOSYNC_DATABASE_DRIVER", "sqlite")
		t.Setenv("WOOSYNC_JWT_SECRET", "too-short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_APP_ENV", "production")
		t.Setenv("WOOSYNC_JWT_SECRET", productionSecret)
		t.Setenv("WOOSYNC_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_APP_ENV", "production")
		t.Setenv("WOOSYNC_JWT_SECRET", productionSecret)
		t.Setenv("WOOSYNC_DATABASE_PASSWORD", "secure-password")
		t.Setenv("WOOSYNC_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("sqlite needs no credentials", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("WOOSYNC_APP_ENV", "production")
		t.Setenv("WOOSYNC_DATABASE_DRIVER", "sqlite")
		t.Setenv("WOOSYNC_JWT_SECRET", productionSecret)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
