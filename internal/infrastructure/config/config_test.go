package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"TRADEOPS_APP_NAME",
	"TRADEOPS_APP_ENV",
	"TRADEOPS_APP_PORT",
	"TRADEOPS_DATABASE_HOST",
	"TRADEOPS_DATABASE_PORT",
	"TRADEOPS_DATABASE_USER",
	"TRADEOPS_DATABASE_PASSWORD",
	"TRADEOPS_DATABASE_DBNAME",
	"TRADEOPS_DATABASE_SSLMODE",
	"TRADEOPS_DATABASE_MAX_OPEN_CONNS",
	"TRADEOPS_DATABASE_MAX_IDLE_CONNS",
	"TRADEOPS_SWAGGER_ENABLED",
	"TRADEOPS_SWAGGER_ALLOWED_IPS",
	"TRADEOPS_STORAGE_ENABLED",
	"TRADEOPS_STORAGE_BUCKET",
	"TRADEOPS_STORAGE_ACCESS_KEY",
	"TRADEOPS_STORAGE_SECRET_KEY",
	"TRADEOPS_ALLOCATION_DEFAULT_STRATEGY",
	"TRADEOPS_ALLOCATION_IDEMPOTENCY_TTL",
	"TRADEOPS_ALLOCATION_IDEMPOTENCY_ENABLED",
	"TRADEOPS_TELEMETRY_SAMPLING_RATIO",
	"TRADEOPS_TELEMETRY_DB_LOG_FULL_SQL",
	"TRADEOPS_TELEMETRY_SERVICE_NAME",
	"TRADEOPS_DATABASE_CONN_MAX_LIFETIME",
	"TRADEOPS_HTTP_TRUSTED_PROXIES",
}

// clearEnv blanks every managed variable for the duration of the test.
// Empty values are treated as unset by viper.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedEnv {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "tradeops-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "tradeops", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "proportional", cfg.Allocation.DefaultStrategy)
		assert.True(t, cfg.Allocation.IdempotencyEnabled)
		assert.Equal(t, 24*time.Hour, cfg.Allocation.IdempotencyTTL)
		assert.False(t, cfg.Redis.Enabled)
		assert.False(t, cfg.Storage.Enabled)
		assert.Equal(t, "tradeops-backend", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with TRADEOPS prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRADEOPS_APP_NAME", "test-app")
		t.Setenv("TRADEOPS_APP_ENV", "testing")
		t.Setenv("TRADEOPS_APP_PORT", "9000")
		t.Setenv("TRADEOPS_DATABASE_HOST", "testdb.local")
		t.Setenv("TRADEOPS_DATABASE_PORT", "5433")
		t.Setenv("TRADEOPS_DATABASE_USER", "testuser")
		t.Setenv("TRADEOPS_DATABASE_PASSWORD", "testpass")
		t.Setenv("TRADEOPS_DATABASE_DBNAME", "testdb")
		t.Setenv("TRADEOPS_DATABASE_SSLMODE", "require")
		t.Setenv("TRADEOPS_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("TRADEOPS_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("TRADEOPS_ALLOCATION_DEFAULT_STRATEGY", "sequential")
		t.Setenv("TRADEOPS_ALLOCATION_IDEMPOTENCY_TTL", "2h")
		t.Setenv("TRADEOPS_ALLOCATION_IDEMPOTENCY_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "sequential", cfg.Allocation.DefaultStrategy)
		assert.Equal(t, 2*time.Hour, cfg.Allocation.IdempotencyTTL)
		assert.False(t, cfg.Allocation.IdempotencyEnabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRADEOPS_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("TRADEOPS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRADEOPS_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("validates sampling ratio range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRADEOPS_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})

	t.Run("storage requires bucket and keys when enabled", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRADEOPS_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")

		t.Setenv("TRADEOPS_STORAGE_BUCKET", "audit")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key")

		t.Setenv("TRADEOPS_STORAGE_ACCESS_KEY", "key")
		t.Setenv("TRADEOPS_STORAGE_SECRET_KEY", "secret")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "audit", cfg.Storage.Bucket)
		assert.True(t, cfg.Storage.UseSSL)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRADEOPS_APP_ENV", "production")
		t.Setenv("TRADEOPS_DATABASE_PASSWORD", "secure-password")
		t.Setenv("TRADEOPS_DATABASE_SSLMODE", "require")
		t.Setenv("TRADEOPS_SWAGGER_ENABLED", "false")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("TRADEOPS_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("TRADEOPS_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("TRADEOPS_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())
	})

	t.Run("fails if swagger enabled without IP restriction in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("TRADEOPS_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint must be disabled or IP restricted")
	})

	t.Run("passes with swagger enabled and IP whitelist in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("TRADEOPS_SWAGGER_ENABLED", "true")
		t.Setenv("TRADEOPS_SWAGGER_ALLOWED_IPS", "10.0.0.1")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Swagger.Enabled)
		assert.Equal(t, []string{"10.0.0.1"}, cfg.Swagger.AllowedIPs)
	})
}

func TestFromViper_TOML(t *testing.T) {
	clearEnv(t)

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[app]
name = "allocations"

[http]
cors_allow_origins = ["http://localhost:3000"]

[allocation]
default_strategy = "sequential"
archive_snapshots = false
`)))

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "allocations", cfg.App.Name)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSAllowOrigins)
	assert.Equal(t, "sequential", cfg.Allocation.DefaultStrategy)
	assert.False(t, cfg.Allocation.ArchiveSnapshots)
	assert.True(t, cfg.Allocation.IdempotencyEnabled)
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

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}

func TestFromViper_DurationsAndSlices(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRADEOPS_DATABASE_CONN_MAX_LIFETIME", "90m")
	t.Setenv("TRADEOPS_HTTP_TRUSTED_PROXIES", "10.0.0.1,10.0.0.2")
	t.Setenv("TRADEOPS_TELEMETRY_SERVICE_NAME", "allocations-api")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxIdleTime)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.HTTP.TrustedProxies)
	assert.Equal(t, "allocations-api", cfg.Telemetry.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRADEOPS_DATABASE_MAX_IDLE_CONNS", "-1")
	t.Setenv("TRADEOPS_TELEMETRY_SAMPLING_RATIO", "2")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	assert.Contains(t, err.Error(), "sampling_ratio")
}
