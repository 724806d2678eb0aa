package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDatabaseEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for _, key := range []string{
		"APP_DATABASE_URL", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER",
		"POSTGRES_PASSWORD", "POSTGRES_DB_NAME", "POSTGRES_SSLMODE",
		"DB_MAX_IDLE_CONNS", "DB_MAX_OPEN_CONNS", "DB_CONN_MAX_LIFETIME",
		"DB_SLOW_QUERY_THRESHOLD", "DB_CONNECT_ATTEMPTS",
	} {
		t.Setenv(key, values[key])
	}
}

func TestDBConfig_DSNFromDiscreteVars(t *testing.T) {
	setDatabaseEnv(t, map[string]string{
		"POSTGRES_HOST":     "db.internal",
		"POSTGRES_PORT":     "5433",
		"POSTGRES_USER":     `"waitlist"`,
		"POSTGRES_PASSWORD": "pw",
		"POSTGRES_DB_NAME":  "wiwi",
	})

	cfg, err := NewDBConfigFromEnv()
	require.NoError(t, err)

	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "host=db.internal port=5433 user=waitlist password=pw dbname=wiwi sslmode=require", dsn)
}

func TestDBConfig_URLWins(t *testing.T) {
	setDatabaseEnv(t, map[string]string{
		"APP_DATABASE_URL": "postgres://u:p@localhost:5432/wiwi?sslmode=disable",
		"POSTGRES_HOST":    "ignored",
	})

	cfg, err := NewDBConfigFromEnv()
	require.NoError(t, err)

	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/wiwi?sslmode=disable", dsn)
}

func TestDBConfig_ReportsAllMissingVars(t *testing.T) {
	_, err := (&DBConfig{Port: "5432"}).DSN()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_HOST, POSTGRES_USER, POSTGRES_DB_NAME")
}

func TestDBConfig_InvalidPort(t *testing.T) {
	_, err := (&DBConfig{Host: "h", Port: "70000", User: "u", Name: "n"}).DSN()

	assert.ErrorContains(t, err, "invalid POSTGRES_PORT")
}

func TestNewDBConfigFromEnv_PoolSettings(t *testing.T) {
	setDatabaseEnv(t, map[string]string{
		"DB_MAX_OPEN_CONNS":    "20",
		"DB_CONN_MAX_LIFETIME": "5m",
		"DB_CONNECT_ATTEMPTS":  "2",
	})

	cfg, err := NewDBConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 20, cfg.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 2, cfg.retryConfig(log.NewLoggerWithJSONOutput()).MaxAttempts)

	t.Setenv("DB_MAX_OPEN_CONNS", "-1")
	_, err = NewDBConfigFromEnv()
	assert.ErrorContains(t, err, "DB_MAX_OPEN_CONNS")
}

func TestNewDatabase_FailsFastOnMissingConfig(t *testing.T) {
	setDatabaseEnv(t, nil)

	db, err := NewDatabase(log.NewLoggerWithJSONOutput(), nil)

	assert.Nil(t, db)
	assert.ErrorContains(t, err, "missing required database env vars")
}

func TestGormLogWriter_UsesAppLogger(t *testing.T) {
	var buf bytes.Buffer
	writer := gormLogWriter{logger: log.NewLoggerWithWriter(&buf)}

	writer.Printf("%s [%.3fms] %s\n", "slow sql", 812.5, "SELECT 1")

	assert.Contains(t, buf.String(), `"component":"gorm"`)
	assert.Contains(t, buf.String(), "slow sql [812.500ms] SELECT 1")
}
