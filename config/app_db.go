package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/akeren/wiwi-waitlist/pkg/retry"
	"github.com/akeren/wiwi-waitlist/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSSLMode            = "require"
	defaultConnectAttempts    = 5
	defaultPingTimeout        = 5 * time.Second
	defaultSlowQueryThreshold = 500 * time.Millisecond
)

// DBConfig holds the Postgres connection settings. URL, when set, wins over the
// discrete POSTGRES_* fields.
type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxIdleConns       int
	MaxOpenConns       int
	ConnMaxLifetime    time.Duration
	SlowQueryThreshold time.Duration
	ConnectAttempts    int
	ConnectRetry       *retry.Config
}

func NewDBConfigFromEnv() (*DBConfig, error) {
	cfg := &DBConfig{
		URL:      envValue("APP_DATABASE_URL"),
		Host:     envValue("POSTGRES_HOST"),
		Port:     envValue("POSTGRES_PORT"),
		User:     envValue("POSTGRES_USER"),
		Password: envValue("POSTGRES_PASSWORD"),
		Name:     envValue("POSTGRES_DB_NAME"),
		SSLMode:  envValue("POSTGRES_SSLMODE"),
	}

	var err error
	if cfg.MaxIdleConns, err = utils.GetEnvPositiveInt("DB_MAX_IDLE_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns, err = utils.GetEnvPositiveInt("DB_MAX_OPEN_CONNS", 100); err != nil {
		return nil, err
	}
	if cfg.ConnMaxLifetime, err = utils.GetEnvPositiveDuration("DB_CONN_MAX_LIFETIME", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SlowQueryThreshold, err = utils.GetEnvPositiveDuration("DB_SLOW_QUERY_THRESHOLD", defaultSlowQueryThreshold); err != nil {
		return nil, err
	}
	if cfg.ConnectAttempts, err = utils.GetEnvPositiveInt("DB_CONNECT_ATTEMPTS", defaultConnectAttempts); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN returns the connection string, reporting every missing variable at once.
func (c *DBConfig) DSN() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"POSTGRES_HOST", c.Host},
		{"POSTGRES_PORT", c.Port},
		{"POSTGRES_USER", c.User},
		{"POSTGRES_DB_NAME", c.Name},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q", c.Port)
	}

	ssl := c.SSLMode
	if ssl == "" {
		ssl = defaultSSLMode
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.Name, ssl,
	), nil
}

func (c *DBConfig) retryConfig(logger *log.Logger) *retry.Config {
	if c.ConnectRetry != nil {
		return c.ConnectRetry
	}

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = c.ConnectAttempts
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultConnectAttempts
	}
	cfg.BaseDelay = 500 * time.Millisecond
	cfg.MaxDelay = 10 * time.Second
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Database ping attempt failed", "attempt", attempt, "retry_in", delay.String(), "error", err)
	}

	return cfg
}

// NewDatabase opens Postgres and pings it with backoff. A nil cfg is read from the
// environment.
func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		fromEnv, err := NewDBConfigFromEnv()
		if err != nil {
			return nil, err
		}
		cfg = fromEnv
	}

	dsn, err := cfg.DSN()
	if err != nil {
		logger.Error("Invalid database configuration", "error", err)
		return nil, err
	}

	if cfg.URL != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
	} else {
		logger.Info("Connecting to database",
			"host", cfg.Host,
			"port", cfg.Port,
			"user", cfg.User,
			"dbname", cfg.Name,
		)
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(logger, cfg.SlowQueryThreshold),
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	err = retry.NewExponentialBackoff(cfg.retryConfig(logger)).ExecuteContext(context.Background(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
		return sqlDB.PingContext(pingCtx)
	})
	if err != nil {
		_ = sqlDB.Close()
		logger.Error("Database ping failed", "error", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

// gormLogWriter routes gorm's slow-query and error lines through the app logger.
type gormLogWriter struct {
	logger *log.Logger
}

func (w gormLogWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "gorm")
}

func newGormLogger(logger *log.Logger, slowThreshold time.Duration) gormlogger.Interface {
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowQueryThreshold
	}

	return gormlogger.New(gormLogWriter{logger: logger}, gormlogger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}

func envValue(key string) string {
	return unquoteEnv(strings.TrimSpace(GetValueFromEnvironmentVariable(key, "")))
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		return fmt.Errorf("cannot migrate: db is nil")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database auto-migration completed", "models", len(models))

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
		return
	}

	logger.Info("Database closed")
}
