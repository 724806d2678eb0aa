package config

import (
	"context"
	"time"

	"github.com/akeren/wiwi-waitlist/config/router"
	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/akeren/wiwi-waitlist/internal/models"
	"github.com/akeren/wiwi-waitlist/pkg/constants"
	"github.com/akeren/wiwi-waitlist/pkg/ipinfo"
	"github.com/akeren/wiwi-waitlist/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	Admin           *AdminSettings
	IPLookup        *IPLookupSettings
	IPLookupClient  *ipinfo.Client
	Export          *ExportSettings
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

// NewAppConfig reads router limits from the environment. Invalid values are logged
// and replaced by defaults.
func NewAppConfig(logger *log.Logger) *AppConfig {
	config := &AppConfig{}

	var err error
	if config.RateLimitRequests, err = utils.GetEnvPositiveInt("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests); err != nil {
		logger.Warn("Using default rate limit", "error", err)
	}
	if config.RateLimitWindow, err = utils.GetEnvPositiveDuration("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow); err != nil {
		logger.Warn("Using default rate limit window", "error", err)
	}
	if config.RequestTimeout, err = utils.GetEnvPositiveDuration("REQUEST_TIMEOUT", constants.DefaultRequestTimeout); err != nil {
		logger.Warn("Using default request timeout", "error", err)
	}

	return config
}

// Cleanup releases whatever was initialised, in reverse dependency order. It is safe
// on a partially built config.
func (ac *ApplicationConfig) Cleanup() {
	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	// Tracing goes last so spans from the shutdown above are still exported.
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	ac := &ApplicationConfig{Logger: logger, Config: NewAppConfig(logger)}

	var err error
	if ac.Admin, err = NewAdminSettings(logger); err != nil {
		return nil, err
	}
	if ac.IPLookup, err = NewIPLookupSettings(); err != nil {
		return nil, err
	}
	if ac.Export, err = NewExportSettings(); err != nil {
		return nil, err
	}

	if err := ac.openResources(autoMigrate); err != nil {
		ac.Cleanup()
		return nil, err
	}

	logger.Info("Application configuration loaded successfully")

	return ac, nil
}

// openResources connects everything that needs closing, leaving ac partially filled
// on failure.
func (ac *ApplicationConfig) openResources(autoMigrate bool) error {
	var err error
	if ac.TracingShutdown, err = SetupTracing(ac.Logger); err != nil {
		return err
	}

	if ac.DB, err = NewDatabase(ac.Logger, nil); err != nil {
		return err
	}

	if autoMigrate {
		if err := AutoMigrate(ac.Logger, ac.DB, models.ModelRegistry...); err != nil {
			return err
		}
	}

	ac.Cache = NewCacheConfig().NewCacheOrNil(ac.Logger)

	ac.RouterService = router.CreateRouterService(ac.Logger, ac.Cache, &router.RouterConfig{
		RateLimitRequests: ac.Config.RateLimitRequests,
		RateLimitWindow:   ac.Config.RateLimitWindow,
		RequestTimeout:    ac.Config.RequestTimeout,
	})

	ac.IPLookupClient = ac.IPLookup.NewClient(ac.Logger)

	return nil
}
