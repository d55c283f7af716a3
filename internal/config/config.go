package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-agent/internal/discovery"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Outreach   OutreachConfig   `yaml:"outreach" mapstructure:"outreach"`
	Billing    BillingConfig    `yaml:"billing" mapstructure:"billing"`
	Cron       CronConfig       `yaml:"cron" mapstructure:"cron"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// GoogleConfig holds Places API (New) settings.
type GoogleConfig struct {
	Key     string      `yaml:"key" mapstructure:"key"`
	BaseURL string      `yaml:"base_url" mapstructure:"base_url"`
	Retry   RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig configures retry behavior for transient Places failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// DiscoveryConfig tunes candidate selection.
type DiscoveryConfig struct {
	SearchTermsFile string           `yaml:"search_terms_file" mapstructure:"search_terms_file"`
	RateLimit       float64          `yaml:"rate_limit" mapstructure:"rate_limit"`
	Interactive     discovery.Budget `yaml:"interactive" mapstructure:"interactive"`
	Autonomous      discovery.Budget `yaml:"autonomous" mapstructure:"autonomous"`
}

// OutreachConfig configures email delivery through SES.
type OutreachConfig struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	FromEmail    string `yaml:"from_email" mapstructure:"from_email"`
	AWSRegion    string `yaml:"aws_region" mapstructure:"aws_region"`
	DashboardURL string `yaml:"dashboard_url" mapstructure:"dashboard_url"`
}

// BillingConfig maps payment provider price ids to plans.
type BillingConfig struct {
	ProPriceID     string `yaml:"pro_price_id" mapstructure:"pro_price_id"`
	PremiumPriceID string `yaml:"premium_price_id" mapstructure:"premium_price_id"`
}

// CronConfig configures the autonomous daily run.
type CronConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Schedule    string `yaml:"schedule" mapstructure:"schedule"`
	Secret      string `yaml:"secret" mapstructure:"secret"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MonitoringConfig configures daily run alerting.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lead-agent.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.retry.max_attempts", 3)
	v.SetDefault("google.retry.initial_backoff_ms", 500)
	v.SetDefault("google.retry.max_backoff_ms", 10000)
	v.SetDefault("discovery.search_terms_file", "")
	v.SetDefault("discovery.rate_limit", 5.0)
	setBudgetDefaults(v, "discovery.interactive", discovery.InteractiveBudget)
	setBudgetDefaults(v, "discovery.autonomous", discovery.AutonomousBudget)
	v.SetDefault("outreach.enabled", false)
	v.SetDefault("outreach.from_email", "")
	v.SetDefault("outreach.aws_region", "us-east-1")
	v.SetDefault("outreach.dashboard_url", "http://localhost:3000/dashboard")
	v.SetDefault("billing.pro_price_id", "")
	v.SetDefault("billing.premium_price_id", "")
	v.SetDefault("cron.enabled", false)
	v.SetDefault("cron.schedule", "0 9 * * *")
	v.SetDefault("cron.secret", "")
	v.SetDefault("cron.concurrency", 4)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.2)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if len(cfg.Discovery.Autonomous.Terms) == 0 {
		cfg.Discovery.Autonomous.Terms = discovery.AutonomousSearchTerms
	}

	return &cfg, nil
}

func setBudgetDefaults(v *viper.Viper, prefix string, b discovery.Budget) {
	v.SetDefault(prefix+".mode", b.Mode)
	v.SetDefault(prefix+".max_locations", b.MaxLocations)
	v.SetDefault(prefix+".max_terms_per_location", b.MaxTermsPerLocation)
	v.SetDefault(prefix+".max_queries", b.MaxQueries)
	v.SetDefault(prefix+".hits_per_query", b.HitsPerQuery)
	v.SetDefault(prefix+".max_count", b.MaxCount)
	v.SetDefault(prefix+".stop_within_query", b.StopWithinQuery)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate checks the fields a command mode needs. Modes: serve, generate,
// daily, explain, migrate.
func (c *Config) Validate(mode string) error {
	var errs []string

	needStore := func() {
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
	}
	needPlaces := func() {
		if c.Google.Key == "" {
			errs = append(errs, "google.key is required")
		}
	}
	needOutreach := func() {
		if c.Outreach.Enabled && c.Outreach.FromEmail == "" {
			errs = append(errs, "outreach.from_email is required when outreach is enabled")
		}
	}
	needConcurrency := func() {
		if c.Cron.Concurrency < 1 || c.Cron.Concurrency > 50 {
			errs = append(errs, "cron.concurrency must be between 1 and 50")
		}
	}

	switch mode {
	case "serve":
		needStore()
		needPlaces()
		needOutreach()
		needConcurrency()
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "generate":
		needStore()
		needPlaces()
	case "daily":
		needStore()
		needPlaces()
		needOutreach()
		needConcurrency()
	case "migrate":
		needStore()
	case "explain":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
