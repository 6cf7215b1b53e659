package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/ooh-planner/internal/selection"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig       `yaml:"store" mapstructure:"store"`
	Log       LogConfig         `yaml:"log" mapstructure:"log"`
	Inventory InventoryConfig   `yaml:"inventory" mapstructure:"inventory"`
	Proximity ProximityConfig   `yaml:"proximity" mapstructure:"proximity"`
	Zones     ZonesConfig       `yaml:"zones" mapstructure:"zones"`
	Geocode   GeocodeConfig     `yaml:"geocode" mapstructure:"geocode"`
	Report    ReportConfig      `yaml:"report" mapstructure:"report"`
	Metrics   MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Calendar  CalendarConfig    `yaml:"calendar" mapstructure:"calendar"`
	Palette   selection.Palette `yaml:"palette" mapstructure:"palette"`
}

// StoreConfig configures the reservation database backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig tunes the Postgres connection pool. Zero values use the store defaults.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// InventoryConfig configures how inventory sheets are read.
type InventoryConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	Charset   string `yaml:"charset" mapstructure:"charset"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	Sheet     string `yaml:"sheet" mapstructure:"sheet"`
}

// ProximityConfig holds zone defaults.
type ProximityConfig struct {
	DefaultRadiusM float64 `yaml:"default_radius_m" mapstructure:"default_radius_m"`
}

// ZonesConfig locates the persisted zone list.
type ZonesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// GeocodeConfig configures address resolution.
type GeocodeConfig struct {
	GoogleAPIKey string  `yaml:"google_api_key" mapstructure:"google_api_key"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Concurrency  int     `yaml:"concurrency" mapstructure:"concurrency"`
	Region       string  `yaml:"region" mapstructure:"region"`
	Language     string  `yaml:"language" mapstructure:"language"`
	CacheTTLDays int     `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
}

// ReportConfig sets the default report grouping.
type ReportConfig struct {
	Dimensions []string `yaml:"dimensions" mapstructure:"dimensions"`
}

// MetricsConfig configures the prometheus textfile export. An empty path disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// CalendarConfig anchors the catorcena calendar.
type CalendarConfig struct {
	Anchor string `yaml:"anchor" mapstructure:"anchor"`
}

// AnchorTime parses the anchor date (YYYY-MM-DD, UTC).
func (c CalendarConfig) AnchorTime() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, c.Anchor)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "config: parse calendar.anchor %q", c.Anchor)
	}
	return t, nil
}

// Validate checks the fields a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Proximity.DefaultRadiusM <= 0 {
		errs = append(errs, "proximity.default_radius_m must be > 0")
	}

	switch mode {
	case "classify", "zones":
	case "geocode":
		if c.Geocode.GoogleAPIKey == "" {
			errs = append(errs, "geocode.google_api_key is required")
		}
		if c.Geocode.Concurrency < 1 || c.Geocode.Concurrency > 32 {
			errs = append(errs, "geocode.concurrency must be between 1 and 32")
		}
		if c.Geocode.RateLimit <= 0 {
			errs = append(errs, "geocode.rate_limit must be > 0")
		}
	case "store":
		switch c.Store.Driver {
		case "sqlite":
		case "postgres":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for postgres")
			}
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
		if _, err := c.Calendar.AnchorTime(); err != nil {
			errs = append(errs, "calendar.anchor must be a YYYY-MM-DD date")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OOH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "ooh-planner.db")
	v.SetDefault("store.pool.max_conns", 0)
	v.SetDefault("store.pool.min_conns", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("inventory.path", "")
	v.SetDefault("inventory.charset", "")
	v.SetDefault("inventory.delimiter", ",")
	v.SetDefault("inventory.sheet", "")
	v.SetDefault("proximity.default_radius_m", 300.0)
	v.SetDefault("zones.file", "zones.yaml")
	v.SetDefault("geocode.google_api_key", "")
	v.SetDefault("geocode.rate_limit", 10.0)
	v.SetDefault("geocode.concurrency", 4)
	v.SetDefault("geocode.region", "mx")
	v.SetDefault("geocode.language", "es")
	v.SetDefault("geocode.cache_ttl_days", 90)
	v.SetDefault("report.dimensions", []string{"catorcena", "plaza"})
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("calendar.anchor", "2025-01-06")
	v.SetDefault("palette.selected", selection.DefaultPalette.Selected)
	v.SetDefault("palette.already_reserved", selection.DefaultPalette.AlreadyReserved)
	v.SetDefault("palette.out_of_range", selection.DefaultPalette.OutOfRange)
	v.SetDefault("palette.composite", selection.DefaultPalette.Composite)
	v.SetDefault("palette.secondary", selection.DefaultPalette.Secondary)
	v.SetDefault("palette.primary", selection.DefaultPalette.Primary)

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

	return &cfg, nil
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
