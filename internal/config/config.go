package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Geo      GeoConfig      `yaml:"geo" mapstructure:"geo"`
	Facets   FacetsConfig   `yaml:"facets" mapstructure:"facets"`
	Cluster  ClusterConfig  `yaml:"cluster" mapstructure:"cluster"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Monitor  MonitorConfig  `yaml:"monitor" mapstructure:"monitor"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RegistryConfig configures the public licence search API.
type RegistryConfig struct {
	APIURL      string  `yaml:"api_url" mapstructure:"api_url"`
	PageSize    int     `yaml:"page_size" mapstructure:"page_size"`
	MaxPages    int     `yaml:"max_pages" mapstructure:"max_pages"`
	LicenceType int     `yaml:"licence_type" mapstructure:"licence_type"`
	OrderBy     string  `yaml:"order_by" mapstructure:"order_by"`
	Suppressed  bool    `yaml:"suppressed" mapstructure:"suppressed"`
	SleepMs     int     `yaml:"sleep_ms" mapstructure:"sleep_ms"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	JSONPath    string `yaml:"json_path" mapstructure:"json_path"`
}

// GeoConfig configures coordinate resolution.
type GeoConfig struct {
	// EnableTM2000 registers the NZTM2000 to WGS84 transform.
	EnableTM2000 bool     `yaml:"enable_tm2000" mapstructure:"enable_tm2000"`
	DirectTags   []string `yaml:"direct_tags" mapstructure:"direct_tags"`
	ProjectedTag string   `yaml:"projected_tag" mapstructure:"projected_tag"`
	MinLat       float64  `yaml:"min_lat" mapstructure:"min_lat"`
	MaxLat       float64  `yaml:"max_lat" mapstructure:"max_lat"`
	MinLon       float64  `yaml:"min_lon" mapstructure:"min_lon"`
	MaxLon       float64  `yaml:"max_lon" mapstructure:"max_lon"`
}

// FacetsConfig configures the carrier/band facet engine.
type FacetsConfig struct {
	ExcludedCarriers []string `yaml:"excluded_carriers" mapstructure:"excluded_carriers"`
	BandTablePath    string   `yaml:"band_table_path" mapstructure:"band_table_path"`
	CarrierRulesPath string   `yaml:"carrier_rules_path" mapstructure:"carrier_rules_path"`
}

// ClusterConfig configures marker clustering and proximity search.
type ClusterConfig struct {
	RadiusM          float64  `yaml:"radius_m" mapstructure:"radius_m"`
	OffsetM          float64  `yaml:"offset_m" mapstructure:"offset_m"`
	PrimaryCarriers  []string `yaml:"primary_carriers" mapstructure:"primary_carriers"`
	SecondaryCarrier string   `yaml:"secondary_carrier" mapstructure:"secondary_carrier"`
	RecentLimit      int      `yaml:"recent_limit" mapstructure:"recent_limit"`
}

// GeocodeConfig configures the place-name geocoder.
type GeocodeConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	SuggestLimit int     `yaml:"suggest_limit" mapstructure:"suggest_limit"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CacheSize    int     `yaml:"cache_size" mapstructure:"cache_size"`
	DebounceMs   int     `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// ExportConfig configures spreadsheet and shapefile export.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the map API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MonitorConfig configures ingest freshness checks.
type MonitorConfig struct {
	StaleHours        int `yaml:"stale_hours" mapstructure:"stale_hours"`
	CheckIntervalMins int `yaml:"check_interval_mins" mapstructure:"check_interval_mins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RRF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("registry.api_url", "https://rrf.rsm.govt.nz/api/public_search/licence")
	v.SetDefault("registry.page_size", 5000)
	v.SetDefault("registry.max_pages", 0)
	v.SetDefault("registry.licence_type", 178)
	v.SetDefault("registry.order_by", "id desc")
	v.SetDefault("registry.suppressed", false)
	v.SetDefault("registry.sleep_ms", 0)
	v.SetDefault("registry.timeout_secs", 60)
	v.SetDefault("registry.max_retries", 5)
	v.SetDefault("registry.rate_per_sec", 2.0)
	v.SetDefault("registry.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "rrf.db")
	v.SetDefault("store.json_path", "rrf_licences.json")
	v.SetDefault("geo.enable_tm2000", true)
	v.SetDefault("geo.direct_tags", []string{"D", "D2000"})
	v.SetDefault("geo.projected_tag", "TM2000")
	v.SetDefault("geo.min_lat", -60.0)
	v.SetDefault("geo.max_lat", -20.0)
	v.SetDefault("geo.min_lon", 150.0)
	v.SetDefault("geo.max_lon", 190.0)
	v.SetDefault("facets.excluded_carriers", []string{"uber"})
	v.SetDefault("cluster.radius_m", 50.0)
	v.SetDefault("cluster.offset_m", 25.0)
	v.SetDefault("cluster.primary_carriers", []string{"2degrees", "one", "spark"})
	v.SetDefault("cluster.secondary_carrier", "rcg")
	v.SetDefault("cluster.recent_limit", 10)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "rrf-map/1.0")
	v.SetDefault("geocode.suggest_limit", 6)
	v.SetDefault("geocode.rate_per_sec", 1.0)
	v.SetDefault("geocode.cache_size", 256)
	v.SetDefault("geocode.debounce_ms", 120)
	v.SetDefault("export.dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("monitor.stale_hours", 168)
	v.SetDefault("monitor.check_interval_mins", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that required fields are present for the given command.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "ingest":
		if c.Registry.APIURL == "" {
			errs = append(errs, "registry.api_url is required")
		}
		if c.Registry.PageSize < 1 {
			errs = append(errs, "registry.page_size must be > 0")
		}
		if c.Registry.MaxPages < 0 {
			errs = append(errs, "registry.max_pages must be >= 0")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Cluster.RadiusM <= 0 {
			errs = append(errs, "cluster.radius_m must be > 0")
		}
	case "export", "status", "nearest", "normalize":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "json":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	default:
		errs = append(errs, "store.driver must be one of sqlite, postgres, json")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
