package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/gridkit/internal/fetcher"
	"github.com/sells-group/gridkit/internal/grid"
)

// Config is the top-level configuration.
type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Grid   GridConfig   `yaml:"grid" mapstructure:"grid"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// GridConfig tunes the interactive grid.
type GridConfig struct {
	DebounceMs      int               `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	RangeDebounceMs int               `yaml:"range_debounce_ms" mapstructure:"range_debounce_ms"`
	StickyMinWidth  int               `yaml:"sticky_min_width" mapstructure:"sticky_min_width"`
	Width           grid.WidthOptions `yaml:"width" mapstructure:"width"`
}

// Options converts the grid section into store options.
func (g GridConfig) Options() []grid.Option {
	return []grid.Option{
		grid.WithDebounce(
			time.Duration(g.DebounceMs)*time.Millisecond,
			time.Duration(g.RangeDebounceMs)*time.Millisecond,
		),
		grid.WithWidthOptions(g.Width),
	}
}

// FetchConfig configures remote source downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// HTTPOptions maps the fetch section onto the HTTP fetcher.
func (f FetchConfig) HTTPOptions() fetcher.HTTPOptions {
	return fetcher.HTTPOptions{
		UserAgent:  f.UserAgent,
		Timeout:    time.Duration(f.TimeoutSecs) * time.Second,
		MaxRetries: f.MaxRetries,
	}
}

// StoreConfig configures saved view persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the fields required by a command mode.
// Modes: "cli" (or ""), "store", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Grid.DebounceMs < 0 || c.Grid.RangeDebounceMs < 0 {
		errs = append(errs, "grid debounce must be >= 0")
	}
	if c.Grid.StickyMinWidth < 0 {
		errs = append(errs, "grid.sticky_min_width must be >= 0")
	}

	switch mode {
	case "", "cli":
	case "store":
		errs = append(errs, c.validateStore()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GRIDKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("grid.debounce_ms", 300)
	v.SetDefault("grid.range_debounce_ms", 250)
	v.SetDefault("grid.sticky_min_width", 700)
	v.SetDefault("grid.width.char_width", 15)
	v.SetDefault("grid.width.min_width", 100)
	v.SetDefault("grid.width.max_chars", 19)
	v.SetDefault("grid.width.first_column_extra", 30)
	v.SetDefault("grid.width.fallback", 150)
	v.SetDefault("fetch.user_agent", "gridkit/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "gridkit.db")
	v.SetDefault("server.port", 8080)

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
