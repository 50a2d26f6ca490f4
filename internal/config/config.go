package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment variable.
	EnvPrefix = "INBOXSIZER"

	// DefaultQuery lists inbox updates that carry none of the size labels.
	DefaultQuery = "label:inbox category:updates -label:Short -label:Medium -label:Long -label:XL"

	appName = "inboxsizer"
)

// Config is the resolved application configuration.
type Config struct {
	Account             string        `mapstructure:"account"`
	Query               string        `mapstructure:"query"`
	PageSize            int64         `mapstructure:"page_size"`
	Concurrency         int           `mapstructure:"concurrency"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	RateLimit           float64       `mapstructure:"rate_limit"`
	RateBurst           int           `mapstructure:"rate_burst"`
	CreateMissingLabels bool          `mapstructure:"create_missing_labels"`

	History HistoryConfig `mapstructure:"history"`
	Google  GoogleConfig  `mapstructure:"google"`
	Log     LogConfig     `mapstructure:"log"`
}

// HistoryConfig controls the local record of applied actions.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// GoogleConfig holds the OAuth client used to obtain Gmail tokens.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Loader resolves a Config from defaults, file, environment and flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with defaults and environment binding set up.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("account", "default")
	v.SetDefault("query", DefaultQuery)
	v.SetDefault("page_size", 10)
	v.SetDefault("concurrency", 8)
	v.SetDefault("fetch_timeout", "15s")
	v.SetDefault("rate_limit", 20.0)
	v.SetDefault("rate_burst", 10)
	v.SetDefault("create_missing_labels", false)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", defaultHistoryPath())

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_url", "urn:ietf:wg:oauth:2.0:oob")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func defaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appName, "history.db")
}

// BindFlag makes a command-line flag override the given key when set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %q", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file and returns the resolved Config. An explicit
// configFile must exist; otherwise the default locations are searched and a
// missing file is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(dir, appName))
		}
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, fmt.Errorf("page_size must be between 1 and 100, got %d", c.PageSize))
	}
	if c.Concurrency < 1 || c.Concurrency > 32 {
		errs = append(errs, fmt.Errorf("concurrency must be between 1 and 32, got %d", c.Concurrency))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit must be positive, got %v", c.RateLimit))
	}
	if c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate_burst must be at least 1, got %d", c.RateBurst))
	}
	if strings.TrimSpace(c.Query) == "" {
		errs = append(errs, errors.New("query must not be empty"))
	}
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history.path is required when history is enabled"))
	}
	return errors.Join(errs...)
}
