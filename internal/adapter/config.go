package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StoreDriver identifies the local store backend
type StoreDriver string

const (
	StoreDriverBolt   StoreDriver = "bolt"
	StoreDriverSQLite StoreDriver = "sqlite"
)

// Config holds all application configuration
type Config struct {
	IGDB    IGDBConfig    `mapstructure:"igdb"`
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// IGDBConfig holds the game catalog provider settings
type IGDBConfig struct {
	ClientID     string        `mapstructure:"client_id"`     // Twitch application client ID
	ClientSecret string        `mapstructure:"client_secret"` // Twitch application client secret
	BaseURL      string        `mapstructure:"base_url"`
	TokenURL     string        `mapstructure:"token_url"`
	FallbackTTL  time.Duration `mapstructure:"fallback_ttl"` // Used when the token response has no expires_in
}

// TMDBConfig holds the film catalog provider settings
type TMDBConfig struct {
	ReadToken string `mapstructure:"read_token"` // v4 read access token
	BaseURL   string `mapstructure:"base_url"`
}

// HTTPConfig holds transport settings shared by both providers
type HTTPConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"` // Retries on 429 only
}

// StoreConfig holds local cache settings
type StoreConfig struct {
	Driver StoreDriver `mapstructure:"driver"` // "bolt" or "sqlite"
	Path   string      `mapstructure:"path"`   // Directory holding the database file
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		IGDB: IGDBConfig{
			BaseURL:     "https://api.igdb.com/v4",
			TokenURL:    "https://id.twitch.tv/oauth2/token",
			FallbackTTL: 30 * 24 * time.Hour,
		},
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
		},
		HTTP: HTTPConfig{
			Timeout:  30 * time.Second,
			RetryMax: 2,
		},
		Store: StoreConfig{
			Driver: StoreDriverBolt,
			Path:   defaultDataPath(),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "backlog.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "backlog")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "backlog")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "backlog")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "backlog")
	}
}

// LoadConfig loads configuration from file and environment.
// An empty path searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Register every key so environment overrides reach Unmarshal
	setDefaults(v, cfg)

	// Environment variable overrides: BACKLOG_IGDB_CLIENT_ID, BACKLOG_STORE_DRIVER, ...
	v.SetEnvPrefix("BACKLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("igdb.client_id", cfg.IGDB.ClientID)
	v.SetDefault("igdb.client_secret", cfg.IGDB.ClientSecret)
	v.SetDefault("igdb.base_url", cfg.IGDB.BaseURL)
	v.SetDefault("igdb.token_url", cfg.IGDB.TokenURL)
	v.SetDefault("igdb.fallback_ttl", cfg.IGDB.FallbackTTL)

	v.SetDefault("tmdb.read_token", cfg.TMDB.ReadToken)
	v.SetDefault("tmdb.base_url", cfg.TMDB.BaseURL)

	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.retry_max", cfg.HTTP.RetryMax)

	v.SetDefault("store.driver", string(cfg.Store.Driver))
	v.SetDefault("store.path", cfg.Store.Path)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverBolt, StoreDriverSQLite:
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.RetryMax < 0 {
		return fmt.Errorf("http.retry_max must not be negative")
	}
	return nil
}

// IsConfigured returns true if the IGDB client credentials are set
func (c *Config) IsConfigured() bool {
	return c.IGDB.ClientID != "" && c.IGDB.ClientSecret != ""
}

// HasFilms returns true if a TMDB read token is set
func (c *Config) HasFilms() bool {
	return c.TMDB.ReadToken != ""
}

// SaveConfig writes the provider credentials and store settings to path.
// An empty path writes config.yaml in the default config directory.
// The file holds secrets, so it is only readable by the owner.
func SaveConfig(cfg *Config, path string) error {
	configFile := path
	if configFile == "" {
		configFile = filepath.Join(defaultConfigPath(), "config.yaml")
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("igdb.client_id", cfg.IGDB.ClientID)
	v.Set("igdb.client_secret", cfg.IGDB.ClientSecret)
	v.Set("tmdb.read_token", cfg.TMDB.ReadToken)
	v.Set("store.driver", string(cfg.Store.Driver))
	v.Set("store.path", cfg.Store.Path)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(configFile, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}

	return nil
}
