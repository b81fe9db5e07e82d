package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is prepended to every environment override key.
const EnvPrefix = "YTMP_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	YouTube  YouTubeConfig  `toml:"youtube"`
	OAuth    OAuthConfig    `toml:"oauth"`
	Breaker  BreakerConfig  `toml:"breaker"`
	Health   HealthConfig   `toml:"health"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	CORSOrigins     []string      `toml:"cors_origins"`
	RateLimit       int           `toml:"rate_limit"`
	Docs            bool          `toml:"docs"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// YouTubeConfig contains upstream client settings.
type YouTubeConfig struct {
	Language            string        `toml:"language"`
	Location            string        `toml:"location"`
	AuthFile            string        `toml:"auth_file"`
	AllowHeaderOverride bool          `toml:"allow_header_override"`
	RequestsPerSecond   float64       `toml:"requests_per_second"`
	Burst               int           `toml:"burst"`
	Timeout             time.Duration `toml:"timeout"`
}

// OAuthConfig contains the Google OAuth client used for device flow.
type OAuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// BreakerConfig tunes the circuit breaker in front of the upstream API.
type BreakerConfig struct {
	MaxRequests  uint32        `toml:"max_requests"`
	Interval     time.Duration `toml:"interval"`
	Timeout      time.Duration `toml:"timeout"`
	MinRequests  uint32        `toml:"min_requests"`
	FailureRatio float64       `toml:"failure_ratio"`
}

// HealthConfig controls the upstream health prober.
type HealthConfig struct {
	ProbeQuery string        `toml:"probe_query"`
	Interval   time.Duration `toml:"interval"`
	CacheTTL   time.Duration `toml:"cache_ttl"`
	Retention  time.Duration `toml:"retention"`
}

// DatabaseConfig contains database connection settings.
//
// An empty path disables persistence.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	Level     string `toml:"level"`
	Formatter string `toml:"formatter"`
	File      string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ResolveConfig loads path when it exists and falls back to defaults otherwise, then applies environment overrides.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads .env files into the process environment. Missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values from YTMP_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	str("HOST", &c.Server.Host)
	str("AUTH_FILE", &c.YouTube.AuthFile)
	str("LANGUAGE", &c.YouTube.Language)
	str("LOCATION", &c.YouTube.Location)
	str("OAUTH_CLIENT_ID", &c.OAuth.ClientID)
	str("OAUTH_CLIENT_SECRET", &c.OAuth.ClientSecret)
	str("DATABASE_PATH", &c.Database.Path)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Formatter)
	str("LOG_FILE", &c.Logging.File)
	str("PROBE_QUERY", &c.Health.ProbeQuery)

	if v, ok := lookup(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sPORT=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Server.Port = port
	}

	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}

	if v, ok := lookup(EnvPrefix + "ALLOW_AUTH_HEADER"); ok {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sALLOW_AUTH_HEADER=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		c.YouTube.AllowHeaderOverride = allow
	}

	if v, ok := lookup(EnvPrefix + "HEALTH_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sHEALTH_INTERVAL=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Health.Interval = d
	}

	return nil
}

// Validate reports the first configuration value that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	case c.YouTube.RequestsPerSecond < 0:
		return fmt.Errorf("%w: youtube.requests_per_second must not be negative", ErrInvalidConfig)
	case c.Breaker.FailureRatio < 0 || c.Breaker.FailureRatio > 1:
		return fmt.Errorf("%w: breaker.failure_ratio must be within [0, 1]", ErrInvalidConfig)
	case c.Health.ProbeQuery == "":
		return fmt.Errorf("%w: health.probe_query is empty", ErrInvalidConfig)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
