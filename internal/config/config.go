package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// Environment variables read without the TRPC_ prefix.
const (
	EnvPort      = "PORT"
	EnvJWTSecret = "JWT_SECRET"
)

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig      `mapstructure:"http"`
	Auth       AuthConfig      `mapstructure:"auth"`
	Log        LogConfig       `mapstructure:"log"`
	Redis      RedisConfig     `mapstructure:"redis"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	Audit      AuditConfig     `mapstructure:"audit"`
	Client     ClientConfig    `mapstructure:"client"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address derived from Port.
func (h HTTPConfig) Addr() string { return ":" + h.Port }

type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret"`
	AdminCredential string `mapstructure:"admin_credential"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type AuditConfig struct {
	BufferSize int           `mapstructure:"buffer_size"`
	BatchSize  int           `mapstructure:"batch_size"`
	BatchWait  time.Duration `mapstructure:"batch_wait"`
}

type ClientConfig struct {
	URL           string        `mapstructure:"url"`
	Authorization string        `mapstructure:"authorization"`
	Timeout       time.Duration `mapstructure:"timeout"`
	BatchWait     time.Duration `mapstructure:"batch_wait"`
	MaxBatch      int           `mapstructure:"max_batch"`
}

// ConfigError reports missing or invalid required settings.
type ConfigError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, " or ")+" in environment variables")
	}
	for k, v := range e.Invalid {
		parts = append(parts, fmt.Sprintf("invalid %s: %s", k, v))
	}
	return "config: " + strings.Join(parts, "; ")
}

// Load reads embedded defaults, merges user YAML (if provided), and applies
// env overrides (TRPC_*, plus PORT and JWT_SECRET).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	// env override (TRPC_HTTP_PORT, ...)
	v.SetEnvPrefix("TRPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("http.port", EnvPort); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv("auth.jwt_secret", EnvJWTSecret); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RequireServer checks the values the server cannot start without.
func (c Config) RequireServer() error {
	e := &ConfigError{}
	if strings.TrimSpace(c.HTTP.Port) == "" {
		e.Missing = append(e.Missing, EnvPort)
	} else if n, err := strconv.Atoi(c.HTTP.Port); err != nil || n <= 0 || n > 65535 {
		e.Invalid = map[string]string{EnvPort: strconv.Quote(c.HTTP.Port)}
	}
	if c.Auth.JWTSecret == "" {
		e.Missing = append(e.Missing, EnvJWTSecret)
	}

	if len(e.Missing) > 0 || len(e.Invalid) > 0 {
		return e
	}
	return nil
}
