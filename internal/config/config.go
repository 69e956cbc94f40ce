package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration (file + env overrides)
type Config struct {
	Server struct {
		Addr        string `mapstructure:"addr"`
		LogLevel    string `mapstructure:"log_level"`
		MetricsAddr string `mapstructure:"metrics_addr"`
	} `mapstructure:"server"`

	API struct {
		BaseURL       string        `mapstructure:"base_url"`
		QueryToken    string        `mapstructure:"query_token"`
		Timeout       time.Duration `mapstructure:"timeout"`
		ReplayMethods []string      `mapstructure:"replay_methods"`
		MaxReplays    int           `mapstructure:"max_replays"`
	} `mapstructure:"api"`

	Token struct {
		Backend string `mapstructure:"backend"` // "memory" | "redis"
		Key     string `mapstructure:"key"`
		Redis   struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"token"`

	Sandbox struct {
		Secret   string `mapstructure:"secret"`
		SeedFile string `mapstructure:"seed_file"`
	} `mapstructure:"sandbox"`

	Postgres struct {
		Host         string `mapstructure:"host"`
		Port         int    `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		DBName       string `mapstructure:"db_name"`
		SSLMode      string `mapstructure:"ssl_mode"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
	} `mapstructure:"postgres"`

	Listener struct {
		Channel          string `mapstructure:"channel"`
		ReconnectSeconds int    `mapstructure:"reconnect_seconds"`
	} `mapstructure:"listener"`
}

// keys is the set of keys registered with viper so that env-only
// configuration reaches Unmarshal.
var keys = []string{
	"server.addr", "server.log_level", "server.metrics_addr",
	"api.base_url", "api.query_token", "api.timeout", "api.replay_methods", "api.max_replays",
	"token.backend", "token.key", "token.redis.addr", "token.redis.password", "token.redis.db",
	"sandbox.secret", "sandbox.seed_file",
	"postgres.host", "postgres.port", "postgres.user", "postgres.password", "postgres.db_name",
	"postgres.ssl_mode", "postgres.max_open_conns", "postgres.max_idle_conns",
	"listener.channel", "listener.reconnect_seconds",
}

// Load reads configs/application.yaml (optional) and APP_* env overrides.
func Load() (Config, error) {
	return LoadFrom("configs")
}

func LoadFrom(paths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	_ = v.ReadInConfig() // optional; env can fully configure

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if !v.IsSet("api.max_replays") {
		cfg.API.MaxReplays = 1
	}
	validate(&cfg)
	return cfg, nil
}

func validate(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout <= 0 {
		c.API.Timeout = 10 * time.Second
	}
	if len(c.API.ReplayMethods) == 0 {
		c.API.ReplayMethods = []string{"GET"}
	}
	if c.API.MaxReplays < 0 {
		c.API.MaxReplays = 0
	}
	if c.Token.Backend == "" {
		c.Token.Backend = "memory"
	}
	if c.Token.Key == "" {
		c.Token.Key = "token"
	}
	if c.Token.Redis.Addr == "" {
		c.Token.Redis.Addr = "localhost:6379"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
	if c.Postgres.MaxOpenConns == 0 {
		c.Postgres.MaxOpenConns = 10
	}
	if c.Postgres.MaxIdleConns == 0 {
		c.Postgres.MaxIdleConns = 2
	}
	if c.Listener.Channel == "" {
		c.Listener.Channel = "campaign_changed"
	}
	if c.Listener.ReconnectSeconds <= 0 {
		c.Listener.ReconnectSeconds = 5
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DBName,
		c.Postgres.SSLMode,
	)
}

// UsePostgres reports whether the sandbox should persist to Postgres
// instead of the in-memory cache.
func (c Config) UsePostgres() bool { return c.Postgres.Host != "" }

func (c Config) Backoff() time.Duration { return time.Duration(c.Listener.ReconnectSeconds) * time.Second }
