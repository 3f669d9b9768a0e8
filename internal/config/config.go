package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode      string          `mapstructure:"mode"`
	Port      int             `mapstructure:"port"`
	Secret    string          `mapstructure:"secret"`
	LogLevel  string          `mapstructure:"log_level"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Signaling SignalingConfig `mapstructure:"signaling"`
	Calls     CallsConfig     `mapstructure:"calls"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type SessionConfig struct {
	MaxAge time.Duration `mapstructure:"max_age"`
	Secure bool          `mapstructure:"secure"`
}

type SignalingConfig struct {
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	ReapInterval  time.Duration `mapstructure:"reap_interval"`
	MaxCandidates int           `mapstructure:"max_candidates"`
}

type CallsConfig struct {
	PendingTTL     time.Duration `mapstructure:"pending_ttl"`
	InitiateLimit  int           `mapstructure:"initiate_limit"`
	InitiateWindow time.Duration `mapstructure:"initiate_window"`
}

// Load reads config/config.<CONFIG_ENV>.yaml on top of the defaults.
// Any key can be overridden by a MESSENGER_ prefixed env var, e.g.
// MESSENGER_DATABASE_DSN. A .env file in the working directory is loaded first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Str("module", "config").Msg("loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.SetEnvPrefix("MESSENGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("db_driver", cfg.Database.Driver).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 5000)
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")
	v.SetDefault("session.max_age", "1h")
	v.SetDefault("session.secure", false)
	v.SetDefault("signaling.session_ttl", "10m")
	v.SetDefault("signaling.reap_interval", "1m")
	v.SetDefault("signaling.max_candidates", 256)
	v.SetDefault("calls.pending_ttl", "0s")
	v.SetDefault("calls.initiate_limit", 10)
	v.SetDefault("calls.initiate_window", "1m")
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Secret == "" && c.Mode == "release" {
		return fmt.Errorf("secret must be set in release mode")
	}
	if c.Signaling.MaxCandidates < 0 {
		return fmt.Errorf("signaling.max_candidates must not be negative")
	}
	return nil
}
