// Package config loads service settings: built-in defaults, then an
// optional YAML file named by SKYPLAN_CONFIG, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"skyplan/internal/opt"
)

type Config struct {
	Port        string     `yaml:"port"`
	DatabaseURL string     `yaml:"databaseUrl"`
	DBMigrate   bool       `yaml:"dbMigrate"`
	RedisURL    string     `yaml:"redisUrl"`
	RateRPS     float64    `yaml:"rateRps"`
	RateBurst   int        `yaml:"rateBurst"`
	LogLevel    string     `yaml:"logLevel"`
	LogDir      string     `yaml:"logDir"`
	MaxSessions int        `yaml:"maxSessions"`
	Seed        int64      `yaml:"seed"`
	Optimizer   opt.Config `yaml:"optimizer"`
}

func Default() Config {
	return Config{
		Port:        "8080",
		DBMigrate:   true,
		RateRPS:     50,
		RateBurst:   100,
		LogLevel:    "info",
		MaxSessions: 256,
		Optimizer:   opt.DefaultConfig(),
	}
}

// Load builds the effective configuration.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("SKYPLAN_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse overlays YAML onto cfg. Keys absent from data keep their values.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getenv("DB_MIGRATE"); v != "" {
		cfg.DBMigrate = v != "false"
	}
	if v := getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	var errs []error
	if v := getenv("RATE_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		errs = append(errs, envErr("RATE_RPS", err))
		cfg.RateRPS = f
	}
	if v := getenv("RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, envErr("RATE_BURST", err))
		cfg.RateBurst = n
	}
	if v := getenv("MAX_SESSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, envErr("MAX_SESSIONS", err))
		cfg.MaxSessions = n
	}
	if v := getenv("OPT_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		errs = append(errs, envErr("OPT_SEED", err))
		cfg.Seed = n
	}
	if v := getenv("OPT_RESET_EACH_ROUND"); v != "" {
		b, err := strconv.ParseBool(v)
		errs = append(errs, envErr("OPT_RESET_EACH_ROUND", err))
		cfg.Optimizer.ResetEachRound = b
	}
	return errors.Join(errs...)
}

func envErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (c Config) Validate() error {
	if c.MaxSessions < 1 {
		return fmt.Errorf("maxSessions must be >= 1")
	}
	if c.RateRPS < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate limits must be >= 0")
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	return nil
}
