package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	JoinCode struct {
		Length      int    `yaml:"length"`
		MaxAttempts int    `yaml:"max_attempts"`
		CacheTTL    string `yaml:"cache_ttl"`
	} `yaml:"join_code"`
	Scoring struct {
		SpeedBonusRate *float64 `yaml:"speed_bonus_rate"`
	} `yaml:"scoring"`
	RateLimit struct {
		Requests int    `yaml:"requests"`
		Window   string `yaml:"window"`
	} `yaml:"rate_limit"`
	Storage struct {
		Endpoint        string `yaml:"endpoint"`
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		PublicBaseURL   string `yaml:"public_base_url"`
	} `yaml:"storage"`
	Expiry struct {
		Interval string `yaml:"interval"`
	} `yaml:"expiry"`
}

// Load reads YAML config from path. A missing file yields the zero config so the
// service can run on defaults. Values may reference the environment as ${VAR}.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// SpeedBonusRate returns the configured rate or fallback when unset.
func (c Config) SpeedBonusRate(fallback float64) float64 {
	if c.Scoring.SpeedBonusRate == nil || *c.Scoring.SpeedBonusRate < 0 {
		return fallback
	}
	return *c.Scoring.SpeedBonusRate
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
