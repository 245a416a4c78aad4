package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		LockTTL  string `yaml:"lockTtl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"auth"`
	Rewards struct {
		BaseURL string `yaml:"baseUrl"`
		APIKey  string `yaml:"apiKey"`
		Timeout string `yaml:"timeout"`
	} `yaml:"rewards"`
	Challenge struct {
		CacheTTL         string `yaml:"cacheTTL"`
		Cooldown         string `yaml:"cooldown"`
		Schedule         string `yaml:"schedule"`
		LeaderboardLimit int    `yaml:"leaderboardLimit"`
	} `yaml:"challenge"`
}

// Load reads YAML config from path, then applies environment overrides.
// A missing file is not an error so the service can run from env alone.
// Variables in a .env file next to the working directory are loaded first
// and never replace ones already set.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	if cfg.Challenge.Schedule == "" {
		cfg.Challenge.Schedule = "0 0 * * 1"
	}
	if cfg.Challenge.LeaderboardLimit == 0 {
		cfg.Challenge.LeaderboardLimit = 100
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"PORT":             &cfg.Server.Port,
		"REDIS_ADDR":       &cfg.Redis.Addr,
		"REDIS_PASSWORD":   &cfg.Redis.Password,
		"POSTGRES_URL":     &cfg.Postgres.URL,
		"JWT_SECRET":       &cfg.Auth.JWTSecret,
		"REWARDS_BASE_URL": &cfg.Rewards.BaseURL,
		"REWARDS_API_KEY":  &cfg.Rewards.APIKey,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
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
