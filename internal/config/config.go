package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"millionaire-quiz-service/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"MILLIONAIRE_SERVER_PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"MILLIONAIRE_REDIS_ADDR"`
		Password string `yaml:"password" env:"MILLIONAIRE_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"MILLIONAIRE_REDIS_DB"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"MILLIONAIRE_POSTGRES_URL"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path" env:"MILLIONAIRE_SQLITE_PATH"`
	} `yaml:"sqlite"`
	Questions struct {
		TTL string `yaml:"ttl" env:"MILLIONAIRE_QUESTIONS_TTL"`
	} `yaml:"questions"`
	Game struct {
		TimeLimit       string   `yaml:"time_limit" env:"MILLIONAIRE_GAME_TIME_LIMIT"`
		Prizes          []int    `yaml:"prizes" env:"MILLIONAIRE_GAME_PRIZES" envSeparator:","`
		FireproofLevels []int    `yaml:"fireproof_levels" env:"MILLIONAIRE_GAME_FIREPROOF_LEVELS" envSeparator:","`
		Locale          string   `yaml:"locale" env:"MILLIONAIRE_GAME_LOCALE"`
		Friends         []string `yaml:"friends" env:"MILLIONAIRE_GAME_FRIENDS" envSeparator:","`
	} `yaml:"game"`
}

// Load reads YAML config from path, then applies MILLIONAIRE_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv exports variables from the given .env files (default ".env") into the
// process environment. Missing files are skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ParseEnv overlays environment variables onto target. Unset variables keep the current values.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Ladder builds the game ladder, starting from the classic one and replacing
// whatever the config sets.
func (c Config) Ladder() (domain.Ladder, error) {
	ladder := domain.DefaultLadder()
	if len(c.Game.Prizes) > 0 {
		ladder.Prizes = c.Game.Prizes
	}
	if c.Game.FireproofLevels != nil {
		ladder.Fireproof = c.Game.FireproofLevels
	}
	ladder.TimeLimit = TTLDuration(c.Game.TimeLimit, ladder.TimeLimit)
	if err := ladder.Validate(); err != nil {
		return domain.Ladder{}, err
	}
	return ladder, nil
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
