package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"millionaire-quiz-service/internal/domain"
)

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
redis:
  addr: localhost:6379
questions:
  ttl: 2m
game:
  time_limit: 20m
  locale: ru
  friends: [Alice, Bob]
`)
	t.Setenv("MILLIONAIRE_REDIS_ADDR", "redis:6380")
	t.Setenv("MILLIONAIRE_GAME_PRIZES", "10,20,30")
	t.Setenv("MILLIONAIRE_GAME_FIREPROOF_LEVELS", "1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from yaml, got %q", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("expected env override, got %q", cfg.Redis.Addr)
	}
	if cfg.Game.Locale != "ru" || len(cfg.Game.Friends) != 2 {
		t.Fatalf("unexpected game config %+v", cfg.Game)
	}
	if TTLDuration(cfg.Questions.TTL, time.Minute) != 2*time.Minute {
		t.Fatalf("expected question ttl 2m")
	}

	ladder, err := cfg.Ladder()
	if err != nil {
		t.Fatalf("ladder: %v", err)
	}
	if ladder.Levels() != 3 || ladder.Jackpot() != 30 || ladder.TimeLimit != 20*time.Minute {
		t.Fatalf("unexpected ladder %+v", ladder)
	}
	if ladder.FireproofPrize(2) != 20 {
		t.Fatalf("expected checkpoint at level 1, got %d", ladder.FireproofPrize(2))
	}
}

func TestLadderDefaults(t *testing.T) {
	ladder, err := Config{}.Ladder()
	if err != nil {
		t.Fatalf("ladder: %v", err)
	}
	def := domain.DefaultLadder()
	if ladder.Levels() != 15 || ladder.Jackpot() != 1000000 || ladder.TimeLimit != def.TimeLimit {
		t.Fatalf("expected default ladder, got %+v", ladder)
	}
}

func TestLadderRejectsBadPrizes(t *testing.T) {
	var cfg Config
	cfg.Game.Prizes = []int{100, 50}
	if _, err := cfg.Ladder(); !errors.Is(err, domain.ErrInvalidLadder) {
		t.Fatalf("expected ErrInvalidLadder, got %v", err)
	}
}

func TestLoadEnvError(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"8080\"\n")
	t.Setenv("MILLIONAIRE_REDIS_DB", "not-an-int")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Second); got != time.Second {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("MILLIONAIRE_GAME_LOCALE=ru\nMILLIONAIRE_SERVER_PORT=7000\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("MILLIONAIRE_SERVER_PORT", "9000")
	t.Setenv("MILLIONAIRE_GAME_LOCALE", "")
	os.Unsetenv("MILLIONAIRE_GAME_LOCALE")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("MILLIONAIRE_GAME_LOCALE"); got != "ru" {
		t.Fatalf("expected locale from .env, got %q", got)
	}
	if got := os.Getenv("MILLIONAIRE_SERVER_PORT"); got != "9000" {
		t.Fatalf("expected existing variable to win, got %q", got)
	}
}
