package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load missing config: %v", err)
	}
	if cfg.Storage.Backend != nil || cfg.Quiz.Profile != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[storage]
backend = "sqlite"
data-dir = "/tmp/quizly"

[quiz]
profile = "alice"
min-questions = 3
choices = 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Storage.Backend == nil || *cfg.Storage.Backend != "sqlite" {
		t.Fatalf("unexpected backend: %v", cfg.Storage.Backend)
	}
	if cfg.Quiz.Profile == nil || *cfg.Quiz.Profile != "alice" {
		t.Fatalf("unexpected profile: %v", cfg.Quiz.Profile)
	}
	if cfg.Quiz.MinQuestions == nil || *cfg.Quiz.MinQuestions != 3 {
		t.Fatalf("unexpected min questions: %v", cfg.Quiz.MinQuestions)
	}
	if cfg.Quiz.Seed != nil {
		t.Fatalf("expected unset seed")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[quiz\nprofile ="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("QUIZLY_PROFILE=bob\nQUIZLY_MIN_QUESTIONS=2\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv(EnvProfile, "")
	t.Setenv(EnvMinQuestions, "")
	t.Setenv(EnvBackend, "sqlite")
	// t.Setenv restores the variables; unset them so the .env file fills them in.
	os.Unsetenv(EnvProfile)
	os.Unsetenv(EnvMinQuestions)
	if err := LoadDotEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}

	file := "alice"
	cfg, err := ApplyEnv(FileConfig{Quiz: QuizConfig{Profile: &file}})
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if *cfg.Quiz.Profile != "bob" {
		t.Fatalf("expected env profile, got %q", *cfg.Quiz.Profile)
	}
	if *cfg.Quiz.MinQuestions != 2 {
		t.Fatalf("expected env min questions, got %d", *cfg.Quiz.MinQuestions)
	}
	if *cfg.Storage.Backend != "sqlite" {
		t.Fatalf("expected env backend, got %q", *cfg.Storage.Backend)
	}
}

func TestApplyEnvInvalidNumber(t *testing.T) {
	t.Setenv(EnvMinQuestions, "five")
	if _, err := ApplyEnv(FileConfig{}); err == nil {
		t.Fatalf("expected error for invalid number")
	}
}

func TestDBPath(t *testing.T) {
	if got := DBPath("data"); got != filepath.Join("data", "quizly.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
}
