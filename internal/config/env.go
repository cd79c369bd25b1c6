package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvDataDir      = "QUIZLY_DATA_DIR"
	EnvBackend      = "QUIZLY_BACKEND"
	EnvProfile      = "QUIZLY_PROFILE"
	EnvMinQuestions = "QUIZLY_MIN_QUESTIONS"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg FileConfig) (FileConfig, error) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Storage.DataDir = &v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Storage.Backend = &v
	}
	if v := os.Getenv(EnvProfile); v != "" {
		cfg.Quiz.Profile = &v
	}
	if v := os.Getenv(EnvMinQuestions); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s=%q: %w", EnvMinQuestions, v, err)
		}
		cfg.Quiz.MinQuestions = &n
	}
	return cfg, nil
}
