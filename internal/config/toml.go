// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Storage StorageConfig `toml:"storage"`
	Quiz    QuizConfig    `toml:"quiz"`
}

// StorageConfig maps storage-related settings.
type StorageConfig struct {
	Backend *string `toml:"backend"`
	DataDir *string `toml:"data-dir"`
}

// QuizConfig maps session-related settings.
type QuizConfig struct {
	Profile      *string `toml:"profile"`
	MinQuestions *int    `toml:"min-questions"`
	Choices      *int    `toml:"choices"`
	Seed         *int64  `toml:"seed"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
