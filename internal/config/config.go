package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML, with environment
// overrides for values that differ per deployment.
type FileConfig struct {
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"logLevel"`
	DatabasePath  string `yaml:"databasePath"`
	ImageDir      string `yaml:"imageDir"`
	AuthToken     string `yaml:"authToken"`
	SeedURL       string `yaml:"seedURL"`
	MaxImageBytes int64  `yaml:"maxImageBytes"`
}

// Load reads config from path (defaults to config.yaml) and applies env
// overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("CATALOG_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("CATALOG_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = strings.TrimSpace(v)
	}
	if v := os.Getenv("CATALOG_IMAGE_DIR"); v != "" {
		cfg.ImageDir = strings.TrimSpace(v)
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("CATALOG_SEED_URL"); v != "" {
		cfg.SeedURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("CATALOG_MAX_IMAGE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxImageBytes = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or CATALOG_PORT)")
	}
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return errors.New("config: databasePath is required (set in config.yaml or CATALOG_DATABASE_PATH)")
	}
	if strings.TrimSpace(cfg.ImageDir) == "" {
		return errors.New("config: imageDir is required (set in config.yaml or CATALOG_IMAGE_DIR)")
	}
	if cfg.AuthToken == "" {
		return errors.New("config: authToken is required (set AUTH_TOKEN)")
	}
	if cfg.MaxImageBytes < 0 {
		return errors.New("config: maxImageBytes must be >= 0")
	}
	return nil
}
