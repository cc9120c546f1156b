package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration. Flags override file values.
type Config struct {
	Listen        string `yaml:"listen"`
	Backend       string `yaml:"backend"` // mem or localfs
	Root          string `yaml:"root"`    // localfs archive root
	MetricsListen string `yaml:"metrics_listen"`
}

func defaultConfig() Config {
	return Config{
		Listen:  "127.0.0.1:7781",
		Backend: "localfs",
		Root:    defaultRoot(),
	}
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zephyra/archive"
	}
	return home + "/.zephyra/archive"
}

// loadConfig reads the YAML file at path over the defaults. An empty path
// returns the defaults untouched.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
