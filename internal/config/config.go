// Package config loads the runner configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chstech1/osTicket-Task-Creator/internal/store"
)

// Config is the YAML configuration. Flags override file values.
type Config struct {
	Store StoreConfig `yaml:"store"`

	// DataDir holds templates.json and clients.json.
	DataDir string `yaml:"data_dir"`

	// AuditPath is the audit artifact location.
	AuditPath string `yaml:"audit_path"`

	// SystemIdentity is the poster name used when a thread entry has no
	// resolvable staff author.
	SystemIdentity string `yaml:"system_identity"`
}

// StoreConfig locates the record store and names its write contract.
type StoreConfig struct {
	Path    string `yaml:"path"`
	Profile string `yaml:"profile"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Path:    "osticket.db",
			Profile: string(store.ProfileForms),
		},
		DataDir:        "data",
		AuditPath:      "created-tasks.json",
		SystemIdentity: "SYSTEM",
	}
}

// Load reads the config file at path, layered over Default. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for internally inconsistent values.
func (c Config) Validate() error {
	if !store.ValidProfile(store.Profile(c.Store.Profile)) {
		return fmt.Errorf("unknown store profile %q (want %q or %q)",
			c.Store.Profile, store.ProfileCore, store.ProfileForms)
	}
	return nil
}
