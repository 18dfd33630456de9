// Package config loads the paybook configuration: monitored sheets,
// workbook locations and collaborator credentials. Secrets can live in the
// YAML file, in the environment, or in a .env file next to the process.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	Workbook        Workbook            `yaml:"workbook"`
	Dropbox         Dropbox             `yaml:"dropbox"`
	Pushover        Pushover            `yaml:"pushover"`
	MonitoredSheets map[string][]string `yaml:"monitored_sheets"`
	Providers       []Provider          `yaml:"providers"`
}

// Workbook locates the ledger document remotely and on disk.
type Workbook struct {
	RemotePath string `yaml:"remote_path"`
	LocalPath  string `yaml:"local_path"`
}

// Dropbox holds the storage access token.
type Dropbox struct {
	Token string `yaml:"token"`
}

// Pushover holds the notification credentials.
type Pushover struct {
	Token string `yaml:"token"`
	User  string `yaml:"user"`
}

// Provider binds one external data source to a (sheet, category) pair of
// the ledger.
type Provider struct {
	Name     string `yaml:"name"`
	Sheet    string `yaml:"sheet"`
	Category string `yaml:"category"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads a YAML configuration file. A .env file in the working
// directory is loaded first when present; environment variables override
// file values for every secret (PAYBOOK_DROPBOX_TOKEN,
// PAYBOOK_PUSHOVER_TOKEN, PAYBOOK_PUSHOVER_USER and per-provider
// PAYBOOK_<NAME>_USERNAME / PAYBOOK_<NAME>_PASSWORD).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Parse decodes configuration bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Workbook.RemotePath == "" {
		cfg.Workbook.RemotePath = "/Oplaty.xlsm"
	}
	if cfg.Workbook.LocalPath == "" {
		cfg.Workbook.LocalPath = "Oplaty.xlsm"
	}
	if len(cfg.MonitoredSheets) == 0 {
		return nil, fmt.Errorf("monitored_sheets must not be empty")
	}
	for name, cols := range cfg.MonitoredSheets {
		if len(cols) == 0 {
			return nil, fmt.Errorf("sheet %q has no monitored columns", name)
		}
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	override(&c.Dropbox.Token, "PAYBOOK_DROPBOX_TOKEN")
	override(&c.Pushover.Token, "PAYBOOK_PUSHOVER_TOKEN")
	override(&c.Pushover.User, "PAYBOOK_PUSHOVER_USER")
	for i := range c.Providers {
		prefix := "PAYBOOK_" + strings.ToUpper(c.Providers[i].Name)
		override(&c.Providers[i].Username, prefix+"_USERNAME")
		override(&c.Providers[i].Password, prefix+"_PASSWORD")
	}
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
