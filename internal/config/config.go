package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DBPath            string   `json:"db_path" toml:"db_path"`
	StorageDriver     string   `json:"storage_driver" toml:"storage_driver"`
	StorageDSN        string   `json:"storage_dsn,omitempty" toml:"storage_dsn,omitempty"`
	StorageKey        string   `json:"storage_key" toml:"storage_key"`
	CorruptPolicy     string   `json:"corrupt_policy" toml:"corrupt_policy"`
	WebEnabled        bool     `json:"web_enabled" toml:"web_enabled"`
	WebPort           int      `json:"web_port" toml:"web_port"`
	WebAllowedOrigins []string `json:"web_allowed_origins" toml:"web_allowed_origins"`
	WebTokenSecret    string   `json:"web_token_secret,omitempty" toml:"web_token_secret,omitempty"`
	LogLevel          string   `json:"log_level" toml:"log_level"`
	LogPath           string   `json:"log_path" toml:"log_path"`
}

func Default() Config {
	return Config{
		StorageDriver:     "sqlite",
		StorageKey:        "todos",
		CorruptPolicy:     "reset",
		WebPort:           8080,
		WebAllowedOrigins: []string{"*"},
		LogLevel:          "info",
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazytodo", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// DSN is the connection string for the configured driver. SQLite falls back
// to DBPath.
func (c Config) DSN() string {
	if c.StorageDSN != "" {
		return c.StorageDSN
	}
	return c.DBPath
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), &config); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		return config, nil
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		encoded, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		data = encoded
	}

	return os.WriteFile(path, data, 0o600)
}
