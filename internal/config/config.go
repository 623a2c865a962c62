// Package config loads datebook settings. Values are layered: built-in
// defaults, then an optional YAML file, then DATEBOOK_* environment
// variables. Command-line flags are applied on top by the CLI.
//
// Environment variables:
//   - DATEBOOK_DATA_SOURCE: JSON directory, SQLite file, postgres:// or redis:// URL, or "keyring"
//   - DATEBOOK_ADDR: HTTP listen address (default :8080)
//   - DATEBOOK_LOG_DIR, DATEBOOK_LOG_LEVEL, DATEBOOK_DEBUG
//   - DATEBOOK_BACKUP_DIR, DATEBOOK_BACKUP_SCHEDULE, DATEBOOK_MAX_BACKUPS
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/utils"
)

type Config struct {
	DataSource string       `yaml:"data_source"`
	Server     ServerConfig `yaml:"server"`
	Log        LogConfig    `yaml:"log"`
	Backup     BackupConfig `yaml:"backup"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

type BackupConfig struct {
	Dir string `yaml:"dir"`
	// Schedule is a cron spec; empty disables scheduled snapshots
	Schedule   string `yaml:"schedule"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataSource: constants.DefaultDataDir,
		Server: ServerConfig{
			Addr: constants.DefaultAddr,
		},
		Log: LogConfig{
			Dir: filepath.Join(constants.DefaultDataDir, constants.LogDirName),
		},
		Backup: BackupConfig{
			Dir:        filepath.Join(constants.DefaultDataDir, constants.BackupDirName),
			Schedule:   constants.DefaultBackupSchedule,
			MaxBackups: constants.MaxBackups,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. A missing file is not an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		expanded, err := utils.ExpandPath(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.loadFile(expanded); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(constants.EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	setString("DATA_SOURCE", &c.DataSource)
	setString("ADDR", &c.Server.Addr)
	setString("LOG_DIR", &c.Log.Dir)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("BACKUP_DIR", &c.Backup.Dir)
	if v, ok := os.LookupEnv(constants.EnvPrefix + "BACKUP_SCHEDULE"); ok {
		c.Backup.Schedule = v
	}

	if v := os.Getenv(constants.EnvPrefix + "DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEBUG: %w", constants.EnvPrefix, err)
		}
		c.Log.Debug = debug
	}
	if v := os.Getenv(constants.EnvPrefix + "MAX_BACKUPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_BACKUPS: %w", constants.EnvPrefix, err)
		}
		c.Backup.MaxBackups = n
	}
	return nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Log.Dir, &c.Backup.Dir} {
		expanded, err := utils.ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}

	// URLs and the keyring marker are not paths.
	if !strings.Contains(c.DataSource, "://") {
		expanded, err := utils.ExpandPath(c.DataSource)
		if err != nil {
			return err
		}
		c.DataSource = expanded
	}
	return nil
}

// Validate checks the values Load cannot check while parsing.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataSource) == "" {
		return fmt.Errorf("data source is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Backup.MaxBackups < 1 {
		return fmt.Errorf("max_backups must be at least 1, got %d", c.Backup.MaxBackups)
	}
	if c.Backup.Schedule != "" {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid backup schedule %q: %w", c.Backup.Schedule, err)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}
