package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultGlamourStyle = "dark"
	DefaultSessionKey   = "default"
	DefaultLogLevel     = "info"
	FileName            = "config.toml"
)

type AppConfig struct {
	Home         string
	DBPath       string
	ExportDir    string
	SessionKey   string
	LogPath      string
	LogLevel     string
	GlamourStyle string
	Verbose      bool
}

// Flags are the command-line overrides. Empty fields leave the file or
// default value in place.
type Flags struct {
	Home       string
	DBPath     string
	ExportDir  string
	SessionKey string
	Verbose    bool
}

type fileConfig struct {
	DBPath       string `toml:"db_path"`
	ExportDir    string `toml:"export_dir"`
	Session      string `toml:"session"`
	LogPath      string `toml:"log_path"`
	LogLevel     string `toml:"log_level"`
	GlamourStyle string `toml:"glamour_style"`
}

// Resolve layers defaults, <home>/config.toml and flags, in that order.
func Resolve(flags Flags) (AppConfig, error) {
	home, err := DetectHome(flags.Home)
	if err != nil {
		return AppConfig{}, err
	}
	cfg := Defaults(home)

	if err := cfg.loadFile(filepath.Join(home, FileName)); err != nil {
		return AppConfig{}, err
	}

	if flags.DBPath != "" {
		cfg.DBPath = filepath.Clean(flags.DBPath)
	}
	if flags.ExportDir != "" {
		cfg.ExportDir = filepath.Clean(flags.ExportDir)
	}
	if flags.SessionKey != "" {
		cfg.SessionKey = flags.SessionKey
	}
	if flags.Verbose {
		cfg.Verbose = true
		cfg.LogLevel = "debug"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return AppConfig{}, fmt.Errorf("create db dir: %w", err)
	}
	return cfg, nil
}

func Defaults(home string) AppConfig {
	return AppConfig{
		Home:         home,
		DBPath:       filepath.Join(home, "capture.sqlite"),
		ExportDir:    filepath.Join(home, "exports"),
		SessionKey:   DefaultSessionKey,
		LogPath:      filepath.Join(home, "capture.log"),
		LogLevel:     DefaultLogLevel,
		GlamourStyle: DefaultGlamourStyle,
	}
}

// loadFile merges the TOML file over cfg. A missing file is not an error.
func (cfg *AppConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.DBPath != "" {
		cfg.DBPath = cfg.inHome(fc.DBPath)
	}
	if fc.ExportDir != "" {
		cfg.ExportDir = cfg.inHome(fc.ExportDir)
	}
	if fc.LogPath != "" {
		cfg.LogPath = cfg.inHome(fc.LogPath)
	}
	if fc.Session != "" {
		cfg.SessionKey = fc.Session
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.GlamourStyle != "" {
		cfg.GlamourStyle = fc.GlamourStyle
	}
	return nil
}

// inHome resolves relative paths from the config file against Home.
func (cfg *AppConfig) inHome(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(cfg.Home, p)
}

func DetectHome(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	if fromEnv := os.Getenv("CAPTURE_HOME"); fromEnv != "" {
		return filepath.Clean(fromEnv), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".capture"), nil
}
