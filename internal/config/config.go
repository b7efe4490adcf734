// Package config loads tabedit settings from JSONC files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/tabedit/internal/tab"
)

// Limits for export_width.
const (
	MinExportWidth = 40
	MaxExportWidth = 1000
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	SongDir     string `json:"song_dir"`
	Tuning      string `json:"tuning"`
	ExportWidth int    `json:"export_width"`
	Editor      string `json:"editor,omitempty"`

	// Resolved values (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	SongDirAbs   string `json:"-"` // Absolute path to the song directory
	TuningIndex  int    `json:"-"` // Index into tab.Tunings

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		SongDir:     ".",
		Tuning:      tab.Tunings[0].Name,
		ExportWidth: 120,
	}
}

// FileName is the default project config file name.
const FileName = ".tabedit.json"

// GlobalPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/tabedit/config.json if set, otherwise
// ~/.config/tabedit/config.json. Returns "" if neither variable is set.
func GlobalPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "tabedit", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "tabedit", "config.json")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	SongDirOverride string            // --song-dir flag value; empty means no override
	Env             map[string]string // environment variables
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config
// 3. Project config file (.tabedit.json, if it exists)
// 4. Explicit config file via ConfigPath (replaces 3)
// 5. CLI overrides.
//
// All paths in the returned Config are absolute.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	globalCfg, globalPath, err := loadGlobal(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProject(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	if input.SongDirOverride != "" {
		cfg.SongDir = input.SongDirOverride
	}

	tuning, err := validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.TuningIndex = tuning
	cfg.EffectiveCwd = workDir

	if filepath.IsAbs(cfg.SongDir) {
		cfg.SongDirAbs = filepath.Clean(cfg.SongDir)
	} else {
		cfg.SongDirAbs = filepath.Join(workDir, cfg.SongDir)
	}

	return cfg, nil
}

func loadGlobal(env map[string]string) (Config, string, error) {
	path := GlobalPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadFile(path, false)
	if err != nil || !loaded {
		return Config{}, "", err
	}

	return cfg, path, nil
}

// loadProject loads .tabedit.json from workDir, or the explicit file when
// configPath is set.
func loadProject(workDir, configPath string) (Config, string, error) {
	path := filepath.Join(workDir, FileName)
	mustExist := false

	if configPath != "" {
		path = configPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		mustExist = true

		_, statErr := os.Stat(path)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	}

	cfg, loaded, err := loadFile(path, mustExist)
	if err != nil || !loaded {
		return Config{}, "", err
	}

	return cfg, path, nil
}

// loadFile reads one config file. Missing optional files load nothing.
func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	// Explicitly empty values are errors, unlike missing ones.
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	if val, ok := raw["song_dir"]; ok {
		if str, isStr := val.(string); isStr && str == "" {
			return Config{}, ErrSongDirEmpty
		}
	}

	if val, ok := raw["export_width"]; ok {
		if num, isNum := val.(float64); isNum && num == 0 {
			return Config{}, fmt.Errorf("%w: 0 (must be %d-%d)", ErrExportWidth, MinExportWidth, MaxExportWidth)
		}
	}

	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.SongDir != "" {
		base.SongDir = overlay.SongDir
	}

	if overlay.Tuning != "" {
		base.Tuning = overlay.Tuning
	}

	if overlay.ExportWidth != 0 {
		base.ExportWidth = overlay.ExportWidth
	}

	if overlay.Editor != "" {
		base.Editor = overlay.Editor
	}

	return base
}

// validate checks the merged config and returns the resolved tuning index.
func validate(cfg Config) (int, error) {
	if cfg.SongDir == "" {
		return 0, ErrSongDirEmpty
	}

	if cfg.ExportWidth < MinExportWidth || cfg.ExportWidth > MaxExportWidth {
		return 0, fmt.Errorf("%w: %d (must be %d-%d)", ErrExportWidth, cfg.ExportWidth, MinExportWidth, MaxExportWidth)
	}

	idx, err := tab.LookupTuning(cfg.Tuning)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrTuning, cfg.Tuning)
	}

	return idx, nil
}
