package config

import "errors"

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrSongDirEmpty       = errors.New("song_dir cannot be empty")
	ErrExportWidth        = errors.New("export_width out of range")
	ErrTuning             = errors.New("unknown tuning")
)
