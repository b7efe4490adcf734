package cli

import "errors"

// Error variables for CLI commands.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrSongRequired   = errors.New("song name is required")
	ErrSongExists     = errors.New("song already exists (use --force to overwrite)")
	ErrNotFormatted   = errors.New("song is not formatted")
	ErrCheckFailed    = errors.New("some songs failed to load")
	ErrUnknownFormat  = errors.New("unknown format")
	ErrOutOfRange     = errors.New("value out of range")
	ErrNoEditorFound  = errors.New("no editor found (set config.editor, $EDITOR, or install vi/nano)")
	ErrEditorFailed   = errors.New("editor failed")
	ErrSongDirEmpty   = errors.New("--song-dir cannot be empty")
)
