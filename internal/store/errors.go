package store

import "errors"

// Sentinel errors returned by [Store]. Use [errors.Is] to check them.
var (
	// ErrNotFound indicates there is no file for the requested song.
	ErrNotFound = errors.New("song not found")

	// ErrCannotOpen indicates the song file exists but could not be read or
	// written.
	ErrCannotOpen = errors.New("cannot open song")

	// ErrInvalidName indicates a song name that cannot be used as a file name.
	ErrInvalidName = errors.New("invalid song name")
)
