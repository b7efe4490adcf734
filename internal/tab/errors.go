package tab

import "errors"

// Document limits.
const (
	NumStrings         = 6
	MaxFret            = 24
	MaxBeatsPerMeasure = 32
	MaxMeasures        = 500
	MaxTracks          = 8
)

// Error variables for range violations. Operations that return one of these
// leave the document unchanged.
var (
	ErrIndex           = errors.New("index must be >= 1")
	ErrStringRange     = errors.New("string out of range (must be 1-6)")
	ErrFretRange       = errors.New("fret out of range (must be 0-24)")
	ErrArticulation    = errors.New("unknown articulation")
	ErrMeasureFull     = errors.New("measure is full (max 32 beats)")
	ErrTooManyMeasures = errors.New("too many measures (max 500)")
	ErrTooManyTracks   = errors.New("too many tracks (max 8)")
	ErrNoTrack         = errors.New("track does not exist")
	ErrNoMeasure       = errors.New("measure does not exist")
	ErrNoBeat          = errors.New("beat does not exist")
	ErrUnknownTuning   = errors.New("unknown tuning")
)
