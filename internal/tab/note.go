package tab

import (
	"fmt"
	"strings"
)

// Articulation describes how a note is sounded.
type Articulation uint8

// Articulation values. Normal is the zero value.
const (
	Normal Articulation = iota
	Hammer
	Pulloff
	Slide
)

var articulationNames = [...]string{
	Normal:  "normal",
	Hammer:  "hammer",
	Pulloff: "pulloff",
	Slide:   "slide",
}

// String returns the lowercase name of the articulation.
func (a Articulation) String() string {
	if int(a) < len(articulationNames) {
		return articulationNames[a]
	}

	return fmt.Sprintf("articulation(%d)", uint8(a))
}

// Valid reports whether a is one of the defined articulations.
func (a Articulation) Valid() bool {
	return a <= Slide
}

// ParseArticulation accepts a full name ("hammer") or its one-letter form
// ("h", "p", "s"). The empty string is [Normal].
func ParseArticulation(s string) (Articulation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n", "normal":
		return Normal, nil
	case "h", "hammer":
		return Hammer, nil
	case "p", "pulloff", "pull-off":
		return Pulloff, nil
	case "s", "slide":
		return Slide, nil
	default:
		return Normal, fmt.Errorf("%w: %q", ErrArticulation, s)
	}
}

// Note is one fretted (or open) string within a beat. Notes are values:
// edits replace them rather than mutating them.
type Note struct {
	String       int
	Fret         int
	Articulation Articulation
}

// NewNote validates the string and fret ranges and returns the note.
func NewNote(str, fret int, art Articulation) (Note, error) {
	n := Note{String: str, Fret: fret, Articulation: art}

	err := n.Validate()
	if err != nil {
		return Note{}, err
	}

	return n, nil
}

// Validate checks that the note fits on the instrument.
func (n Note) Validate() error {
	if n.String < 1 || n.String > NumStrings {
		return fmt.Errorf("%w: %d", ErrStringRange, n.String)
	}

	if n.Fret < 0 || n.Fret > MaxFret {
		return fmt.Errorf("%w: %d", ErrFretRange, n.Fret)
	}

	if !n.Articulation.Valid() {
		return fmt.Errorf("%w: %d", ErrArticulation, n.Articulation)
	}

	return nil
}
