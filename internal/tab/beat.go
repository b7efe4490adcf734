package tab

import "github.com/calvinalkan/tabedit/pkg/indexed"

// Beat is a vertical slice of a measure: at most one note per string, keyed
// by string number. A beat without notes is a rest.
type Beat struct {
	notes      indexed.List[Note]
	Annotation string
}

// NewBeat returns an empty beat (a rest).
func NewBeat() *Beat {
	return &Beat{}
}

// Note returns the note on string s. Safe on a nil beat.
func (b *Beat) Note(s int) (Note, bool) {
	if b == nil {
		return Note{}, false
	}

	return b.notes.Get(s)
}

// Notes returns the beat's notes in ascending string order.
func (b *Beat) Notes() []Note {
	if b == nil {
		return nil
	}

	var out []Note

	for _, n := range b.notes.All() {
		out = append(out, n)
	}

	return out
}

// NoteCount returns the number of sounding strings.
func (b *Beat) NoteCount() int {
	if b == nil {
		return 0
	}

	return b.notes.Present()
}

// IsRest reports whether the beat has no notes. A nil beat is a rest.
func (b *Beat) IsRest() bool {
	return b.NoteCount() == 0
}

// SetNote stores n on its string, replacing any previous note there.
func (b *Beat) SetNote(n Note) error {
	err := n.Validate()
	if err != nil {
		return err
	}

	return b.notes.Set(n, n.String)
}

// ClearNote removes the note on string s. Returns false if there was none,
// including on a nil beat.
func (b *Beat) ClearNote(s int) bool {
	if b == nil || !b.notes.Has(s) {
		return false
	}

	b.notes.Clear(s)

	return true
}

// ClearNotes removes every note, keeping the annotation.
func (b *Beat) ClearNotes() {
	b.notes.Reset()
}

// Clone returns a deep copy. Cloning nil returns nil.
func (b *Beat) Clone() *Beat {
	if b == nil {
		return nil
	}

	return &Beat{notes: b.notes.Clone(nil), Annotation: b.Annotation}
}

// Equal reports whether both beats hold the same notes and annotation.
func (b *Beat) Equal(other *Beat) bool {
	if b == nil || other == nil {
		return b == other
	}

	if b.Annotation != other.Annotation {
		return false
	}

	mine, theirs := b.Notes(), other.Notes()
	if len(mine) != len(theirs) {
		return false
	}

	for i := range mine {
		if mine[i] != theirs[i] {
			return false
		}
	}

	return true
}
