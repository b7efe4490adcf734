package tab

import (
	"fmt"

	"github.com/calvinalkan/tabedit/pkg/indexed"
)

// Measure is an ordered sequence of beats plus layout flags.
//
// A present measure always has at least one beat entry. An empty measure is
// one beat with no notes and no annotation.
type Measure struct {
	beats      indexed.List[*Beat]
	Annotation string
	PageBreak  bool
	Repeat     bool
}

// NewMeasure returns a measure with n empty beats. n < 1 yields a measure
// with no beats, which only the decoder uses before [Song.Normalize].
func NewMeasure(n int) *Measure {
	m := &Measure{}

	for range min(n, MaxBeatsPerMeasure) {
		m.beats.Append(NewBeat())
	}

	return m
}

// Beat returns beat b, or nil for holes, out-of-range positions and a nil
// measure.
func (m *Measure) Beat(b int) *Beat {
	if m == nil {
		return nil
	}

	beat, _ := m.beats.Get(b)

	return beat
}

// BeatCount returns the number of beat positions, holes included.
func (m *Measure) BeatCount() int {
	if m == nil {
		return 0
	}

	return m.beats.Len()
}

// IsEmpty reports whether m is the placeholder form of a measure: a single
// beat that is a rest without annotation.
func (m *Measure) IsEmpty() bool {
	if m == nil || m.beats.Len() != 1 {
		return false
	}

	b := m.Beat(1)

	return b.IsRest() && (b == nil || b.Annotation == "")
}

// NoteCount returns the number of notes across all beats.
func (m *Measure) NoteCount() int {
	n := 0

	for i := 1; i <= m.BeatCount(); i++ {
		n += m.Beat(i).NoteCount()
	}

	return n
}

// EnsureBeat returns beat b, creating it (and holes before it) if needed.
func (m *Measure) EnsureBeat(b int) (*Beat, error) {
	if beat := m.Beat(b); beat != nil {
		return beat, nil
	}

	err := checkBeatPos(b)
	if err != nil {
		return nil, err
	}

	beat := NewBeat()
	_ = m.beats.Set(beat, b)

	return beat, nil
}

// SetBeat stores beat at position b, replacing whatever is there.
func (m *Measure) SetBeat(b int, beat *Beat) error {
	err := checkBeatPos(b)
	if err != nil {
		return err
	}

	_ = m.beats.Set(beat, b)

	return nil
}

// InsertBeat inserts beat at position b, shifting later beats.
func (m *Measure) InsertBeat(b int, beat *Beat) error {
	err := checkBeatPos(b)
	if err != nil {
		return err
	}

	if m.beats.Len() >= MaxBeatsPerMeasure {
		return ErrMeasureFull
	}

	_ = m.beats.Insert(beat, b)

	return nil
}

// AppendBeat appends beat and returns its position.
func (m *Measure) AppendBeat(beat *Beat) (int, error) {
	if m.beats.Len() >= MaxBeatsPerMeasure {
		return 0, ErrMeasureFull
	}

	return m.beats.Append(beat), nil
}

// RemoveBeat removes position b, shifting later beats down.
func (m *Measure) RemoveBeat(b int) bool {
	return m.beats.Pop(b)
}

// Clone returns a deep copy. Cloning nil returns nil.
func (m *Measure) Clone() *Measure {
	if m == nil {
		return nil
	}

	return &Measure{
		beats:      m.beats.Clone((*Beat).Clone),
		Annotation: m.Annotation,
		PageBreak:  m.PageBreak,
		Repeat:     m.Repeat,
	}
}

// Equal reports structural equality, including hole positions.
func (m *Measure) Equal(other *Measure) bool {
	if m == nil || other == nil {
		return m == other
	}

	return m.Annotation == other.Annotation &&
		m.PageBreak == other.PageBreak &&
		m.Repeat == other.Repeat &&
		m.beats.EqualFunc(&other.beats, (*Beat).Equal)
}

func checkBeatPos(b int) error {
	if b < 1 {
		return fmt.Errorf("%w: beat %d", ErrIndex, b)
	}

	if b > MaxBeatsPerMeasure {
		return fmt.Errorf("%w: beat %d", ErrMeasureFull, b)
	}

	return nil
}
