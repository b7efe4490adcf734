package tab

import (
	"fmt"

	"github.com/calvinalkan/tabedit/pkg/indexed"
)

// Track is one instrumental part: an ordered sequence of measures.
type Track struct {
	measures indexed.List[*Measure]
	Name     string
}

// NewTrack returns a track with one empty measure.
func NewTrack(name string) *Track {
	t := &Track{Name: name}
	t.measures.Append(NewMeasure(1))

	return t
}

// Measure returns measure m, or nil for holes, out-of-range positions and a
// nil track.
func (t *Track) Measure(m int) *Measure {
	if t == nil {
		return nil
	}

	measure, _ := t.measures.Get(m)

	return measure
}

// MeasureCount returns the number of measure positions, holes included.
func (t *Track) MeasureCount() int {
	if t == nil {
		return 0
	}

	return t.measures.Len()
}

// PresentMeasures returns the number of measures that are not holes.
func (t *Track) PresentMeasures() int {
	if t == nil {
		return 0
	}

	return t.measures.Present()
}

// LastMeasure returns the position of the last present measure, or 0.
func (t *Track) LastMeasure() int {
	if t == nil {
		return 0
	}

	return t.measures.Last()
}

// EnsureMeasure returns measure m, creating it if it is a hole or past the
// end. Positions between the old end and m become holes. A created measure
// has no beats yet.
func (t *Track) EnsureMeasure(m int) (*Measure, error) {
	if measure := t.Measure(m); measure != nil {
		return measure, nil
	}

	err := checkMeasurePos(m)
	if err != nil {
		return nil, err
	}

	measure := NewMeasure(0)
	_ = t.measures.Set(measure, m)

	return measure, nil
}

// SetMeasure stores measure at position m, replacing whatever is there.
func (t *Track) SetMeasure(m int, measure *Measure) error {
	err := checkMeasurePos(m)
	if err != nil {
		return err
	}

	_ = t.measures.Set(measure, m)

	return nil
}

// InsertMeasure inserts measure at position m, shifting later measures.
func (t *Track) InsertMeasure(m int, measure *Measure) error {
	err := checkMeasurePos(m)
	if err != nil {
		return err
	}

	if t.measures.Len() >= MaxMeasures {
		return ErrTooManyMeasures
	}

	_ = t.measures.Insert(measure, m)

	return nil
}

// AppendMeasure appends measure and returns its position.
func (t *Track) AppendMeasure(measure *Measure) (int, error) {
	if t.measures.Len() >= MaxMeasures {
		return 0, ErrTooManyMeasures
	}

	return t.measures.Append(measure), nil
}

// RemoveMeasure removes position m, shifting later measures down.
func (t *Track) RemoveMeasure(m int) bool {
	return t.measures.Pop(m)
}

// Clone returns a deep copy. Cloning nil returns nil.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}

	return &Track{measures: t.measures.Clone((*Measure).Clone), Name: t.Name}
}

// Equal reports structural equality, including hole positions.
func (t *Track) Equal(other *Track) bool {
	if t == nil || other == nil {
		return t == other
	}

	return t.Name == other.Name && t.measures.EqualFunc(&other.measures, (*Measure).Equal)
}

func checkMeasurePos(m int) error {
	if m < 1 {
		return fmt.Errorf("%w: measure %d", ErrIndex, m)
	}

	if m > MaxMeasures {
		return fmt.Errorf("%w: measure %d", ErrTooManyMeasures, m)
	}

	return nil
}
