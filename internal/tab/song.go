// Package tab is the tablature document model: song, track, measure, beat,
// note.
//
// Each level is a 1-based sparse list of the level below (see
// [indexed.List]). Positions may be holes while a document is being built
// out of order, so every read accessor is total: it works on nil receivers
// and returns nil (or false) instead of failing. Chained reads such as
//
//	song.Track(1).Measure(7).Beat(2).Note(3)
//
// never panic.
//
// Writers that materialize levels (EnsureTrack, EnsureMeasure, EnsureBeat)
// validate positions against the document limits and return range errors.
package tab

import (
	"fmt"

	"github.com/calvinalkan/tabedit/pkg/indexed"
)

// Song is the root of a document.
type Song struct {
	tracks     indexed.List[*Track]
	Name       string
	Tuning     int // index into [Tunings]
	Annotation string
}

// New returns a song with one track holding one empty measure.
func New(name string) *Song {
	s := &Song{Name: name}
	s.tracks.Append(NewTrack(""))

	return s
}

// Track returns track t, or nil for holes, out-of-range positions and a nil
// song.
func (s *Song) Track(t int) *Track {
	if s == nil {
		return nil
	}

	track, _ := s.tracks.Get(t)

	return track
}

// TrackCount returns the number of track positions, holes included.
func (s *Song) TrackCount() int {
	if s == nil {
		return 0
	}

	return s.tracks.Len()
}

// PresentTracks returns the number of tracks that are not holes.
func (s *Song) PresentTracks() int {
	if s == nil {
		return 0
	}

	return s.tracks.Present()
}

// EnsureTrack returns track t, creating an empty track (no measures) if it
// is a hole or past the end.
func (s *Song) EnsureTrack(t int) (*Track, error) {
	if track := s.Track(t); track != nil {
		return track, nil
	}

	err := checkTrackPos(t)
	if err != nil {
		return nil, err
	}

	track := &Track{}
	_ = s.tracks.Set(track, t)

	return track, nil
}

// AppendTrack appends track and returns its position.
func (s *Song) AppendTrack(track *Track) (int, error) {
	if s.tracks.Len() >= MaxTracks {
		return 0, ErrTooManyTracks
	}

	return s.tracks.Append(track), nil
}

// RemoveTrack removes position t, shifting later tracks down.
func (s *Song) RemoveTrack(t int) bool {
	return s.tracks.Pop(t)
}

// TuningInfo returns the selected tuning.
func (s *Song) TuningInfo() Tuning {
	if s == nil {
		return Tunings[0]
	}

	return TuningAt(s.Tuning)
}

// Normalize restores the document invariants after bulk construction: a
// song has at least one track and no track holes, trailing holes are
// dropped, every track has at least one measure and every present measure
// has at least one beat with its last beat present.
func (s *Song) Normalize() {
	if s.tracks.Present() == 0 {
		s.tracks.Reset()
		s.tracks.Append(NewTrack(""))
	}

	trimTail(&s.tracks)

	for t := 1; t <= s.tracks.Len(); t++ {
		if !s.tracks.Has(t) {
			_ = s.tracks.Set(NewTrack(""), t)
		}
	}

	for _, track := range s.tracks.All() {
		trimTail(&track.measures)

		if track.measures.Present() == 0 {
			track.measures.Reset()
			track.measures.Append(NewMeasure(1))
		}

		for _, m := range track.measures.All() {
			if n := m.beats.Len(); n == 0 || !m.beats.Has(n) {
				_ = m.beats.Set(NewBeat(), max(n, 1))
			}
		}
	}
}

// Clone returns a deep copy. Cloning nil returns nil.
func (s *Song) Clone() *Song {
	if s == nil {
		return nil
	}

	return &Song{
		tracks:     s.tracks.Clone((*Track).Clone),
		Name:       s.Name,
		Tuning:     s.Tuning,
		Annotation: s.Annotation,
	}
}

// Equal reports structural equality of the document content. The song name
// is not compared: it is derived from the file the song is stored in.
func (s *Song) Equal(other *Song) bool {
	if s == nil || other == nil {
		return s == other
	}

	return s.Tuning == other.Tuning &&
		s.Annotation == other.Annotation &&
		s.tracks.EqualFunc(&other.tracks, (*Track).Equal)
}

// trimTail drops trailing holes; holes are only allowed as filler.
func trimTail[T any](l *indexed.List[T]) {
	for n := l.Len(); n > 0 && !l.Has(n); n-- {
		l.Pop(n)
	}
}

func checkTrackPos(t int) error {
	if t < 1 {
		return fmt.Errorf("%w: track %d", ErrIndex, t)
	}

	if t > MaxTracks {
		return fmt.Errorf("%w: track %d", ErrTooManyTracks, t)
	}

	return nil
}
