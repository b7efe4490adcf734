package editor

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/calvinalkan/tabedit/internal/tab"
)

// AddBeat adds an empty beat to the measure at the cursor and returns its
// position. pos 0 appends; otherwise insert shifts the beats from pos on,
// and !insert fills position pos if it is a hole or past the end. A hole
// measure is materialized first.
func (s *State) AddBeat(at Cursor, pos int, insert bool) (int, error) {
	var placed int

	_, err := s.apply("beat added", func(song *tab.Song) (bool, error) {
		measure, err := ensureMeasure(song, at)
		if err != nil {
			return false, err
		}

		switch {
		case pos == 0:
			placed, err = measure.AppendBeat(tab.NewBeat())
		case insert:
			placed, err = pos, measure.InsertBeat(pos, tab.NewBeat())
		case measure.Beat(pos) != nil:
			placed = pos

			return false, nil
		default:
			placed, err = pos, measure.SetBeat(pos, tab.NewBeat())
		}

		if err != nil {
			return false, fmt.Errorf("add beat to measure %d: %w", at.Measure, err)
		}

		return true, nil
	})
	if err != nil {
		return 0, err
	}

	return placed, nil
}

// AddMeasure adds a measure to the cursor's track and returns its position.
// pos 0 appends; insert and !insert behave as for [State.AddBeat]. The new
// measure gets as many beats as the nearest present measure before it.
func (s *State) AddMeasure(at Cursor, pos int, insert bool) (int, error) {
	var placed int

	_, err := s.apply("measure added", func(song *tab.Song) (bool, error) {
		track := song.Track(at.Track)
		if track == nil {
			return false, fmt.Errorf("%w: %d", tab.ErrNoTrack, at.Track)
		}

		target := pos
		if target == 0 {
			target = track.MeasureCount() + 1
		}

		measure := tab.NewMeasure(seedBeats(track, target))

		var err error

		switch {
		case pos == 0:
			placed, err = track.AppendMeasure(measure)
		case insert:
			placed, err = pos, track.InsertMeasure(pos, measure)
		case track.Measure(pos) != nil:
			placed = pos

			return false, nil
		default:
			placed, err = pos, track.SetMeasure(pos, measure)
		}

		if err != nil {
			return false, fmt.Errorf("add measure: %w", err)
		}

		return true, nil
	})
	if err != nil {
		return 0, err
	}

	return placed, nil
}

func seedBeats(track *tab.Track, before int) int {
	if m := prevPresent(track, min(before, track.MeasureCount()+1)); m != 0 {
		return track.Measure(m).BeatCount()
	}

	return 1
}

// DeleteBeat removes the beat at the cursor. A measure left without beats
// is removed and later measures shift down, except the first measure of
// the first track and a track's only measure: those are cleared back to one
// empty beat, and deleting from them when already empty is [Refused]. The
// cursor follows the deletion.
func (s *State) DeleteBeat(at Cursor) (Outcome, error) {
	outcome := Refused

	_, err := s.apply("", func(song *tab.Song) (bool, error) {
		track, measure, err := existingMeasure(song, at)
		if err != nil {
			return false, err
		}

		if at.Beat < 1 || at.Beat > measure.BeatCount() {
			return false, fmt.Errorf("%w: %d", tab.ErrNoBeat, at.Beat)
		}

		protected := (at.Track == 1 && at.Measure == 1) || track.PresentMeasures() == 1

		if measure.BeatCount() == 1 && protected {
			if measure.IsEmpty() {
				return false, nil
			}

			_ = measure.SetBeat(1, tab.NewBeat())
			outcome = BeatCleared
			s.Cursor = at
			s.Cursor.Beat = 1

			return true, nil
		}

		measure.RemoveBeat(at.Beat)

		c := at

		if measure.BeatCount() == 0 {
			track.RemoveMeasure(at.Measure)
			outcome = MeasureRemoved

			if m := prevPresent(track, at.Measure); m != 0 {
				c.Measure, c.Beat = m, track.Measure(m).BeatCount()
			}
		} else {
			outcome = BeatRemoved
			c.Beat = max(at.Beat-1, 1)
		}

		song.Normalize()
		s.Cursor = clampTo(song, c)

		return true, nil
	})
	if err != nil {
		return Refused, err
	}

	s.Status = outcome.String()

	return outcome, nil
}

// SetNote puts fret on the cursor's string, replacing any note there. Hole
// measures and beats on the way are materialized.
func (s *State) SetNote(at Cursor, fret int, art tab.Articulation) error {
	note, err := tab.NewNote(at.String, fret, art)
	if err != nil {
		s.Status = err.Error()

		return err
	}

	_, err = s.apply(fmt.Sprintf("string %d fret %d", at.String, fret), func(song *tab.Song) (bool, error) {
		measure, err := ensureMeasure(song, at)
		if err != nil {
			return false, err
		}

		beat, err := measure.EnsureBeat(at.Beat)
		if err != nil {
			return false, err
		}

		if old, ok := beat.Note(at.String); ok && old == note {
			return false, nil
		}

		return true, beat.SetNote(note)
	})

	return err
}

// ClearNote removes the note on the cursor's string and reports whether
// there was one.
func (s *State) ClearNote(at Cursor) (bool, error) {
	if at.String < 1 || at.String > tab.NumStrings {
		err := fmt.Errorf("%w: %d", tab.ErrStringRange, at.String)
		s.Status = err.Error()

		return false, err
	}

	return s.apply("note cleared", func(song *tab.Song) (bool, error) {
		beat := song.Track(at.Track).Measure(at.Measure).Beat(at.Beat)

		return beat.ClearNote(at.String), nil
	})
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// CleanText is how annotation and name text is stored: NFC normalized,
// single line, trimmed. The empty string means no text.
func CleanText(text string) string {
	return norm.NFC.String(strings.TrimSpace(lineBreaks.Replace(text)))
}

// AnnotateMeasure sets or (with empty text) clears the measure annotation.
func (s *State) AnnotateMeasure(at Cursor, text string) error {
	text = CleanText(text)

	_, err := s.apply(annotationStatus(text), func(song *tab.Song) (bool, error) {
		_, measure, err := existingMeasure(song, at)
		if err != nil {
			return false, err
		}

		if measure.Annotation == text {
			return false, nil
		}

		measure.Annotation = text

		return true, nil
	})

	return err
}

// AnnotateBeat sets or clears the annotation of the beat at the cursor.
func (s *State) AnnotateBeat(at Cursor, text string) error {
	text = CleanText(text)

	_, err := s.apply(annotationStatus(text), func(song *tab.Song) (bool, error) {
		_, measure, err := existingMeasure(song, at)
		if err != nil {
			return false, err
		}

		if at.Beat < 1 || at.Beat > measure.BeatCount() {
			return false, fmt.Errorf("%w: %d", tab.ErrNoBeat, at.Beat)
		}

		beat, err := measure.EnsureBeat(at.Beat)
		if err != nil {
			return false, err
		}

		if beat.Annotation == text {
			return false, nil
		}

		beat.Annotation = text

		return true, nil
	})

	return err
}

// AnnotateSong sets or clears the song annotation.
func (s *State) AnnotateSong(text string) {
	text = CleanText(text)

	_, _ = s.apply(annotationStatus(text), func(song *tab.Song) (bool, error) {
		if song.Annotation == text {
			return false, nil
		}

		song.Annotation = text

		return true, nil
	})
}

func annotationStatus(text string) string {
	if text == "" {
		return "annotation cleared"
	}

	return "annotated"
}

// TogglePageBreak flips the page break after the cursor's measure and
// returns the new value.
func (s *State) TogglePageBreak(at Cursor) (bool, error) {
	return s.toggle(at, "page break", func(m *tab.Measure) *bool { return &m.PageBreak })
}

// ToggleRepeat flips the repeat bar of the cursor's measure and returns the
// new value.
func (s *State) ToggleRepeat(at Cursor) (bool, error) {
	return s.toggle(at, "repeat", func(m *tab.Measure) *bool { return &m.Repeat })
}

func (s *State) toggle(at Cursor, name string, field func(*tab.Measure) *bool) (bool, error) {
	var value bool

	_, err := s.apply("", func(song *tab.Song) (bool, error) {
		_, measure, err := existingMeasure(song, at)
		if err != nil {
			return false, err
		}

		flag := field(measure)
		*flag = !*flag
		value = *flag

		return true, nil
	})
	if err != nil {
		return false, err
	}

	s.Status = name + " off"
	if value {
		s.Status = name + " on"
	}

	return value, nil
}

// AddTrack appends a track with one empty measure and returns its number.
func (s *State) AddTrack(name string) (int, error) {
	var placed int

	_, err := s.apply("track added", func(song *tab.Song) (bool, error) {
		var err error

		placed, err = song.AppendTrack(tab.NewTrack(CleanText(name)))

		return err == nil, err
	})

	return placed, err
}

// DeleteTrack removes track t. The last remaining track is [Refused].
func (s *State) DeleteTrack(t int) (Outcome, error) {
	if s.Song.Track(t) == nil {
		err := fmt.Errorf("%w: %d", tab.ErrNoTrack, t)
		s.Status = err.Error()

		return Refused, err
	}

	if s.Song.PresentTracks() <= 1 {
		s.Status = "cannot delete the last track"

		return Refused, nil
	}

	_, err := s.apply(fmt.Sprintf("track %d deleted", t), func(song *tab.Song) (bool, error) {
		song.RemoveTrack(t)

		c := s.Cursor
		if c.Track > t || (c.Track == t && c.Track > song.TrackCount()) {
			c.Track--
		}

		s.Cursor = Clamp(song, c)

		return true, nil
	})
	if err != nil {
		return Refused, err
	}

	return Applied, nil
}

// RenameTrack sets the name of track t.
func (s *State) RenameTrack(t int, name string) error {
	name = CleanText(name)

	_, err := s.apply("track renamed", func(song *tab.Song) (bool, error) {
		track := song.Track(t)
		if track == nil {
			return false, fmt.Errorf("%w: %d", tab.ErrNoTrack, t)
		}

		if track.Name == name {
			return false, nil
		}

		track.Name = name

		return true, nil
	})

	return err
}

// RenameSong sets the song name, which decides the file it is saved to.
func (s *State) RenameSong(name string) {
	name = CleanText(name)

	_, _ = s.apply("renamed to "+name, func(song *tab.Song) (bool, error) {
		if song.Name == name {
			return false, nil
		}

		song.Name = name

		return true, nil
	})
}

// SetTuning selects a tuning by name (see [tab.LookupTuning]).
func (s *State) SetTuning(name string) error {
	idx, err := tab.LookupTuning(name)
	if err != nil {
		s.Status = err.Error()

		return err
	}

	_, err = s.apply("tuning "+tab.Tunings[idx].Name, func(song *tab.Song) (bool, error) {
		if song.Tuning == idx {
			return false, nil
		}

		song.Tuning = idx

		return true, nil
	})

	return err
}

// ensureMeasure returns the cursor's measure. A materialized hole has no
// beats until the caller adds one.
func ensureMeasure(song *tab.Song, at Cursor) (*tab.Measure, error) {
	track := song.Track(at.Track)
	if track == nil {
		return nil, fmt.Errorf("%w: %d", tab.ErrNoTrack, at.Track)
	}

	if measure := track.Measure(at.Measure); measure != nil {
		return measure, nil
	}

	return track.EnsureMeasure(at.Measure)
}

func existingMeasure(song *tab.Song, at Cursor) (*tab.Track, *tab.Measure, error) {
	track := song.Track(at.Track)
	if track == nil {
		return nil, nil, fmt.Errorf("%w: %d", tab.ErrNoTrack, at.Track)
	}

	measure := track.Measure(at.Measure)
	if measure == nil {
		return nil, nil, fmt.Errorf("%w: %d", tab.ErrNoMeasure, at.Measure)
	}

	return track, measure, nil
}
