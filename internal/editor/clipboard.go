package editor

import (
	"fmt"

	"github.com/calvinalkan/tabedit/internal/tab"
)

// CopyRange copies up to count beats starting at from, continuing into the
// following present measures, and keeps them as the clipboard. It stops at
// the end of the track and returns the number of beats copied. Beat holes
// are copied as rests.
func (s *State) CopyRange(from Cursor, count int) int {
	beats := CopyBeats(s.Song, from, count)
	if len(beats) > 0 {
		s.clipboard = beats
	}

	s.Status = fmt.Sprintf("copied %d beats", len(beats))

	return len(beats)
}

// Clipboard returns copies of the beats held by the last [State.CopyRange].
func (s *State) Clipboard() []*tab.Beat {
	return cloneBeats(s.clipboard)
}

// CopyBeats returns value copies of up to count beats starting at from.
func CopyBeats(song *tab.Song, from Cursor, count int) []*tab.Beat {
	track := song.Track(from.Track)
	if track.Measure(from.Measure) == nil || from.Beat < 1 {
		return nil
	}

	var out []*tab.Beat

	m, b := from.Measure, from.Beat

	for len(out) < count && m != 0 {
		measure := track.Measure(m)

		if b > measure.BeatCount() {
			m, b = nextPresent(track, m), 1

			continue
		}

		beat := measure.Beat(b).Clone()
		if beat == nil {
			beat = tab.NewBeat()
		}

		out = append(out, beat)
		b++
	}

	return out
}

// PasteRange inserts copies of beats after the beat at the cursor. When the
// target measure is empty its placeholder beat is replaced instead. Pasting
// stops when the measure is full; the beats placed so far stay and the
// returned error wraps [tab.ErrMeasureFull].
func (s *State) PasteRange(at Cursor, beats []*tab.Beat) (int, error) {
	if len(beats) == 0 {
		s.Status = "nothing to paste"

		return 0, nil
	}

	placed := 0
	full := false

	_, err := s.apply("", func(song *tab.Song) (bool, error) {
		measure, err := ensureMeasure(song, at)
		if err != nil {
			return false, err
		}

		pos := min(at.Beat, measure.BeatCount()) + 1

		if measure.BeatCount() == 0 || measure.IsEmpty() {
			measure.RemoveBeat(1)

			pos = 1
		}

		for _, beat := range beats {
			err := measure.InsertBeat(pos, beat.Clone())
			if err != nil {
				full = true

				break
			}

			pos++
			placed++
		}

		if placed == 0 {
			return false, fmt.Errorf("paste into measure %d: %w", at.Measure, tab.ErrMeasureFull)
		}

		song.Normalize()

		return true, nil
	})
	if err != nil {
		return 0, err
	}

	s.Status = fmt.Sprintf("pasted %d beats", placed)

	if full {
		err = fmt.Errorf("pasted %d of %d beats: %w", placed, len(beats), tab.ErrMeasureFull)
		s.Status = err.Error()

		return placed, err
	}

	return placed, nil
}

// MoveBeat carries the beat at the cursor one position with nav (normally
// [NextBeat] or [PrevBeat]), across measure boundaries if needed. A measure
// left without beats keeps one empty beat. The cursor follows the beat.
func (s *State) MoveBeat(nav Navigator) (Move, error) {
	move := Stay

	_, err := s.apply("beat moved", func(song *tab.Song) (bool, error) {
		at := s.Cursor

		_, measure, err := existingMeasure(song, at)
		if err != nil {
			return false, err
		}

		carried := measure.Beat(at.Beat)
		if carried == nil {
			return false, nil
		}

		measure.RemoveBeat(at.Beat)

		target, m := nav(song, at, carried)
		if m == Stay || target == at {
			_ = measure.InsertBeat(at.Beat, carried)

			return false, nil
		}

		err = song.Track(target.Track).Measure(target.Measure).InsertBeat(target.Beat, carried)
		if err != nil {
			return false, fmt.Errorf("move beat to measure %d: %w", target.Measure, err)
		}

		song.Normalize()

		move = m
		s.Cursor = target

		return true, nil
	})

	return move, err
}

func cloneBeats(beats []*tab.Beat) []*tab.Beat {
	out := make([]*tab.Beat, 0, len(beats))
	for _, b := range beats {
		out = append(out, b.Clone())
	}

	return out
}
