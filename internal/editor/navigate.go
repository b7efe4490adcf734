package editor

import (
	"fmt"

	"github.com/calvinalkan/tabedit/internal/tab"
)

// Move reports what a navigation step did.
type Move int

// Moves.
const (
	Stay Move = iota
	Moved
	Extended // moved onto a measure appended for the purpose
)

// Navigator computes the next cursor position. carrying is the beat being
// moved by [State.MoveBeat]; it has already been taken out of the song, so
// every measure offers one extra slot after its last beat. Navigators are
// side-effect free, except that [NextBeat] may append a measure.
type Navigator func(song *tab.Song, c Cursor, carrying *tab.Beat) (Cursor, Move)

// NextBeat moves one beat right, continuing at the first beat of the next
// present measure. Past the final beat of a final non-empty measure it
// appends one empty measure and moves onto it, unless a beat is carried.
func NextBeat(song *tab.Song, c Cursor, carrying *tab.Beat) (Cursor, Move) {
	track := song.Track(c.Track)
	if track == nil {
		return c, Stay
	}

	if c.Beat < slots(track.Measure(c.Measure), carrying) {
		c.Beat++

		return c, Moved
	}

	if m := nextPresent(track, c.Measure); m != 0 {
		c.Measure, c.Beat = m, 1

		return c, Moved
	}

	last := track.Measure(c.Measure)
	if carrying != nil || last == nil || last.IsEmpty() {
		return c, Stay
	}

	m, err := track.AppendMeasure(tab.NewMeasure(1))
	if err != nil {
		return c, Stay
	}

	c.Measure, c.Beat = m, 1

	return c, Extended
}

// PrevBeat moves one beat left, continuing at the last beat of the previous
// present measure.
func PrevBeat(song *tab.Song, c Cursor, carrying *tab.Beat) (Cursor, Move) {
	track := song.Track(c.Track)
	if track == nil {
		return c, Stay
	}

	if c.Beat > 1 {
		c.Beat--

		return c, Moved
	}

	m := prevPresent(track, c.Measure)
	if m == 0 {
		return c, Stay
	}

	c.Measure, c.Beat = m, slots(track.Measure(m), carrying)

	return c, Moved
}

// NextMeasure moves to the first beat of the next present measure.
func NextMeasure(song *tab.Song, c Cursor, _ *tab.Beat) (Cursor, Move) {
	m := nextPresent(song.Track(c.Track), c.Measure)
	if m == 0 {
		return c, Stay
	}

	c.Measure, c.Beat = m, 1

	return c, Moved
}

// PrevMeasure moves to the first beat of the previous present measure.
func PrevMeasure(song *tab.Song, c Cursor, _ *tab.Beat) (Cursor, Move) {
	m := prevPresent(song.Track(c.Track), c.Measure)
	if m == 0 {
		return c, Stay
	}

	c.Measure, c.Beat = m, 1

	return c, Moved
}

// StringUp moves toward string 1, the highest-pitched string.
func StringUp(_ *tab.Song, c Cursor, _ *tab.Beat) (Cursor, Move) {
	if c.String <= 1 {
		return c, Stay
	}

	c.String--

	return c, Moved
}

// StringDown moves toward the lowest-pitched string.
func StringDown(_ *tab.Song, c Cursor, _ *tab.Beat) (Cursor, Move) {
	if c.String >= tab.NumStrings {
		return c, Stay
	}

	c.String++

	return c, Moved
}

// NextTrack moves to the same place in the next track, as far as it exists.
func NextTrack(song *tab.Song, c Cursor, _ *tab.Beat) (Cursor, Move) {
	for t := c.Track + 1; t <= song.TrackCount(); t++ {
		if song.Track(t) != nil {
			c.Track = t

			return clampTo(song, c), Moved
		}
	}

	return c, Stay
}

// PrevTrack moves to the same place in the previous track.
func PrevTrack(song *tab.Song, c Cursor, _ *tab.Beat) (Cursor, Move) {
	for t := c.Track - 1; t >= 1; t-- {
		if song.Track(t) != nil {
			c.Track = t

			return clampTo(song, c), Moved
		}
	}

	return c, Stay
}

// Goto validates target against song and returns it. Unlike the other
// navigators it fails instead of clamping.
func Goto(song *tab.Song, target Cursor) (Cursor, error) {
	track := song.Track(target.Track)
	if track == nil {
		return Cursor{}, fmt.Errorf("%w: %d", tab.ErrNoTrack, target.Track)
	}

	measure := track.Measure(target.Measure)
	if measure == nil {
		return Cursor{}, fmt.Errorf("%w: %d", tab.ErrNoMeasure, target.Measure)
	}

	if target.Beat < 1 || target.Beat > measure.BeatCount() {
		return Cursor{}, fmt.Errorf("%w: %d (measure %d has %d)", tab.ErrNoBeat, target.Beat, target.Measure, measure.BeatCount())
	}

	if target.String < 1 || target.String > tab.NumStrings {
		return Cursor{}, fmt.Errorf("%w: %d", tab.ErrStringRange, target.String)
	}

	return target, nil
}

// Clamp pulls c back onto an existing position of song.
func Clamp(song *tab.Song, c Cursor) Cursor {
	c.Track = min(max(c.Track, 1), song.TrackCount())
	for c.Track > 1 && song.Track(c.Track) == nil {
		c.Track--
	}

	return clampTo(song, c)
}

// clampTo keeps c.Track and fixes up the measure, beat and string.
func clampTo(song *tab.Song, c Cursor) Cursor {
	track := song.Track(c.Track)

	c.Measure = min(max(c.Measure, 1), max(track.MeasureCount(), 1))
	if track.Measure(c.Measure) == nil {
		if m := prevPresent(track, c.Measure); m != 0 {
			c.Measure = m
		} else if m := nextPresent(track, c.Measure); m != 0 {
			c.Measure = m
		}
	}

	c.Beat = min(max(c.Beat, 1), max(track.Measure(c.Measure).BeatCount(), 1))
	c.String = min(max(c.String, 1), tab.NumStrings)

	return c
}

// slots is the number of cursor positions in measure.
func slots(measure *tab.Measure, carrying *tab.Beat) int {
	n := measure.BeatCount()
	if carrying != nil {
		n++
	}

	return n
}

func nextPresent(track *tab.Track, m int) int {
	for i := m + 1; i <= track.MeasureCount(); i++ {
		if track.Measure(i) != nil {
			return i
		}
	}

	return 0
}

func prevPresent(track *tab.Track, m int) int {
	for i := m - 1; i >= 1; i-- {
		if track.Measure(i) != nil {
			return i
		}
	}

	return 0
}

// Navigate moves the cursor with nav. A move that extends the song is an
// edit: it sets the dirty flag and can be undone.
func (s *State) Navigate(nav Navigator) Move {
	before := s.current()

	c, move := nav(s.Song, s.Cursor, nil)
	s.Cursor = c

	switch move {
	case Extended:
		s.undo = pushCapped(s.undo, before)
		s.redo = nil
		s.dirty = true
		s.Status = fmt.Sprintf("added measure %d", c.Measure)
	case Stay:
		s.Status = "at boundary"
	case Moved:
		s.Status = ""
	}

	return move
}

// Goto moves the cursor to target if it exists.
func (s *State) Goto(target Cursor) error {
	c, err := Goto(s.Song, target)
	if err != nil {
		s.Status = err.Error()

		return err
	}

	s.Cursor = c

	return nil
}
