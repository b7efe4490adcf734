package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/tabedit/internal/editor"
	"github.com/calvinalkan/tabedit/internal/tab"
)

// newSong returns a one-track song with one measure per entry of beats,
// each holding that many rests.
func newSong(t *testing.T, beats ...int) *tab.Song {
	t.Helper()

	song := tab.New("test")
	track := song.Track(1)

	require.NoError(t, track.SetMeasure(1, tab.NewMeasure(beats[0])))

	for _, n := range beats[1:] {
		_, err := track.AppendMeasure(tab.NewMeasure(n))
		require.NoError(t, err)
	}

	return song
}

// fretAt returns the fret on string s of a beat, or -1 when there is none.
func fretAt(song *tab.Song, m, b, s int) int {
	n, ok := song.Track(1).Measure(m).Beat(b).Note(s)
	if !ok {
		return -1
	}

	return n.Fret
}

func at(m, b, s int) editor.Cursor {
	return editor.Cursor{Track: 1, Measure: m, Beat: b, String: s}
}

func Test_New_State_Is_Clean_At_Home(t *testing.T) {
	t.Parallel()

	s := editor.New(nil)

	assert.False(t, s.Dirty())
	assert.Equal(t, editor.Home(), s.Cursor)
	assert.True(t, s.Song.Track(1).Measure(1).IsEmpty())
}

func Test_DeleteBeat_Removes_Emptied_Measure_And_Shifts_Later_Ones(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1, 1, 1, 1, 1))

	for m := 1; m <= 5; m++ {
		require.NoError(t, s.SetNote(at(m, 1, 1), m, tab.Normal))
	}

	outcome, err := s.DeleteBeat(at(3, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, editor.MeasureRemoved, outcome)
	assert.Equal(t, 4, s.Song.Track(1).MeasureCount())
	assert.Equal(t, 4, fretAt(s.Song, 3, 1, 1), "measure 4 shifts down to 3")
	assert.Equal(t, 5, fretAt(s.Song, 4, 1, 1))
	assert.Equal(t, at(2, 1, 1), s.Cursor, "cursor moves to the last beat of the previous measure")
	assert.True(t, s.Dirty())
}

func Test_DeleteBeat_Keeps_Measure_When_Beats_Remain(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 3))
	require.NoError(t, s.SetNote(at(1, 3, 2), 7, tab.Normal))

	outcome, err := s.DeleteBeat(at(1, 2, 1))
	require.NoError(t, err)

	assert.Equal(t, editor.BeatRemoved, outcome)
	assert.Equal(t, 2, s.Song.Track(1).Measure(1).BeatCount())
	assert.Equal(t, 7, fretAt(s.Song, 1, 2, 2))
	assert.Equal(t, at(1, 1, 1), s.Cursor)
}

func Test_DeleteBeat_Clears_First_Measure_Instead_Of_Removing_It(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1, 2))
	require.NoError(t, s.SetNote(at(1, 1, 3), 5, tab.Normal))

	outcome, err := s.DeleteBeat(at(1, 1, 3))
	require.NoError(t, err)

	assert.Equal(t, editor.BeatCleared, outcome)
	assert.Equal(t, 2, s.Song.Track(1).MeasureCount())
	assert.True(t, s.Song.Track(1).Measure(1).IsEmpty())

	s.MarkSaved()

	outcome, err = s.DeleteBeat(at(1, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, editor.Refused, outcome)
	assert.False(t, s.Dirty(), "a refused delete is not a change")
}

func Test_DeleteBeat_Protects_Only_Measure_Of_Other_Tracks(t *testing.T) {
	t.Parallel()

	s := editor.New(nil)
	n, err := s.AddTrack("Bass")
	require.NoError(t, err)

	bass := editor.Cursor{Track: n, Measure: 1, Beat: 1, String: 6}
	require.NoError(t, s.SetNote(bass, 3, tab.Normal))

	outcome, err := s.DeleteBeat(bass)
	require.NoError(t, err)

	assert.Equal(t, editor.BeatCleared, outcome)
	assert.Equal(t, 1, s.Song.Track(2).MeasureCount())
}

func Test_DeleteBeat_Rejects_Missing_Positions(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 2))

	_, err := s.DeleteBeat(at(4, 1, 1))
	require.ErrorIs(t, err, tab.ErrNoMeasure)

	_, err = s.DeleteBeat(at(1, 3, 1))
	require.ErrorIs(t, err, tab.ErrNoBeat)

	assert.False(t, s.Dirty())
}

func Test_AddBeat_Appends_Inserts_And_Places(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 2))
	require.NoError(t, s.SetNote(at(1, 1, 1), 1, tab.Normal))

	pos, err := s.AddBeat(at(1, 1, 1), 0, false)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)

	pos, err = s.AddBeat(at(1, 1, 1), 1, true)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, 1, fretAt(s.Song, 1, 2, 1), "insert shifts later beats")

	pos, err = s.AddBeat(at(1, 1, 1), 6, false)
	require.NoError(t, err)
	assert.Equal(t, 6, pos)

	measure := s.Song.Track(1).Measure(1)
	assert.Equal(t, 6, measure.BeatCount())
	assert.Nil(t, measure.Beat(5), "placing past the end leaves a hole")
}

func Test_AddBeat_Fails_On_Full_Measure(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, tab.MaxBeatsPerMeasure))

	_, err := s.AddBeat(at(1, 1, 1), 0, false)
	require.ErrorIs(t, err, tab.ErrMeasureFull)

	_, err = s.AddBeat(at(1, 1, 1), 1, true)
	require.ErrorIs(t, err, tab.ErrMeasureFull)

	assert.Equal(t, tab.MaxBeatsPerMeasure, s.Song.Track(1).Measure(1).BeatCount())
	assert.False(t, s.Dirty())
}

func Test_AddMeasure_Seeds_Beat_Count_From_Previous_Measure(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 3, 5))

	pos, err := s.AddMeasure(at(1, 1, 1), 0, false)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
	assert.Equal(t, 5, s.Song.Track(1).Measure(3).BeatCount())

	pos, err = s.AddMeasure(at(1, 1, 1), 2, true)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	assert.Equal(t, 3, s.Song.Track(1).Measure(2).BeatCount())
	assert.Equal(t, 5, s.Song.Track(1).Measure(3).BeatCount(), "old measure 2 shifted up")
	assert.Equal(t, 4, s.Song.Track(1).MeasureCount())
}

func Test_AddMeasure_Fails_At_Limit(t *testing.T) {
	t.Parallel()

	song := tab.New("long")
	for range tab.MaxMeasures - 1 {
		_, err := song.Track(1).AppendMeasure(tab.NewMeasure(1))
		require.NoError(t, err)
	}

	s := editor.New(song)

	_, err := s.AddMeasure(at(1, 1, 1), 0, false)
	require.ErrorIs(t, err, tab.ErrTooManyMeasures)
	assert.Equal(t, tab.MaxMeasures, s.Song.Track(1).MeasureCount())
}

func Test_SetNote_Rejects_Out_Of_Range_Without_Changes(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1))

	require.ErrorIs(t, s.SetNote(at(1, 1, 7), 3, tab.Normal), tab.ErrStringRange)
	require.ErrorIs(t, s.SetNote(at(1, 1, 1), 25, tab.Normal), tab.ErrFretRange)
	require.ErrorIs(t, s.SetNote(at(1, tab.MaxBeatsPerMeasure+1, 1), 3, tab.Normal), tab.ErrMeasureFull)
	require.ErrorIs(t, s.SetNote(at(tab.MaxMeasures+1, 1, 1), 3, tab.Normal), tab.ErrTooManyMeasures)

	assert.Equal(t, 1, s.Song.Track(1).MeasureCount())
	assert.Equal(t, 1, s.Song.Track(1).Measure(1).BeatCount())
	assert.False(t, s.Dirty())
	assert.False(t, s.CanUndo())
}

func Test_SetNote_Materializes_Hole_Measures(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1))

	require.NoError(t, s.SetNote(at(4, 2, 6), 0, tab.Slide))

	track := s.Song.Track(1)
	assert.Equal(t, 4, track.MeasureCount())
	assert.Nil(t, track.Measure(2))
	assert.Equal(t, 0, fretAt(s.Song, 4, 2, 6))
}

func Test_ClearNote_Reports_Whether_A_Note_Was_Removed(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1))

	removed, err := s.ClearNote(at(1, 1, 2))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.False(t, s.Dirty())

	require.NoError(t, s.SetNote(at(1, 1, 2), 9, tab.Hammer))

	removed, err = s.ClearNote(at(1, 1, 2))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, -1, fretAt(s.Song, 1, 1, 2))
}

func Test_ClearNote_On_Hole_Beat_Or_Missing_Measure_Is_A_No_Op(t *testing.T) {
	t.Parallel()

	song := newSong(t, 1)
	require.NoError(t, song.Track(1).Measure(1).SetBeat(3, tab.NewBeat()))
	require.Nil(t, song.Track(1).Measure(1).Beat(2))

	s := editor.New(song)

	s.Navigate(editor.NextBeat)
	require.Equal(t, at(1, 2, 1), s.Cursor)

	removed, err := s.ClearNote(s.Cursor)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.ClearNote(at(7, 1, 1))
	require.NoError(t, err)
	assert.False(t, removed)

	assert.False(t, s.Dirty())
	assert.False(t, s.CanUndo())
}

func Test_ToggleRepeat_Turns_On_And_Off(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1))

	on, err := s.ToggleRepeat(at(1, 1, 1))
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.Song.Track(1).Measure(1).Repeat)

	off, err := s.ToggleRepeat(at(1, 1, 1))
	require.NoError(t, err)
	assert.False(t, off)
	assert.False(t, s.Song.Track(1).Measure(1).Repeat)

	on, err = s.TogglePageBreak(at(1, 1, 1))
	require.NoError(t, err)
	assert.True(t, on)
	assert.False(t, s.Song.Track(1).Measure(1).Repeat, "flags are independent")
}

func Test_Annotations_Are_Normalized_And_Clearable(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 2))

	require.NoError(t, s.AnnotateMeasure(at(1, 1, 1), "  Café\nverse  "))
	assert.Equal(t, "Café verse", s.Song.Track(1).Measure(1).Annotation)

	require.NoError(t, s.AnnotateBeat(at(1, 2, 1), "ring"))
	assert.Equal(t, "ring", s.Song.Track(1).Measure(1).Beat(2).Annotation)

	require.NoError(t, s.AnnotateMeasure(at(1, 1, 1), ""))
	assert.Empty(t, s.Song.Track(1).Measure(1).Annotation)

	s.AnnotateSong("live take")
	assert.Equal(t, "live take", s.Song.Annotation)

	require.ErrorIs(t, s.AnnotateBeat(at(1, 3, 1), "x"), tab.ErrNoBeat)
	require.ErrorIs(t, s.AnnotateMeasure(at(2, 1, 1), "x"), tab.ErrNoMeasure)
}

func Test_Dirty_Flag_Follows_Changes_And_Saves(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1))
	assert.False(t, s.Dirty())

	require.NoError(t, s.SetNote(at(1, 1, 1), 3, tab.Normal))
	assert.True(t, s.Dirty())

	s.MarkSaved()
	assert.False(t, s.Dirty())

	require.NoError(t, s.SetNote(at(1, 1, 1), 3, tab.Normal))
	assert.False(t, s.Dirty(), "setting the same note again changes nothing")

	s.Load(tab.New("other"))
	assert.False(t, s.Dirty())
	assert.False(t, s.CanUndo())
}

func Test_Undo_And_Redo_Restore_Song_And_Cursor(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1, 1))
	require.NoError(t, s.SetNote(at(2, 1, 4), 2, tab.Normal))

	_, err := s.DeleteBeat(at(2, 1, 4))
	require.NoError(t, err)
	require.Equal(t, 1, s.Song.Track(1).MeasureCount())

	s.MarkSaved()

	require.True(t, s.Undo())
	assert.True(t, s.Dirty())
	assert.Equal(t, 2, s.Song.Track(1).MeasureCount())
	assert.Equal(t, 2, fretAt(s.Song, 2, 1, 4))

	require.True(t, s.Undo())
	assert.Equal(t, -1, fretAt(s.Song, 2, 1, 4))
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	require.True(t, s.Redo())
	assert.Equal(t, 1, s.Song.Track(1).MeasureCount())
	assert.False(t, s.Redo())
}

func Test_Undo_History_Is_Capped(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1))

	for i := range editor.MaxUndo + 5 {
		require.NoError(t, s.SetNote(at(1, 1, 1), i%2, tab.Normal))
	}

	undone := 0
	for s.Undo() {
		undone++
	}

	assert.Equal(t, editor.MaxUndo, undone)
}

func Test_New_Edit_Clears_Redo(t *testing.T) {
	t.Parallel()

	s := editor.New(newSong(t, 1))
	require.NoError(t, s.SetNote(at(1, 1, 1), 1, tab.Normal))
	require.True(t, s.Undo())
	require.True(t, s.CanRedo())

	require.NoError(t, s.SetNote(at(1, 1, 2), 1, tab.Normal))
	assert.False(t, s.CanRedo())
}

func Test_Tracks_Can_Be_Added_Renamed_And_Deleted(t *testing.T) {
	t.Parallel()

	s := editor.New(nil)

	n, err := s.AddTrack(" Lead ")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Lead", s.Song.Track(2).Name)

	require.NoError(t, s.RenameTrack(2, "Solo"))
	assert.Equal(t, "Solo", s.Song.Track(2).Name)
	require.ErrorIs(t, s.RenameTrack(5, "x"), tab.ErrNoTrack)

	s.Cursor = editor.Cursor{Track: 2, Measure: 1, Beat: 1, String: 1}

	outcome, err := s.DeleteTrack(2)
	require.NoError(t, err)
	assert.Equal(t, editor.Applied, outcome)
	assert.Equal(t, 1, s.Song.TrackCount())
	assert.Equal(t, 1, s.Cursor.Track)

	outcome, err = s.DeleteTrack(1)
	require.NoError(t, err)
	assert.Equal(t, editor.Refused, outcome)
	assert.Equal(t, 1, s.Song.TrackCount())
}

func Test_AddTrack_Fails_At_Limit(t *testing.T) {
	t.Parallel()

	s := editor.New(nil)

	for range tab.MaxTracks - 1 {
		_, err := s.AddTrack("")
		require.NoError(t, err)
	}

	_, err := s.AddTrack("")
	require.ErrorIs(t, err, tab.ErrTooManyTracks)
}

func Test_SetTuning_And_RenameSong(t *testing.T) {
	t.Parallel()

	s := editor.New(nil)

	require.NoError(t, s.SetTuning("Open G"))
	assert.Equal(t, "openg", s.Song.TuningInfo().Name)

	require.ErrorIs(t, s.SetTuning("lute"), tab.ErrUnknownTuning)
	assert.Equal(t, "openg", s.Song.TuningInfo().Name)

	s.RenameSong("riffs")
	assert.Equal(t, "riffs", s.Song.Name)
	assert.True(t, s.Dirty())
}
