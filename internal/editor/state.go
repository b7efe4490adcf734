// Package editor applies structural edits and cursor movement to a song.
//
// A [State] owns one [tab.Song]. Every mutating call either applies fully
// or returns an error and leaves the song untouched; calls that would
// break a document invariant report [Refused] instead of failing. Each
// applied change sets the dirty flag and can be undone.
package editor

import (
	"github.com/calvinalkan/tabedit/internal/tab"
)

// MaxUndo is the number of undo (and redo) steps kept.
const MaxUndo = 100

// Cursor addresses one string of one beat. All fields are 1-based.
type Cursor struct {
	Track   int
	Measure int
	Beat    int
	String  int
}

// Home is the first string of the first beat of the first track.
func Home() Cursor {
	return Cursor{Track: 1, Measure: 1, Beat: 1, String: 1}
}

// Outcome describes what a structural edit did.
type Outcome int

// Outcomes.
const (
	Applied Outcome = iota
	BeatRemoved
	MeasureRemoved
	BeatCleared
	Refused
)

var outcomeNames = [...]string{
	Applied:        "applied",
	BeatRemoved:    "beat removed",
	MeasureRemoved: "measure removed",
	BeatCleared:    "beat cleared",
	Refused:        "refused",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}

	return "unknown"
}

type snapshot struct {
	song   *tab.Song
	cursor Cursor
}

// State is one editing session.
type State struct {
	Song   *tab.Song
	Cursor Cursor

	// Status is a one-line message about the last operation.
	Status string

	clipboard []*tab.Beat
	dirty     bool
	undo      []snapshot
	redo      []snapshot
}

// New starts a session on song. A nil song starts from [tab.New].
func New(song *tab.Song) *State {
	s := &State{}
	s.Load(song)

	return s
}

// Load replaces the song wholesale. The cursor returns home, history is
// dropped and the song counts as saved. The clipboard is kept so beats can
// be carried between songs.
func (s *State) Load(song *tab.Song) {
	if song == nil {
		song = tab.New("")
	}

	song.Normalize()

	s.Song = song
	s.Cursor = Home()
	s.undo = nil
	s.redo = nil
	s.dirty = false
}

// Dirty reports whether the song changed since it was loaded or last saved.
func (s *State) Dirty() bool {
	return s.dirty
}

// MarkSaved clears the dirty flag.
func (s *State) MarkSaved() {
	s.dirty = false
}

// CanUndo reports whether [State.Undo] has anything to restore.
func (s *State) CanUndo() bool {
	return len(s.undo) > 0
}

// CanRedo reports whether [State.Redo] has anything to restore.
func (s *State) CanRedo() bool {
	return len(s.redo) > 0
}

// Undo restores the song and cursor before the last applied change.
func (s *State) Undo() bool {
	if len(s.undo) == 0 {
		s.Status = "nothing to undo"

		return false
	}

	s.redo = pushCapped(s.redo, s.current())
	s.restore(s.undo[len(s.undo)-1])
	s.undo = s.undo[:len(s.undo)-1]
	s.Status = "undone"

	return true
}

// Redo reapplies the last undone change.
func (s *State) Redo() bool {
	if len(s.redo) == 0 {
		s.Status = "nothing to redo"

		return false
	}

	s.undo = pushCapped(s.undo, s.current())
	s.restore(s.redo[len(s.redo)-1])
	s.redo = s.redo[:len(s.redo)-1]
	s.Status = "redone"

	return true
}

func (s *State) current() snapshot {
	return snapshot{song: s.Song.Clone(), cursor: s.Cursor}
}

func (s *State) restore(snap snapshot) {
	s.Song = snap.song
	s.Cursor = snap.cursor
	s.dirty = true
}

func pushCapped(stack []snapshot, snap snapshot) []snapshot {
	if len(stack) >= MaxUndo {
		stack = stack[1:]
	}

	return append(stack, snap)
}

// apply runs fn against the song. If fn fails the song and cursor are put
// back; if it reports no change the history and dirty flag are untouched.
func (s *State) apply(status string, fn func(song *tab.Song) (bool, error)) (bool, error) {
	before := s.current()

	changed, err := fn(s.Song)
	if err != nil {
		s.Song = before.song
		s.Cursor = before.cursor
		s.Status = err.Error()

		return false, err
	}

	if !changed {
		return false, nil
	}

	s.undo = pushCapped(s.undo, before)
	s.redo = nil
	s.dirty = true
	s.Status = status

	return true, nil
}
