package tab

import (
	"fmt"
	"strings"
)

// Tuning names the open strings of the instrument. Index 0 of each array is
// string 1, the highest-pitched string.
type Tuning struct {
	Name    string
	Labels  [NumStrings]string
	Pitches [NumStrings]int // MIDI pitch of each open string
}

// Tunings is the table a [Song] selects from by index. Index 0 is standard
// tuning and is the default.
var Tunings = []Tuning{
	{Name: "standard", Labels: [NumStrings]string{"E", "B", "G", "D", "A", "E"}, Pitches: [NumStrings]int{64, 59, 55, 50, 45, 40}},
	{Name: "dropd", Labels: [NumStrings]string{"E", "B", "G", "D", "A", "D"}, Pitches: [NumStrings]int{64, 59, 55, 50, 45, 38}},
	{Name: "dadgad", Labels: [NumStrings]string{"D", "A", "G", "D", "A", "D"}, Pitches: [NumStrings]int{62, 57, 55, 50, 45, 38}},
	{Name: "openg", Labels: [NumStrings]string{"D", "B", "G", "D", "G", "D"}, Pitches: [NumStrings]int{62, 59, 55, 50, 43, 38}},
	{Name: "halfdown", Labels: [NumStrings]string{"Eb", "Bb", "Gb", "Db", "Ab", "Eb"}, Pitches: [NumStrings]int{63, 58, 54, 49, 44, 39}},
}

// LookupTuning finds a tuning by name, ignoring case, spaces, dashes and
// underscores ("Drop D", "drop-d" and "dropd" all match).
func LookupTuning(name string) (int, error) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(name))

	for idx, t := range Tunings {
		if t.Name == key {
			return idx, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownTuning, name)
}

// TuningAt returns the tuning at idx, falling back to standard tuning for
// out-of-range indices.
func TuningAt(idx int) Tuning {
	if idx < 0 || idx >= len(Tunings) {
		return Tunings[0]
	}

	return Tunings[idx]
}

// Pitch returns the MIDI pitch of fret on string s in this tuning, or -1 if
// the position is invalid.
func (t Tuning) Pitch(s, fret int) int {
	if s < 1 || s > NumStrings || fret < 0 || fret > MaxFret {
		return -1
	}

	return t.Pitches[s-1] + fret
}

var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName spells a MIDI pitch in scientific notation, so 60 is "C4".
// Returns "" for negative pitches.
func PitchName(p int) string {
	if p < 0 {
		return ""
	}

	return fmt.Sprintf("%s%d", pitchClasses[p%12], p/12-1)
}
