package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/calvinalkan/tabedit/internal/editor"
	"github.com/calvinalkan/tabedit/internal/format"
	"github.com/calvinalkan/tabedit/internal/store"
	"github.com/calvinalkan/tabedit/internal/tab"
)

var (
	errUnknownShellCommand = errors.New("unknown command (type 'help')")
	errUsage               = errors.New("usage")
	errUnsaved             = errors.New("unsaved changes (save first, or 'q!' to discard)")
)

// fretKeys maps the single-key fret shortcuts to frets; octave mode adds 12.
var fretKeys = map[byte]int{
	'`': 0, '1': 1, '2': 2, '3': 3, '4': 4, '5': 5, '6': 6,
	'7': 7, '8': 8, '9': 9, '0': 10, '-': 11, '=': 12,
}

const octave = 12

// interpreter applies shell lines to one editing session. It knows nothing
// about how lines are read.
type interpreter struct {
	a      *app
	state  *editor.State
	out    io.Writer
	octave bool
	done   bool
}

type shellCommand struct {
	names []string
	usage string
	help  string
	run   func(in *interpreter, args []string, rest string) error
}

var shellCommands []shellCommand

func init() {
	shellCommands = []shellCommand{
		{[]string{"help", "?"}, "help", "Show this help", (*interpreter).cmdHelp},
		{[]string{"pos"}, "pos", "Print the cursor position and the pitch under it", (*interpreter).cmdPos},
		{[]string{"show", "l"}, "show", "Render the cursor's track with the cursor marked", (*interpreter).cmdShow},
		{[]string{"n", "next"}, "n", "Next beat (extends past a non-empty last measure)", navCmd(editor.NextBeat)},
		{[]string{"p", "prev"}, "p", "Previous beat", navCmd(editor.PrevBeat)},
		{[]string{"nm"}, "nm", "Next measure", navCmd(editor.NextMeasure)},
		{[]string{"pm"}, "pm", "Previous measure", navCmd(editor.PrevMeasure)},
		{[]string{"u", "up"}, "u", "Move to the string above", navCmd(editor.StringUp)},
		{[]string{"d", "down"}, "d", "Move to the string below", navCmd(editor.StringDown)},
		{[]string{"nt"}, "nt", "Next track", navCmd(editor.NextTrack)},
		{[]string{"pt"}, "pt", "Previous track", navCmd(editor.PrevTrack)},
		{[]string{"g", "goto"}, "goto <measure> [beat] [string] [track]", "Jump to a position", (*interpreter).cmdGoto},
		{[]string{"f", "fret"}, "f <fret|key> [h|p|s]", "Set the note under the cursor", (*interpreter).cmdFret},
		{[]string{"o", "octave"}, "o", "Toggle octave mode for fret keys (+12)", (*interpreter).cmdOctave},
		{[]string{"c", "clear"}, "c", "Clear the note under the cursor", (*interpreter).cmdClear},
		{[]string{"a", "append"}, "a", "Add a beat after the cursor", (*interpreter).cmdAppend},
		{[]string{"i", "insert"}, "i", "Insert a beat at the cursor", (*interpreter).cmdInsert},
		{[]string{"m", "measure"}, "m", "Add a measure after the cursor", (*interpreter).cmdMeasure},
		{[]string{"x", "del"}, "x", "Delete the beat at the cursor", (*interpreter).cmdDelete},
		{[]string{"ann"}, "ann [text]", "Annotate the measure (beat 1) or beat; no text clears", (*interpreter).cmdAnnotate},
		{[]string{"title"}, "title [text]", "Set the song annotation", (*interpreter).cmdTitle},
		{[]string{"pb", "pagebreak"}, "pb", "Toggle a page break after the measure", (*interpreter).cmdPageBreak},
		{[]string{"r", "repeat"}, "r", "Toggle a repeat sign after the measure", (*interpreter).cmdRepeat},
		{[]string{"copy", "y"}, "copy [count]", "Copy beats from the cursor", (*interpreter).cmdCopy},
		{[]string{"paste"}, "paste", "Paste copied beats after the cursor", (*interpreter).cmdPaste},
		{[]string{"mv"}, "mv <next|prev>", "Carry the beat at the cursor one position", (*interpreter).cmdMove},
		{[]string{"track"}, "track <add [name]|del|name <name>>", "Manage tracks", (*interpreter).cmdTrack},
		{[]string{"tuning"}, "tuning <name>", "Set the tuning", (*interpreter).cmdTuning},
		{[]string{"rename"}, "rename <name>", "Rename the song (and the file it saves to)", (*interpreter).cmdRename},
		{[]string{"undo"}, "undo", "Undo the last edit", (*interpreter).cmdUndo},
		{[]string{"redo"}, "redo", "Redo the last undone edit", (*interpreter).cmdRedo},
		{[]string{"w", "save"}, "w", "Save the song", (*interpreter).cmdSave},
		{[]string{"snap", "snapshot"}, "snap", "Save a binary snapshot", (*interpreter).cmdSnapshot},
		{[]string{"export"}, "export [html]", "Export readable tablature", (*interpreter).cmdExport},
		{[]string{"q", "quit", "exit"}, "q", "Quit (refuses with unsaved changes)", (*interpreter).cmdQuit},
		{[]string{"q!", "quit!"}, "q!", "Quit and discard changes", (*interpreter).cmdForceQuit},
	}
}

func newInterpreter(a *app, state *editor.State, out io.Writer) *interpreter {
	return &interpreter{a: a, state: state, out: out}
}

// Exec runs one shell line. Errors leave the song unchanged.
func (in *interpreter) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])
	rest := strings.TrimSpace(line[len(fields[0]):])

	idx := slices.IndexFunc(shellCommands, func(c shellCommand) bool { return slices.Contains(c.names, name) })
	if idx < 0 {
		return fmt.Errorf("%w: %s", errUnknownShellCommand, name)
	}

	in.state.Status = ""

	err := shellCommands[idx].run(in, fields[1:], rest)
	if err != nil {
		if errors.Is(err, errUsage) {
			return fmt.Errorf("%w: %s", errUsage, shellCommands[idx].usage)
		}

		return err
	}

	if in.state.Status != "" {
		in.println(in.state.Status)
	}

	return nil
}

// Done reports whether the session was quit.
func (in *interpreter) Done() bool {
	return in.done
}

// Completions returns the command names starting with prefix.
func (in *interpreter) Completions(prefix string) []string {
	var out []string

	lower := strings.ToLower(prefix)
	for _, c := range shellCommands {
		for _, n := range c.names {
			if strings.HasPrefix(n, lower) {
				out = append(out, n)
			}
		}
	}

	return out
}

// Prompt shows the song name, a dirty marker and the cursor.
func (in *interpreter) Prompt() string {
	dirty := ""
	if in.state.Dirty() {
		dirty = "*"
	}

	c := in.state.Cursor

	return fmt.Sprintf("%s%s t%d m%d b%d s%d> ", in.state.Song.Name, dirty, c.Track, c.Measure, c.Beat, c.String)
}

func (in *interpreter) println(a ...any) {
	_, _ = fmt.Fprintln(in.out, a...)
}

func (in *interpreter) printPos() {
	c := in.state.Cursor
	pos := fmt.Sprintf("track %d measure %d beat %d string %d", c.Track, c.Measure, c.Beat, c.String)

	note, ok := in.state.Song.Track(c.Track).Measure(c.Measure).Beat(c.Beat).Note(c.String)
	if ok {
		pitch := in.state.Song.TuningInfo().Pitch(note.String, note.Fret)
		pos += fmt.Sprintf(": fret %d (%s)", note.Fret, tab.PitchName(pitch))
	}

	in.println(pos)
}

func navCmd(nav editor.Navigator) func(*interpreter, []string, string) error {
	return func(in *interpreter, _ []string, _ string) error {
		in.state.Navigate(nav)

		if in.state.Status == "" {
			in.printPos()
		}

		return nil
	}
}

func (in *interpreter) cmdHelp(_ []string, _ string) error {
	for _, c := range shellCommands {
		in.println(fmt.Sprintf("  %-36s %s", c.usage, c.help))
	}

	return nil
}

func (in *interpreter) cmdPos(_ []string, _ string) error {
	in.printPos()

	return nil
}

func (in *interpreter) cmdShow(_ []string, _ string) error {
	c := in.state.Cursor

	return format.Render(in.out, in.state.Song, format.RenderOptions{
		Width: in.a.cfg.ExportWidth,
		Track: c.Track,
		Mark:  &format.Mark{Track: c.Track, Measure: c.Measure, Beat: c.Beat, String: c.String},
	})
}

func (in *interpreter) cmdGoto(args []string, _ string) error {
	if len(args) == 0 || len(args) > 4 {
		return errUsage
	}

	nums := make([]int, len(args))

	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", errUsage, arg)
		}

		nums[i] = n
	}

	target := in.state.Cursor
	target.Measure, target.Beat = nums[0], 1

	if len(nums) > 1 {
		target.Beat = nums[1]
	}

	if len(nums) > 2 {
		target.String = nums[2]
	}

	if len(nums) > 3 {
		target.Track = nums[3]
	}

	err := in.state.Goto(target)
	if err != nil {
		return err
	}

	in.printPos()

	return nil
}

// parseFret accepts a fret number or a single fret key.
func (in *interpreter) parseFret(s string) (int, error) {
	if len(s) == 1 {
		fret, ok := fretKeys[s[0]]
		if ok {
			if in.octave {
				fret += octave
			}

			return fret, nil
		}
	}

	fret, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a fret", errUsage, s)
	}

	return fret, nil
}

func (in *interpreter) cmdFret(args []string, _ string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}

	fret, err := in.parseFret(args[0])
	if err != nil {
		return err
	}

	art := tab.Normal

	if len(args) == 2 {
		art, err = tab.ParseArticulation(args[1])
		if err != nil {
			return err
		}
	}

	return in.state.SetNote(in.state.Cursor, fret, art)
}

func (in *interpreter) cmdOctave(_ []string, _ string) error {
	in.octave = !in.octave

	if in.octave {
		in.println("octave on")
	} else {
		in.println("octave off")
	}

	return nil
}

func (in *interpreter) cmdClear(_ []string, _ string) error {
	_, err := in.state.ClearNote(in.state.Cursor)

	return err
}

func (in *interpreter) cmdAppend(_ []string, _ string) error {
	c := in.state.Cursor

	pos, err := in.state.AddBeat(c, c.Beat+1, true)
	if err != nil {
		return err
	}

	in.state.Cursor.Beat = pos

	return nil
}

func (in *interpreter) cmdInsert(_ []string, _ string) error {
	c := in.state.Cursor

	pos, err := in.state.AddBeat(c, c.Beat, true)
	if err != nil {
		return err
	}

	in.state.Cursor.Beat = pos

	return nil
}

func (in *interpreter) cmdMeasure(_ []string, _ string) error {
	c := in.state.Cursor

	pos, err := in.state.AddMeasure(c, c.Measure+1, true)
	if err != nil {
		return err
	}

	in.state.Cursor.Measure = pos
	in.state.Cursor.Beat = 1

	return nil
}

func (in *interpreter) cmdDelete(_ []string, _ string) error {
	outcome, err := in.state.DeleteBeat(in.state.Cursor)
	if err != nil {
		return err
	}

	if outcome == editor.Refused {
		in.state.Status = "nothing to delete"
	}

	return nil
}

func (in *interpreter) cmdAnnotate(_ []string, rest string) error {
	c := in.state.Cursor

	if c.Beat == 1 {
		return in.state.AnnotateMeasure(c, rest)
	}

	return in.state.AnnotateBeat(c, rest)
}

func (in *interpreter) cmdTitle(_ []string, rest string) error {
	in.state.AnnotateSong(rest)

	return nil
}

func (in *interpreter) cmdPageBreak(_ []string, _ string) error {
	_, err := in.state.TogglePageBreak(in.state.Cursor)

	return err
}

func (in *interpreter) cmdRepeat(_ []string, _ string) error {
	_, err := in.state.ToggleRepeat(in.state.Cursor)

	return err
}

func (in *interpreter) cmdCopy(args []string, _ string) error {
	count := 1

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return errUsage
		}

		count = n
	}

	in.state.CopyRange(in.state.Cursor, count)

	return nil
}

func (in *interpreter) cmdPaste(_ []string, _ string) error {
	clip := in.state.Clipboard()
	if len(clip) == 0 {
		in.println("clipboard is empty")

		return nil
	}

	_, err := in.state.PasteRange(in.state.Cursor, clip)

	return err
}

func (in *interpreter) cmdMove(args []string, _ string) error {
	if len(args) != 1 {
		return errUsage
	}

	var nav editor.Navigator

	switch args[0] {
	case "next", "n":
		nav = editor.NextBeat
	case "prev", "p":
		nav = editor.PrevBeat
	default:
		return errUsage
	}

	move, err := in.state.MoveBeat(nav)
	if err != nil {
		return err
	}

	if move == editor.Stay {
		in.state.Status = "at boundary"
	}

	return nil
}

func (in *interpreter) cmdTrack(args []string, rest string) error {
	if len(args) == 0 {
		return errUsage
	}

	text := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))

	switch args[0] {
	case "add":
		t, err := in.state.AddTrack(text)
		if err != nil {
			return err
		}

		in.state.Cursor = editor.Clamp(in.state.Song, editor.Cursor{Track: t, Measure: 1, Beat: 1, String: in.state.Cursor.String})

		return nil
	case "del":
		outcome, err := in.state.DeleteTrack(in.state.Cursor.Track)
		if err != nil {
			return err
		}

		if outcome == editor.Refused {
			return errors.New(in.state.Status)
		}

		return nil
	case "name":
		return in.state.RenameTrack(in.state.Cursor.Track, text)
	default:
		return errUsage
	}
}

func (in *interpreter) cmdTuning(_ []string, rest string) error {
	if rest == "" {
		return errUsage
	}

	return in.state.SetTuning(rest)
}

func (in *interpreter) cmdRename(_ []string, rest string) error {
	name := editor.CleanText(rest)

	err := store.ValidateName(name)
	if err != nil {
		return err
	}

	in.state.RenameSong(name)

	return nil
}

func (in *interpreter) cmdUndo(_ []string, _ string) error {
	if !in.state.Undo() {
		in.state.Status = "nothing to undo"
	}

	return nil
}

func (in *interpreter) cmdRedo(_ []string, _ string) error {
	if !in.state.Redo() {
		in.state.Status = "nothing to redo"
	}

	return nil
}

func (in *interpreter) cmdSave(_ []string, _ string) error {
	err := in.a.store.Save(in.state.Song)
	if err != nil {
		return err
	}

	in.state.MarkSaved()
	in.println("saved", in.a.store.Path(in.state.Song.Name, store.ExtText))

	return nil
}

func (in *interpreter) cmdSnapshot(_ []string, _ string) error {
	err := in.a.store.SaveSnapshot(in.state.Song)
	if err != nil {
		return err
	}

	in.println("snapshot", in.a.store.Path(in.state.Song.Name, store.ExtSnapshot))

	return nil
}

func (in *interpreter) cmdExport(args []string, _ string) error {
	kind := store.ExportText

	if len(args) > 0 {
		if args[0] != "html" {
			return errUsage
		}

		kind = store.ExportHTML
	}

	path, err := in.a.store.Export(in.state.Song, kind, format.RenderOptions{Width: in.a.cfg.ExportWidth})
	if err != nil {
		return err
	}

	in.println("exported", path)

	return nil
}

func (in *interpreter) cmdQuit(_ []string, _ string) error {
	if in.state.Dirty() {
		return errUnsaved
	}

	in.done = true

	return nil
}

func (in *interpreter) cmdForceQuit(_ []string, _ string) error {
	in.done = true

	return nil
}
