package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/tabedit/internal/editor"
	"github.com/calvinalkan/tabedit/internal/store"
	"github.com/calvinalkan/tabedit/internal/tab"
)

// lineReader yields shell lines. Prompt returns io.EOF when input ends.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// scanReader reads lines from a non-terminal stdin without echoing prompts.
type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if !r.scanner.Scan() {
		err := r.scanner.Err()
		if err == nil {
			err = io.EOF
		}

		return "", err
	}

	return r.scanner.Text(), nil
}

func (r *scanReader) AppendHistory(string) {}

func (r *scanReader) Close() error { return nil }

// linerReader adds line editing, completion and history on a terminal.
type linerReader struct {
	state       *liner.State
	historyPath string
}

func newLinerReader(complete func(string) []string, historyPath string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(complete)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}

	return &linerReader{state: state, historyPath: historyPath}
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}

	return line, err
}

func (r *linerReader) AppendHistory(line string) {
	r.state.AppendHistory(line)
}

func (r *linerReader) Close() error {
	if r.historyPath != "" {
		if f, err := os.Create(r.historyPath); err == nil {
			_, _ = r.state.WriteHistory(f)
			_ = f.Close()
		}
	}

	return r.state.Close()
}

// isTerminal reports whether r is a terminal file.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}

	_, err := unix.IoctlGetTermios(int(f.Fd()), ioctlReadTermios)

	return err == nil
}

func (a *app) historyPath() string {
	if home := a.env["HOME"]; home != "" {
		return filepath.Join(home, ".tabedit_history")
	}

	return ""
}

// ShellCmd returns the shell command.
func ShellCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell <name>",
		Short: "Edit a song interactively",
		Long: "Open the song (or start a new one) and read editing commands line by line. " +
			"Type 'help' in the shell for the command list. Reads plain lines when stdin " +
			"is not a terminal, so scripts can be piped in.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			name, err := songArg(args)
			if err != nil {
				return err
			}

			song, err := a.store.Load(name)

			switch {
			case errors.Is(err, store.ErrNotFound):
				song = tab.New(name)
				song.Tuning = a.cfg.TuningIndex

				io.Println("new song", name)
			case err != nil:
				return err
			}

			state := editor.New(song)
			interp := newInterpreter(a, state, io.Out())

			var reader lineReader
			if isTerminal(a.stdin) {
				reader = newLinerReader(interp.Completions, a.historyPath())
			} else {
				reader = &scanReader{scanner: bufio.NewScanner(a.stdin)}
			}

			defer func() { _ = reader.Close() }()

			return runShell(ctx, io, interp, reader)
		},
	}
}

func runShell(ctx context.Context, o *IO, interp *interpreter, reader lineReader) error {
	for !interp.Done() {
		if ctx.Err() != nil {
			break
		}

		line, err := reader.Prompt(interp.Prompt())
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		reader.AppendHistory(line)

		err = interp.Exec(line)
		if err != nil {
			o.Println("error:", err)
		}
	}

	if !interp.Done() && interp.state.Dirty() {
		o.Warn("unsaved changes to "+interp.state.Song.Name+" were discarded", "use 'w' before quitting")
	}

	return nil
}
