package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tabedit/internal/config"
	"github.com/calvinalkan/tabedit/internal/fs"
	"github.com/calvinalkan/tabedit/internal/store"
)

// app carries what commands share once global flags and config are
// resolved.
type app struct {
	cfg   config.Config
	fs    fs.FS
	store *store.Store
	log   *slog.Logger
	stdin io.Reader
	env   map[string]string
}

// commands returns every command in help order. Exec closures read a, which
// is filled in after config loading.
func commands(a *app) []*Command {
	return []*Command{
		NewCmd(a),
		LsCmd(a),
		ShowCmd(a),
		CheckCmd(a),
		FmtCmd(a),
		ExportCmd(a),
		SnapshotCmd(a),
		RestoreCmd(a),
		DumpCmd(a),
		ImportCmd(a),
		EditCmd(a),
		ShellCmd(a),
		PrintConfigCmd(a),
	}
}

// Run is the main entry point. Returns exit code.
//
// A signal on sigCh cancels the command context; the shell stops reading
// lines once that happens. sigCh may be nil.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("tabedit", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use specified config `file`")
	songDir := globals.String("song-dir", "", "Override the song `dir`")
	verbose := globals.BoolP("verbose", "v", false, "Log debug output to stderr")
	help := globals.BoolP("help", "h", false, "Show help")

	if stdin == nil {
		stdin = strings.NewReader("")
	}

	a := &app{stdin: stdin, env: env}
	cmds := commands(a)

	if len(args) > 0 {
		args = args[1:]
	}

	err := globals.Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, cmds)

		return 1
	}

	rest := globals.Args()
	if *help || len(rest) == 0 {
		printUsage(out, globals, cmds)

		return 0
	}

	if globals.Changed("song-dir") && *songDir == "" {
		fprintln(errOut, "error:", ErrSongDirEmpty)

		return 1
	}

	idx := slices.IndexFunc(cmds, func(c *Command) bool { return c.Name() == rest[0] })
	if idx < 0 {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, rest[0]))
		printUsage(errOut, globals, cmds)

		return 1
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: *workDir,
		ConfigPath:      *configPath,
		SongDirOverride: *songDir,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}

	a.log = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
	a.cfg = cfg
	a.fs = fs.NewReal()
	a.store = store.New(a.fs, cfg.SongDirAbs, a.log)

	a.log.Debug("config resolved", "song_dir", cfg.SongDirAbs, "global", cfg.Sources.Global, "project", cfg.Sources.Project)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	return cmds[idx].Run(ctx, NewIO(out, errOut), rest[1:])
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globals *flag.FlagSet, cmds []*Command) {
	fprintln(w, "tabedit - guitar tablature editor")
	fprintln(w)
	fprintln(w, "Usage: tabedit [options] <command> [args]")
	fprintln(w)
	fprintln(w, "Options:")

	var buf strings.Builder
	globals.SetOutput(&buf)
	globals.PrintDefaults()
	globals.SetOutput(&strings.Builder{})
	_, _ = io.WriteString(w, buf.String())

	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range cmds {
		fprintln(w, c.HelpLine())
	}
}
