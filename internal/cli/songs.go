package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tabedit/internal/config"
	"github.com/calvinalkan/tabedit/internal/format"
	"github.com/calvinalkan/tabedit/internal/store"
	"github.com/calvinalkan/tabedit/internal/tab"
)

// songArg returns the single song name in args. "riff.tab" and
// "songs/riff.tab" both name the song "riff".
func songArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrSongRequired
	}

	if len(args) > 1 {
		return "", fmt.Errorf("unexpected arguments: %s", strings.Join(args[1:], " "))
	}

	name := store.NameFromPath(args[0])

	err := store.ValidateName(name)
	if err != nil {
		return "", err
	}

	return name, nil
}

// checkWidth validates an explicit --width flag value; 0 means the
// configured width.
func (a *app) checkWidth(width int) (int, error) {
	if width == 0 {
		return a.cfg.ExportWidth, nil
	}

	if width < config.MinExportWidth || width > config.MaxExportWidth {
		return 0, fmt.Errorf("%w: --width %d (must be %d-%d)", ErrOutOfRange, width, config.MinExportWidth, config.MaxExportWidth)
	}

	return width, nil
}

func songSummary(song *tab.Song) string {
	measures := 0

	for t := 1; t <= song.TrackCount(); t++ {
		measures = max(measures, song.Track(t).MeasureCount())
	}

	return fmt.Sprintf("%s, %d track(s), %d measure(s)", song.TuningInfo().Name, song.PresentTracks(), measures)
}

// NewCmd returns the new command.
func NewCmd(a *app) *Command {
	flags := flag.NewFlagSet("new", flag.ContinueOnError)
	tuning := flags.StringP("tuning", "t", "", "Tuning name (default from config)")
	tracks := flags.Int("tracks", 1, "Number of tracks (1-8)")
	measures := flags.IntP("measures", "m", 1, "Measures per track (1-500)")
	beats := flags.IntP("beats", "b", 1, "Beats per measure (1-32)")
	force := flags.BoolP("force", "f", false, "Overwrite an existing song")

	return &Command{
		Flags: flags,
		Usage: "new <name> [flags]",
		Short: "Create an empty song",
		Long:  "Create <song_dir>/<name>.tab holding empty measures. Prints the file path.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			name, err := songArg(args)
			if err != nil {
				return err
			}

			switch {
			case *tracks < 1 || *tracks > tab.MaxTracks:
				return fmt.Errorf("%w: --tracks %d", ErrOutOfRange, *tracks)
			case *measures < 1 || *measures > tab.MaxMeasures:
				return fmt.Errorf("%w: --measures %d", ErrOutOfRange, *measures)
			case *beats < 1 || *beats > tab.MaxBeatsPerMeasure:
				return fmt.Errorf("%w: --beats %d", ErrOutOfRange, *beats)
			}

			tuningIdx := a.cfg.TuningIndex
			if *tuning != "" {
				tuningIdx, err = tab.LookupTuning(*tuning)
				if err != nil {
					return err
				}
			}

			exists, err := a.store.Exists(name)
			if err != nil {
				return err
			}

			if exists && !*force {
				return fmt.Errorf("%w: %s", ErrSongExists, a.store.Path(name, store.ExtText))
			}

			song := tab.New(name)
			song.Tuning = tuningIdx
			song.RemoveTrack(1)

			for range *tracks {
				track := tab.NewTrack("")

				for m := 1; m <= *measures; m++ {
					err = track.SetMeasure(m, tab.NewMeasure(*beats))
					if err != nil {
						return err
					}
				}

				_, err = song.AppendTrack(track)
				if err != nil {
					return err
				}
			}

			err = a.store.Save(song)
			if err != nil {
				return err
			}

			io.Println(a.store.Path(name, store.ExtText))

			return nil
		},
	}
}

// LsCmd returns the ls command.
func LsCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("ls", flag.ContinueOnError),
		Usage: "ls",
		Short: "List songs in the song directory",
		Long:  "List every song in the song directory with its tuning, size and stored forms.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			entries, err := a.store.List()
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				io.Println("(no songs in " + a.store.Dir() + ")")

				return nil
			}

			for _, e := range entries {
				var kinds []string
				if e.HasText {
					kinds = append(kinds, "tab")
				}

				if e.HasSnapshot {
					kinds = append(kinds, "snap")
				}

				summary := "-"

				if e.HasText {
					song, loadErr := a.store.Load(e.Name)
					if loadErr != nil {
						io.Warn(loadErr.Error(), "run 'tabedit check "+e.Name+"' or fix the file")
					} else {
						summary = songSummary(song)
					}
				}

				io.Printf("%-24s %-9s %s\n", e.Name, strings.Join(kinds, "+"), summary)
			}

			return nil
		},
	}
}

// ShowCmd returns the show command.
func ShowCmd(a *app) *Command {
	flags := flag.NewFlagSet("show", flag.ContinueOnError)
	width := flags.IntP("width", "w", 0, "Line width (default from config)")
	track := flags.IntP("track", "t", 0, "Show only this track")
	from := flags.Int("from", 1, "First measure to show")

	return &Command{
		Flags: flags,
		Usage: "show <name> [flags]",
		Short: "Print a song as readable tablature",
		Exec: func(_ context.Context, io *IO, args []string) error {
			name, err := songArg(args)
			if err != nil {
				return err
			}

			w, err := a.checkWidth(*width)
			if err != nil {
				return err
			}

			song, err := a.store.Load(name)
			if err != nil {
				return err
			}

			if *track != 0 && song.Track(*track) == nil {
				return fmt.Errorf("%w: %d", tab.ErrNoTrack, *track)
			}

			return format.Render(io.Out(), song, format.RenderOptions{Width: w, From: *from, Track: *track})
		},
	}
}

// CheckCmd returns the check command.
func CheckCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("check", flag.ContinueOnError),
		Usage: "check [name...]",
		Short: "Validate songs (all songs if none given)",
		Long:  "Parse each song and report the first error with its line number. Exits 1 if any song fails.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			names := make([]string, 0, len(args))

			for _, arg := range args {
				name, err := songArg([]string{arg})
				if err != nil {
					return err
				}

				names = append(names, name)
			}

			if len(names) == 0 {
				entries, err := a.store.List()
				if err != nil {
					return err
				}

				for _, e := range entries {
					if e.HasText {
						names = append(names, e.Name)
					}
				}
			}

			failed := 0

			for _, name := range names {
				song, err := a.store.Load(name)
				if err != nil {
					io.ErrPrintln(name+":", err)

					failed++

					continue
				}

				io.Println("ok", name, "("+songSummary(song)+")")
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", ErrCheckFailed, failed, len(names))
			}

			return nil
		},
	}
}

// FmtCmd returns the fmt command.
func FmtCmd(a *app) *Command {
	flags := flag.NewFlagSet("fmt", flag.ContinueOnError)
	check := flags.Bool("check", false, "Print a diff instead of rewriting; exit 1 if not formatted")

	return &Command{
		Flags: flags,
		Usage: "fmt <name> [--check]",
		Short: "Rewrite a song in canonical form",
		Long: "Decode the song and encode it again in canonical order. Comments and blank " +
			"lines are not preserved.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			name, err := songArg(args)
			if err != nil {
				return err
			}

			song, err := a.store.Load(name)
			if err != nil {
				return err
			}

			want, err := format.Marshal(song)
			if err != nil {
				return err
			}

			path := a.store.Path(name, store.ExtText)

			have, err := a.fs.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", store.ErrCannotOpen, path, err)
			}

			if bytes.Equal(have, want) {
				return nil
			}

			if *check {
				diff, diffErr := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
					A:        difflib.SplitLines(string(have)),
					B:        difflib.SplitLines(string(want)),
					FromFile: path,
					ToFile:   path + " (formatted)",
					Context:  3,
				})
				if diffErr != nil {
					return diffErr
				}

				io.Printf("%s", diff)

				return fmt.Errorf("%w: %s", ErrNotFormatted, name)
			}

			err = a.store.Save(song)
			if err != nil {
				return err
			}

			io.Println("formatted", path)

			return nil
		},
	}
}
