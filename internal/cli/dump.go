package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tabedit/internal/format"
	"github.com/calvinalkan/tabedit/internal/store"
	"github.com/calvinalkan/tabedit/internal/tab"
)

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// DumpCmd returns the dump command.
func DumpCmd(a *app) *Command {
	flags := flag.NewFlagSet("dump", flag.ContinueOnError)
	outFormat := flags.StringP("format", "f", "yaml", "Output format: yaml|spew")
	fromSnapshot := flags.Bool("snapshot", false, "Read the .tabsnap file instead of the .tab file")

	return &Command{
		Flags: flags,
		Usage: "dump <name> [flags]",
		Short: "Print the full document structure",
		Long: "Print every level of the song, holes included. The yaml format can be read " +
			"back with 'tabedit import'; spew shows the in-memory structure.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			name, err := songArg(args)
			if err != nil {
				return err
			}

			if *outFormat != "yaml" && *outFormat != "spew" {
				return fmt.Errorf("%w: %s (want yaml or spew)", ErrUnknownFormat, *outFormat)
			}

			var song *tab.Song
			if *fromSnapshot {
				song, err = a.store.LoadSnapshot(name)
			} else {
				song, err = a.store.Load(name)
			}

			if err != nil {
				return err
			}

			if *outFormat == "spew" {
				spewConfig.Fdump(io.Out(), song)

				return nil
			}

			data, err := format.MarshalYAML(song)
			if err != nil {
				return err
			}

			io.Printf("%s", data)

			return nil
		},
	}
}

// ImportCmd returns the import command.
func ImportCmd(a *app) *Command {
	flags := flag.NewFlagSet("import", flag.ContinueOnError)
	name := flags.StringP("name", "n", "", "Song name (default: file name without extension)")
	force := flags.BoolP("force", "f", false, "Overwrite an existing song")

	return &Command{
		Flags: flags,
		Usage: "import <file.yaml> [flags]",
		Short: "Create a song from a YAML dump",
		Exec: func(_ context.Context, io *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: expected one YAML file", ErrSongRequired)
			}

			path := args[0]
			if !filepath.IsAbs(path) {
				path = filepath.Join(a.cfg.EffectiveCwd, path)
			}

			data, err := a.fs.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", store.ErrCannotOpen, path, err)
			}

			song, err := format.UnmarshalYAML(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			songName := *name
			if songName == "" {
				base := filepath.Base(path)
				songName = strings.TrimSuffix(base, filepath.Ext(base))
			}

			err = store.ValidateName(songName)
			if err != nil {
				return err
			}

			exists, err := a.store.Exists(songName)
			if err != nil {
				return err
			}

			if exists && !*force {
				return fmt.Errorf("%w: %s", ErrSongExists, a.store.Path(songName, store.ExtText))
			}

			song.Name = songName

			err = a.store.Save(song)
			if err != nil {
				return err
			}

			io.Println(a.store.Path(songName, store.ExtText))

			return nil
		},
	}
}
