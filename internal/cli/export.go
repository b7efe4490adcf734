package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tabedit/internal/format"
	"github.com/calvinalkan/tabedit/internal/store"
)

// ExportCmd returns the export command.
func ExportCmd(a *app) *Command {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	html := flags.Bool("html", false, "Export an HTML page instead of plain text")
	output := flags.StringP("output", "o", "", "Write to `path` (- for stdout) instead of next to the song")
	width := flags.IntP("width", "w", 0, "Line width (default from config)")

	return &Command{
		Flags: flags,
		Usage: "export <name> [flags]",
		Short: "Export readable tablature to .txt or .html",
		Long: "Render the song as plain text (<name>.txt) or HTML (<name>.html) in the song " +
			"directory. Prints the path written.",
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

			kind := store.ExportText
			if *html {
				kind = store.ExportHTML
			}

			opts := format.RenderOptions{Width: w}

			if *output == "" {
				path, exportErr := a.store.Export(song, kind, opts)
				if exportErr != nil {
					return exportErr
				}

				io.Println(path)

				return nil
			}

			var buf bytes.Buffer

			if kind == store.ExportHTML {
				err = format.RenderHTML(&buf, song, opts)
			} else {
				err = format.Render(&buf, song, opts)
			}

			if err != nil {
				return err
			}

			if *output == "-" {
				io.Printf("%s", buf.String())

				return nil
			}

			path := *output
			if !filepath.IsAbs(path) {
				path = filepath.Join(a.cfg.EffectiveCwd, path)
			}

			err = a.fs.WriteFileAtomic(path, buf.Bytes(), 0o644)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", store.ErrCannotOpen, path, err)
			}

			a.log.Debug("exported", "path", path, "kind", kind.Ext())
			io.Println(path)

			return nil
		},
	}
}

// SnapshotCmd returns the snapshot command.
func SnapshotCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("snapshot", flag.ContinueOnError),
		Usage: "snapshot <name>",
		Short: "Save a binary snapshot of a song",
		Long:  "Write <name>.tabsnap, a checksummed binary copy that keeps every detail of the song.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			name, err := songArg(args)
			if err != nil {
				return err
			}

			song, err := a.store.Load(name)
			if err != nil {
				return err
			}

			err = a.store.SaveSnapshot(song)
			if err != nil {
				return err
			}

			io.Println(a.store.Path(name, store.ExtSnapshot))

			return nil
		},
	}
}

// RestoreCmd returns the restore command.
func RestoreCmd(a *app) *Command {
	flags := flag.NewFlagSet("restore", flag.ContinueOnError)
	force := flags.BoolP("force", "f", false, "Overwrite an existing .tab file")

	return &Command{
		Flags: flags,
		Usage: "restore <name> [--force]",
		Short: "Rewrite a song's .tab file from its snapshot",
		Exec: func(_ context.Context, io *IO, args []string) error {
			name, err := songArg(args)
			if err != nil {
				return err
			}

			song, err := a.store.LoadSnapshot(name)
			if err != nil {
				return err
			}

			exists, err := a.store.Exists(name)
			if err != nil {
				return err
			}

			if exists && !*force {
				return fmt.Errorf("%w: %s", ErrSongExists, a.store.Path(name, store.ExtText))
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
