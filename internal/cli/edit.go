package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tabedit/internal/store"
)

// resolveEditor checks for an available editor using the env map.
// Priority: config.Editor -> $EDITOR -> vi -> nano -> error.
func resolveEditor(configured string, env map[string]string) (string, error) {
	candidates := []string{configured, env["EDITOR"], "vi", "nano"}

	for _, editor := range candidates {
		if editor == "" {
			continue
		}

		_, lookErr := exec.LookPath(editor)
		if lookErr == nil {
			return editor, nil
		}
	}

	return "", ErrNoEditorFound
}

func runEditor(ctx context.Context, editor, path string) error {
	var cmd *exec.Cmd

	// zed needs -w to wait for the buffer to close
	if filepath.Base(editor) == "zed" {
		cmd = exec.CommandContext(ctx, editor, "-w", path)
	} else {
		cmd = exec.CommandContext(ctx, editor, path)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return fmt.Errorf("%w: %s exited with code %d", ErrEditorFailed, editor, exitErr.ExitCode())
		}

		return fmt.Errorf("%w: %w", ErrEditorFailed, runErr)
	}

	return nil
}

// EditCmd returns the edit command.
func EditCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("edit", flag.ContinueOnError),
		Usage: "edit <name>",
		Short: "Open a song's .tab file in your editor, then validate it",
		Long: "Open <name>.tab in config.editor, $EDITOR, vi or nano. When the editor exits " +
			"the file is parsed again and any error is reported with its line number.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			name, err := songArg(args)
			if err != nil {
				return err
			}

			exists, err := a.store.Exists(name)
			if err != nil {
				return err
			}

			if !exists {
				return fmt.Errorf("%w: %s", store.ErrNotFound, a.store.Path(name, store.ExtText))
			}

			editor, err := resolveEditor(a.cfg.Editor, a.env)
			if err != nil {
				return err
			}

			path := a.store.Path(name, store.ExtText)
			a.log.Debug("launching editor", "editor", editor, "path", path)

			err = runEditor(ctx, editor, path)
			if err != nil {
				return err
			}

			song, err := a.store.Load(name)
			if err != nil {
				return err
			}

			io.Println("ok", name, "("+songSummary(song)+")")

			return nil
		},
	}
}
