package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/tabedit/internal/format"
	"github.com/calvinalkan/tabedit/internal/store"
	"github.com/calvinalkan/tabedit/internal/tab"
)

// Command is one tabedit subcommand: its flags, help text and body.
type Command struct {
	// Flags are parsed before Exec; the set's own name is ignored.
	Flags *flag.FlagSet

	// Usage follows "tabedit" in help, e.g. "export <name> [flags]". Its
	// first word is the command name.
	Usage string

	Short string // one line for the command listing
	Long  string // command help; Short when empty

	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "tabedit <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: tabedit", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command, returning the exit code.
// A failing command prints "error:" and, for errors a user can act on, a
// "hint:" line naming the command that helps.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		c.PrintHelp(o)

		return 0
	}

	if err != nil {
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err == nil {
		return o.Finish()
	}

	o.ErrPrintln("error:", err)

	if hint := hintFor(err); hint != "" {
		o.ErrPrintln("hint:", hint)
	}

	_ = o.Finish()

	return 1
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "run 'tabedit ls' to list songs, or 'tabedit new <name>' to start one"
	case errors.Is(err, tab.ErrUnknownTuning):
		names := make([]string, len(tab.Tunings))
		for i, t := range tab.Tunings {
			names[i] = t.Name
		}

		return "known tunings: " + strings.Join(names, ", ")
	case errors.Is(err, format.ErrCorrupt):
		return "" // snapshots and imports are not edited by hand
	case errors.Is(err, format.ErrMalformed), errors.Is(err, format.ErrVersion):
		return "fix the file by hand with 'tabedit edit <name>'"
	default:
		return ""
	}
}
