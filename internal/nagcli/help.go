package nagcli

import (
	"fmt"
	"io"
)

// fpf is a shorthand for fmt.Fprintf that discards the error, used for
// writing help text to stderr where write failures are non-actionable.
func fpf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}

// FormatAppHelp writes the top-level help text to app.Stderr.
func FormatAppHelp(app *App) {
	w := app.Stderr

	fpf(w, "%s version %s\n\n", app.Name, app.Version)
	fpf(w, "Usage:\n")
	fpf(w, "  %s <command> [<args>]\n\n", app.Name)

	fpf(w, "Commands:\n")

	names := app.CommandNames()

	maxLen := 0
	for _, n := range names {
		if len(n) > maxLen {
			maxLen = len(n)
		}
	}

	for _, n := range names {
		cmd := app.Lookup(n)
		fpf(w, "  %-*s  %s\n", maxLen, n, cmd.Summary)
	}

	fpf(w, "\nRun '%s help <command>' for more information on a command.\n", app.Name)
}

// FormatCommandHelp writes per-command help text to app.Stderr.
func FormatCommandHelp(app *App, cmd *Command) {
	w := app.Stderr

	fpf(w, "%s — %s\n\n", cmd.Name, cmd.Summary)

	if cmd.Usage != "" {
		fpf(w, "Usage:\n")
		fpf(w, "  %s\n", cmd.Usage)
	}

	if len(cmd.Examples) > 0 {
		fpf(w, "\nExamples:\n")
		for _, ex := range cmd.Examples {
			fpf(w, "  %s\n", ex)
		}
	}
}
