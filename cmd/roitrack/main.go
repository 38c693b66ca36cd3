// cmd/roitrack/main.go
//
// This is the entry point for the roitrack CLI.
// Running `roitrack` with no subcommand opens the TUI for the current
// directory; the other subcommands work on the same task collection without
// a terminal UI.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/roitrack/internal/session"
	"github.com/kingrea/roitrack/internal/tui"
)

const usage = `usage: roitrack [-project DIR] [command]

commands:
  tui                       open the interactive tracker (default)
  list [-search S] [-status S] [-priority P]
                            print tasks in ROI order
  summary                   print revenue, efficiency, average ROI and grade
  export [-o PATH]          write tasks as CSV (- for stdout)
  import FILE...            append tasks from CSV files
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("roitrack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	project, err := resolveProject(*projectDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error resolving project directory: %v\n", err)
		return 1
	}

	command := "tui"
	rest := fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}
	handler, ok := commands[command]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}

	sess, err := session.Open(ctx, project)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening %s: %v\n", project, err)
		return 1
	}
	defer sess.Close()

	if err := handler(ctx, sess, rest, stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func resolveProject(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}
	return filepath.Abs(dir)
}

func runTUI(ctx context.Context, sess *session.Session, _ []string, _ io.Writer) error {
	p := tea.NewProgram(
		tui.NewApp(sess, tui.WithContext(ctx)),
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
		tea.WithContext(ctx),
	)
	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
