package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const version = "0.1.0-dev"

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// errUsage marks command-line mistakes; they exit with exitUsage.
var errUsage = errors.New("usage")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// app carries the process environment so commands can run in tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// workDir anchors .twtheme/config.yaml and relative paths. Empty means
	// the process working directory.
	workDir string
}

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(a.run(os.Args[1:]))
}

type command struct {
	name    string
	summary string
	run     func(a *app, args []string) error
}

func commands() []command {
	return []command{
		{"validate", "Load the theme declaration and report every problem", (*app).cmdValidate},
		{"resolve", "Print the color a token resolves to", (*app).cmdResolve},
		{"match", "Report whether paths are selected by the content globs", (*app).cmdMatch},
		{"files", "List project files selected by the content globs", (*app).cmdFiles},
		{"colors", "Render the palette as color swatches", (*app).cmdColors},
		{"serve", "Start the MCP server on stdio", (*app).cmdServe},
		{"watch", "Reload the declaration on change and report each outcome", (*app).cmdWatch},
		{"init", "Write the default theme declaration and project config", (*app).cmdInit},
		{"setup", "Register the MCP server with detected AI agents", (*app).cmdSetup},
		{"version", "Print version", func(a *app, _ []string) error {
			fmt.Fprintf(a.stdout, "twtheme %s\n", version)
			return nil
		}},
		{"help", "Show this help message", func(a *app, _ []string) error {
			a.printUsage(a.stdout)
			return nil
		}},
	}
}

func (a *app) run(args []string) int {
	if len(args) < 1 {
		a.printUsage(a.stderr)
		return exitUsage
	}

	name := args[0]
	if name == "--version" {
		name = "version"
	}
	if name == "-h" || name == "--help" {
		name = "help"
	}

	for _, cmd := range commands() {
		if cmd.name != name {
			continue
		}
		err := cmd.run(a, args[1:])
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, pflag.ErrHelp):
			return exitOK
		case errors.Is(err, errUsage):
			fmt.Fprintf(a.stderr, "twtheme %s: %v\n", name, err)
			return exitUsage
		case errors.Is(err, errSilent):
			return exitFail
		default:
			fmt.Fprintf(a.stderr, "twtheme %s: %v\n", name, err)
			return exitFail
		}
	}

	fmt.Fprintf(a.stderr, "unknown command: %s\n", name)
	a.printUsage(a.stderr)
	return exitUsage
}

// errSilent exits non-zero after the command already explained itself.
var errSilent = errors.New("failed")

func (a *app) printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: twtheme <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands() {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'twtheme <command> --help' for command flags.")
}

// newFlagSet creates a flag set whose errors and help go to stderr.
func (a *app) newFlagSet(name, usage string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(a.stderr)
	flagSet.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: twtheme %s\n\nFlags:\n", usage)
		flagSet.PrintDefaults()
	}
	return flagSet
}

// parseFlags parses args, mapping flag errors to usage errors.
func parseFlags(flagSet *pflag.FlagSet, args []string) error {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageErrorf("%v", err)
	}
	return nil
}
