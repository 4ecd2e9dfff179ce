package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/edge-lines/internal/monitoring"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Configure logging to stderr (stdout is for MCP protocol and results)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run dispatches a subcommand. It is main without the process exit.
func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return errors.New("no command given")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "edge-lines %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return nil
	case "--help", "-h", "help":
		printUsage(stdout)
		return nil
	case "serve":
		return handleServe(rest)
	case "run":
		return handleRun(rest, stdout)
	case "sweep":
		return handleSweep(rest, stdout)
	case "history":
		return handleHistory(rest, stdout)
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `edge-lines - edge and straight line detection

Usage: edge-lines <command> [options]

Commands:
  run       Detect edges and lines in one image and write the results
  sweep     Compare detectors across noise levels
  history   List recorded runs
  serve     Run the MCP server over stdin/stdout
  version   Print version information
  help      Print this help message

Run "edge-lines <command> -h" for the options of a command.

Environment variables:
  %s=debug    Enable debug logging

Examples:
  edge-lines run -config tuning.json -out results/ hallway.png
  edge-lines sweep -stddevs 0,5,10,20,40 -chart sweep.png hallway.png
  edge-lines history -db edge-lines.db -limit 10
`, monitoring.LogLevelEnv)
}

// newFlagSet returns a flag set that reports errors instead of exiting and
// registers the shared -debug flag.
func newFlagSet(name, usage string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: edge-lines %s %s\n\nOptions:\n", name, usage)
		fs.PrintDefaults()
	}
	debug := fs.Bool("debug", false, "Enable debug logging")
	return fs, debug
}

func applyDebug(debug bool) {
	if debug {
		monitoring.SetDebug(true)
	}
	monitoring.Debugf("edge-lines %s (built %s, commit %s)", Version, BuildTime, GitCommit)
}
