package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pixelpeek/internal/logging"
	"pixelpeek/internal/memory"
	"pixelpeek/internal/startup"

	"golang.org/x/term"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// cli carries the process streams so commands can be driven from tests.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// interactive is true when stderr is a terminal; it selects the
	// progress bar over log lines.
	interactive bool
	// stdinPiped is true when stdin is not a terminal.
	stdinPiped bool
}

func main() {
	memory.ConfigureFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	c := &cli{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: term.IsTerminal(int(os.Stderr.Fd())), //nolint:gosec // G115 - fd fits in int
		stdinPiped:  !term.IsTerminal(int(os.Stdin.Fd())), //nolint:gosec // G115 - fd fits in int
	}
	code := c.run(ctx, os.Args[1:])

	stop()
	os.Exit(code)
}

func (c *cli) run(ctx context.Context, args []string) int {
	logging.SetOutput(c.stderr)

	if len(args) < 1 {
		c.printUsage()
		return exitUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "run":
		return c.runCommand(ctx, rest)
	case "serve":
		return c.serveCommand(ctx, rest)
	case "history":
		return c.historyCommand(ctx, rest)
	case "version":
		info := startup.GetBuildInfo()
		fmt.Fprintf(c.stdout, "pixelpeek %s (commit %s, built %s, %s %s/%s)\n",
			info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
		return exitOK
	case "help", "-h", "-help", "--help":
		c.printUsage()
		return exitOK
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n", sanitizeCommand(command)) //nolint:gosec // G705 - sanitized via allowlist
		c.printUsage()
		return exitUsage
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen, or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (c *cli) printUsage() {
	w := c.stderr
	fmt.Fprintln(w, "PixelPeek - batch image metadata extraction")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: pixelpeek <command> [flags] [urls...]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run      - Fetch images and write their metadata to CSV")
	fmt.Fprintln(w, "  serve    - Start the HTTP API")
	fmt.Fprintln(w, "  history  - List batches recorded in the history database")
	fmt.Fprintln(w, "  version  - Print build information")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'pixelpeek <command> -h' for command flags.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PIXELPEEK_CONFIG, PIXELPEEK_MAX_CONCURRENT, PIXELPEEK_OUTPUT,")
	fmt.Fprintln(w, "  PIXELPEEK_REQUEST_TIMEOUT, PIXELPEEK_BATCH_TIMEOUT, PIXELPEEK_TLS_INSECURE,")
	fmt.Fprintln(w, "  PIXELPEEK_DATABASE, PORT, METRICS_ENABLED, LOG_LEVEL, DEBUG")
}

// options holds the command-line flags shared by the subcommands.
type options struct {
	configPath  string
	verbose     bool
	database    string
	concurrency int
	timeout     time.Duration
	deadline    time.Duration
	insecure    bool
	output      string
	input       string
	port        string
	limit       int
}

// newFlagSet registers the flags used by the named command.
func (c *cli) newFlagSet(name string, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	fs.StringVar(&o.configPath, "config", "", "path to YAML config file (env PIXELPEEK_CONFIG)")
	fs.BoolVar(&o.verbose, "v", false, "enable debug logging")
	fs.StringVar(&o.database, "db", "", "history database path; empty disables history")

	switch name {
	case "run", "serve":
		fs.IntVar(&o.concurrency, "concurrency", 0, "max concurrent fetches (0 = auto from CPUs)")
		fs.DurationVar(&o.timeout, "timeout", 0, "per-request timeout")
		fs.DurationVar(&o.deadline, "deadline", 0, "whole-batch deadline (0 = none)")
		fs.BoolVar(&o.insecure, "insecure", true, "skip TLS certificate verification")
	}

	switch name {
	case "run":
		fs.StringVar(&o.output, "o", "", "output CSV path")
		fs.StringVar(&o.input, "i", "", "file of URLs, one per line ('-' for stdin)")
	case "serve":
		fs.StringVar(&o.port, "port", "", "HTTP listen port")
	case "history":
		fs.IntVar(&o.limit, "limit", 20, "number of batches to list")
	}

	return fs
}

// parseConfig parses args and builds the effective configuration. Only
// flags given explicitly override the file and environment values.
func (c *cli) parseConfig(name string, args []string) (*startup.Config, *options, *flag.FlagSet, error) {
	o := &options{}
	fs := c.newFlagSet(name, o)
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}

	if o.verbose {
		logging.SetLevel(logging.LevelDebug)
	}

	cfg, err := startup.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DatabasePath = o.database
		case "concurrency":
			cfg.MaxConcurrent = o.concurrency
		case "timeout":
			cfg.RequestTimeout = o.timeout
		case "deadline":
			cfg.BatchTimeout = o.deadline
		case "insecure":
			cfg.TLSInsecure = o.insecure
		case "o":
			cfg.OutputPath = o.output
		case "port":
			cfg.Port = o.port
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, o, fs, nil
}

// usageExit maps a parse or config error to an exit code.
func (c *cli) usageExit(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	fmt.Fprintf(c.stderr, "Error: %v\n", err)
	return exitUsage
}
