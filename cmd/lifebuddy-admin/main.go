// Command lifebuddy-admin runs privileged one-off operations against the
// engine's stores with the full-access database principal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/lifebuddy/lifebuddy-api/config"
	"github.com/lifebuddy/lifebuddy-api/internal/bootstrap"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 2 * time.Minute
)

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AdminConfig
	Stdin  io.Reader
	Stdout io.Writer
}

type command struct {
	name    string
	summary string
	run     func(cmdCtx *commandContext, args []string) error
}

// commandTable is kept in alphabetical order; usage prints it as is.
var commandTable = []command{
	{"create-user", "Create a login account (password read from stdin with --password-stdin)", runCreateUser},
	{"maintenance", "Run one maintenance pass: fail stale answers, purge old failures, requeue stuck jobs", runMaintenance},
	{"migrate", "Run database migrations", runMigrations},
	{"migrate-status", "List embedded migrations and whether each is applied", runMigrationStatus},
	{"queue-stats", "Show the number of queued and in-flight jobs", runQueueStats},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commandTable {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)) //nolint:forbidigo // exit status is the CLI's contract with scripts
}

// run executes one command and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := bootstrap.InitLogger()

	if len(args) == 0 {
		_ = printUsage(stderr)
		return exitUsage
	}
	cmd, ok := lookupCommand(args[0])
	if !ok {
		_ = writef(stderr, "unknown command %q\n\n", args[0])
		_ = printUsage(stderr)
		return exitUsage
	}

	cfg, err := bootstrap.LoadAdminConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, Config: cfg, Stdin: stdin, Stdout: stdout}
	if err := cmd.run(cmdCtx, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitUsage
		}
		logger.ErrorContext(ctx, "command failed", "command", cmd.name, "error", err)
		return exitError
	}
	return exitOK
}

func printUsage(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "Usage: lifebuddy-admin <command> [flags]\n\nAvailable commands:\n"); err != nil {
		return err
	}
	for _, c := range commandTable {
		if err := writef(tw, "  %s\t%s\n", c.name, c.summary); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(name string, args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
