package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/lifebuddy/lifebuddy-api/internal/adapters/maintenance"
	"github.com/lifebuddy/lifebuddy-api/internal/bootstrap"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	"github.com/lifebuddy/lifebuddy-api/internal/migrate"
)

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags("migrate", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := connectFullDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	cmdCtx.Logger.Info("running database migrations")
	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

func runMigrationStatus(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags("migrate-status", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := connectFullDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	migrations, err := migrate.Status(ctx, db)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return printMigrationStatus(cmdCtx.Stdout, migrations)
}

func printMigrationStatus(w io.Writer, migrations []migrate.Migration) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "VERSION\tSTATE\n"); err != nil {
		return err
	}
	pending := 0
	for _, m := range migrations {
		state := "applied"
		if !m.Applied {
			state = "pending"
			pending++
		}
		if err := writef(tw, "%s\t%s\n", m.Version, state); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "\n%d migrations, %d pending\n", len(migrations), pending)
}

type createUserOptions struct {
	Username      string
	Password      string
	PasswordStdin bool
	BcryptCost    int
}

func parseCreateUserFlags(args []string) (createUserOptions, error) {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts createUserOptions
	fs.StringVar(&opts.Username, "username", "", "Login name of the new account (required)")
	fs.StringVar(&opts.Password, "password", "", "Password of the new account; prefer --password-stdin")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from the first line of stdin")
	fs.IntVar(&opts.BcryptCost, "bcrypt-cost", 0, "bcrypt cost; 0 uses the library default")

	if err := fs.Parse(args); err != nil {
		return createUserOptions{}, err
	}
	opts.Username = strings.TrimSpace(opts.Username)
	if opts.Username == "" {
		return createUserOptions{}, errors.New("--username is required")
	}
	if opts.PasswordStdin == (opts.Password != "") {
		return createUserOptions{}, errors.New("exactly one of --password or --password-stdin is required")
	}
	return opts, nil
}

// readPassword returns the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("read password: empty input")
	}
	return line, nil
}

func runCreateUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateUserFlags(args)
	if err != nil {
		return err
	}
	if opts.PasswordStdin {
		if opts.Password, err = readPassword(cmdCtx.Stdin); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := connectFullDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	admin, err := maintenance.NewAdmin(maintenance.AdminOptions{
		Users:      maintenance.NewStore(db, nil),
		Logger:     cmdCtx.Logger,
		BcryptCost: opts.BcryptCost,
	})
	if err != nil {
		return err
	}
	user, err := admin.CreateUser(ctx, model.CreateUserRequest{Username: opts.Username, Password: opts.Password})
	if err != nil {
		return err
	}
	return writef(cmdCtx.Stdout, "created user %s (%s)\n", user.Username, user.ID)
}

type outputOptions struct {
	JSON bool
}

func parseOutputFlags(name string, args []string) (outputOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts outputOptions
	fs.BoolVar(&opts.JSON, "json", false, "Print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return outputOptions{}, err
	}
	return opts, nil
}

func runQueueStats(cmdCtx *commandContext, args []string) error {
	opts, err := parseOutputFlags("queue-stats", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	q, rdb, err := connectQueue(cmdCtx)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx, rdb)

	stats, err := q.Stats(ctx)
	if err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(cmdCtx.Stdout, stats)
	}
	return printQueueStats(cmdCtx.Stdout, cmdCtx.Config.Queue.Name, stats)
}

func printQueueStats(w io.Writer, queue string, stats model.QueueStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "QUEUE\tQUEUED\tPROCESSING\n"); err != nil {
		return err
	}
	if err := writef(tw, "%s\t%d\t%d\n", queue, stats.Queued, stats.Processing); err != nil {
		return err
	}
	return tw.Flush()
}

func runMaintenance(cmdCtx *commandContext, args []string) error {
	opts, err := parseOutputFlags("maintenance", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := connectFullDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	q, rdb, err := connectQueue(cmdCtx)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx, rdb)

	svc, err := maintenance.NewService(maintenance.ServiceOptions{
		Store:  maintenance.NewStore(db, nil),
		Queue:  q,
		Config: cmdCtx.Config.Maintenance,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	report, err := svc.RunOnce(ctx)
	if err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(cmdCtx.Stdout, report)
	}
	return printMaintenanceReport(cmdCtx.Stdout, report)
}

func printMaintenanceReport(w io.Writer, report model.MaintenanceReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value int64
	}{
		{"stale answers failed", report.FailedStale},
		{"failed answers purged", report.PurgedFailed},
		{"stuck jobs requeued", int64(report.RequeuedJobs)},
		{"duration (ms)", report.DurationMilli},
	}
	for _, row := range rows {
		if err := writef(tw, "%s\t%d\n", row.label, row.value); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
