// Command migrate manages the TradeOps database schema.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tradeops/backend/internal/infrastructure/config"
	"github.com/tradeops/backend/internal/infrastructure/logger"
	"github.com/tradeops/backend/internal/infrastructure/migration"
)

const defaultMigrationsDir = "migrations"

var errUsage = errors.New("usage")

// schemaMigrator is the part of *migration.Migrator the commands drive
type schemaMigrator interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
}

type command struct {
	usage string
	// offline commands only touch the migrations directory
	offline bool
	minArgs int
	run     func(env *commandEnv, args []string) error
}

type commandEnv struct {
	dir      string
	log      *zap.Logger
	stdout   io.Writer
	migrator schemaMigrator
}

var commands = map[string]command{
	"up": {usage: "up", run: func(env *commandEnv, _ []string) error {
		return env.migrator.Up()
	}},
	"down": {usage: "down", run: func(env *commandEnv, _ []string) error {
		return env.migrator.Down()
	}},
	"step": {usage: "step <n>", minArgs: 1, run: func(env *commandEnv, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("%w: step count must be a non-zero integer, got %q", errUsage, args[0])
		}
		return env.migrator.Steps(n)
	}},
	"goto": {usage: "goto <version>", minArgs: 1, run: func(env *commandEnv, args []string) error {
		v, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid version %q", errUsage, args[0])
		}
		return env.migrator.GoTo(uint(v))
	}},
	"version": {usage: "version", run: func(env *commandEnv, _ []string) error {
		v, dirty, err := env.migrator.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			fmt.Fprintln(env.stdout, "no migrations applied")
			return nil
		}
		state := "clean"
		if dirty {
			state = "dirty"
		}
		fmt.Fprintf(env.stdout, "%d (%s)\n", v, state)
		return nil
	}},
	"force": {usage: "force <version>", minArgs: 1, run: func(env *commandEnv, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid version %q", errUsage, args[0])
		}
		env.log.Warn("Forcing schema version", zap.Int("version", v))
		return env.migrator.Force(v)
	}},
	"create": {usage: "create <name> [description]", offline: true, minArgs: 1, run: func(env *commandEnv, args []string) error {
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		mf, err := migration.CreateMigration(env.dir, args[0], description)
		if err != nil {
			return err
		}
		fmt.Fprintln(env.stdout, mf.UpPath)
		fmt.Fprintln(env.stdout, mf.DownPath)
		return nil
	}},
	"list": {usage: "list", offline: true, run: func(env *commandEnv, _ []string) error {
		names, err := migration.ListMigrations(env.dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(env.stdout, name)
		}
		return nil
	}},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("path", "", "migrations directory (default: ./migrations)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	timeout := fs.Duration("timeout", 30*time.Second, "database connect timeout")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return 1
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		printUsage(stderr)
		return 1
	}
	if len(rest) < cmd.minArgs {
		fmt.Fprintf(stderr, "usage: migrate %s\n", cmd.usage)
		return 1
	}

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	migrationsDir, err := resolveMigrationsDir(*dir)
	if err != nil {
		log.Error("Failed to resolve migrations directory", zap.Error(err))
		return 1
	}
	log = log.With(zap.String("command", name), zap.String("migrations_path", migrationsDir))
	env := &commandEnv{dir: migrationsDir, log: log, stdout: stdout}

	if !cmd.offline {
		closeFn, err := openMigrator(env, *timeout)
		if err != nil {
			log.Error("Failed to prepare migrator", zap.Error(err))
			return 1
		}
		defer closeFn()
	}

	if err := cmd.run(env, rest); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
			return 1
		}
		log.Error("Migration command failed", zap.Error(err))
		return 1
	}
	log.Debug("Migration command finished")
	return 0
}

func openMigrator(env *commandEnv, timeout time.Duration) (func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, env.dir, env.log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	env.migrator = m
	return func() {
		if err := m.Close(); err != nil {
			env.log.Warn("Failed to close migrator", zap.Error(err))
		}
		_ = db.Close()
	}, nil
}

// resolveMigrationsDir returns an absolute migrations directory. Without an
// explicit path it tries ./migrations, then the repository layout relative to
// the binary (bin/<os>/migrate -> migrations).
func resolveMigrationsDir(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	candidates := []string{defaultMigrationsDir}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsDir))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return filepath.Abs(c)
		}
	}
	return filepath.Abs(defaultMigrationsDir)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `TradeOps schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                          apply all pending migrations
  down                        roll back every migration
  step <n>                    apply n migrations, negative n rolls back
  goto <version>              migrate to a specific version
  version                     print the current version
  force <version>             set the version without running migrations
  create <name> [description] write a new up/down migration pair
  list                        list migration files

Flags:
  -path string        migrations directory (default: ./migrations)
  -log-level string   debug, info, warn or error (default: info)
  -timeout duration   database connect timeout (default: 30s)

The database connection is read from TRADEOPS_DATABASE_HOST, _PORT, _USER,
_PASSWORD, _DBNAME and _SSLMODE or from config.yaml.

Example:
  migrate create add_payment_reference_index "Index goods_payments by reference"
`)
}
