// Package migration applies and scaffolds the SQL schema under migrations/
// with golang-migrate.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// DefaultTable records the applied version
const DefaultTable = "schema_migrations"

type Option func(*postgres.Config)

// WithTable stores the version in a table other than DefaultTable
func WithTable(name string) Option {
	return func(c *postgres.Config) { c.MigrationsTable = name }
}

// Migrator drives golang-migrate over an open PostgreSQL handle
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

func New(db *sql.DB, dir string, log *zap.Logger, opts ...Option) (*Migrator, error) {
	cfg := &postgres.Config{MigrationsTable: DefaultTable}
	for _, opt := range opts {
		opt(cfg)
	}
	driver, err := postgres.WithInstance(db, cfg)
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migration source %s: %w", dir, err)
	}
	m.Log = migrateLogger{log.Named("migrate").Sugar()}
	return &Migrator{m: m, log: log}, nil
}

func (mg *Migrator) Up() error   { return mg.apply("up", mg.m.Up) }
func (mg *Migrator) Down() error { return mg.apply("down", mg.m.Down) }

// Steps moves n migrations forward, or back when n is negative
func (mg *Migrator) Steps(n int) error {
	return mg.apply(fmt.Sprintf("step %+d", n), func() error { return mg.m.Steps(n) })
}

func (mg *Migrator) GoTo(version uint) error {
	return mg.apply(fmt.Sprintf("goto %d", version), func() error { return mg.m.Migrate(version) })
}

// apply treats "nothing to do" as success and logs the version reached
func (mg *Migrator) apply(op string, fn func() error) error {
	err := fn()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		mg.log.Info("Schema already current", zap.String("op", op))
		return nil
	case err != nil:
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.log.Info("Schema migrated", zap.String("op", op), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Version is 0 and clean when no migration has been applied
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version without running anything, to clear a dirty flag
// after a failed migration was repaired by hand
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// migrateLogger routes golang-migrate's own progress lines to zap at debug
type migrateLogger struct {
	s *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.s.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool { return l.s.Desugar().Core().Enabled(zap.DebugLevel) }
