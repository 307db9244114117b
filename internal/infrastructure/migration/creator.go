package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"
	"unicode"
)

const versionLayout = "20060102150405"

var header = template.Must(template.New("header").Parse(`-- Migration: {{.Name}}{{if .Down}} (rollback){{end}}
-- Created: {{.Timestamp}}
{{- with .Description}}
-- Description: {{.}}
{{- end}}

`))

// MigrationFile is a generated up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes empty <version>_<slug>.up.sql and .down.sql files.
// Existing files are never overwritten.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	now := time.Now().UTC()
	version := now.Format(versionLayout)
	stem := filepath.Join(migrationsDir, version+"_"+slug)
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
		UpPath:      stem + ".up.sql",
		DownPath:    stem + ".down.sql",
	}

	var written []string
	for _, down := range []bool{false, true} {
		path := mf.UpPath
		if down {
			path = mf.DownPath
		}
		if err := writeHeader(path, mf, down); err != nil {
			for _, p := range written {
				_ = os.Remove(p)
			}
			return nil, err
		}
		written = append(written, path)
	}
	return mf, nil
}

func writeHeader(path string, mf *MigrationFile, down bool) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	return header.Execute(f, struct {
		*MigrationFile
		Down bool
	}{mf, down})
}

// sanitizeName keeps lowercase ASCII letters and digits. Runs of spaces,
// dashes and underscores become one underscore; everything else is dropped.
func sanitizeName(name string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ' || r == '-' || r == '_':
			gap = b.Len() > 0
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if gap {
				b.WriteByte('_')
				gap = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ListMigrations returns the sorted stems of the up migrations in
// migrationsDir. A missing directory has none.
func ListMigrations(migrationsDir string) ([]string, error) {
	ups, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	stems := make([]string, 0, len(ups))
	for _, p := range ups {
		stems = append(stems, strings.TrimSuffix(filepath.Base(p), ".up.sql"))
	}
	slices.Sort(stems)
	return stems, nil
}
