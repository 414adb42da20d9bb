package migration

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/afero"
)

const migrationUpTemplate = `-- Migration: {{.Name}}
-- Created: {{.Timestamp}}
-- Description: {{.Description}}

-- Write your UP migration SQL here ({{.Dialect}})

`

const migrationDownTemplate = `-- Migration: {{.Name}} (Rollback)
-- Created: {{.Timestamp}}
-- Description: Rollback for {{.Description}}

-- Write your DOWN migration SQL here ({{.Dialect}})

`

// Dialects lists the dialect directories every migration is created in
var Dialects = []string{DialectPostgres, DialectSQLite}

// MigrationFile represents one migration pair per dialect
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	// Paths maps dialect to its up and down file
	Paths map[string]PairPaths
}

// PairPaths is the up/down file pair of one dialect
type PairPaths struct {
	Up   string
	Down string
}

type templateData struct {
	*MigrationFile
	Dialect string
}

// CreateMigration creates the next numbered migration pair in every dialect directory under root
func CreateMigration(fsys afero.Fs, root, name, description string) (*MigrationFile, error) {
	base := sanitizeName(name)
	if base == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	next, err := nextVersion(fsys, root)
	if err != nil {
		return nil, err
	}

	mf := &MigrationFile{
		Version:     fmt.Sprintf("%06d", next),
		Name:        name,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
		Paths:       make(map[string]PairPaths, len(Dialects)),
	}

	var created []string
	rollback := func() {
		for _, p := range created {
			_ = fsys.Remove(p)
		}
	}

	for _, dialect := range Dialects {
		dir := filepath.Join(root, dialect)
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			rollback()
			return nil, fmt.Errorf("failed to create migrations directory: %w", err)
		}

		stem := filepath.Join(dir, mf.Version+"_"+base)
		pair := PairPaths{Up: stem + ".up.sql", Down: stem + ".down.sql"}
		data := templateData{MigrationFile: mf, Dialect: dialect}

		if err := createMigrationFile(fsys, pair.Up, migrationUpTemplate, data); err != nil {
			rollback()
			return nil, fmt.Errorf("failed to create up migration: %w", err)
		}
		created = append(created, pair.Up)

		if err := createMigrationFile(fsys, pair.Down, migrationDownTemplate, data); err != nil {
			rollback()
			return nil, fmt.Errorf("failed to create down migration: %w", err)
		}
		created = append(created, pair.Down)

		mf.Paths[dialect] = pair
	}

	return mf, nil
}

// nextVersion returns one past the highest version found in any dialect directory
func nextVersion(fsys afero.Fs, root string) (int, error) {
	highest := 0
	for _, dialect := range Dialects {
		names, err := ListMigrations(fsys, filepath.Join(root, dialect))
		if err != nil {
			return 0, err
		}
		for _, n := range names {
			prefix, _, _ := strings.Cut(n, "_")
			v, err := strconv.Atoi(prefix)
			if err != nil {
				continue
			}
			if v > highest {
				highest = v
			}
		}
	}
	return highest + 1, nil
}

func createMigrationFile(fsys afero.Fs, path, tmplContent string, data templateData) error {
	tmpl, err := template.New("migration").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("migration file %s already exists", path)
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

// sanitizeName converts a migration name to a safe file name format
func sanitizeName(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			result = append(result, c)
		case c >= 'A' && c <= 'Z':
			result = append(result, c+'a'-'A')
		case c >= '0' && c <= '9':
			result = append(result, c)
		case c == ' ' || c == '-' || c == '_':
			if len(result) > 0 && result[len(result)-1] != '_' {
				result = append(result, '_')
			}
		}
	}
	if len(result) > 0 && result[len(result)-1] == '_' {
		result = result[:len(result)-1]
	}
	return string(result)
}

// ListMigrations returns the sorted base names of the up migrations in dir.
// A missing directory yields an empty list.
func ListMigrations(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		exists, existsErr := afero.DirExists(fsys, dir)
		if existsErr == nil && !exists {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			migrations = append(migrations, base)
		}
	}
	sort.Strings(migrations)

	return migrations, nil
}
