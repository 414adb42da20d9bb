package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/siocms/backend/internal/infrastructure/config"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/infrastructure/migration"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const defaultSourcePath = "internal/infrastructure/migration/sql"

// sqlDrivers maps config.Database.Driver to the database/sql driver name
var sqlDrivers = map[string]string{
	migration.DialectPostgres: "postgres",
	migration.DialectSQLite:   "sqlite3",
}

func main() {
	var (
		sourcePath string
		logLevel   string
	)

	flag.StringVar(&sourcePath, "path", defaultSourcePath, "Migration source tree used by create (one directory per dialect)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// create writes new files into the source tree; they are embedded on the next build
	if command == "create" {
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}

		mf, err := migration.CreateMigration(afero.NewOsFs(), sourcePath, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}

		for dialect, pair := range mf.Paths {
			log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("dialect", dialect),
				zap.String("up_file", pair.Up),
				zap.String("down_file", pair.Down),
			)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	dialect := cfg.Database.Driver

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("dialect", dialect),
	)

	if command == "list" {
		source, err := migration.Source(dialect)
		if err != nil {
			log.Fatal("Failed to open embedded migrations", zap.Error(err))
		}
		migrations, err := migration.ListMigrations(afero.FromIOFS{FS: source}, ".")
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}

		log.Info("Embedded migrations", zap.Int("count", len(migrations)))
		for _, m := range migrations {
			fmt.Println("  -", m)
		}
		return
	}

	db, err := openDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// The migrator owns db from here and closes it
	m, err := migration.New(db, dialect, log)
	if err != nil {
		_ = db.Close()
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Error("Failed to close migrator", zap.Error(err))
		}
	}()

	if err := run(m, command, args[1:], log); err != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		_ = m.Close()
		os.Exit(1)
	}
}

func openDatabase(cfg *config.DatabaseConfig) (*sql.DB, error) {
	driverName, ok := sqlDrivers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dsn := cfg.Path
	if cfg.Driver == migration.DialectPostgres {
		dsn = cfg.DSN()
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func run(m *migration.Migrator, command string, args []string, log *zap.Logger) error {
	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		if len(args) < 1 {
			return fmt.Errorf("step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)

	case "goto":
		if len(args) < 1 {
			return fmt.Errorf("version required. Usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version number %q", args[0])
		}
		return m.GoTo(uint(version))

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)
		return nil

	case "force":
		if len(args) < 1 {
			return fmt.Errorf("version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version number %q", args[0])
		}
		log.Warn("Forcing migration version - use with caution!")
		return m.Force(version)

	case "drop":
		confirm := false
		for _, arg := range args {
			if arg == "-confirm" || arg == "--confirm" {
				confirm = true
				break
			}
		}
		if !confirm {
			return fmt.Errorf("drop cancelled. Use 'migrate drop -confirm' to confirm")
		}
		return m.Drop()

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Println(`SIO CMS Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  drop -confirm         Drop all database objects (DANGEROUS)
  create <name> [desc]  Create the next migration pair for every dialect
  list                  List the embedded migrations of the configured dialect

Flags:
  -path string          Migration source tree (default: internal/infrastructure/migration/sql)
  -log-level string     Log level: debug, info, warn, error (default: info)

The database comes from config.toml; override with CMS_DATABASE_DRIVER,
CMS_DATABASE_HOST, CMS_DATABASE_PASSWORD, CMS_DATABASE_PATH and friends.

Examples:
  migrate up
  migrate step -1
  migrate create add_page_tags "Tags on pages"
  migrate version`)
}
