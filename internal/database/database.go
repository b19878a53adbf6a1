// Package database provides database connection and migration functionality.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"net/url"
	"strings"
	"sync"

	"feedbackboard/internal/config"
	"feedbackboard/internal/observability"
	contextutils "feedbackboard/internal/utils"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"

	"go.nhat.io/otelsql"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Manager handles database operations with proper logging
type Manager struct {
	logger *observability.Logger
}

var (
	otelDriverNameCache string
	otelDriverOnce      sync.Once
	otelDriverErr       error
)

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Manager{logger: logger}
}

// InitDB opens the database described by cfg and applies pending migrations
func (dm *Manager) InitDB(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "InitDB",
		attribute.String("db.name", extractDatabaseName(cfg.URL)),
		attribute.String("db.system", "postgresql"),
		attribute.Int("db.max_open_conns", cfg.MaxOpenConns),
		attribute.Int("db.max_idle_conns", cfg.MaxIdleConns),
		attribute.String("db.conn_max_lifetime", cfg.ConnMaxLifetime.String()),
	)
	defer observability.FinishSpan(span, &err)

	db, err := dm.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := dm.RunMigrations(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database after migration failure", closeErr)
		}
		return nil, err
	}
	return db, nil
}

// Open connects through the otelsql-instrumented postgres driver without migrating
func (dm *Manager) Open(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "Open")
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(cfg.URL) == "" {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseConnection, "database url is not configured")
	}

	// Register OpenTelemetry SQL driver once per process and reuse the name
	otelDriverOnce.Do(func() {
		otelDriverNameCache, otelDriverErr = otelsql.Register("postgres",
			otelsql.WithDatabaseName(extractDatabaseName(cfg.URL)),
			otelsql.TraceQueryWithArgs(),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
			otelsql.TraceRowsAffected(),
		)
	})
	if otelDriverErr != nil {
		return nil, contextutils.WrapError(otelDriverErr, "failed to register otelsql driver")
	}

	db, err := sql.Open(otelDriverNameCache, cfg.URL)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open database connection")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after ping failure", closeErr)
		}
		return nil, contextutils.WrapError(contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeDatabaseConnection, contextutils.SeverityError,
			"Database connection failed", "", err), "failed to ping database")
	}

	dm.logger.Info(ctx, "Database connection established", map[string]interface{}{
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})
	return db, nil
}

// RunMigrations applies the embedded migrations that have not run yet
func (dm *Manager) RunMigrations(ctx context.Context, db *sql.DB) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "RunMigrations",
		attribute.String("db.system", "postgresql"),
		attribute.String("migration.type", "golang_migrate"),
	)
	defer observability.FinishSpan(span, &err)

	files, err := migrationFiles()
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("migration.files.count", len(files)))

	sourceDriver, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return contextutils.WrapError(err, "failed to create migration source")
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return contextutils.WrapError(err, "failed to create migration db driver")
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize golang-migrate")
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		dm.logger.Info(ctx, "No new migrations to apply")
		return nil
	}
	if err != nil {
		return contextutils.WrapError(err, "golang-migrate up failed")
	}

	version, _, _ := m.Version()
	dm.logger.Info(ctx, "Database migrations applied", map[string]interface{}{"version": version})
	return nil
}

// migrationFiles lists the embedded up migrations in order
func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir(migrationsDir)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to read embedded migrations")
	}
	var ups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".up.sql") {
			ups = append(ups, entry.Name())
		}
	}
	return ups, nil
}

// extractDatabaseName extracts the database name from a PostgreSQL connection string
func extractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && u.Path != "" {
		if dbName := strings.TrimPrefix(u.Path, "/"); dbName != "" {
			return dbName
		}
	}

	// key=value DSN form: host=... dbname=feedback sslmode=disable
	for _, field := range strings.Fields(databaseURL) {
		if name, ok := strings.CutPrefix(field, "dbname="); ok && name != "" {
			return name
		}
	}

	return "feedback_db"
}
