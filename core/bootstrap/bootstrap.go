package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/afkbot/core/config"
	coredatabase "github.com/m3rciful/afkbot/core/database"
	"github.com/m3rciful/afkbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// NeedDatabase enables the connect and migrate steps. Bots that keep
	// their state outside PostgreSQL leave it false.
	NeedDatabase bool

	// Migrations is the embedded schema; database.migrations_dir overrides it.
	Migrations fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil when the database was not requested.
type Result struct {
	DB *sqlx.DB
}

// Close releases infrastructure opened by Run.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, when requested, applies migrations and
// connects to the database.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if !opts.NeedDatabase {
		return &Result{}, nil
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = func(ctx context.Context, cfg coredatabase.Config) error {
			return coredatabase.RunMigrations(ctx, cfg, opts.Migrations)
		}
	}
	if err := migrate(ctx, opts.Database); err != nil {
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	return &Result{DB: db}, nil
}
