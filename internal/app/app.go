// Package app wires the storage driver, the use case and the delivery layers
// together from a config.Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/adapter/ipresolver"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/credential"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/migrations"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
	"github.com/vadimbarashkov/shortlink/pkg/sqlite"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	sqliterepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/sqlite"
)

// App holds the open database and the use case built on top of it.
type App struct {
	cfg        *config.Config
	logger     *httplog.Logger
	db         *sqlx.DB
	URLUseCase *usecase.URLUseCase
}

// NewLogger returns the request logger used by the server. Development
// output is concise text, other environments log JSON.
func NewLogger(cfg *config.Config) *httplog.Logger {
	return httplog.NewLogger("url-shortener", httplog.Options{
		LogLevel: slog.LevelInfo,
		JSON:     cfg.Env != config.EnvDev,
		Concise:  cfg.Env == config.EnvDev,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}

// New opens the configured store, applies pending migrations and builds
// the use case. The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger *httplog.Logger) (*App, error) {
	const op = "app.New"

	guard := credential.NewGuard()
	resolver := ipresolver.New(cfg.IPLookup.URL, ipresolver.WithTimeout(cfg.IPLookup.Timeout))

	opts := []usecase.Option{
		usecase.WithBaseURL(cfg.BaseURL),
		usecase.WithShortCodeLength(cfg.ShortCodeLength),
		usecase.WithDefaultExpiry(cfg.DefaultExpiry),
		usecase.WithLogger(logger.Logger),
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := postgres.RunMigrations(migrations.FS, migrations.PostgresDir, cfg.Postgres.DSN()); err != nil {
			return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		db, err := postgres.New(
			ctx,
			cfg.Postgres.DSN(),
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		a.db = db
		a.URLUseCase = usecase.New(
			pgrepo.NewURLRepository(db),
			pgrepo.NewAccessLogRepository(db),
			guard,
			resolver,
			opts...,
		)
	case config.DriverSQLite:
		if err := sqlite.RunMigrations(migrations.FS, migrations.SQLiteDir, cfg.SQLite.Path); err != nil {
			return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		db, err := sqlite.New(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
		}

		a.db = db
		a.URLUseCase = usecase.New(
			sqliterepo.NewURLRepository(db),
			sqliterepo.NewAccessLogRepository(db),
			guard,
			resolver,
			opts...,
		)
	default:
		return nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Storage.Driver)
	}

	logger.Info("store opened", slog.String("driver", cfg.Storage.Driver))

	return a, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// Serve runs the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	const op = "app.App.Serve"

	server := &http.Server{
		Addr:           a.cfg.HTTPServer.Addr(),
		Handler:        delivery.NewRouter(a.logger, a.URLUseCase),
		ReadTimeout:    a.cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   a.cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    a.cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: a.cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server started", slog.String("addr", server.Addr))

		var err error

		switch a.cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(a.cfg.HTTPServer.CertFile, a.cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		a.logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// Run builds the application from cfg and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg)

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer a.Close()

	return a.Serve(ctx)
}
