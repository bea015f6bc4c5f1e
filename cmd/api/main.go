package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"todo-tracker/internal/clock"
	"todo-tracker/internal/config"
	"todo-tracker/internal/database"
	"todo-tracker/internal/logging"
	"todo-tracker/internal/repositories"
	"todo-tracker/internal/routes"
	"todo-tracker/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel, os.Stdout)
	if err != nil {
		return fmt.Errorf("could not create logger: %w", err)
	}
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := routes.Dependencies{Logger: logger, CORSOrigins: cfg.CORSOrigins}
	repo, db, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		deps.DB = db
	}
	deps.TodoService = services.NewTodoService(repo, clock.System{}, logger)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: routes.SetupRouter(deps),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.StorageDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not shut down server: %w", err)
	}
	return nil
}

// openStorage は設定に応じてリポジトリを作成します。mysqlの場合はスキーマも作成します。
func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repositories.TodoRepository, *sql.DB, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return repositories.NewMemoryTodoRepository(), nil, nil
	default:
		db, err := database.InitDB(ctx, cfg.DB, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("could not initialize database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("could not migrate database: %w", err)
		}
		return repositories.NewMySQLTodoRepository(db, logger), db, nil
	}
}
