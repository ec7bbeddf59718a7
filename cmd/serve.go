package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dandibbert/pixvel/internal/repositories"
	"github.com/dandibbert/pixvel/internal/server"
	"github.com/dandibbert/pixvel/internal/services"
	"github.com/dandibbert/pixvel/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Serve wires the storage, upstream client plumbing, and HTTP surface
// together and runs the server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	sessions := repositories.NewSessionRepository(db)
	history := repositories.NewHistoryRepository(db)

	oauth := services.NewOAuthService(config.Upstream.TokenURL, r.httpClient)

	var limiter *rate.Limiter
	if config.Upstream.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.Upstream.RequestsPerSec), 1)
	}

	clients := &server.ClientFactory{
		Sessions:   sessions,
		OAuth:      oauth,
		BaseURL:    config.Upstream.BaseURL,
		HTTPClient: r.httpClient,
		Limiter:    limiter,
		Logger:     r.logger,
	}

	router := server.NewBasicRouter()
	router.Use(
		server.LoggingMiddleware(r.logger),
		server.CORSMiddleware(config.Server.AllowOrigin),
	)

	router.Handler(&server.HealthHandler{})
	router.Handler(server.NewAuthHandler(sessions, oauth, config.Production(), r.logger))
	router.Handler(server.NewNovelsHandler(sessions, clients, r.logger))
	router.Handler(server.NewBookmarksHandler(sessions, clients, r.logger))
	router.Handler(server.NewHistoryHandler(sessions, history, r.logger))
	router.Handler(server.NewStaticHandler(config.Server.StaticDir))

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", addr, "environment", config.Server.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
