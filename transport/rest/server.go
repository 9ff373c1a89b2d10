package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

const shutdownTimeout = 5 * time.Second

// NewRouter - GET /ping and GET /match.
func NewRouter(logger *slog.Logger, store *MatchStore) *httprouter.Router {
	router := httprouter.New()
	router.GET("/ping", pingHandler)
	router.GET("/match", matchHandler(logger, store))

	return router
}

// Start - serves the status routes on port until ctx is done.
func Start(ctx context.Context, logger *slog.Logger, port string, store *MatchStore) error {
	srv := &http.Server{
		Addr:         net.JoinHostPort("", port),
		Handler:      NewRouter(logger, store),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down status server", "error", err)
		}
	})
	defer stop()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
