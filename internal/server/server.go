package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/renang/report-export/internal/exporter"
	reportmiddleware "github.com/renang/report-export/internal/server/middleware"
)

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

// Dependencies are the services behind the report endpoints. Members and
// Financial are optional; without them the GET report routes are not
// registered.
type Dependencies struct {
	Exporter  *exporter.Exporter
	Members   exporter.MemberSource
	Financial exporter.FinancialSource
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	MaxRowErrors    int
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(logger, config)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

// ConfigureRouter builds the HTTP routes.
func ConfigureRouter(logger zerolog.Logger, config Config) *chi.Mux {
	h := newHandler(config)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(reportmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", h.Health)

	router.Route("/api/v1/reports", func(r chi.Router) {
		r.Post("/members", h.PostMembers)
		r.Post("/finance", h.PostFinance)

		if config.Dependencies.Members != nil {
			r.Get("/members", h.GetMembers)
		}
		if config.Dependencies.Financial != nil {
			r.Get("/finance", h.GetFinance)
		}
	})

	return router
}

// Handler returns the root HTTP handler.
func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until the process receives SIGINT/SIGTERM or ctx is done,
// then shuts down gracefully.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")
	case <-ctx.Done():
		w.logger.Info().Msg("context cancelled, shutting down")
	}

	// Give outstanding requests a deadline for completion.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()

	err := w.server.Shutdown(shutdownCtx)
	if err != nil {
		w.logger.Error().Err(err).Msg("graceful shutdown failed")
		err = w.server.Close()
	}

	return err
}
