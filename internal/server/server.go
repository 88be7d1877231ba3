// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the wiring layer — the composition root where every dependency is
// assembled and injected:
//
//	sqlite.DB → CreditService ┐
//	gemini.Client ────────────┴→ GenerationService → handlers → routes
//
// Each layer only receives what it needs: services get interfaces, handlers
// get services, and nothing below this package knows the concrete types it
// runs on. That's also what makes the whole stack testable with doubles for
// both the ledger store and the generation client.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/adnan/pagesmith/internal/handler"
	"github.com/adnan/pagesmith/internal/middleware"
	sqliteRepo "github.com/adnan/pagesmith/internal/repository/sqlite"
	"github.com/adnan/pagesmith/internal/service"
	"github.com/adnan/pagesmith/internal/upstream"
	"github.com/adnan/pagesmith/internal/upstream/gemini"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port           int
	DBPath         string
	DefaultCredits int // starting balance for new accounts; 0 means the model default

	Gemini gemini.Config

	RefundOnFailure bool                // refund the debit when generation fails
	MergePolicy     service.MergePolicy // "append" (default) or "replace"
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server, opening the ledger database and wiring the full
// dependency chain.
//
// The generator parameter exists for tests; pass nil and the Gemini client is
// built from config.
func New(cfg Config, logger *slog.Logger, generator upstream.Generator) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	if generator == nil {
		generator, err = gemini.New(cfg.Gemini)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(generator)

	return s, nil
}

func (s *Server) setupRoutes(generator upstream.Generator) {
	// Global middleware, in order: request IDs for tracing, real client IPs
	// behind proxies, panic recovery, then our structured request log.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	credits := service.NewCreditService(s.db, s.logger, s.config.DefaultCredits)
	generation := service.NewGenerationService(credits, generator, s.logger, service.GenerationConfig{
		RefundOnFailure: s.config.RefundOnFailure,
		MergePolicy:     s.config.MergePolicy,
	})

	generateHandler := handler.NewGenerateHandler(generation, credits, s.logger)
	creditsHandler := handler.NewCreditsHandler(credits, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/generate", generateHandler.HandleGenerate)
		r.Get("/credits", creditsHandler.HandleGetCredits)
		r.Post("/credits/use", creditsHandler.HandleUseCredit)
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// close the ledger database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// The generation call can legitimately take most of a minute, so the
		// write timeout must outlast the upstream timeout.
		WriteTimeout: s.config.Gemini.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("model", s.config.Gemini.Model),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
