// Package main is the entry point for the pagesmith server.
//
// main stays minimal: read configuration from the environment, build the
// logger, hand everything to internal/server. All actual logic lives in the
// imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adnan/pagesmith/internal/server"
	"github.com/adnan/pagesmith/internal/service"
	"github.com/adnan/pagesmith/internal/upstream/gemini"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/ledger.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// The API key is the one piece of config with no usable default.
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Error("GEMINI_API_KEY is not set")
		os.Exit(1)
	}

	geminiCfg := gemini.DefaultConfig(apiKey)
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		geminiCfg.Model = model
	}
	if baseURL := os.Getenv("GEMINI_BASE_URL"); baseURL != "" {
		geminiCfg.BaseURL = baseURL
	}

	defaultCredits := 0 // 0 lets the service fall back to its own default
	if env := os.Getenv("DEFAULT_CREDITS"); env != "" {
		n, err := strconv.Atoi(env)
		if err != nil || n < 1 {
			logger.Error("invalid DEFAULT_CREDITS value", slog.String("value", env))
			os.Exit(1)
		}
		defaultCredits = n
	}

	cfg := server.Config{
		Port:            port,
		DBPath:          dbPath,
		DefaultCredits:  defaultCredits,
		Gemini:          geminiCfg,
		RefundOnFailure: os.Getenv("REFUND_ON_FAILURE") == "true",
	}
	if os.Getenv("MERGE_POLICY") == "replace" {
		cfg.MergePolicy = service.MergeReplace
	}

	srv, err := server.New(cfg, logger, nil)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
