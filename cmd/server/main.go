package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brunobiangulo/coursewizard"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML or JSON)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	envFile := flag.String("env", ".env", "Optional dotenv file")
	flag.Parse()

	// A missing .env is normal outside development.
	_ = godotenv.Load(*envFile)

	cfg := coursewizard.DefaultConfig()
	if *configPath != "" {
		loaded, err := coursewizard.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyEnv(&cfg, os.Getenv)
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	// Structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	engine, err := coursewizard.New(cfg, coursewizard.WithLogger(logger))
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      newServer(engine, newMetrics()),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// newServer wires routes and the middleware chain.
func newServer(engine coursewizard.Engine, m *metrics) http.Handler {
	h := newHandler(engine, m)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /schedule/parse", h.handleParseSchedule)
	mux.HandleFunc("POST /course-table/parse", h.handleParseCourseTable)
	mux.HandleFunc("POST /participants/parse", h.handleParseParticipants)
	mux.HandleFunc("POST /participants/reorder", h.handleReorderParticipants)
	mux.HandleFunc("POST /extract", h.handleExtract)
	mux.HandleFunc("POST /export/{format}", h.handleExport)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", m.Handler())

	// Middleware chain: recovery -> cors -> metrics -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = m.middleware(handler)
	handler = corsMiddleware(engine.Config().CORSOrigins, handler)
	handler = recoveryMiddleware(handler)
	return handler
}

// applyEnv overrides cfg from COURSEWIZARD_* environment variables.
func applyEnv(cfg *coursewizard.Config, getenv func(string) string) {
	if v := getenv("COURSEWIZARD_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := getenv("COURSEWIZARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getenv("COURSEWIZARD_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := getenv("COURSEWIZARD_MAX_TEXT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTextBytes = n
		}
	}
	if v := getenv("COURSEWIZARD_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := getenv("COURSEWIZARD_MOCK_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MockFallback = b
		}
	}
	if v := getenv("COURSEWIZARD_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
