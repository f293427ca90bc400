package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	demomiddleware "github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-essence/pkg/essence"
	"github.com/tendant/simple-essence/pkg/essence/api"
	"github.com/tendant/simple-essence/pkg/essence/config"
	"github.com/tendant/simple-essence/pkg/essence/fixture"
	"github.com/tendant/simple-essence/pkg/essence/tracing"
)

// ProcessConfig holds settings that belong to the binary rather than the library
type ProcessConfig struct {
	EnvPrefix       string        `env:"ESSENCE_ENV_PREFIX" env-default:"ESSENCE_"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat       string        `env:"LOG_FORMAT" env-default:"text"`
	SeedFixture     string        `env:"SEED_FIXTURE"`
	APIKeySHA256    string        `env:"API_KEY_SHA256"`
	TraceExporter   string        `env:"TRACE_EXPORTER" env-default:"none"`
	TraceFile       string        `env:"TRACE_FILE"`
	OTLPEndpoint    string        `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	TraceSampleRate float64       `env:"TRACE_SAMPLE_RATE" env-default:"1.0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func main() {
	var proc ProcessConfig
	if err := cleanenv.ReadEnv(&proc); err != nil {
		slog.Error("Failed to read process configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(proc)
	slog.SetDefault(logger)

	traceProvider, err := tracing.NewProvider(tracing.Config{
		Exporter:     proc.TraceExporter,
		FilePath:     proc.TraceFile,
		OTLPEndpoint: proc.OTLPEndpoint,
		SampleRate:   proc.TraceSampleRate,
		ServiceName:  "essence-server",
	})
	if err != nil {
		slog.Error("Failed to initialize tracing", "err", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(config.WithEnv(proc.EnvPrefix))
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	if serverConfig.DatabaseType == "postgres" {
		if err := config.PingPostgres(serverConfig.DatabaseURL, serverConfig.DBSchema); err != nil {
			slog.Error("Database is not reachable", "err", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	handler, err := buildHandler(ctx, serverConfig, proc.SeedFixture, logger)
	if err != nil {
		slog.Error("Failed to build handler", "err", err)
		os.Exit(1)
	}

	router, err := newRouter(serverConfig, handler, proc.APIKeySHA256, logger)
	if err != nil {
		slog.Error("Failed to build router", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Essence server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"pictures", serverConfig.PictureStorage.Type,
			"tracing", traceProvider.Enabled())

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), proc.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}
	if err := traceProvider.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to flush traces", "err", err)
	}

	slog.Info("Server exiting")
}

// buildHandler wires repository, picture store and renderer from cfg and
// optionally seeds them from a fixture file
func buildHandler(ctx context.Context, cfg *config.ServerConfig, seed string, logger *slog.Logger) (*api.EssenceHandler, error) {
	repo, err := cfg.BuildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	pictures, err := cfg.BuildPictureStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build picture store: %w", err)
	}

	renderer, err := cfg.BuildRenderer(pictures, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build renderer: %w", err)
	}

	if seed != "" {
		if err := seedFixture(ctx, seed, repo, pictures); err != nil {
			return nil, err
		}
		logger.Info("Seeded fixture", "path", seed)
	}

	return api.NewEssenceHandler(repo, renderer,
		api.WithLogger(logger),
		api.WithPictureStore(pictures),
	), nil
}

func seedFixture(ctx context.Context, path string, repo essence.Repository, pictures essence.PictureStore) error {
	f, err := fixture.LoadFile(path)
	if err != nil {
		return err
	}
	if _, err := f.Apply(ctx, repo); err != nil {
		return fmt.Errorf("failed to seed fixture: %w", err)
	}
	return f.UploadPictures(ctx, pictures)
}

// newRouter mounts the essence routes. When apiKeySHA256 is set every route
// except /healthz requires the matching API key.
func newRouter(cfg *config.ServerConfig, handler *api.EssenceHandler, apiKeySHA256 string, logger *slog.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	if apiKeySHA256 == "" {
		r.Mount("/", handler.Routes())
		return r, nil
	}

	apiKeyMiddleware, err := demomiddleware.ApiKeyMiddleware(demomiddleware.ApiKeyConfig{
		APIKeys: map[string]string{"essence": apiKeySHA256},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API key middleware: %w", err)
	}
	r.Group(func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Mount("/", handler.Routes())
	})
	return r, nil
}

func newLogger(proc ProcessConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(proc.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(proc.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
