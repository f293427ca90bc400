package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tendant/simple-essence/internal/mcp"
	"github.com/tendant/simple-essence/pkg/essence/config"
	"github.com/tendant/simple-essence/pkg/essence/fixture"
)

// Config holds the MCP transport settings
type Config struct {
	Port      uint16 `env:"MCP_PORT" env-default:"8000"`
	BaseUrl   string `env:"MCP_BASE_URL" env-default:"http://localhost:8000"`
	EnvPrefix string `env:"ESSENCE_ENV_PREFIX" env-default:"ESSENCE_"`
}

func main() {
	var mode = flag.String("mode", "stdio", "Server mode: 'stdio', 'sse', or 'http'")
	var fixturePath = flag.String("fixture", "", "YAML fixture to seed the repository with")
	flag.Parse()

	// stdout carries the protocol in stdio mode, so logs go to stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(".env"); err != nil {
		slog.Info("No .env file found or error loading it, using default values", "err", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	s, err := newMCPServer(context.Background(), cfg.EnvPrefix, *fixturePath, logger)
	if err != nil {
		slog.Error("Failed to build MCP server", "err", err)
		os.Exit(1)
	}

	switch *mode {
	case "sse":
		sseServer := server.NewSSEServer(s, server.WithBaseURL(cfg.BaseUrl))
		slog.Info("Starting SSE server", "base url", cfg.BaseUrl)
		if err := sseServer.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			slog.Error("Failed to start SSE server", "err", err)
			os.Exit(1)
		}
	case "http":
		httpServer := server.NewStreamableHTTPServer(s)
		slog.Info("HTTP server listening", "port", cfg.Port)
		if err := httpServer.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	default:
		slog.Info("Starting in stdio mode")
		if err := server.ServeStdio(s); err != nil {
			slog.Error("Failed to start stdio server", "err", err)
			os.Exit(1)
		}
	}
}

// newMCPServer builds repository, picture store and renderer from the
// environment, seeds them from fixturePath when set and registers the tools
func newMCPServer(ctx context.Context, envPrefix, fixturePath string, logger *slog.Logger) (*server.MCPServer, error) {
	serverConfig, err := config.Load(config.WithEnv(envPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	repo, err := serverConfig.BuildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	pictures, err := serverConfig.BuildPictureStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build picture store: %w", err)
	}
	renderer, err := serverConfig.BuildRenderer(pictures, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build renderer: %w", err)
	}

	if fixturePath != "" {
		f, err := fixture.LoadFile(fixturePath)
		if err != nil {
			return nil, err
		}
		if _, err := f.Apply(ctx, repo); err != nil {
			return nil, fmt.Errorf("failed to seed fixture: %w", err)
		}
		if err := f.UploadPictures(ctx, pictures); err != nil {
			return nil, err
		}
	}

	s := server.NewMCPServer(
		"Essence Mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	mcp.NewHandler(repo, renderer).RegisterTools(s)
	return s, nil
}
