package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-essence/pkg/essence"
	"github.com/tendant/simple-essence/pkg/essence/repo/memory"
	repopg "github.com/tendant/simple-essence/pkg/essence/repo/postgres"
	fsstorage "github.com/tendant/simple-essence/pkg/essence/storage/fs"
	memorystorage "github.com/tendant/simple-essence/pkg/essence/storage/memory"
	s3storage "github.com/tendant/simple-essence/pkg/essence/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:          "8080",
		Environment:   "development",
		DatabaseType:  "memory",
		DBSchema:      "essence",
		DefaultLocale: "en",
		PictureStorage: StorageBackendConfig{
			Type:   "memory",
			Config: map[string]interface{}{},
		},
	}
}

// ServerConfig represents configuration for the essence rendering service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: essence)
	EnsureSchema bool   // create tables on startup

	// Rendering configuration
	TemplateDir     string        // directory holding essences/*.html; empty uses the embedded partials
	DefaultLocale   string        // fallback locale for translations
	PartialCacheTTL time.Duration // zero caches parsed partials forever

	// Picture storage configuration
	PictureStorage StorageBackendConfig
}

// StorageBackendConfig represents configuration for the picture store
type StorageBackendConfig struct {
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.DefaultLocale == "" {
		return errors.New("default_locale is required")
	}

	if c.PartialCacheTTL < 0 {
		return errors.New("partial_cache_ttl cannot be negative")
	}

	switch c.PictureStorage.Type {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("unsupported picture storage type '%s'", c.PictureStorage.Type)
	}

	return nil
}

// BuildRepository creates a Repository based on the configuration
func (c *ServerConfig) BuildRepository(ctx context.Context) (essence.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, errors.New("database_url is required for postgres")
		}
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if c.EnsureSchema {
			if err := repopg.EnsureSchema(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildPictureStore creates the picture store based on the configuration
func (c *ServerConfig) BuildPictureStore() (essence.PictureStore, error) {
	config := c.PictureStorage
	switch config.Type {
	case "memory":
		return memorystorage.NewWithURLPrefix(getString(config.Config, "url_prefix", memorystorage.DefaultURLPrefix)), nil

	case "fs":
		store, err := fsstorage.New(fsstorage.Config{
			BaseDir:   getString(config.Config, "base_dir", "./data/pictures"),
			URLPrefix: getString(config.Config, "url_prefix", ""),
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "s3":
		store, err := s3storage.New(s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			PresignDuration:        getInt(config.Config, "presign_duration", 3600),
			KeyPrefix:              getString(config.Config, "key_prefix", ""),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported picture storage type: %s", config.Type)
	}
}

// BuildRenderer creates a Renderer wired to the configured templates, locale
// and picture store. logger may be nil.
func (c *ServerConfig) BuildRenderer(pictures essence.PictureStore, logger *slog.Logger) (essence.Renderer, error) {
	options := []essence.RendererOption{
		essence.WithLocale(c.DefaultLocale),
		essence.WithPartialCacheTTL(c.PartialCacheTTL),
		essence.WithPictureStore(pictures),
	}
	if logger != nil {
		options = append(options, essence.WithLogger(logger))
	}
	if c.TemplateDir != "" {
		info, err := os.Stat(c.TemplateDir)
		if err != nil {
			return nil, fmt.Errorf("template dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("template dir %s is not a directory", c.TemplateDir)
		}
		options = append(options, essence.WithTemplates(os.DirFS(c.TemplateDir), "."))
	}
	return essence.NewRenderer(options...), nil
}

// PingPostgres verifies connectivity to Postgres and optionally sets search_path for the session.
func PingPostgres(databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

func getInt(config map[string]interface{}, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		switch v := value.(type) {
		case int:
			return v
		case float64:
			return int(v)
		case string:
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
	}
	return defaultValue
}
