package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithEnsureSchema creates the tables on startup when enabled
func WithEnsureSchema(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnsureSchema = enabled
		return nil
	}
}

// WithTemplateDir loads partials from dir instead of the embedded set
func WithTemplateDir(dir string) Option {
	return func(c *ServerConfig) error {
		c.TemplateDir = dir
		return nil
	}
}

// WithDefaultLocale sets the fallback locale for translations
func WithDefaultLocale(locale string) Option {
	return func(c *ServerConfig) error {
		if locale == "" {
			return fmt.Errorf("default locale cannot be empty")
		}
		c.DefaultLocale = locale
		return nil
	}
}

// WithPartialCacheTTL reloads parsed partials after ttl
func WithPartialCacheTTL(ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if ttl < 0 {
			return fmt.Errorf("partial cache ttl cannot be negative, got: %s", ttl)
		}
		c.PartialCacheTTL = ttl
		return nil
	}
}

// WithMemoryPictures stores pictures in memory
func WithMemoryPictures(urlPrefix string) Option {
	return func(c *ServerConfig) error {
		backend := StorageBackendConfig{
			Type:   "memory",
			Config: map[string]interface{}{},
		}
		if urlPrefix != "" {
			backend.Config["url_prefix"] = urlPrefix
		}
		c.PictureStorage = backend
		return nil
	}
}

// WithFilesystemPictures stores pictures below baseDir
func WithFilesystemPictures(baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		backend := StorageBackendConfig{
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": baseDir,
			},
		}
		if urlPrefix != "" {
			backend.Config["url_prefix"] = urlPrefix
		}
		c.PictureStorage = backend
		return nil
	}
}

// WithS3Pictures stores pictures in an S3 bucket
func WithS3Pictures(bucket, region string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}
		c.PictureStorage = StorageBackendConfig{
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": bucket,
				"region": region,
			},
		}
		return nil
	}
}

// WithS3Credentials sets static credentials on the S3 picture store
func WithS3Credentials(accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if c.PictureStorage.Type != "s3" {
			return fmt.Errorf("S3 credentials require S3 picture storage, got: %s", c.PictureStorage.Type)
		}
		c.PictureStorage.Config["access_key_id"] = accessKeyID
		c.PictureStorage.Config["secret_access_key"] = secretAccessKey
		return nil
	}
}

// WithS3Endpoint points the S3 picture store at an S3-compatible service
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		if c.PictureStorage.Type != "s3" {
			return fmt.Errorf("S3 endpoint requires S3 picture storage, got: %s", c.PictureStorage.Type)
		}
		c.PictureStorage.Config["endpoint"] = endpoint
		c.PictureStorage.Config["use_path_style"] = usePathStyle
		return nil
	}
}
