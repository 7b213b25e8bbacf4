package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the clustering query server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Upstream UpstreamConfig
	Cluster  ClusterConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// UpstreamConfig describes the interaction data services a clustering job
// may pull from. Services maps a service name to its base URL.
type UpstreamConfig struct {
	Services map[string]string
	Timeout  time.Duration
	PageSize int
}

// ClusterConfig controls the clustering executor and the query pipeline.
// MaxBlockSize is the service-wide hard cap on a single result page; it is
// fixed at startup and never changes at runtime.
type ClusterConfig struct {
	IndexRoot    string
	MaxBlockSize int
	Concurrency  int
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value
// is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("CLUSTERQUERY_PORT", 8080),
			Env:  envString("CLUSTERQUERY_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Upstream: UpstreamConfig{
			Services: parseServiceMap(os.Getenv("UPSTREAM_SERVICES")),
			Timeout:  envDuration("UPSTREAM_TIMEOUT", 30*time.Second),
			PageSize: envInt("UPSTREAM_PAGE_SIZE", 500),
		},
		Cluster: ClusterConfig{
			IndexRoot:    envString("CLUSTER_INDEX_ROOT", "data/indexes"),
			MaxBlockSize: envInt("CLUSTER_MAX_BLOCK_SIZE", 200),
			Concurrency:  envInt("CLUSTER_WORKER_CONCURRENCY", 4),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if len(c.Upstream.Services) == 0 {
		return fmt.Errorf("UPSTREAM_SERVICES is required (format: name=url,name=url)")
	}
	for name, baseURL := range c.Upstream.Services {
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			return fmt.Errorf("upstream service %q URL must start with http:// or https://, got %q", name, baseURL)
		}
	}

	if c.Cluster.MaxBlockSize <= 0 {
		return fmt.Errorf("CLUSTER_MAX_BLOCK_SIZE must be positive, got %d", c.Cluster.MaxBlockSize)
	}
	if c.Cluster.IndexRoot == "" {
		return fmt.Errorf("CLUSTER_INDEX_ROOT is required")
	}

	return nil
}

// parseServiceMap parses "intact=http://a,mint=http://b" into a name→URL map.
// Malformed entries are dropped; validate() rejects an empty result.
func parseServiceMap(raw string) map[string]string {
	services := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, baseURL, ok := strings.Cut(entry, "=")
		if !ok || name == "" || baseURL == "" {
			continue
		}
		services[strings.TrimSpace(name)] = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
	return services
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
