package server

import (
	"time"

	"github.com/parsisearch/jostoju/pkg/rank"
)

// Config holds server configuration settings
type Config struct {
	Host           string        // Server host address
	Port           int           // Server port
	IndexPath      string        // Path to the index artifact written by cmd/indexer
	MetadataPath   string        // Path to the doc_id -> {url, title} side-output
	CacheCapacity  int           // Result cache entry capacity. Default: 1000 queries
	CacheTTL       time.Duration // Result cache entry lifetime
	ReadTimeout    time.Duration // HTTP read timeout
	WriteTimeout   time.Duration // HTTP write timeout
	IdleTimeout    time.Duration // HTTP idle timeout
	MaxRequestSize int64         // Maximum request body size in bytes
	EnableCORS     bool          // Enable CORS middleware
	AllowedOrigins []string      // CORS allowed origins
	AllowedMethods []string      // CORS allowed methods
	AllowedHeaders []string      // CORS allowed headers
	EnableLogging  bool          // Enable request logging
	LogFormat      string        // Log format (text or json)

	// TLS/SSL configuration
	EnableTLS   bool   // Enable TLS/SSL
	TLSCertFile string // Path to TLS certificate file
	TLSKeyFile  string // Path to TLS private key file

	// GraphQL configuration
	EnableGraphQL bool // Enable GraphQL API endpoint

	// RankOptions is applied to every search that does not override a
	// weight explicitly in its request body.
	RankOptions rank.Options
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           8080,
		IndexPath:      "./data/index.bin",
		MetadataPath:   "./data/metadata.json",
		CacheCapacity:  1000, // 1000 cached queries
		CacheTTL:       10 * time.Minute,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxRequestSize: 1 * 1024 * 1024, // 1MB, queries are short
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		EnableLogging:  true,
		LogFormat:      "text",
		EnableTLS:      false, // TLS disabled by default
		TLSCertFile:    "",
		TLSKeyFile:     "",
		EnableGraphQL:  false, // GraphQL disabled by default (opt-in feature)
		RankOptions:    rank.DefaultOptions(),
	}
}
