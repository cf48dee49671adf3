package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/parsisearch/jostoju/pkg/server"
)

func main() {
	// Parse command-line flags
	host := flag.String("host", "localhost", "Server host address")
	port := flag.Int("port", 8080, "Server port")
	indexPath := flag.String("index", "./data/index.bin", "Path to the index artifact")
	metadataPath := flag.String("metadata", "./data/metadata.json", "Path to the metadata side-output")
	cacheCapacity := flag.Int("cache-capacity", 1000, "Result cache capacity (entries)")
	corsOrigin := flag.String("cors-origin", "*", "CORS allowed origin")
	enableTLS := flag.Bool("tls", false, "Enable TLS/SSL")
	tlsCert := flag.String("tls-cert", "", "Path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "Path to TLS private key file")
	generateSelfSigned := flag.Bool("generate-self-signed", false, "Generate a self-signed cert/key at -tls-cert/-tls-key before starting (development only)")
	enableGraphQL := flag.Bool("graphql", false, "Enable GraphQL API endpoint (/graphql) and GraphiQL playground (/graphiql)")
	titleWeight := flag.Float64("title-weight", 0, "Override the default title weight (0 keeps the built-in default)")
	bodyWeight := flag.Float64("body-weight", 0, "Override the default body weight (0 keeps the built-in default)")
	flag.Parse()

	if *generateSelfSigned {
		if *tlsCert == "" || *tlsKey == "" {
			fmt.Fprintln(os.Stderr, "-generate-self-signed requires -tls-cert and -tls-key")
			os.Exit(1)
		}
		if err := server.GenerateSelfSignedCert(*tlsCert, *tlsKey, *host); err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate self-signed cert: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("generated self-signed cert at %s / key at %s\n", *tlsCert, *tlsKey)
	}

	// Create server configuration
	config := server.DefaultConfig()
	config.Host = *host
	config.Port = *port
	config.IndexPath = *indexPath
	config.MetadataPath = *metadataPath
	config.CacheCapacity = *cacheCapacity
	config.AllowedOrigins = []string{*corsOrigin}
	config.EnableTLS = *enableTLS
	config.TLSCertFile = *tlsCert
	config.TLSKeyFile = *tlsKey
	config.EnableGraphQL = *enableGraphQL
	if *titleWeight > 0 {
		config.RankOptions.TitleWeight = *titleWeight
	}
	if *bodyWeight > 0 {
		config.RankOptions.BodyWeight = *bodyWeight
	}

	// Create and start server
	srv, err := server.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}

	// Start server (blocks until shutdown)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
