// Command indexer builds a search index artifact from a crawler's JSON
// output file and writes it, along with its metadata side-output, to disk
// for cmd/searchd to serve.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parsisearch/jostoju/pkg/compression"
	"github.com/parsisearch/jostoju/pkg/corpus"
	"github.com/parsisearch/jostoju/pkg/index"
)

const version = "1.0.0"

func main() {
	input := flag.String("input", "", "Path to the crawler's JSON collection file (required)")
	outIndex := flag.String("out-index", "./data/index.bin", "Path to write the index artifact")
	outMetadata := flag.String("out-metadata", "./data/metadata.json", "Path to write the metadata side-output")
	verbose := flag.Bool("verbose", false, "Print per-document build progress")
	showVersion := flag.Bool("version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "jostoju indexer v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: %s -input <collection.json> [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("jostoju indexer v%s\n", version)
		return
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "error: -input is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*input, *outIndex, *outMetadata, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(inputPath, outIndexPath, outMetadataPath string, verbose bool) error {
	col, err := corpus.LoadCollection(inputPath)
	if err != nil {
		return fmt.Errorf("loading collection: %w", err)
	}
	fmt.Printf("loaded %d documents from %s\n", len(col), inputPath)

	opts := index.BuildOptions{}
	if verbose {
		lastReported := time.Now()
		opts.Progress = func(processed, total int) {
			if time.Since(lastReported) < 500*time.Millisecond && processed != total {
				return
			}
			lastReported = time.Now()
			fmt.Printf("\rindexing: %d/%d", processed, total)
		}
	}

	snap, report, err := index.Build(col, opts)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	if verbose {
		fmt.Println()
	}

	if err := os.MkdirAll(filepath.Dir(outIndexPath), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	if err := index.Save(outIndexPath, snap, compression.DefaultConfig()); err != nil {
		return fmt.Errorf("saving index artifact: %w", err)
	}

	meta := make(corpus.Metadata, len(col))
	for docID, doc := range col {
		meta[docID] = corpus.MetadataEntry{URL: doc.URL, Title: doc.Title}
	}
	if err := os.MkdirAll(filepath.Dir(outMetadataPath), 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	if err := corpus.WriteMetadata(outMetadataPath, meta); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	fmt.Printf("build complete: %d documents, %d unique terms, %d skipped, %.2fs\n",
		report.TotalDocuments, report.UniqueTerms, report.SkippedDocuments, report.TotalTimeSeconds)
	fmt.Printf("index artifact: %s\n", outIndexPath)
	fmt.Printf("metadata side-output: %s\n", outMetadataPath)
	return nil
}
