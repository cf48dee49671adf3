package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadCollection reads the crawler's JSON output file: a doc_id -> {url,
// title, body} object, exactly the shape original_source/crawler.py writes
// to crawled_pages.json. The builder is the only consumer; malformed
// individual entries are the builder's concern (§7), not the loader's — this
// function only fails on I/O or top-level JSON structure errors.
func LoadCollection(path string) (Collection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: reading %s: %w", path, err)
	}

	var col Collection
	if err := json.Unmarshal(raw, &col); err != nil {
		return nil, fmt.Errorf("corpus: decoding %s: %w", path, err)
	}

	return col, nil
}

// WriteMetadata writes the doc_id -> {url, title} side-output consumed by
// the presentation layer.
func WriteMetadata(path string, meta Metadata) error {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("corpus: encoding metadata: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("corpus: writing %s: %w", path, err)
	}

	return nil
}

// LoadMetadata reads back a metadata side-output, used by the HTTP service
// to resolve doc_ids in search responses.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: reading %s: %w", path, err)
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("corpus: decoding %s: %w", path, err)
	}

	return meta, nil
}
