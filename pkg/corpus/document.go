// Package corpus defines the document input contract between the external
// crawler and the index builder, and the doc_id scheme used throughout the
// system.
package corpus

import (
	"encoding/hex"
	"net/url"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Document is a single crawled page as handed to the index builder. url is
// informational; title and body are raw text normalized and tokenized by
// pkg/text. doc_id is treated as opaque by every downstream component.
type Document struct {
	DocID string `json:"doc_id"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Collection is the document input contract: doc_id -> record.
type Collection map[string]Document

// Metadata is the doc_id -> {url, title} side-output consumed by the
// presentation layer, never by the ranker.
type Metadata map[string]MetadataEntry

// MetadataEntry is one row of the metadata side-output.
type MetadataEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// DocID computes the opaque stable document identifier: the hex-encoded
// first 16 bytes of the BLAKE2b-256 digest of the canonicalized URL. The builder never inspects
// the digest's structure; it exists only as a stable, collision-resistant
// join key between the crawler, the index, and the metadata side-output.
func DocID(rawURL string) (string, error) {
	canonical, err := CanonicalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	sum := blake2b.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:16]), nil
}

// CanonicalizeURL strips a trailing slash from the path (root path stays
// "/"), drops the query string and fragment, and lowercases the whole
// resulting URL (path included), mirroring the
// crawler's own URL-dedup rule so the builder's doc_id scheme agrees with
// what produced the input file.
func CanonicalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""

	path := strings.TrimSuffix(u.Path, "/")
	if path == "" {
		path = "/"
	}
	u.Path = path

	return strings.ToLower(u.String()), nil
}
