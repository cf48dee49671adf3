package index

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/parsisearch/jostoju/pkg/compression"
)

// directoryEntry locates one term's compressed postings record within the
// segment file.
type directoryEntry struct {
	Offset int64
	Length int64
}

// footer is gob-encoded and appended after the last postings record; its
// byte offset is written as the final 8 bytes of the file so a reader can
// seek straight to it without scanning the whole segment.
type footer struct {
	Directory  map[string]directoryEntry
	DocLengths DocLengths
	IDF        IDFTable
	N          int
}

// Store persists a Snapshot as an append-only segment file: one compressed,
// gob-encoded postings record per term, followed by a directory mapping term
// to its byte range. Grounded on the file-handle-plus-offset idiom of a
// paged disk manager, but write-once — a search index is rebuilt wholesale
// by the indexer, never mutated record-by-record like a live database.
type Store struct {
	file       *os.File
	compressor *compression.Compressor
	mu         sync.Mutex

	directory  map[string]directoryEntry
	docLengths DocLengths
	idf        IDFTable
	n          int

	reads  int64
	writes int64
}

// Save writes snap to path as a single segment file, visiting terms in
// lexicographic order for reproducible output across builds of the same
// collection.
func Save(path string, snap *Snapshot, cfg *compression.Config) error {
	compressor, err := compression.NewCompressor(cfg)
	if err != nil {
		return fmt.Errorf("index: create compressor: %w", err)
	}
	defer compressor.Close()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("index: create segment file %s: %w", path, err)
	}
	defer file.Close()

	terms := make([]string, 0, len(snap.Index))
	for term := range snap.Index {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	directory := make(map[string]directoryEntry, len(terms))
	var offset int64
	for _, term := range terms {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(snap.Index[term]); err != nil {
			return fmt.Errorf("index: encode postings for %q: %w", term, err)
		}
		compressed, err := compressor.Compress(buf.Bytes())
		if err != nil {
			return fmt.Errorf("index: compress postings for %q: %w", term, err)
		}
		written, err := file.WriteAt(compressed, offset)
		if err != nil {
			return fmt.Errorf("index: write postings for %q: %w", term, err)
		}
		directory[term] = directoryEntry{Offset: offset, Length: int64(written)}
		offset += int64(written)
	}

	ft := footer{Directory: directory, DocLengths: snap.DocLengths, IDF: snap.IDF, N: snap.N}
	var ftBuf bytes.Buffer
	if err := gob.NewEncoder(&ftBuf).Encode(ft); err != nil {
		return fmt.Errorf("index: encode footer: %w", err)
	}
	footerOffset := offset
	if _, err := file.WriteAt(ftBuf.Bytes(), offset); err != nil {
		return fmt.Errorf("index: write footer: %w", err)
	}
	offset += int64(ftBuf.Len())

	var trailer [8]byte
	binary.BigEndian.PutUint64(trailer[:], uint64(footerOffset))
	if _, err := file.WriteAt(trailer[:], offset); err != nil {
		return fmt.Errorf("index: write trailer: %w", err)
	}

	return nil
}

// Open opens a segment file written by Save, reading only its directory and
// per-document tables into memory; postings lists are decompressed lazily by
// StreamTerm.
func Open(path string, cfg *compression.Config) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: open segment file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("index: stat segment file %s: %w", path, err)
	}
	if info.Size() < 8 {
		file.Close()
		return nil, fmt.Errorf("index: segment file %s too short to contain a trailer", path)
	}

	var trailer [8]byte
	if _, err := file.ReadAt(trailer[:], info.Size()-8); err != nil {
		file.Close()
		return nil, fmt.Errorf("index: read trailer: %w", err)
	}
	footerOffset := int64(binary.BigEndian.Uint64(trailer[:]))

	footerBytes := make([]byte, info.Size()-8-footerOffset)
	if _, err := file.ReadAt(footerBytes, footerOffset); err != nil {
		file.Close()
		return nil, fmt.Errorf("index: read footer: %w", err)
	}

	var ft footer
	if err := gob.NewDecoder(bytes.NewReader(footerBytes)).Decode(&ft); err != nil {
		file.Close()
		return nil, fmt.Errorf("index: decode footer: %w", err)
	}

	compressor, err := compression.NewCompressor(cfg)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("index: create compressor: %w", err)
	}

	return &Store{
		file:       file,
		compressor: compressor,
		directory:  ft.Directory,
		docLengths: ft.DocLengths,
		idf:        ft.IDF,
		n:          ft.N,
	}, nil
}

// StreamTerm reads and decompresses exactly one term's postings list,
// touching no other term's bytes. The second return value is false if the
// term is absent from the index.
func (s *Store) StreamTerm(term string) (PostingsList, bool, error) {
	s.mu.Lock()
	entry, ok := s.directory[term]
	s.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	compressed := make([]byte, entry.Length)
	s.mu.Lock()
	_, err := s.file.ReadAt(compressed, entry.Offset)
	if err == nil {
		s.reads++
	}
	s.mu.Unlock()
	if err != nil {
		return nil, false, fmt.Errorf("index: read postings for %q: %w", term, err)
	}

	raw, err := s.compressor.Decompress(compressed)
	if err != nil {
		return nil, false, fmt.Errorf("index: decompress postings for %q: %w", term, err)
	}

	var postings PostingsList
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&postings); err != nil {
		return nil, false, fmt.Errorf("index: decode postings for %q: %w", term, err)
	}
	return postings, true, nil
}

// Snapshot materializes the full in-memory Snapshot by streaming every term.
// The ranker needs random access across many terms per query and is better
// served by one in-memory structure than a file read per posting list, so
// the HTTP service calls this once after Open/reload rather than wiring
// StreamTerm into the query path directly.
func (s *Store) Snapshot() (*Snapshot, error) {
	index := make(InvertedIndex, len(s.directory))
	for term := range s.directory {
		postings, _, err := s.StreamTerm(term)
		if err != nil {
			return nil, err
		}
		index[term] = postings
	}
	return &Snapshot{Index: index, DocLengths: s.docLengths, IDF: s.idf, N: s.n}, nil
}

// Terms returns the number of distinct terms in the segment.
func (s *Store) Terms() int {
	return len(s.directory)
}

// Close releases the segment file handle and compressor resources.
func (s *Store) Close() error {
	if err := s.compressor.Close(); err != nil {
		return err
	}
	return s.file.Close()
}
