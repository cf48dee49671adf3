package index

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/parsisearch/jostoju/pkg/compression"
	"github.com/parsisearch/jostoju/pkg/corpus"
)

func buildTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	col := corpus.Collection{
		"d1": {DocID: "d1", URL: "https://example.com/a", Title: "گربه سیاه", Body: "یک گربه روی دیوار نشست"},
		"d2": {DocID: "d2", URL: "https://example.com/b", Title: "سگ سفید", Body: "سگ در خیابان دوید"},
	}
	snap, _, err := Build(col, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return snap
}

func TestStoreSaveOpenRoundTrip(t *testing.T) {
	snap := buildTestSnapshot(t)
	path := filepath.Join(t.TempDir(), "index.seg")

	if err := Save(path, snap, compression.ZstdConfig(3)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	store, err := Open(path, compression.ZstdConfig(3))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if store.Terms() != len(snap.Index) {
		t.Errorf("Terms() = %d, want %d", store.Terms(), len(snap.Index))
	}
	if store.n != snap.N {
		t.Errorf("N = %d, want %d", store.n, snap.N)
	}

	for term, want := range snap.Index {
		got, ok, err := store.StreamTerm(term)
		if err != nil {
			t.Fatalf("StreamTerm(%q): %v", term, err)
		}
		if !ok {
			t.Fatalf("StreamTerm(%q): not found", term)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("StreamTerm(%q) = %+v, want %+v", term, got, want)
		}
	}

	if _, ok, err := store.StreamTerm("نیست‌موجود‌واژه"); err != nil || ok {
		t.Errorf("StreamTerm of absent term: ok=%v err=%v, want ok=false err=nil", ok, err)
	}
}

func TestStoreSnapshotMatchesBuild(t *testing.T) {
	snap := buildTestSnapshot(t)
	path := filepath.Join(t.TempDir(), "index.seg")

	if err := Save(path, snap, compression.DefaultConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	store, err := Open(path, compression.DefaultConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	reloaded, err := store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if !reflect.DeepEqual(reloaded.Index, snap.Index) {
		t.Errorf("reloaded index does not match built index")
	}
	if !reflect.DeepEqual(reloaded.DocLengths, snap.DocLengths) {
		t.Errorf("reloaded doc lengths do not match")
	}
	if !reflect.DeepEqual(reloaded.IDF, snap.IDF) {
		t.Errorf("reloaded idf table does not match")
	}
}

func TestStorePreservesExactFloatBits(t *testing.T) {
	snap := buildTestSnapshot(t)
	path := filepath.Join(t.TempDir(), "index.seg")

	if err := Save(path, snap, compression.SnappyConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	store, err := Open(path, compression.SnappyConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	for term, postings := range snap.Index {
		got, _, err := store.StreamTerm(term)
		if err != nil {
			t.Fatalf("StreamTerm(%q): %v", term, err)
		}
		for docID, want := range postings {
			posting := got[docID]
			if posting.TitleTFIDF != want.TitleTFIDF || posting.BodyTFIDF != want.BodyTFIDF {
				t.Errorf("term %q doc %q: tf-idf bits changed across round trip: got (%v,%v) want (%v,%v)",
					term, docID, posting.TitleTFIDF, posting.BodyTFIDF, want.TitleTFIDF, want.BodyTFIDF)
			}
		}
	}
}
