package query

import (
	"reflect"
	"testing"
)

func TestParseBagOfWords(t *testing.T) {
	got := Parse("  جستجو موتور  ")
	want := Query{Kind: KindBag, Terms: []string{"جستجو", "موتور"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %+v, want %+v", got, want)
	}
}

func TestParsePhrase(t *testing.T) {
	got := Parse(`"موتور جستجو"`)
	want := Query{Kind: KindPhrase, Terms: []string{"موتور", "جستجو"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %+v, want %+v", got, want)
	}
}

func TestParseEmptyPhraseAfterQuoteStrip(t *testing.T) {
	got := Parse(`""`)
	if got.Kind != KindPhrase {
		t.Errorf("expected KindPhrase for a bare quote pair, got %v", got.Kind)
	}
	if len(got.Terms) != 0 {
		t.Errorf("expected zero terms, got %v", got.Terms)
	}
}

func TestParseSingleQuoteIsNotAPhrase(t *testing.T) {
	got := Parse(`"`)
	if got.Kind != KindBag {
		t.Errorf("a lone quote character should not trigger phrase mode, got %v", got.Kind)
	}
}

func TestParseEmptyInputYieldsNoTerms(t *testing.T) {
	got := Parse("   ")
	if got.Kind != KindBag || len(got.Terms) != 0 {
		t.Errorf("Parse(whitespace) = %+v, want empty bag query", got)
	}
}

func TestParseAppliesQueryModeNormalization(t *testing.T) {
	// Query-mode normalization replaces disallowed characters with a space
	// rather than deleting them, so "foo-bar" tokenizes to two terms.
	got := Parse("foo-bar")
	want := []string{"foo", "bar"}
	if !reflect.DeepEqual(got.Terms, want) {
		t.Errorf("Parse terms = %v, want %v", got.Terms, want)
	}
}
