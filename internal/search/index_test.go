package search

import "testing"

func catalog() []Entry {
	return []Entry{
		{ID: "m1", Title: "The Matrix", Year: 1999},
		{ID: "m2", Title: "The Matrix Reloaded", Year: 2003},
		{ID: "m3", Title: "The Matrix Revolutions", Year: 2003},
		{ID: "m4", Title: "Inception", Year: 2010},
		{ID: "m5", Title: "Blade Runner", Year: 1982},
	}
}

func TestTopK_RanksExactTitleFirst(t *testing.T) {
	idx := NewIndex(catalog())

	res := idx.TopK("matrix 1999", 3)
	if len(res) == 0 {
		t.Fatalf("no results")
	}
	if res[0].Entry.ID != "m1" {
		t.Fatalf("top result = %q, want m1", res[0].Entry.ID)
	}
}

func TestTopK_NoMatch(t *testing.T) {
	idx := NewIndex(catalog())
	if res := idx.TopK("casablanca", 5); res != nil {
		t.Fatalf("expected nil for zero-overlap query, got %v", res)
	}
}

func TestTopK_EmptyQueryAndEmptyIndex(t *testing.T) {
	idx := NewIndex(catalog())
	if idx.TopK("   ", 5) != nil {
		t.Fatalf("blank query must return nil")
	}
	empty := NewIndex(nil)
	if empty.TopK("matrix", 5) != nil {
		t.Fatalf("empty index must return nil")
	}
}

func TestTopK_Deterministic(t *testing.T) {
	idx := NewIndex(catalog())
	first := idx.TopK("the matrix", 5)
	for i := 0; i < 10; i++ {
		again := idx.TopK("the matrix", 5)
		if len(again) != len(first) {
			t.Fatalf("result count changed")
		}
		for j := range first {
			if again[j].Entry.ID != first[j].Entry.ID || again[j].Score != first[j].Score {
				t.Fatalf("order changed at %d: %v vs %v", j, again[j], first[j])
			}
		}
	}
}

func TestTopK_RespectsK(t *testing.T) {
	idx := NewIndex(catalog())
	res := idx.TopK("the matrix", 2)
	if len(res) != 2 {
		t.Fatalf("len = %d, want 2", len(res))
	}
}

func TestStopwords(t *testing.T) {
	idx := NewIndex(catalog(), WithStopwords([]string{"the"}))
	res := idx.TopK("the", 5)
	if res != nil {
		t.Fatalf("stopword-only query must return nil, got %v", res)
	}
}

func TestWithMaxDocs(t *testing.T) {
	idx := NewIndex(catalog(), WithMaxDocs(1))
	if res := idx.TopK("inception", 5); res != nil {
		t.Fatalf("entry beyond maxDocs should not be indexed, got %v", res)
	}
	if res := idx.TopK("matrix", 5); len(res) != 1 {
		t.Fatalf("expected only the first entry indexed, got %v", res)
	}
}
