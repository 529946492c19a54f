// Package search provides a simple, deterministic, concurrency-safe
// in-memory index over movie titles. It is intentionally small and
// dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// title's token set: score = |Q ∩ T| / |Q ∪ T|. The year, when present,
// participates as an ordinary token so "matrix 1999" outranks other entries
// of the franchise.
package search

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Entry is one indexable catalog row.
type Entry struct {
	ID    string
	Title string
	Year  int
}

// Result is a ranked catalog entry with its similarity score.
type Result struct {
	Entry Entry
	Score float64
}

// Index is the minimal interface implemented by title indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
}

func defaultConfig() config {
	return config{stopwords: nil, maxDocs: 0}
}

// WithStopwords removes the given words from both titles and queries
// before scoring (e.g. "the", "a").
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many entries are indexed.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	entry  Entry
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an immutable Index from catalog entries. Entries with an
// empty title or no usable tokens are skipped.
func NewIndex(entries []Entry, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	docs := make([]doc, 0, len(entries))
	for _, e := range entries {
		text := strings.TrimSpace(e.Title)
		if text == "" {
			continue
		}
		if e.Year > 0 {
			text += " " + strconv.Itoa(e.Year)
		}
		toks := tokenize(text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{entry: e, tokens: toks, tLen: len(toks)})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

// TopK returns up to k best-matching entries by Jaccard similarity.
// Ties break by shorter title first, then lexicographic ID, so results
// are stable across calls.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 9
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	buf := make([]Result, 0, len(i.docs))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		buf = append(buf, Result{Entry: d.entry, Score: score})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		if la, lb := len(buf[a].Entry.Title), len(buf[b].Entry.Title); la != lb {
			return la < lb
		}
		return buf[a].Entry.ID < buf[b].Entry.ID
	})

	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, ok := stop[w]; ok {
				continue
			}
		}
		out[w] = struct{}{}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	// Iterate the smaller set.
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
