// Package retrieval ranks menu and FAQ snippets against a customer question.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"lumiere-assistant-backend/internal/llm"
)

const DefaultK = 4

// Retriever returns the k snippets most relevant to query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Result is a ranked document.
type Result struct {
	Document
	Score float64
}

// Index holds the documents and, once built, their embeddings. Without
// embeddings it ranks by word overlap.
type Index struct {
	docs     []Document
	embedder llm.Embedder
	logger   *zap.Logger

	mu      sync.RWMutex
	vectors [][]float32
}

// NewIndex creates an index over docs. embedder may be nil.
func NewIndex(docs []Document, embedder llm.Embedder, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{docs: docs, embedder: embedder, logger: logger.Named("retrieval")}
}

// Build embeds all documents. On error the index keeps working lexically.
func (ix *Index) Build(ctx context.Context) error {
	if ix.embedder == nil || len(ix.docs) == 0 {
		return nil
	}
	texts := make([]string, len(ix.docs))
	for i, d := range ix.docs {
		texts[i] = d.Text
	}
	vecs, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vecs) != len(ix.docs) {
		return fmt.Errorf("failed to embed documents: got %d vectors for %d documents", len(vecs), len(ix.docs))
	}
	ix.mu.Lock()
	ix.vectors = vecs
	ix.mu.Unlock()
	ix.logger.Info("retrieval index built", zap.Int("documents", len(vecs)))
	return nil
}

// Embedded reports whether Build succeeded.
func (ix *Index) Embedded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.vectors != nil
}

func (ix *Index) Len() int { return len(ix.docs) }

// Search ranks documents against query. A blank query yields no results.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}, nil
	}
	if k <= 0 {
		k = DefaultK
	}

	ix.mu.RLock()
	vectors := ix.vectors
	ix.mu.RUnlock()

	var results []Result
	if vectors != nil {
		qv, err := ix.embedder.Embed(ctx, []string{query})
		if err == nil && len(qv) == 1 {
			results = ix.rankByVector(vectors, qv[0])
		} else {
			ix.logger.Warn("query embedding failed, using lexical ranking", zap.Error(err))
		}
	}
	if results == nil {
		results = ix.rankLexical(query)
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Retrieve implements Retriever.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	results, err := ix.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Text
	}
	return out, nil
}

func (ix *Index) rankByVector(vectors [][]float32, q []float32) []Result {
	out := make([]Result, 0, len(ix.docs))
	for i, d := range ix.docs {
		out = append(out, Result{Document: d, Score: Cosine(vectors[i], q)})
	}
	sortResults(out)
	return out
}

func (ix *Index) rankLexical(query string) []Result {
	terms := tokens(query)
	out := make([]Result, 0)
	if len(terms) == 0 {
		return out
	}
	for _, d := range ix.docs {
		words := make(map[string]bool)
		for _, w := range tokens(d.Text) {
			words[w] = true
		}
		shared := 0
		for _, t := range terms {
			if words[t] {
				shared++
			}
		}
		if shared > 0 {
			out = append(out, Result{Document: d, Score: float64(shared) / float64(len(terms))})
		}
	}
	sortResults(out)
	return out
}

func sortResults(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Score > rs[j].Score })
}

// Cosine returns the cosine similarity of a and b, or 0 when either is
// empty or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "you": true, "your": true,
	"with": true, "what": true, "are": true, "have": true, "does": true,
	"can": true, "any": true, "our": true, "there": true, "which": true,
}

// tokens lower-cases text and keeps distinct content words longer than two runes.
func tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) <= 2 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
