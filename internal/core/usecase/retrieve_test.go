package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

type embedderFake struct {
	queries []string
	err     error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, f.err
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type indexFake struct {
	searchResults  []domain.RetrievedCandidate
	searchLimit    int
	searchFilter   domain.SearchFilter
	searchCalls    int
	provisionHits  map[string][]domain.RetrievedCandidate
	provisionCalls []string
	err            error
}

func (f *indexFake) UpsertChunks(context.Context, []domain.Chunk, [][]float32) error {
	return nil
}

func (f *indexFake) Search(_ context.Context, _ []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedCandidate, error) {
	f.searchCalls++
	f.searchLimit = limit
	f.searchFilter = filter
	return f.searchResults, f.err
}

func (f *indexFake) FetchProvision(_ context.Context, docCode, label string) ([]domain.RetrievedCandidate, error) {
	f.provisionCalls = append(f.provisionCalls, docCode+"/"+label)
	if f.err != nil {
		return nil, f.err
	}
	return f.provisionHits[docCode+"/"+label], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetrieveDirectLookupSortedByChunkIndex(t *testing.T) {
	index := &indexFake{provisionHits: map[string][]domain.RetrievedCandidate{
		"companies_act/45": {
			{ID: "c", Provision: "45", ChunkIndex: 2},
			{ID: "a", Provision: "45", ChunkIndex: 0},
			{ID: "b", Provision: "45", ChunkIndex: 1},
		},
	}}
	gateway := NewRetrievalGateway(&embedderFake{}, index, 5, 0.45, discardLogger())

	analysis := domain.QueryAnalysis{Type: domain.QueryArticleLookup, ProvisionRef: "45"}
	candidates, err := gateway.Retrieve(context.Background(), "article 45", analysis, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}
	for i, wantID := range []string{"a", "b", "c"} {
		if candidates[i].ID != wantID {
			t.Errorf("candidate[%d].ID = %q, want %q", i, candidates[i].ID, wantID)
		}
	}
	if index.searchCalls != 0 {
		t.Fatal("direct lookup must not hit semantic search")
	}
}

func TestRetrieveDirectLookupHonorsExplicitHint(t *testing.T) {
	index := &indexFake{provisionHits: map[string][]domain.RetrievedCandidate{
		"code_13/45": {{ID: "x", Provision: "45"}},
	}}
	gateway := NewRetrievalGateway(&embedderFake{}, index, 5, 0.45, discardLogger())

	analysis := domain.QueryAnalysis{
		Type:            domain.QueryArticleLookup,
		ProvisionRef:    "45",
		DocHint:         "code_13",
		DocHintExplicit: true,
	}
	candidates, err := gateway.Retrieve(context.Background(), "article 45 of the commercial code", analysis, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].ID != "x" {
		t.Fatalf("got %v, want the code_13 hit", candidates)
	}
	if len(index.provisionCalls) != 1 || index.provisionCalls[0] != "code_13/45" {
		t.Fatalf("provision calls = %v, want only code_13/45", index.provisionCalls)
	}
}

func TestRetrieveDirectLookupFallsBackToSemantic(t *testing.T) {
	index := &indexFake{
		provisionHits: map[string][]domain.RetrievedCandidate{},
		searchResults: []domain.RetrievedCandidate{
			{ID: "s", DocCode: "code_13", Provision: "999", Score: 0.8},
		},
	}
	embedder := &embedderFake{}
	gateway := NewRetrievalGateway(embedder, index, 5, 0.45, discardLogger())

	analysis := domain.QueryAnalysis{Type: domain.QueryArticleLookup, ProvisionRef: "999"}
	candidates, err := gateway.Retrieve(context.Background(), "article 999", analysis, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].ID != "s" {
		t.Fatalf("got %v, want the semantic hit", candidates)
	}
	if len(embedder.queries) != 1 {
		t.Fatalf("embed calls = %d, want 1", len(embedder.queries))
	}
}

func TestRetrieveSemanticOverFetchesAndFilters(t *testing.T) {
	index := &indexFake{searchResults: []domain.RetrievedCandidate{
		{ID: "a", DocCode: "companies_act", Provision: "1", Score: 0.9},
	}}
	gateway := NewRetrievalGateway(&embedderFake{}, index, 5, 0.45, discardLogger())

	analysis := domain.QueryAnalysis{
		Type:            domain.QueryGeneral,
		DocHint:         "companies_act",
		DocHintExplicit: true,
	}
	if _, err := gateway.Retrieve(context.Background(), "dividends", analysis, 5); err != nil {
		t.Fatal(err)
	}
	if index.searchLimit != 10 {
		t.Fatalf("search limit = %d, want 10", index.searchLimit)
	}
	if index.searchFilter.DocCode != "companies_act" {
		t.Fatalf("filter = %q, want companies_act", index.searchFilter.DocCode)
	}
}

func TestRetrieveTopicalHintDoesNotFilter(t *testing.T) {
	index := &indexFake{searchResults: []domain.RetrievedCandidate{
		{ID: "a", DocCode: "code_13", Provision: "1", Score: 0.9},
	}}
	gateway := NewRetrievalGateway(&embedderFake{}, index, 5, 0.45, discardLogger())

	analysis := domain.QueryAnalysis{Type: domain.QueryGeneral, DocHint: "companies_act"}
	if _, err := gateway.Retrieve(context.Background(), "dividends", analysis, 5); err != nil {
		t.Fatal(err)
	}
	if index.searchFilter.DocCode != "" {
		t.Fatalf("topical hint must not hard-filter, got %q", index.searchFilter.DocCode)
	}
}

func TestRetrieveMinTopScoreGate(t *testing.T) {
	index := &indexFake{searchResults: []domain.RetrievedCandidate{
		{ID: "weak", DocCode: "code_13", Provision: "1", Score: 0.2},
	}}
	gateway := NewRetrievalGateway(&embedderFake{}, index, 5, 0.45, discardLogger())

	candidates, err := gateway.Retrieve(context.Background(), "unrelated question",
		domain.QueryAnalysis{Type: domain.QueryGeneral}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Fatalf("got %v, want nothing below the score floor", candidates)
	}
}

func TestRetrievePropagatesIndexError(t *testing.T) {
	index := &indexFake{err: errors.New("qdrant down")}
	gateway := NewRetrievalGateway(&embedderFake{}, index, 5, 0.45, discardLogger())

	if _, err := gateway.Retrieve(context.Background(), "question",
		domain.QueryAnalysis{Type: domain.QueryGeneral}, 5); err == nil {
		t.Fatal("want error from index")
	}
}

func TestMergeByProvisionCompoundKey(t *testing.T) {
	// Two statutes both have an Article 45; both must survive the merge.
	raw := []domain.RetrievedCandidate{
		{ID: "a1", DocCode: "companies_act", Provision: "45", Score: 0.9},
		{ID: "a2", DocCode: "companies_act", Provision: "45", Score: 0.7},
		{ID: "b1", DocCode: "code_13", Provision: "45", Score: 0.8},
	}
	merged := mergeByProvision(raw)
	if len(merged) != 2 {
		t.Fatalf("got %d merged candidates, want 2", len(merged))
	}
	if merged[0].ID != "a1" || merged[1].ID != "b1" {
		t.Fatalf("merged = [%s %s], want [a1 b1]", merged[0].ID, merged[1].ID)
	}
}

func TestMergeByProvisionKeepsBestScore(t *testing.T) {
	raw := []domain.RetrievedCandidate{
		{ID: "low", DocCode: "code_13", Provision: "45", Score: 0.5},
		{ID: "high", DocCode: "code_13", Provision: "45", Score: 0.9},
	}
	merged := mergeByProvision(raw)
	if len(merged) != 1 || merged[0].ID != "high" {
		t.Fatalf("merged = %v, want only the higher-scoring chunk", merged)
	}
}

func TestRerankByIntentBoostsAndClamps(t *testing.T) {
	candidates := []domain.RetrievedCandidate{
		{ID: "plain", Content: "some unrelated text", Score: 0.80},
		{ID: "penal", Content: "shall be liable to a fine", Score: 0.78},
		{ID: "top", Content: "liable on conviction", Score: 0.99},
	}
	rerankByIntent(candidates, domain.QueryAnalysis{Intent: domain.IntentPenalty})

	if candidates[0].ID != "top" || candidates[0].Score != 1.0 {
		t.Fatalf("top = %s score %v, want top clamped to 1.0", candidates[0].ID, candidates[0].Score)
	}
	if candidates[1].ID != "penal" {
		t.Fatalf("boosted candidate should outrank the plain one, got %s", candidates[1].ID)
	}
	if candidates[2].ID != "plain" || candidates[2].Score != 0.80 {
		t.Fatalf("plain candidate score changed: %v", candidates[2].Score)
	}
}

func TestRerankByIntentProvisionMatchBoost(t *testing.T) {
	candidates := []domain.RetrievedCandidate{
		{ID: "other", Provision: "12", Content: "text", Score: 0.70},
		{ID: "match", Provision: "45", Content: "text", Score: 0.65},
	}
	rerankByIntent(candidates, domain.QueryAnalysis{ProvisionRef: "45"})

	if candidates[0].ID != "match" {
		t.Fatalf("provision-matching candidate should rank first, got %s", candidates[0].ID)
	}
}
