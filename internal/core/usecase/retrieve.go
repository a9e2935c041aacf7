package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/lexatlas/statute-crag/internal/core/domain"
	"github.com/lexatlas/statute-crag/internal/core/ports"
)

// RetrievalGateway is the single retrieval entry point: direct provision
// lookup for article-style questions, expanded semantic search otherwise.
type RetrievalGateway struct {
	embedder    ports.Embedder
	index       ports.VectorIndex
	topK        int
	minTopScore float64
	log         *slog.Logger
}

func NewRetrievalGateway(embedder ports.Embedder, index ports.VectorIndex, topK int, minTopScore float64, log *slog.Logger) *RetrievalGateway {
	if topK <= 0 {
		topK = 5
	}
	return &RetrievalGateway{
		embedder:    embedder,
		index:       index,
		topK:        topK,
		minTopScore: minTopScore,
		log:         log,
	}
}

// Retrieve returns up to limit candidates for the analyzed question.
// An empty slice is a valid answer meaning the corpus has nothing
// relevant enough; only transport failures are errors.
func (g *RetrievalGateway) Retrieve(ctx context.Context, question string, analysis domain.QueryAnalysis, limit int) ([]domain.RetrievedCandidate, error) {
	if limit <= 0 {
		limit = g.topK
	}

	if analysis.Type == domain.QueryArticleLookup && analysis.ProvisionRef != "" {
		candidates, err := g.lookupProvision(ctx, analysis)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
		g.log.Debug("direct lookup empty, falling back to semantic search",
			slog.String("provision", analysis.ProvisionRef))
	}

	return g.semanticSearch(ctx, question, analysis, limit)
}

func (g *RetrievalGateway) lookupProvision(ctx context.Context, analysis domain.QueryAnalysis) ([]domain.RetrievedCandidate, error) {
	docCodes := []string{"companies_act", "code_13"}
	if analysis.DocHintExplicit && analysis.DocHint != "" {
		docCodes = []string{analysis.DocHint}
	}
	for _, docCode := range docCodes {
		candidates, err := g.index.FetchProvision(ctx, docCode, analysis.ProvisionRef)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			sort.Slice(candidates, func(i, j int) bool {
				return candidates[i].ChunkIndex < candidates[j].ChunkIndex
			})
			return candidates, nil
		}
	}
	return nil, nil
}

func (g *RetrievalGateway) semanticSearch(ctx context.Context, question string, analysis domain.QueryAnalysis, limit int) ([]domain.RetrievedCandidate, error) {
	expanded := ExpandQuery(question, analysis)
	vector, err := g.embedder.EmbedQuery(ctx, expanded)
	if err != nil {
		return nil, err
	}

	// Only a statute the user named is safe to hard-filter on.
	var filter domain.SearchFilter
	if analysis.DocHintExplicit {
		filter.DocCode = analysis.DocHint
	}

	// Over-fetch so the per-provision merge still fills the limit.
	raw, err := g.index.Search(ctx, vector, limit*2, filter)
	if err != nil {
		return nil, err
	}

	candidates := mergeByProvision(raw)
	rerankByIntent(candidates, analysis)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	if len(candidates) > 0 && candidates[0].Score < g.minTopScore {
		g.log.Debug("top score below retrieval floor",
			slog.Float64("score", candidates[0].Score),
			slog.Float64("floor", g.minTopScore))
		return nil, nil
	}
	return candidates, nil
}

// mergeByProvision keeps the best-scoring chunk per (doc_code, provision)
// pair. The compound key matters: two statutes both have an Article 45.
func mergeByProvision(candidates []domain.RetrievedCandidate) []domain.RetrievedCandidate {
	type provisionKey struct {
		docCode   string
		provision string
	}
	best := make(map[provisionKey]domain.RetrievedCandidate, len(candidates))
	order := make([]provisionKey, 0, len(candidates))
	for _, candidate := range candidates {
		key := provisionKey{candidate.DocCode, candidate.Provision}
		current, seen := best[key]
		if !seen {
			order = append(order, key)
		}
		if !seen || candidate.Score > current.Score {
			best[key] = candidate
		}
	}

	merged := make([]domain.RetrievedCandidate, 0, len(order))
	for _, key := range order {
		merged = append(merged, best[key])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged
}

var intentBoosts = map[domain.QueryIntent]struct {
	terms []string
	boost float64
}{
	domain.IntentDefinition:  {[]string{"means", "for the purposes of this"}, 0.05},
	domain.IntentProcedure:   {[]string{"shall", "procedure", "steps", "application"}, 0.05},
	domain.IntentPenalty:     {[]string{"penalty", "liable", "fine", "offence", "conviction"}, 0.07},
	domain.IntentRequirement: {[]string{"shall", "must", "required", "obligation"}, 0.04},
	domain.IntentTiming:      {[]string{"within", "days", "months", "period", "not later than"}, 0.04},
}

// rerankByIntent nudges scores by lexical cues, in place. Boosts are small
// on purpose: the vector score stays the primary signal.
func rerankByIntent(candidates []domain.RetrievedCandidate, analysis domain.QueryAnalysis) {
	cue, hasCue := intentBoosts[analysis.Intent]
	for i := range candidates {
		content := strings.ToLower(candidates[i].Content)
		if hasCue && containsAny(content, cue.terms) {
			candidates[i].Score += cue.boost
		}
		if analysis.ProvisionRef != "" && strings.EqualFold(candidates[i].Provision, analysis.ProvisionRef) {
			candidates[i].Score += 0.1
		}
		if candidates[i].Score > 1 {
			candidates[i].Score = 1
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
