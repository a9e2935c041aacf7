package chunking

import (
	"strings"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

// Builder slides a token window across a provision. Provisions within the
// budget pass through untouched, which keeps re-chunking byte-for-byte
// idempotent; longer ones are split with a fixed overlap so a fact
// straddling a boundary stays retrievable from both sides.
type Builder struct {
	TokenBudget int
	Overlap     int
}

func NewBuilder(tokenBudget, overlap int) *Builder {
	if tokenBudget <= 0 {
		tokenBudget = 3000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= tokenBudget {
		overlap = tokenBudget / 4
	}
	return &Builder{
		TokenBudget: tokenBudget,
		Overlap:     overlap,
	}
}

// Tokenize is the deterministic token model used for budgeting:
// whitespace-delimited words.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

func (b *Builder) Build(desc domain.DocumentDescriptor, p domain.Provision) []domain.Chunk {
	tokens := Tokenize(p.Text)
	if len(tokens) == 0 {
		return nil
	}

	if len(tokens) <= b.TokenBudget {
		return []domain.Chunk{b.chunk(desc, p, p.Text, len(tokens), 0, 1)}
	}

	windows := b.windows(len(tokens))
	out := make([]domain.Chunk, 0, len(windows))
	for i, w := range windows {
		content := strings.Join(tokens[w[0]:w[1]], " ")
		out = append(out, b.chunk(desc, p, content, w[1]-w[0], i, len(windows)))
	}
	return out
}

// windows advances by budget-overlap per step and stops once the
// remaining tail is within the overlap, so no near-duplicate trailing
// window is emitted.
func (b *Builder) windows(n int) [][2]int {
	var out [][2]int
	start := 0
	for start < n {
		end := start + b.TokenBudget
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
		if end == n {
			break
		}
		start = end - b.Overlap
		if start >= n-b.Overlap {
			break
		}
	}
	return out
}

func (b *Builder) chunk(desc domain.DocumentDescriptor, p domain.Provision, content string, tokenCount, index, total int) domain.Chunk {
	return domain.Chunk{
		ID:          domain.ChunkID(desc, p, index),
		Provision:   p.Label,
		Content:     content,
		TokenCount:  tokenCount,
		ChunkIndex:  index,
		TotalChunks: total,
		Page:        p.Page,
		Position:    p.Position,
		Citation:    domain.CitationString(desc, p.Label),
		DocCode:     desc.DocCode,
		Document:    desc.Title,
	}
}
