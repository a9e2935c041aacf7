package domain

import "fmt"

// Provision is one numbered article or regulation extracted from a statute.
// OrderKey is the monotonic sort key derived from the label ("26A" -> 26.1);
// it is what the segmenter uses to reject out-of-order false positives.
type Provision struct {
	Label    string  `json:"label"`
	OrderKey float64 `json:"order_key"`
	Text     string  `json:"text"`
	Page     int     `json:"page"`
	Position int     `json:"position"`
}

// Chunk is the atomic retrieval unit: a token-bounded slice of one
// provision, carrying enough metadata to cite it without a lookup.
type Chunk struct {
	ID          string `json:"id"`
	Provision   string `json:"provision"`
	Content     string `json:"content"`
	TokenCount  int    `json:"token_count"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Page        int    `json:"page"`
	Position    int    `json:"position"`
	Citation    string `json:"citation"`
	DocCode     string `json:"doc_code"`
	Document    string `json:"document"`
}

// ChunkID builds the deterministic chunk identifier. Identical input text
// always yields identical ids, which makes re-ingestion an idempotent
// upsert instead of a duplicating insert.
func ChunkID(desc DocumentDescriptor, p Provision, chunkIndex int) string {
	return fmt.Sprintf("%s_%s_%s_p%d_pos%d_chunk_%d",
		desc.DocCode, desc.LabelKind, p.Label, p.Page, p.Position, chunkIndex+1)
}

// CitationString renders the canonical citation, e.g.
// "Commercial Code (Cap. 13) Art. 26A".
func CitationString(desc DocumentDescriptor, label string) string {
	return fmt.Sprintf("%s %s %s", desc.Title, desc.CitationLabel, label)
}
