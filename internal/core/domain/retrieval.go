package domain

// SearchFilter is a hard constraint on retrieval. DocCode is only set when
// the query explicitly names a statute; heuristic guesses never filter.
type SearchFilter struct {
	DocCode string
}

// RetrievedCandidate is a chunk as it comes back from the similarity
// index, with its score in [0,1].
type RetrievedCandidate struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Provision  string  `json:"provision"`
	DocCode    string  `json:"doc_code"`
	Document   string  `json:"document"`
	Citation   string  `json:"citation"`
	Page       int     `json:"page"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}
