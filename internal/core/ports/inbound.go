package ports

import (
	"context"
	"io"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

// StatuteIngestor is the inbound contract for document upload orchestration.
type StatuteIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.StatuteDocument, error)
}

// DocumentProcessor is the inbound contract for asynchronous ingestion.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// QuestionService runs the full corrective pipeline for one question.
type QuestionService interface {
	Ask(ctx context.Context, question string, limit int) (*domain.PipelineResponse, error)
}

// SearchService is the retrieval-only surface: analyze, retrieve, merge.
type SearchService interface {
	Search(ctx context.Context, question string, limit int) ([]domain.RetrievedCandidate, domain.QueryAnalysis, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.StatuteDocument, error)
}
