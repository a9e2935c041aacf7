package ports

import (
	"context"
	"io"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

// StatuteRepository persists and reads statute document state.
type StatuteRepository interface {
	Create(ctx context.Context, doc *domain.StatuteDocument) error
	GetByID(ctx context.Context, id string) (*domain.StatuteDocument, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveProcessingResult(ctx context.Context, id string, title, docCode string, provisionCount, chunkCount int) error
}

// ObjectStorage stores source document blobs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.StatuteDocument) (string, error)
}

// DocumentCatalog maps an uploaded filename to its statute descriptor.
type DocumentCatalog interface {
	Resolve(filename string) domain.DocumentDescriptor
}

// Segmenter parses raw statute text into ordered, page-attributed
// provisions. An empty result is valid output, not an error.
type Segmenter interface {
	Segment(text string) []domain.Provision
}

// ChunkBuilder splits one provision into token-bounded chunks.
type ChunkBuilder interface {
	Build(desc domain.DocumentDescriptor, p domain.Provision) []domain.Chunk
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex indexes chunks and performs similarity search.
type VectorIndex interface {
	UpsertChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedCandidate, error)
	FetchProvision(ctx context.Context, docCode, label string) ([]domain.RetrievedCandidate, error)
}

// RelevanceGrader classifies one candidate's relevance to a question.
type RelevanceGrader interface {
	GradeCandidate(ctx context.Context, question string, candidate domain.RetrievedCandidate) (domain.DocumentGrade, error)
}

// AnswerGenerator creates the cited answer from the evidence set.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, evidence []domain.RetrievedCandidate) (string, error)
}

// AnswerValidator asks the oracle whether an answer is grounded in its
// evidence. Malformed oracle output parses to conservative defaults and
// is not an error.
type AnswerValidator interface {
	ValidateAnswer(ctx context.Context, answer string, evidence []domain.RetrievedCandidate) (domain.OracleValidation, error)
}
