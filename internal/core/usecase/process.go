package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexatlas/statute-crag/internal/core/domain"
	"github.com/lexatlas/statute-crag/internal/core/ports"
)

// ProcessStatuteUseCase turns an uploaded statute into indexed chunks:
// extract, resolve descriptor, segment, chunk, embed, index, persist.
type ProcessStatuteUseCase struct {
	repo      ports.StatuteRepository
	extractor ports.TextExtractor
	catalog   ports.DocumentCatalog
	segmenter ports.Segmenter
	chunker   ports.ChunkBuilder
	embedder  ports.Embedder
	index     ports.VectorIndex
	log       *slog.Logger
}

func NewProcessStatuteUseCase(
	repo ports.StatuteRepository,
	extractor ports.TextExtractor,
	catalog ports.DocumentCatalog,
	segmenter ports.Segmenter,
	chunker ports.ChunkBuilder,
	embedder ports.Embedder,
	index ports.VectorIndex,
	log *slog.Logger,
) *ProcessStatuteUseCase {
	return &ProcessStatuteUseCase{
		repo:      repo,
		extractor: extractor,
		catalog:   catalog,
		segmenter: segmenter,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		log:       log,
	}
}

func (uc *ProcessStatuteUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, documentID); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessStatuteUseCase) processPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return err
	}

	desc := uc.catalog.Resolve(doc.Filename)
	provisions := uc.segmenter.Segment(text)

	// A document that yields no provisions is recorded as ready with
	// zero counts, not failed; the source file survives for reupload
	// after a better extraction.
	if len(provisions) == 0 {
		uc.log.Warn("segmentation produced no provisions",
			slog.String("document_id", doc.ID),
			slog.String("doc_code", desc.DocCode))
		return uc.persistResult(ctx, doc.ID, desc, 0, 0)
	}

	chunks := make([]domain.Chunk, 0, len(provisions))
	for _, provision := range provisions {
		chunks = append(chunks, uc.chunker.Build(desc, provision)...)
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return err
	}

	if err := uc.index.UpsertChunks(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks in vector db: %w", err)
	}

	uc.log.Info("statute processed",
		slog.String("document_id", doc.ID),
		slog.String("doc_code", desc.DocCode),
		slog.Int("provisions", len(provisions)),
		slog.Int("chunks", len(chunks)))

	return uc.persistResult(ctx, doc.ID, desc, len(provisions), len(chunks))
}

func (uc *ProcessStatuteUseCase) extractText(ctx context.Context, doc *domain.StatuteDocument) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessStatuteUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessStatuteUseCase) persistResult(ctx context.Context, documentID string, desc domain.DocumentDescriptor, provisionCount, chunkCount int) error {
	if err := uc.repo.SaveProcessingResult(ctx, documentID, desc.Title, desc.DocCode, provisionCount, chunkCount); err != nil {
		return fmt.Errorf("save processing result: %w", err)
	}
	return nil
}

func (uc *ProcessStatuteUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessStatuteUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
