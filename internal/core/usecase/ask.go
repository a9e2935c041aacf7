package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lexatlas/statute-crag/internal/core/domain"
	"github.com/lexatlas/statute-crag/internal/core/ports"
)

// AskUseCase runs the corrective answer pipeline: retrieve, grade, filter,
// generate, validate, threshold. Every stage's outcome survives into the
// response so a low-confidence answer can be audited after the fact.
type AskUseCase struct {
	gateway          *RetrievalGateway
	grader           ports.RelevanceGrader
	generator        ports.AnswerGenerator
	validator        ports.AnswerValidator
	threshold        float64
	gradeConcurrency int
	log              *slog.Logger
}

func NewAskUseCase(
	gateway *RetrievalGateway,
	grader ports.RelevanceGrader,
	generator ports.AnswerGenerator,
	validator ports.AnswerValidator,
	threshold float64,
	gradeConcurrency int,
	log *slog.Logger,
) *AskUseCase {
	if gradeConcurrency <= 0 {
		gradeConcurrency = 4
	}
	return &AskUseCase{
		gateway:          gateway,
		grader:           grader,
		generator:        generator,
		validator:        validator,
		threshold:        threshold,
		gradeConcurrency: gradeConcurrency,
		log:              log,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string, limit int) (*domain.PipelineResponse, error) {
	if question == "" {
		return nil, fmt.Errorf("ask: %w: empty question", domain.ErrInvalidInput)
	}

	analysis := AnalyzeQuestion(question)
	candidates, err := uc.gateway.Retrieve(ctx, question, analysis, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	grades, err := uc.gradeAll(ctx, question, candidates)
	if err != nil {
		return nil, fmt.Errorf("grade: %w", err)
	}

	evidence := make([]domain.RetrievedCandidate, 0, len(candidates))
	for i, candidate := range candidates {
		if grades[i].Grade != domain.GradeIrrelevant {
			evidence = append(evidence, candidate)
		}
	}

	if len(evidence) == 0 {
		return uc.insufficientResponse(question, grades), nil
	}

	answer, err := uc.generator.GenerateAnswer(ctx, question, evidence)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	oracle, err := uc.validator.ValidateAnswer(ctx, answer, evidence)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	accuracy := CitationAccuracy(answer, evidence)
	confidence := oracle.Confidence
	if accuracy < confidence {
		confidence = accuracy
	}

	if confidence < uc.threshold {
		uc.log.Info("answer below confidence threshold",
			slog.Float64("confidence", confidence),
			slog.Float64("citation_accuracy", accuracy))
		answer = fmt.Sprintf("[LOW CONFIDENCE - %.2f] %s", confidence, answer)
	}

	return &domain.PipelineResponse{
		Question:   question,
		Answer:     answer,
		Confidence: confidence,
		Grounded:   oracle.Grounded,
		Sources:    evidence,
		Validation: domain.ValidationResult{
			Grounded:         oracle.Grounded,
			Confidence:       confidence,
			Issues:           oracle.Issues,
			CitationAccuracy: accuracy,
		},
		Grades: grades,
	}, nil
}

// gradeAll grades every candidate with bounded concurrency, preserving
// candidate order in the result slice.
func (uc *AskUseCase) gradeAll(ctx context.Context, question string, candidates []domain.RetrievedCandidate) ([]domain.DocumentGrade, error) {
	grades := make([]domain.DocumentGrade, len(candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uc.gradeConcurrency)
	for i, candidate := range candidates {
		group.Go(func() error {
			grade, err := uc.grader.GradeCandidate(groupCtx, question, candidate)
			if err != nil {
				return err
			}
			grades[i] = grade
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return grades, nil
}

// insufficientResponse short-circuits the pipeline without a generation
// call. The audit trail still carries the grades, and the confidence path
// still runs: no citations in the fixed answer yields the 0.5 default.
func (uc *AskUseCase) insufficientResponse(question string, grades []domain.DocumentGrade) *domain.PipelineResponse {
	answer := domain.InsufficientEvidenceAnswer
	accuracy := CitationAccuracy(answer, nil)
	return &domain.PipelineResponse{
		Question:   question,
		Answer:     answer,
		Confidence: accuracy,
		Grounded:   false,
		Sources:    []domain.RetrievedCandidate{},
		Validation: domain.ValidationResult{
			Grounded:         false,
			Confidence:       accuracy,
			Issues:           []string{"no relevant provisions survived grading"},
			CitationAccuracy: accuracy,
		},
		Grades: grades,
	}
}

// SearchUseCase exposes graded-free retrieval for the search endpoint and
// the MCP tool surface.
type SearchUseCase struct {
	gateway *RetrievalGateway
}

func NewSearchUseCase(gateway *RetrievalGateway) *SearchUseCase {
	return &SearchUseCase{gateway: gateway}
}

func (uc *SearchUseCase) Search(ctx context.Context, question string, limit int) ([]domain.RetrievedCandidate, domain.QueryAnalysis, error) {
	if question == "" {
		return nil, domain.QueryAnalysis{}, fmt.Errorf("search: %w: empty question", domain.ErrInvalidInput)
	}
	analysis := AnalyzeQuestion(question)
	candidates, err := uc.gateway.Retrieve(ctx, question, analysis, limit)
	if err != nil {
		return nil, analysis, err
	}
	return candidates, analysis, nil
}
