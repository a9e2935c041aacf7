package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lexatlas/statute-crag/internal/core/domain"
	"github.com/lexatlas/statute-crag/internal/infrastructure/resilience"
)

// Client talks to a local Ollama server. All calls run at temperature
// zero, behind a shared rate limiter and a retry/breaker executor.
// Retries live here, not in the pipeline that calls us.
type Client struct {
	baseURL         string
	genModel        string
	embedModel      string
	maxAnswerTokens int
	httpClient      *http.Client
	limiter         *rate.Limiter
	exec            *resilience.Executor
}

type Options struct {
	RequestsPerMinute int
	MaxAnswerTokens   int
	Resilience        resilience.Policy
}

func New(baseURL, genModel, embedModel string, opts Options) *Client {
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 60
	}
	if opts.MaxAnswerTokens <= 0 {
		opts.MaxAnswerTokens = 2000
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		genModel:        genModel,
		embedModel:      embedModel,
		maxAnswerTokens: opts.MaxAnswerTokens,
		httpClient:      &http.Client{Timeout: 120 * time.Second},
		limiter:         rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1),
		exec:            resilience.NewExecutor(opts.Resilience),
	}
}

func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", operation, err)
	}
	err := c.exec.Execute(ctx, operation, func(ctx context.Context) error {
		return c.postJSON(ctx, path, payload, out, operation)
	}, classifyOllamaError)
	return wrapTemporaryIfNeeded(operation, err)
}

func (c *Client) generate(ctx context.Context, operation, prompt string, maxTokens int) (string, error) {
	request := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": 0.0,
			"num_predict": maxTokens,
		},
	}
	var response struct {
		Response string `json:"response"`
	}
	if err := c.call(ctx, operation, "/api/generate", request, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Statutes produce thousands of chunks; batched requests keep each
	// payload within what the embed endpoint handles comfortably.
	const batchSize = 64
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}
	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "embed", "/api/embed", request, &response); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Grader asks the oracle for a one-word relevance verdict per candidate.
type Grader struct {
	client       *Client
	previewChars int
}

func NewGrader(client *Client, previewChars int) *Grader {
	if previewChars <= 0 {
		previewChars = 2000
	}
	return &Grader{client: client, previewChars: previewChars}
}

func (g *Grader) GradeCandidate(ctx context.Context, question string, candidate domain.RetrievedCandidate) (domain.DocumentGrade, error) {
	response, err := g.client.generate(ctx, "grade", buildGradingPrompt(question, candidate, g.previewChars), 50)
	if err != nil {
		return domain.DocumentGrade{}, domain.WrapError(domain.ErrOracle, "grade candidate", err)
	}
	grade, confidence := parseGrade(response)
	return domain.DocumentGrade{
		CandidateID: candidate.ID,
		Grade:       grade,
		Confidence:  confidence,
		Rationale:   response,
	}, nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, evidence []domain.RetrievedCandidate) (string, error) {
	answer, err := g.client.generate(ctx, "generate", buildAnswerPrompt(question, evidence), g.client.maxAnswerTokens)
	if err != nil {
		return "", domain.WrapError(domain.ErrOracle, "generate answer", err)
	}
	return answer, nil
}

type Validator struct {
	client *Client
}

func NewValidator(client *Client) *Validator {
	return &Validator{client: client}
}

// ValidateAnswer returns the parsed oracle self-report. A reply the
// parser cannot read is not an error; it degrades to the conservative
// defaults inside parseValidation.
func (v *Validator) ValidateAnswer(ctx context.Context, answer string, evidence []domain.RetrievedCandidate) (domain.OracleValidation, error) {
	response, err := v.client.generate(ctx, "validate", buildValidationPrompt(answer, evidence), 500)
	if err != nil {
		return domain.OracleValidation{}, domain.WrapError(domain.ErrOracle, "validate answer", err)
	}
	return parseValidation(response), nil
}
