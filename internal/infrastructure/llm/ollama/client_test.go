package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lexatlas/statute-crag/internal/core/domain"
	"github.com/lexatlas/statute-crag/internal/infrastructure/resilience"
)

func testOptions() Options {
	return Options{
		RequestsPerMinute: 6000,
		Resilience: resilience.Policy{
			RetryMaxAttempts:    2,
			RetryInitialBackoff: time.Millisecond,
			RetryMaxBackoff:     2 * time.Millisecond,
			RetryMultiplier:     2.0,
		},
	}
}

func TestGraderGradeCandidate(t *testing.T) {
	var gotRequest map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "RELEVANT"})
	}))
	defer server.Close()

	client := New(server.URL, "llama3", "nomic-embed-text", testOptions())
	grader := NewGrader(client, 2000)

	candidate := domain.RetrievedCandidate{
		ID:        "chunk-1",
		Content:   "A trader who suspends payment of his debts is in a state of bankruptcy.",
		Provision: "477",
		Citation:  "Art. 477, Commercial Code (Cap. 13)",
	}
	grade, err := grader.GradeCandidate(context.Background(), "when is a trader bankrupt", candidate)
	if err != nil {
		t.Fatal(err)
	}
	if grade.Grade != domain.GradeRelevant || grade.Confidence != 0.95 {
		t.Fatalf("grade = %s/%v, want RELEVANT/0.95", grade.Grade, grade.Confidence)
	}
	if grade.CandidateID != "chunk-1" {
		t.Fatalf("candidate id = %s, want chunk-1", grade.CandidateID)
	}

	if gotRequest["model"] != "llama3" {
		t.Fatalf("model = %v, want llama3", gotRequest["model"])
	}
	if gotRequest["stream"] != false {
		t.Fatal("stream must be disabled")
	}
	prompt, _ := gotRequest["prompt"].(string)
	if !strings.Contains(prompt, "when is a trader bankrupt") || !strings.Contains(prompt, "suspends payment") {
		t.Fatalf("prompt missing question or candidate text: %q", prompt)
	}
	options, _ := gotRequest["options"].(map[string]any)
	if options["temperature"] != 0.0 {
		t.Fatalf("temperature = %v, want 0", options["temperature"])
	}
}

func TestGraderOracleFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	grader := NewGrader(New(server.URL, "llama3", "embed", testOptions()), 2000)
	_, err := grader.GradeCandidate(context.Background(), "q", domain.RetrievedCandidate{ID: "c"})
	if !domain.IsKind(err, domain.ErrOracle) {
		t.Fatalf("err = %v, want ErrOracle", err)
	}
}

func TestClientRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	}))
	defer server.Close()

	client := New(server.URL, "llama3", "embed", testOptions())
	answer, err := client.generate(context.Background(), "generate", "prompt", 100)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "ok" {
		t.Fatalf("answer = %q, want ok", answer)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2 (one retry)", calls.Load())
	}
}

func TestClientDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "llama3", "embed", testOptions())
	_, err := client.generate(context.Background(), "generate", "prompt", 100)
	if err == nil {
		t.Fatal("want error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("client error must not be temporary: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want exactly 1", calls.Load())
	}
}

func TestClientExhaustedRetriesAreTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "llama3", "embed", testOptions())
	_, err := client.generate(context.Background(), "generate", "prompt", 100)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("err = %v, want ErrTemporary after exhausted retries", err)
	}
}

func TestEmbedderBatchesRequests(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %s, want /api/embed", r.URL.Path)
		}
		var request struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatal(err)
		}
		batchSizes = append(batchSizes, len(request.Input))
		embeddings := make([][]float32, len(request.Input))
		for i := range embeddings {
			embeddings[i] = []float32{0.1, 0.2, 0.3}
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3", "nomic-embed-text", testOptions()))
	texts := make([]string, 100)
	for i := range texts {
		texts[i] = "chunk text"
	}
	vectors, err := embedder.Embed(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 100 {
		t.Fatalf("got %d vectors, want 100", len(vectors))
	}
	if len(batchSizes) != 2 || batchSizes[0] != 64 || batchSizes[1] != 36 {
		t.Fatalf("batch sizes = %v, want [64 36]", batchSizes)
	}
}

func TestEmbedderEmptyInput(t *testing.T) {
	embedder := NewEmbedder(New("http://unused", "m", "e", testOptions()))
	vectors, err := embedder.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("got %v/%v, want nil/nil without a request", vectors, err)
	}
}

func TestValidatorParsesSelfReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"response": "GROUNDED: YES\nCONFIDENCE: 0.9\nISSUES: NONE",
		})
	}))
	defer server.Close()

	validator := NewValidator(New(server.URL, "llama3", "embed", testOptions()))
	result, err := validator.ValidateAnswer(context.Background(), "answer", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Grounded || result.Confidence != 0.9 {
		t.Fatalf("result = %+v, want grounded/0.9", result)
	}
}

func TestValidatorUnreadableReplyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": "sure, looks fine to me"})
	}))
	defer server.Close()

	validator := NewValidator(New(server.URL, "llama3", "embed", testOptions()))
	result, err := validator.ValidateAnswer(context.Background(), "answer", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Grounded || result.Confidence != 0.5 {
		t.Fatalf("result = %+v, want conservative defaults", result)
	}
}
