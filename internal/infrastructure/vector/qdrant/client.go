package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

// Namespace for deterministic point ids. Re-ingesting the same statute
// overwrites its points instead of duplicating them.
var pointNamespace = uuid.MustParse("8f3c1a52-7d0e-4b6a-9c41-2f58d9e0a317")

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) UpsertChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID:     uuid.NewSHA1(pointNamespace, []byte(chunk.ID)).String(),
			Vector: vectors[i],
			Payload: map[string]any{
				"chunk_id":     chunk.ID,
				"doc_code":     chunk.DocCode,
				"document":     chunk.Document,
				"provision":    chunk.Provision,
				"citation":     chunk.Citation,
				"page":         chunk.Page,
				"position":     chunk.Position,
				"chunk_index":  chunk.ChunkIndex,
				"total_chunks": chunk.TotalChunks,
				"content":      chunk.Content,
			},
		})
	}

	reqBody := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	var upsertResp struct{}
	if err := c.do(ctx, http.MethodPut, url, reqBody, &upsertResp, "upsert"); err != nil {
		return err
	}
	return nil
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedCandidate, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter.DocCode != "" {
		reqBody["filter"] = matchFilter("doc_code", filter.DocCode)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	var searchResp struct {
		Result []pointResult `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedCandidate, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, r.toCandidate())
	}
	return out, nil
}

// FetchProvision scrolls every chunk of one provision by exact payload
// match, no vector involved. Score carries the direct-lookup prior.
func (c *Client) FetchProvision(ctx context.Context, docCode, label string) ([]domain.RetrievedCandidate, error) {
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "doc_code", "match": map[string]any{"value": docCode}},
				{"key": "provision", "match": map[string]any{"value": label}},
			},
		},
		"limit":        64,
		"with_payload": true,
	}

	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, c.collection)
	var scrollResp struct {
		Result struct {
			Points []pointResult `json:"points"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, url, reqBody, &scrollResp, "scroll"); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedCandidate, 0, len(scrollResp.Result.Points))
	for _, r := range scrollResp.Result.Points {
		candidate := r.toCandidate()
		candidate.Score = 1.0
		out = append(out, candidate)
	}
	return out, nil
}

func matchFilter(key, value string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{"key": key, "match": map[string]any{"value": value}},
		},
	}
}

type pointResult struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (r pointResult) toCandidate() domain.RetrievedCandidate {
	return domain.RetrievedCandidate{
		ID:         getStringPayload(r.Payload, "chunk_id"),
		Content:    getStringPayload(r.Payload, "content"),
		Provision:  getStringPayload(r.Payload, "provision"),
		DocCode:    getStringPayload(r.Payload, "doc_code"),
		Document:   getStringPayload(r.Payload, "document"),
		Citation:   getStringPayload(r.Payload, "citation"),
		Page:       getIntPayload(r.Payload, "page"),
		ChunkIndex: getIntPayload(r.Payload, "chunk_index"),
		Score:      r.Score,
	}
}

func (c *Client) do(ctx context.Context, method, url string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(respBody)); msg != "" {
			return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(respBody)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
