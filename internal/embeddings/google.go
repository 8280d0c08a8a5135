package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultGoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	googleBatchSize      = 100

	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// GoogleEmbedder generates embeddings with the Gemini API. Sections are
// embedded as retrieval documents and search text as retrieval queries.
type GoogleEmbedder struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleEmbedder creates a Gemini embedder. baseURL defaults to the
// public v1beta endpoint.
func NewGoogleEmbedder(apiKey, model, baseURL string) *GoogleEmbedder {
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	return &GoogleEmbedder{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

func (e *GoogleEmbedder) Name() string { return "google/" + e.model }

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleEmbedRequest struct {
	Model    string        `json:"model,omitempty"`
	Content  googleContent `json:"content"`
	TaskType string        `json:"taskType"`
}

type googleBatchRequest struct {
	Requests []googleEmbedRequest `json:"requests"`
}

type googleEmbedding struct {
	Values []float32 `json:"values"`
}

type googleEmbedResponse struct {
	Embedding googleEmbedding `json:"embedding"`
}

type googleBatchResponse struct {
	Embeddings []googleEmbedding `json:"embeddings"`
}

// Embed embeds lecture sections with batchEmbedContents.
func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := "models/" + e.model
	all := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, googleBatchSize) {
		req := googleBatchRequest{Requests: make([]googleEmbedRequest, len(batch))}
		for i, text := range batch {
			req.Requests[i] = googleEmbedRequest{
				Model:    model,
				Content:  googleContent{Parts: []googlePart{{Text: text}}},
				TaskType: taskRetrievalDocument,
			}
		}

		var resp googleBatchResponse
		if err := e.post(ctx, "batchEmbedContents", req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("google returned %d embeddings for %d sections", len(resp.Embeddings), len(batch))
		}
		for _, emb := range resp.Embeddings {
			all = append(all, emb.Values)
		}
	}
	return all, nil
}

// EmbedQuery embeds search text with embedContent.
func (e *GoogleEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	req := googleEmbedRequest{
		Content:  googleContent{Parts: []googlePart{{Text: text}}},
		TaskType: taskRetrievalQuery,
	}
	var resp googleEmbedResponse
	if err := e.post(ctx, "embedContent", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("google returned an empty embedding")
	}
	return resp.Embedding.Values, nil
}

func (e *GoogleEmbedder) post(ctx context.Context, method string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal google %s request: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:%s", e.baseURL, url.PathEscape(e.model), method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create google %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("google %s returned status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode google %s response: %w", method, err)
	}
	return nil
}
