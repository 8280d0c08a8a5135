// Package embeddings turns lecture text into vectors for semantic search.
package embeddings

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/lecturedoc/internal/config"
)

// Embedder generates text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name identifies the model; indexes built with another model are discarded.
	Name() string
}

// FromConfig creates the embedder selected by the search settings.
func FromConfig(cfg config.SearchConfig) (Embedder, error) {
	model := cfg.EmbeddingModel()
	switch cfg.Provider {
	case config.SearchOpenAI:
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("an API key is required for OpenAI embeddings (set OPENAI_API_KEY or search.api_key_env)")
		}
		return NewOpenAIEmbedder(key, model, ""), nil
	case config.SearchOllama:
		return NewOllamaEmbedder(model, cfg.OllamaURL), nil
	case config.SearchGoogle:
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("an API key is required for Google embeddings (set GOOGLE_API_KEY or search.api_key_env)")
		}
		return NewGoogleEmbedder(key, model, ""), nil
	default:
		return nil, fmt.Errorf("search is disabled (search.provider is %q)", cfg.Provider)
	}
}

// QueryEmbedder is implemented by embedders whose models embed search
// queries differently from the documents they are matched against.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ToChromemFunc adapts an Embedder to chromem-go, which embeds one query at
// a time. Documents are embedded in batches before they reach chromem.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	if q, ok := e.(QueryEmbedder); ok {
		return q.EmbedQuery
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("%s returned no embedding", e.Name())
		}
		return results[0], nil
	}
}

// batches splits texts into consecutive chunks of at most size.
func batches(texts []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(texts); i += size {
		out = append(out, texts[i:min(i+size, len(texts))])
	}
	return out
}
