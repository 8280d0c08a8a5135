package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
)

const githubAPIVersion = "2022-11-28"

// GistSource reads one file of a GitHub gist through the REST API.
type GistSource struct {
	url  string
	file string
	opts Options
}

// NewGistSource creates a source for file inside the gist at url
// (https://api.github.com/gists/<id>).
func NewGistSource(url, file string, opts Options) *GistSource {
	return &GistSource{url: url, file: file, opts: opts}
}

func (g *GistSource) Location() string { return g.url + "#" + g.file }

type gistResponse struct {
	Files map[string]gistFile `json:"files"`
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
	RawURL    string `json:"raw_url"`
}

// Fetch downloads the gist and decodes the configured file.
func (g *GistSource) Fetch(ctx context.Context, etag string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create gist request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	if g.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.opts.Token)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := g.opts.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, ErrNotModified
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var gist gistResponse
	if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
		return nil, fmt.Errorf("%w: decode gist response: %v", ErrFetch, err)
	}

	f, ok := gist.Files[g.file]
	if !ok {
		return nil, fmt.Errorf("%w: gist has no file %q", catalog.ErrDecode, g.file)
	}

	content := []byte(f.Content)
	if f.Truncated && f.RawURL != "" {
		content, err = g.fetchRaw(ctx, f.RawURL)
		if err != nil {
			return nil, err
		}
	}

	snap, err := Decode(content, g.opts)
	if err != nil {
		return nil, err
	}
	snap.ETag = resp.Header.Get("ETag")
	return snap, nil
}

// fetchRaw downloads a file the API truncated.
func (g *GistSource) fetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create raw request: %w", err)
	}
	resp, err := g.opts.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read raw file: %v", ErrFetch, err)
	}
	return body, nil
}
