package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// URLSource downloads the document from a plain HTTP location.
type URLSource struct {
	url  string
	opts Options
}

// NewURLSource creates a source for a raw document URL.
func NewURLSource(url string, opts Options) *URLSource {
	return &URLSource{url: url, opts: opts}
}

func (u *URLSource) Location() string { return u.url }

func (u *URLSource) Fetch(ctx context.Context, etag string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if u.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+u.opts.Token)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := u.opts.client().Do(req)
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

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}

	snap, err := Decode(body, u.opts)
	if err != nil {
		return nil, err
	}
	snap.ETag = resp.Header.Get("ETag")
	return snap, nil
}

// FileSource reads the document from disk.
type FileSource struct {
	path string
	opts Options
}

// NewFileSource creates a source for a local document.
func NewFileSource(path string, opts Options) *FileSource {
	return &FileSource{path: path, opts: opts}
}

func (f *FileSource) Location() string { return f.path }

// Fetch reads the file. The ETag is the content fingerprint, so unchanged
// files report ErrNotModified.
func (f *FileSource) Fetch(ctx context.Context, etag string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	snap, err := Decode(body, f.opts)
	if err != nil {
		return nil, err
	}
	snap.ETag = `"` + snap.Fingerprint + `"`
	if etag != "" && etag == snap.ETag {
		return nil, ErrNotModified
	}
	return snap, nil
}
