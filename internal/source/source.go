// Package source fetches the published lecture catalog from its host.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
	"github.com/ziadkadry99/lecturedoc/internal/config"
	"github.com/ziadkadry99/lecturedoc/internal/lzstring"
)

var (
	// ErrFetch is returned when the host cannot be reached or answers with an error status.
	ErrFetch = errors.New("source: fetch failed")
	// ErrNotModified is returned when a conditional request matched the caller's ETag.
	ErrNotModified = errors.New("source: not modified")
)

// Snapshot is one decoded copy of the remote catalog.
type Snapshot struct {
	Catalog     *catalog.Catalog
	Raw         []byte // decoded JSON document
	Fingerprint string
	ETag        string
	FetchedAt   time.Time
}

// Fetcher retrieves the current catalog. etag is the validator of the
// caller's copy; when the host confirms it is current, Fetch returns
// ErrNotModified.
type Fetcher interface {
	Fetch(ctx context.Context, etag string) (*Snapshot, error)
	// Location describes where the catalog comes from, for logs.
	Location() string
}

// Options are shared by all fetchers.
type Options struct {
	Encoding config.Encoding
	Names    map[string]string
	Token    string
	Client   *http.Client
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

// New creates the fetcher described by the configuration.
func New(cfg *config.Config) (Fetcher, error) {
	opts := Options{
		Encoding: cfg.Source.Encoding,
		Names:    cfg.Courses,
		Token:    cfg.Source.Token(),
		Client:   &http.Client{Timeout: cfg.Source.Timeout()},
	}
	switch cfg.Source.Kind {
	case config.SourceGist:
		return NewGistSource(cfg.Source.URL, cfg.Source.GistFile, opts), nil
	case config.SourceURL:
		return NewURLSource(cfg.Source.URL, opts), nil
	case config.SourceFile:
		return NewFileSource(cfg.Source.URL, opts), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

// Decode unpacks a published document and parses it into a snapshot.
func Decode(body []byte, opts Options) (*Snapshot, error) {
	raw := body
	if opts.Encoding == config.EncodingLZURI {
		text, err := lzstring.DecompressFromEncodedURIComponent(strings.TrimSpace(string(body)))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", catalog.ErrDecode, err)
		}
		raw = []byte(text)
	}

	cat, err := catalog.Parse(raw, opts.Names)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Catalog:     cat,
		Raw:         raw,
		Fingerprint: cat.Fingerprint(),
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func statusError(resp *http.Response) error {
	return fmt.Errorf("%w: %s returned status %d", ErrFetch, resp.Request.URL.Redacted(), resp.StatusCode)
}
