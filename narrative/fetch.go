package narrative

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Fetcher loads a node document by id.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*Node, error)
}

// FetchError reports a node document that could not be loaded or parsed.
type FetchError struct {
	ID     string
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("narrative: fetch %q from %s: %v", e.ID, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

var ErrNotFound = errors.New("node not found")

// DocumentName is the file name of a node document.
func DocumentName(id string) string {
	return id + ".json"
}

func checkID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("bad node id %q", id)
	}
	return nil
}

// FSFetcher reads node documents from a directory on disk, falling back to
// an embedded copy.
type FSFetcher struct {
	Dir      string
	Embedded fs.FS
}

func (f *FSFetcher) Fetch(ctx context.Context, id string) (*Node, error) {
	if err := checkID(id); err != nil {
		return nil, &FetchError{ID: id, Source: "fs", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{ID: id, Source: "fs", Err: err}
	}

	data, source, err := f.read(DocumentName(id))
	if err != nil {
		return nil, &FetchError{ID: id, Source: source, Err: err}
	}
	n, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &FetchError{ID: id, Source: source, Err: err}
	}
	return n, nil
}

func (f *FSFetcher) read(name string) ([]byte, string, error) {
	if f.Dir != "" {
		p := filepath.Join(f.Dir, name)
		if data, err := os.ReadFile(p); err == nil {
			return data, p, nil
		}
	}
	if f.Embedded == nil {
		return nil, "fs", ErrNotFound
	}
	data, err := fs.ReadFile(f.Embedded, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "embedded", ErrNotFound
	}
	return data, "embedded", err
}

// HTTPFetcher GETs {BaseURL}/narratives/{id}.json.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

const defaultFetchTimeout = 10 * time.Second

func (f *HTTPFetcher) URL(id string) string {
	return strings.TrimRight(f.BaseURL, "/") + "/narratives/" + url.PathEscape(DocumentName(id))
}

func (f *HTTPFetcher) Fetch(ctx context.Context, id string) (*Node, error) {
	src := f.URL(id)
	if err := checkID(id); err != nil {
		return nil, &FetchError{ID: id, Source: src, Err: err}
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, &FetchError{ID: id, Source: src, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{ID: id, Source: src, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &FetchError{ID: id, Source: src, Err: ErrNotFound}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{ID: id, Source: src, Err: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	n, err := Decode(resp.Body)
	if err != nil {
		return nil, &FetchError{ID: id, Source: src, Err: err}
	}
	return n, nil
}

// CachingFetcher remembers successfully fetched nodes until invalidated.
type CachingFetcher struct {
	inner Fetcher

	mu    sync.Mutex
	nodes map[string]*Node
}

func NewCachingFetcher(inner Fetcher) *CachingFetcher {
	return &CachingFetcher{inner: inner, nodes: make(map[string]*Node)}
}

func (c *CachingFetcher) Fetch(ctx context.Context, id string) (*Node, error) {
	c.mu.Lock()
	n, ok := c.nodes[id]
	c.mu.Unlock()
	if ok {
		return n, nil
	}

	n, err := c.inner.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.nodes[id] = n
	c.mu.Unlock()
	return n, nil
}

// Invalidate drops id from the cache.
func (c *CachingFetcher) Invalidate(id string) {
	c.mu.Lock()
	delete(c.nodes, id)
	c.mu.Unlock()
}
