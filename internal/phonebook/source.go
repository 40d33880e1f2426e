package phonebook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxBodyBytes caps a fetched phonebook body.
const maxBodyBytes = 8 << 20

// Source yields raw phonebook CSV bytes.
type Source interface {
	Describe() string
	Fetch(context.Context) ([]byte, error)
}

// HTTPSource fetches a CSV export over HTTP GET.
type HTTPSource struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPSource constructs an HTTP source; a nil client uses http.DefaultClient.
func NewHTTPSource(url string, client *http.Client, timeout time.Duration) (*HTTPSource, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrNoURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: url, client: client, timeout: timeout}, nil
}

// Describe returns the source URL.
func (s *HTTPSource) Describe() string {
	return s.url
}

// Fetch downloads the body. A non-2xx status is an error carrying the status text.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build phonebook request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch phonebook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read phonebook body: %w", err)
	}
	return body, nil
}

// FileSource reads a local CSV file.
type FileSource struct {
	path string
}

// NewFileSource constructs a file source.
func NewFileSource(path string) (*FileSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrNoPath
	}
	return &FileSource{path: path}, nil
}

// Describe returns the file path.
func (s *FileSource) Describe() string {
	return s.path
}

// Path returns the file path.
func (s *FileSource) Path() string {
	return s.path
}

// Fetch reads the whole file.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read phonebook file: %w", err)
	}
	return body, nil
}
