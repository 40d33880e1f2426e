package phonebook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		_, _ = w.Write([]byte("Taro,0312345678\n"))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, srv.Client(), time.Second)
	if err != nil {
		t.Fatalf("NewHTTPSource() error = %v", err)
	}
	body, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "Taro,0312345678\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if src.Describe() != srv.URL {
		t.Fatalf("Describe() = %q", src.Describe())
	}
}

func TestHTTPSourceNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, nil, 0)
	if err != nil {
		t.Fatalf("NewHTTPSource() error = %v", err)
	}
	_, err = src.Fetch(context.Background())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("Fetch() error = %v, want ErrUnexpectedStatus", err)
	}
}

func TestHTTPSourceTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	src, err := NewHTTPSource(srv.URL, srv.Client(), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewHTTPSource() error = %v", err)
	}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestNewSourcesRequireLocation(t *testing.T) {
	if _, err := NewHTTPSource("  ", nil, 0); !errors.Is(err, ErrNoURL) {
		t.Fatalf("NewHTTPSource() error = %v, want ErrNoURL", err)
	}
	if _, err := NewFileSource(""); !errors.Is(err, ErrNoPath) {
		t.Fatalf("NewFileSource() error = %v, want ErrNoPath", err)
	}
}

func TestFileSourceFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.csv")
	if err := os.WriteFile(path, []byte("Taro,1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	body, err := src.Fetch(context.Background())
	if err != nil || string(body) != "Taro,1\n" {
		t.Fatalf("Fetch() = %q, %v", body, err)
	}

	missing, _ := NewFileSource(filepath.Join(t.TempDir(), "missing.csv"))
	if _, err := missing.Fetch(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing Fetch() error = %v", err)
	}
}
