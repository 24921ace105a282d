package downloader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download/ok":
			_, _ = w.Write([]byte("full_name\n"))
		case "/download/pending":
			w.WriteHeader(http.StatusConflict)
		case "/download/gone":
			w.WriteHeader(http.StatusGone)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	d := NewHTTPDownloader()
	ctx := context.Background()

	body, err := d.Download(ctx, srv.URL+"/download/ok")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	data, _ := io.ReadAll(body)
	body.Close()
	if string(data) != "full_name\n" {
		t.Fatalf("unexpected body %q", data)
	}

	if _, err := d.Download(ctx, srv.URL+"/download/pending"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if _, err := d.Download(ctx, srv.URL+"/download/gone"); !errors.Is(err, ErrGone) {
		t.Fatalf("expected ErrGone, got %v", err)
	}
	if _, err := d.Download(ctx, srv.URL+"/download/missing"); err == nil {
		t.Fatal("expected error for 404")
	}
}
