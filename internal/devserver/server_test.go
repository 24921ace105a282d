package devserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebsiteName(t *testing.T) {
	tests := map[string]string{
		"https://www.acme.io/speakers": "acme",
		"http://events.example.com":    "events",
		"http://localhost:8080/x":      "localhost",
		"not a url":                    "unknown",
	}
	for in, want := range tests {
		if got := WebsiteName(in); got != want {
			t.Errorf("WebsiteName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStartRejectsEmptyURLs(t *testing.T) {
	srv := httptest.NewServer(New(Options{}).Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/scrape_sga", "application/json", strings.NewReader(`{"urls":[]}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDownloadBeforeCompletion(t *testing.T) {
	fake := New(Options{StepsToFinish: 3})
	srv := httptest.NewServer(fake.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/scrape_sga", "application/json", strings.NewReader(`{"urls":["http://a.com"]}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var id string
	fake.mu.Lock()
	for k := range fake.jobs {
		id = k
	}
	fake.mu.Unlock()

	get := func(path string) int {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := get("/download/" + id); code != http.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d", code)
	}
	for i := 0; i < 3; i++ {
		if code := get("/status/" + id); code != http.StatusOK {
			t.Fatalf("status read %d: got %d", i, code)
		}
	}
	if code := get("/download/" + id); code != http.StatusOK {
		t.Fatalf("expected 200 after completion, got %d", code)
	}
	if code := get("/download/nope"); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", code)
	}
	if fake.StatusCalls(id) != 3 {
		t.Fatalf("expected 3 status calls, got %d", fake.StatusCalls(id))
	}
}
