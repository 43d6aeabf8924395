package translator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ddgServer(t *testing.T, vqd string, chunks []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-vqd-accept") != "1" {
			t.Errorf("missing x-vqd-accept header")
		}
		if vqd != "" {
			w.Header().Set(ddgVQDHeader, vqd)
		}
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(ddgVQDHeader); got != vqd {
			t.Errorf("expected vqd %q, got %q", vqd, got)
		}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n")
	})
	return httptest.NewServer(mux)
}

func newDDG(srv *httptest.Server) *DuckDuckGo {
	return NewDuckDuckGo(DuckDuckGoConfig{
		Model:         "llama-3-70b",
		SystemMessage: "translate",
		UserTemplate:  "{text}",
		StatusURL:     srv.URL + "/status",
		ChatURL:       srv.URL + "/chat",
		Logger:        testLogger(),
	})
}

func TestDuckDuckGo_AssemblesStreamedChunks(t *testing.T) {
	srv := ddgServer(t, "vqd-123", []string{
		`{"message":"Hel"}`,
		`{"message":"lo "}`,
		`{"message":"world"}`,
	})
	defer srv.Close()

	tr, err := newDDG(srv).Translate(context.Background(), "привет мир")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Label != "DuckDuckGo" || tr.Text != "Hello world" {
		t.Fatalf("unexpected translation: %+v", tr)
	}
}

func TestDuckDuckGo_SkipsMalformedChunks(t *testing.T) {
	srv := ddgServer(t, "vqd-123", []string{
		`{"message":"ok"}`,
		`not-json`,
		`{"action":"keepalive"}`,
	})
	defer srv.Close()

	tr, err := newDDG(srv).Translate(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Text != "ok" {
		t.Fatalf("expected malformed chunks skipped, got %q", tr.Text)
	}
}

func TestDuckDuckGo_MissingVQDHeader(t *testing.T) {
	srv := ddgServer(t, "", nil)
	defer srv.Close()

	if _, err := newDDG(srv).Translate(context.Background(), "text"); err == nil {
		t.Fatal("expected error when the status endpoint returns no token")
	}
}

func TestDuckDuckGo_EmptyStreamIsError(t *testing.T) {
	srv := ddgServer(t, "vqd-123", nil)
	defer srv.Close()

	if _, err := newDDG(srv).Translate(context.Background(), "text"); err == nil {
		t.Fatal("expected error for an empty chat response")
	}
}
