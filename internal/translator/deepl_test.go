package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDeepL_MissingKeyNoNetworkCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	b := NewDeepL(DeepLConfig{Endpoint: srv.URL, Logger: testLogger()})
	if _, err := b.Translate(context.Background(), "text"); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if called {
		t.Fatal("expected no network call without an api key")
	}
}

func TestDeepL_TranslatesForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad form: %v", err)
		}
		if r.PostForm.Get("auth_key") != "k" {
			t.Errorf("missing auth_key, got %q", r.PostForm.Get("auth_key"))
		}
		if r.PostForm.Get("target_lang") != "EN" {
			t.Errorf("expected target_lang=EN, got %q", r.PostForm.Get("target_lang"))
		}
		if r.PostForm.Get("text") != "привет" {
			t.Errorf("unexpected text: %q", r.PostForm.Get("text"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"translations": []map[string]string{{"text": "hello"}},
		})
	}))
	defer srv.Close()

	b := NewDeepL(DeepLConfig{Key: "k", Endpoint: srv.URL, Logger: testLogger()})
	tr, err := b.Translate(context.Background(), "привет")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Label != "DeepL" || tr.Text != "hello" {
		t.Fatalf("unexpected translation: %+v", tr)
	}
}

func TestDeepL_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	b := NewDeepL(DeepLConfig{Key: "k", Endpoint: srv.URL, Logger: testLogger()})
	if _, err := b.Translate(context.Background(), "text"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestDeepL_EmptyTranslationsIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"translations": []any{}})
	}))
	defer srv.Close()

	b := NewDeepL(DeepLConfig{Key: "k", Endpoint: srv.URL, Logger: testLogger()})
	if _, err := b.Translate(context.Background(), "text"); err == nil {
		t.Fatal("expected error for empty translations")
	}
}
