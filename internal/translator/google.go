package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"ctrelay/internal/domain"
)

const googleDefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// Google implements domain.Backend against the unauthenticated Google
// Translate web endpoint. No API key; target language is fixed to English.
type Google struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

type GoogleConfig struct {
	Endpoint string // optional; tests point this at a local server
	Client   *http.Client
	Logger   *slog.Logger
}

func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.Endpoint == "" {
		cfg.Endpoint = googleDefaultEndpoint
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Google{
		endpoint: cfg.Endpoint,
		client:   cfg.Client,
		logger:   cfg.Logger,
	}
}

func (g *Google) Name() string        { return "google" }
func (g *Google) Label() string       { return "Google" }
func (g *Google) Authoritative() bool { return false }

func (g *Google) Translate(ctx context.Context, text string) (*domain.Translation, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", "en")
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, "GET", g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	translated, err := parseGoogleResponse(resp.Body)
	if err != nil {
		return nil, err
	}
	return &domain.Translation{Label: g.Label(), Text: translated}, nil
}

// parseGoogleResponse extracts the translated text from the gtx response,
// a nested JSON array of the form [[["translated","original",...],...],...].
// The endpoint splits long inputs into segments; they are concatenated.
func parseGoogleResponse(r io.Reader) (string, error) {
	var payload []any
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("empty response")
	}
	segments, ok := payload[0].([]any)
	if !ok {
		return "", errors.New("unexpected response shape")
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no translated segments in response")
	}
	return b.String(), nil
}
