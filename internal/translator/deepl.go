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

const deeplDefaultEndpoint = "https://api.deepl.com/v2/translate"

// DeepL implements domain.Backend against the DeepL REST API.
// Target language is fixed to English.
type DeepL struct {
	key      string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

type DeepLConfig struct {
	Key      string
	Endpoint string // optional; tests point this at a local server
	Client   *http.Client
	Logger   *slog.Logger
}

func NewDeepL(cfg DeepLConfig) *DeepL {
	if cfg.Endpoint == "" {
		cfg.Endpoint = deeplDefaultEndpoint
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &DeepL{
		key:      cfg.Key,
		endpoint: cfg.Endpoint,
		client:   cfg.Client,
		logger:   cfg.Logger,
	}
}

func (d *DeepL) Name() string        { return "deepl" }
func (d *DeepL) Label() string       { return "DeepL" }
func (d *DeepL) Authoritative() bool { return false }

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate posts the text to the translation endpoint. A missing API key is
// an immediate error with no network call.
func (d *DeepL) Translate(ctx context.Context, text string) (*domain.Translation, error) {
	if d.key == "" {
		return nil, errors.New("api key is not set")
	}

	form := url.Values{}
	form.Set("auth_key", d.key)
	form.Set("text", text)
	form.Set("target_lang", "EN")

	req, err := http.NewRequestWithContext(ctx, "POST", d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var dr deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(dr.Translations) == 0 {
		return nil, errors.New("empty translations in response")
	}
	return &domain.Translation{Label: d.Label(), Text: dr.Translations[0].Text}, nil
}
