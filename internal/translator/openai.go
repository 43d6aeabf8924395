package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ctrelay/internal/domain"
)

// OpenAIProvider is one OpenAI-compatible endpoint in the backend's internal
// fallback chain. Several may be configured at once; they are tried in order.
type OpenAIProvider struct {
	APIBase string
	Model   string
	Key     string
}

// OpenAI implements domain.Backend against OpenAI-compatible chat completion
// APIs. It is the only backend with internal multi-provider fallback, and the
// only authoritative one: its success short-circuits the orchestrator chain.
type OpenAI struct {
	providers []OpenAIProvider
	system    string
	userTmpl  string
	client    *http.Client
	logger    *slog.Logger
}

type OpenAIConfig struct {
	Providers     []OpenAIProvider
	SystemMessage string
	UserTemplate  string // must contain {text}
	Client        *http.Client
	Logger        *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &OpenAI{
		providers: cfg.Providers,
		system:    cfg.SystemMessage,
		userTmpl:  cfg.UserTemplate,
		client:    cfg.Client,
		logger:    cfg.Logger,
	}
}

func (o *OpenAI) Name() string        { return "openai" }
func (o *OpenAI) Label() string       { return "OpenAI" }
func (o *OpenAI) Authoritative() bool { return true }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Translate tries each configured provider in order and returns the first
// successful completion, labelled with that provider's model name. Every
// provider fault is logged and skipped; the error is returned only when the
// whole chain is exhausted.
func (o *OpenAI) Translate(ctx context.Context, text string) (*domain.Translation, error) {
	if len(o.providers) == 0 {
		return nil, errors.New("no providers configured")
	}

	user := expandTemplate(o.userTmpl, text)

	var lastErr error
	for i, p := range o.providers {
		out, err := o.complete(ctx, p, user)
		if err != nil {
			lastErr = err
			o.logger.Warn("openai provider failed, trying next",
				"api_base", p.APIBase,
				"model", p.Model,
				"attempt", i+1,
				"err", err,
			)
			continue
		}
		if i > 0 {
			o.logger.Info("openai: used fallback provider", "api_base", p.APIBase, "attempt", i+1)
		}
		return &domain.Translation{Label: p.Model, Text: strings.TrimSpace(out)}, nil
	}
	return nil, fmt.Errorf("all %d openai providers failed: %w", len(o.providers), lastErr)
}

func (o *OpenAI) complete(ctx context.Context, p OpenAIProvider, user string) (string, error) {
	body := chatRequest{
		Model: p.Model,
		Messages: []chatMessage{
			{Role: "system", Content: o.system},
			{Role: "user", Content: user},
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		strings.TrimRight(p.APIBase, "/")+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("empty choices in response")
	}
	return cr.Choices[0].Message.Content, nil
}
