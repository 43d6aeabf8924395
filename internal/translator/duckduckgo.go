package translator

import (
	"bufio"
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

const (
	ddgDefaultStatusURL = "https://duckduckgo.com/duckchat/v1/status"
	ddgDefaultChatURL   = "https://duckduckgo.com/duckchat/v1/chat"
	ddgDefaultModel     = "llama-3-70b"
	ddgVQDHeader        = "x-vqd-4"
)

// DuckDuckGo implements domain.Backend against the DuckDuckGo AI chat
// endpoint. The system instruction and the templated user message are
// concatenated into a single prompt.
type DuckDuckGo struct {
	model     string
	system    string
	userTmpl  string
	statusURL string
	chatURL   string
	client    *http.Client
	logger    *slog.Logger
}

type DuckDuckGoConfig struct {
	Model         string
	SystemMessage string
	UserTemplate  string // must contain {text}
	StatusURL     string // optional; tests point these at a local server
	ChatURL       string
	Client        *http.Client // carries the optional proxy
	Logger        *slog.Logger
}

func NewDuckDuckGo(cfg DuckDuckGoConfig) *DuckDuckGo {
	if cfg.Model == "" {
		cfg.Model = ddgDefaultModel
	}
	if cfg.StatusURL == "" {
		cfg.StatusURL = ddgDefaultStatusURL
	}
	if cfg.ChatURL == "" {
		cfg.ChatURL = ddgDefaultChatURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &DuckDuckGo{
		model:     cfg.Model,
		system:    cfg.SystemMessage,
		userTmpl:  cfg.UserTemplate,
		statusURL: cfg.StatusURL,
		chatURL:   cfg.ChatURL,
		client:    cfg.Client,
		logger:    cfg.Logger,
	}
}

func (d *DuckDuckGo) Name() string        { return "duckduckgo" }
func (d *DuckDuckGo) Label() string       { return "DuckDuckGo" }
func (d *DuckDuckGo) Authoritative() bool { return false }

type ddgRequest struct {
	Model    string       `json:"model"`
	Messages []ddgMessage `json:"messages"`
}

type ddgMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ddgChunk struct {
	Message string `json:"message"`
}

func (d *DuckDuckGo) Translate(ctx context.Context, text string) (*domain.Translation, error) {
	vqd, err := d.fetchVQD(ctx)
	if err != nil {
		return nil, fmt.Errorf("vqd token: %w", err)
	}

	prompt := d.system + " " + expandTemplate(d.userTmpl, text)
	out, err := d.chat(ctx, vqd, prompt)
	if err != nil {
		return nil, err
	}
	return &domain.Translation{Label: d.Label(), Text: strings.TrimSpace(out)}, nil
}

// fetchVQD obtains the per-session token the chat endpoint requires.
func (d *DuckDuckGo) fetchVQD(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", d.statusURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-vqd-accept", "1")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	vqd := resp.Header.Get(ddgVQDHeader)
	if vqd == "" {
		return "", errors.New("missing " + ddgVQDHeader + " header")
	}
	return vqd, nil
}

// chat posts the prompt and concatenates the streamed response chunks.
// The endpoint answers in SSE form: "data: {json}" lines ending in
// "data: [DONE]".
func (d *DuckDuckGo) chat(ctx context.Context, vqd, prompt string) (string, error) {
	body := ddgRequest{
		Model:    d.model,
		Messages: []ddgMessage{{Role: "user", Content: prompt}},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.chatURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ddgVQDHeader, vqd)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var b strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}
		var chunk ddgChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // skip malformed keep-alive chunks
		}
		b.WriteString(chunk.Message)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	if b.Len() == 0 {
		return "", errors.New("empty chat response")
	}
	return b.String(), nil
}
