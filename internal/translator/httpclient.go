package translator

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 60 * time.Second

// NewHTTPClient returns a pooled HTTP client shared by the backends.
// proxyURL may be empty; when set, all requests through this client are
// routed via the proxy.
func NewHTTPClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// expandTemplate interpolates the message text into a user prompt template.
func expandTemplate(tmpl, text string) string {
	return strings.ReplaceAll(tmpl, "{text}", text)
}
