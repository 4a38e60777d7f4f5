package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxCSVBytes caps how much of a response body is read.
const maxCSVBytes = 32 << 20

// HTTP downloads a CSV over HTTP(S), bypassing intermediary caches so a
// freshly committed file is seen on the next reload.
type HTTP struct {
	url        string
	httpClient *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) Location() string { return h.url }

func (h *HTTP) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("fetch %s: %w", h.url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("fetch %s: status %d", h.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCSVBytes))
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", h.url, err)
	}
	return string(body), nil
}
