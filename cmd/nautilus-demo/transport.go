package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ashita-ai/nautilus/report"
)

// httpTransport POSTs payloads to an OTLP/HTTP collector.
type httpTransport struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func newHTTPTransport(baseURL, userAgent string) *httpTransport {
	return &httpTransport{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *httpTransport) Send(ctx context.Context, p report.Payload) error {
	url := t.baseURL + "/v1/" + string(p.Kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(p.Body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", p.ContentType)
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post %s: status %d", url, resp.StatusCode)
	}
	return nil
}

// writerTransport writes one payload per line.
type writerTransport struct {
	mu sync.Mutex
	w  io.Writer
}

func newWriterTransport(w io.Writer) *writerTransport {
	return &writerTransport{w: w}
}

func (t *writerTransport) Send(_ context.Context, p report.Payload) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.w, "%s %s\n", p.Kind, p.Body); err != nil {
		return fmt.Errorf("write %s payload: %w", p.Kind, err)
	}
	return nil
}
