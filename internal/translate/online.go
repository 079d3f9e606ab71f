package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"transcribe-ro/internal/models"
)

// DefaultEndpoint is the public Google Translate endpoint used by the online
// backend.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// Online implements Backend over the rate-limited network translation
// service. A fresh request is issued per attempt; session reuse is limited to
// the HTTP client's connection pool.
type Online struct {
	endpoint string
	client   *http.Client
}

// OnlineOption configures the online backend.
type OnlineOption func(*Online)

// WithEndpoint overrides the service endpoint, for tests.
func WithEndpoint(endpoint string) OnlineOption {
	return func(o *Online) { o.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) OnlineOption {
	return func(o *Online) { o.client = c }
}

// NewOnline creates the online backend with the given request timeout.
func NewOnline(timeout time.Duration, opts ...OnlineOption) *Online {
	o := &Online{
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name identifies the backend variant.
func (o *Online) Name() models.TranslationBackend {
	return models.BackendOnline
}

// Translate issues one translation request. The service auto-detects the
// source language when sourceLang is "auto".
func (o *Online) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", sourceLang)
	q.Set("tl", targetLang)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("online translate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("online translate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return parseResponse(body)
}

// parseResponse extracts the translated text from the service's nested-array
// payload: [[["translated","original",...],...],...].
func parseResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("decode response: empty payload")
	}

	var sentences [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &sentences); err != nil {
		return "", fmt.Errorf("decode sentences: %w", err)
	}

	var out strings.Builder
	for _, s := range sentences {
		if len(s) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(s[0], &part); err != nil {
			continue
		}
		out.WriteString(part)
	}
	return out.String(), nil
}
