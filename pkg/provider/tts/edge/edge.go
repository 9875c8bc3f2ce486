// Package edge provides a TTS provider backed by an edge-tts HTTP sidecar.
//
// The sidecar accepts a JSON POST {"text": "..."} and responds with the
// encoded audio clip as the response body. Voice selection is a server-side
// concern; the sidecar is configured with its voice at startup.
package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aitofresh/hana/pkg/provider/tts"
)

const (
	// DefaultEndpoint is the default synthesis URL of a local sidecar.
	DefaultEndpoint = "http://localhost:5000/tts"

	// defaultMIME is assumed when the sidecar omits a Content-Type header.
	// edge-tts produces MP3 by default.
	defaultMIME = "audio/mpeg"

	maxClipSize    = 16 << 20
	errorBodyLimit = 8 << 10
)

// Provider implements tts.Provider against an edge-tts HTTP sidecar.
type Provider struct {
	endpoint string
	client   *http.Client
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithHTTPClient replaces the HTTP client used for synthesis requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// New constructs an edge-tts provider. endpoint is the full synthesis URL;
// when empty, DefaultEndpoint is used.
func New(endpoint string, opts ...Option) *Provider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	p := &Provider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// synthesizeRequest is the JSON body sent to the sidecar.
type synthesizeRequest struct {
	Text string `json:"text"`
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string) (tts.Clip, error) {
	if strings.TrimSpace(text) == "" {
		return tts.Clip{}, fmt.Errorf("edge: text must not be empty")
	}

	payload, err := json.Marshal(synthesizeRequest{Text: text})
	if err != nil {
		return tts.Clip{}, fmt.Errorf("edge: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return tts.Clip{}, fmt.Errorf("edge: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return tts.Clip{}, fmt.Errorf("edge: synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return tts.Clip{}, fmt.Errorf("edge: synthesis failed: %d - %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipSize))
	if err != nil {
		return tts.Clip{}, fmt.Errorf("edge: read clip: %w", err)
	}
	if len(data) == 0 {
		return tts.Clip{}, fmt.Errorf("edge: sidecar returned empty clip")
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = defaultMIME
	}
	return tts.Clip{Data: data, MIME: mimeType}, nil
}

// Healthcheck verifies the synthesis sidecar is reachable.
func (p *Provider) Healthcheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return fmt.Errorf("edge: create healthcheck request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("edge: sidecar unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

var _ tts.Provider = (*Provider)(nil)
