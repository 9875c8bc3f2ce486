// Package whisper provides an STT provider backed by a Whisper-compatible
// HTTP transcription server.
//
// The server is expected to accept a multipart/form-data POST with the audio
// file in a single form field and respond with a JSON body of the form
// {"text": "..."}. Both whisper.cpp's server and faster-whisper wrappers
// expose this shape.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/aitofresh/hana/pkg/provider/stt"
)

const (
	// DefaultEndpoint is the default transcription URL of a local server.
	DefaultEndpoint = "http://localhost:5000/stt"

	// defaultFieldName is the multipart form field carrying the audio bytes.
	defaultFieldName = "audio"

	errorBodyLimit = 8 << 10
)

// Provider implements stt.Provider against a Whisper HTTP server.
type Provider struct {
	endpoint  string
	fieldName string
	client    *http.Client
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithHTTPClient replaces the HTTP client used for transcription requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// WithFieldName sets the multipart form field name the server reads the audio
// from. Servers derived from the OpenAI transcription API expect "file".
func WithFieldName(name string) Option {
	return func(p *Provider) {
		p.fieldName = name
	}
}

// New constructs a Whisper STT provider. endpoint is the full transcription
// URL; when empty, DefaultEndpoint is used.
func New(endpoint string, opts ...Option) *Provider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	p := &Provider{
		endpoint:  endpoint,
		fieldName: defaultFieldName,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// transcribeResponse is the JSON body returned by the server.
type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreatePart(partHeader(p.fieldName, audio.MIME))
	if err != nil {
		return "", fmt.Errorf("whisper: create form part: %w", err)
	}
	if _, err := io.Copy(part, audio.Reader); err != nil {
		return "", fmt.Errorf("whisper: read audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return "", fmt.Errorf("whisper: transcription failed: %d - %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("whisper: decode response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

// Healthcheck verifies the transcription server is reachable.
func (p *Provider) Healthcheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return fmt.Errorf("whisper: create healthcheck request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("whisper: server unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

// partHeader builds the multipart part header for the audio upload. The file
// extension follows the MIME type so servers that sniff by name still work.
func partHeader(field, mimeType string) textproto.MIMEHeader {
	ext := ".webm"
	if mimeType != "" {
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, "utterance"+ext))
	if mimeType != "" {
		h.Set("Content-Type", mimeType)
	}
	return h
}

var _ stt.Provider = (*Provider)(nil)
