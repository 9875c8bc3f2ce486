// Package ollama provides an LLM provider backed by the Ollama chat API.
//
// It speaks the native streaming protocol of POST /api/chat: the request is
// {"model": ..., "messages": [...], "stream": true} and the response body is
// a stream of newline-delimited JSON records, each optionally carrying an
// incremental message.content and a done flag. The [Decoder] turns the raw
// body into ordered events; this file handles the HTTP exchange, error
// surfacing, and conversion to [llm.Chunk] values.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aitofresh/hana/pkg/provider/llm"
)

const (
	// DefaultBaseURL is the address of a stock local Ollama install.
	DefaultBaseURL = "http://localhost:11434"

	chatEndpoint = "/api/chat"

	// readBufSize is the size of the buffer used to read the response body.
	// Deliberately small relative to typical records so chunk reassembly in
	// the decoder is exercised constantly, not just under packet loss.
	readBufSize = 4096

	// chunkChanBuf is the buffer depth of the channel returned by
	// StreamCompletion.
	chunkChanBuf = 32

	// errorBodyLimit caps how much of a non-2xx response body is read when
	// extracting the server's error detail.
	errorBodyLimit = 8 << 10
)

// Compile-time assertion that Provider implements llm.Provider.
var _ llm.Provider = (*Provider)(nil)

// StatusError reports a non-2xx response from the chat endpoint. The Detail
// field carries the server-supplied error string when the body contained one.
type StatusError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = "no details"
	}
	return fmt.Sprintf("ollama: chat request failed: %d - %s", e.StatusCode, detail)
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client. The client must not set a
// overall request timeout — streaming responses stay open for the full
// generation; use context cancellation to bound a request instead.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// Provider implements llm.Provider against an Ollama server.
type Provider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New constructs a Provider for the Ollama server at baseURL using model as
// the default model. An empty baseURL falls back to [DefaultBaseURL].
func New(baseURL, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		return nil, errors.New("ollama: model must not be empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// chatRequest is the JSON body sent to /api/chat.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
}

// errorBody is the JSON shape Ollama uses for error responses.
type errorBody struct {
	Error string `json:"error"`
}

// StreamCompletion implements llm.Provider.
//
// A non-2xx response is returned as a *StatusError before any chunk is
// emitted. After the stream opens, transport failures are delivered as a
// final Chunk with Err set. When the server signals done, the provider stops
// reading and closes the body immediately, even if more bytes are in flight.
func (p *Provider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	resp, err := p.openStream(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.Chunk, chunkChanBuf)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		var dec Decoder
		buf := make([]byte, readBufSize)
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				if done := emit(ctx, ch, dec.Feed(buf[:n])); done {
					return
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					// End of transport is a completion in its own right;
					// a done record is not required.
					emit(ctx, ch, dec.Finish())
					return
				}
				select {
				case ch <- llm.Chunk{Err: fmt.Errorf("ollama: read stream: %w", readErr)}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()
	return ch, nil
}

// Complete implements llm.Provider by draining a streaming completion.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	ch, err := p.StreamCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			return sb.String(), chunk.Err
		}
		sb.WriteString(chunk.Text)
	}
	return sb.String(), nil
}

// openStream issues the POST and validates the response status. The caller
// owns resp.Body on success.
func (p *Provider) openStream(ctx context.Context, req llm.CompletionRequest) (*http.Response, error) {
	msgs := req.Messages
	if sys := strings.TrimSpace(req.SystemPrompt); sys != "" {
		msgs = make([]llm.Message, 0, len(req.Messages)+1)
		msgs = append(msgs, llm.System(sys))
		msgs = append(msgs, req.Messages...)
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(chatRequest{Model: model, Messages: msgs, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("ollama: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+chatEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: send request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Detail:     readErrorDetail(resp.Body),
		}
	}
	return resp, nil
}

// readErrorDetail extracts the server's error string from a non-2xx body.
// Falls back to the raw body text when it is not the expected JSON shape.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		return eb.Error
	}
	return strings.TrimSpace(string(raw))
}

// emit forwards decoder events to the chunk channel. It reports true when a
// done event was delivered, at which point the caller must stop reading the
// body — the server may keep the connection open or trail extra bytes.
func emit(ctx context.Context, ch chan<- llm.Chunk, events []Event) (done bool) {
	for _, ev := range events {
		out := llm.Chunk{Text: ev.Text, Done: ev.Done}
		select {
		case ch <- out:
		case <-ctx.Done():
			return true
		}
		if ev.Done {
			return true
		}
	}
	return false
}

// Healthcheck pings the server's version endpoint. Used by the readiness
// probe to report whether the configured chat backend is reachable.
func (p *Provider) Healthcheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("ollama: build healthcheck: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: healthcheck: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
