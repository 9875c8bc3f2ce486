// Package llm defines the Provider interface for chat language-model backends.
//
// An LLM provider wraps a remote or local model API (e.g., a local Ollama
// instance, an OpenAI-compatible server, or any backend reachable through
// any-llm-go) and exposes a uniform streaming interface so the chat session
// controller can run a request/response exchange without coupling to any
// specific SDK or wire protocol.
//
// Implementors must be safe for concurrent use. Channels returned by
// StreamCompletion must be closed by the implementation when the stream ends
// or when the supplied context is cancelled.
package llm

import "context"

// CompletionRequest carries everything the model needs to produce a response.
// Callers should treat a zero-value request as invalid; at minimum Messages
// must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is
	// typically from the "user" role and drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation history. When non-empty, implementors prepend it as a
	// "system"-role message (or use the provider's native system field).
	SystemPrompt string

	// Model overrides the provider's default model for this request. Empty
	// means use whatever model the provider was constructed with. The kiosk
	// re-reads the active model from the settings store on every send, so
	// this travels with the request rather than the provider.
	Model string
}

// Chunk is a single incremental fragment emitted by a streaming completion.
type Chunk struct {
	// Text is the incremental text content of this chunk. May be empty on
	// the terminal chunk.
	Text string

	// Done is set on the chunk that carries the backend's completion signal.
	// A chunk may carry both Text and Done; consumers must process Text
	// before acting on Done.
	Done bool

	// Err reports a failure that occurred after the stream was opened
	// (e.g., the connection dropped mid-response, or the context was
	// cancelled). A chunk with Err set is always the last one sent before
	// the channel closes.
	Err error
}

// Provider is the abstraction over any chat LLM backend.
//
// Implementations must be safe for concurrent use. Each method should
// propagate context cancellation promptly: when ctx is cancelled the method
// must return (or close its channel) as quickly as possible.
type Provider interface {
	// StreamCompletion sends req to the model and returns a read-only channel
	// that emits Chunk values as they arrive. The channel is closed by the
	// implementation when generation finishes, fails, or ctx is cancelled.
	//
	// Callers must drain the channel to avoid goroutine leaks. The initial
	// error return is non-nil only for failures that prevent the stream from
	// starting (unreachable host, non-2xx response, malformed request);
	// failures after that point arrive as a Chunk with Err set.
	//
	// The returned channel must never be nil when error is nil.
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)

	// Complete sends req to the model and waits for the full response text.
	// It is a convenience wrapper around StreamCompletion for callers that do
	// not need incremental output and do not want to manage a channel.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
