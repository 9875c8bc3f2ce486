// Package chat implements the streaming conversation flow between a kiosk
// visitor and the language model: the transcript, the per-exchange session
// state machine, and the presentation contract used to mirror progress to the
// connected client.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/aitofresh/hana/pkg/provider/llm"
)

// State is the lifecycle phase of a Session.
type State int

const (
	// StateIdle means no exchange is in flight.
	StateIdle State = iota

	// StateStreaming means a reply stream is open and being consumed.
	StateStreaming

	// StateFinalizing means the stream has concluded and the outcome is
	// being committed to the transcript and sink.
	StateFinalizing
)

// stopAnnotation is appended to a cancelled reply so the transcript and the
// rendered turn both show the response was stopped early.
const stopAnnotation = " [stopped]"

// ConfigSource supplies the model and system prompt for an exchange. Both are
// read fresh at every Send so settings changes apply to the next turn without
// restarting the session.
type ConfigSource interface {
	ChatModel() string
	SystemPrompt() string
}

// Vocalizer speaks a finalized reply. Speak must not block the caller beyond
// enqueueing; playback runs on the vocalizer's own lifecycle.
type Vocalizer interface {
	Speak(text string)
	Stop()
}

// Session runs streaming exchanges for one conversation. At most one exchange
// is in flight at a time: a Send that arrives while another is streaming
// cancels the prior exchange, waits for its finalization to commit, and then
// proceeds. Cancel may be called from any goroutine.
type Session struct {
	llm        llm.Provider
	transcript *Transcript
	sink       Sink
	cfg        ConfigSource
	voice      Vocalizer
	log        *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// Option is a functional option for Session.
type Option func(*Session)

// WithVocalizer attaches a vocalizer invoked with each speakable reply.
func WithVocalizer(v Vocalizer) Option {
	return func(s *Session) {
		s.voice = v
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// NewSession constructs a Session. provider, transcript, sink, and cfg are
// required.
func NewSession(provider llm.Provider, transcript *Transcript, sink Sink, cfg ConfigSource, opts ...Option) *Session {
	s := &Session{
		llm:        provider,
		transcript: transcript,
		sink:       sink,
		cfg:        cfg,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel stops the in-flight exchange, if any, and halts playback. The
// exchange finishes through its normal finalization path with an
// OutcomeCancelled result. Safe to call at any time from any goroutine.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if s.voice != nil {
		s.voice.Stop()
	}
}

// Send runs one full exchange: append the user turn, stream the reply,
// commit the assistant turn, and hand the result to the vocalizer. It blocks
// until finalization is complete and returns the terminal outcome.
//
// Input that is empty after trimming is a no-op: no transcript change, no
// network call, and an OutcomeOK result with empty text.
func (s *Session) Send(ctx context.Context, userText string) Outcome {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return Outcome{Kind: OutcomeOK}
	}

	runCtx, done := s.acquire(ctx)
	defer s.release(done)

	return s.run(runCtx, userText)
}

// acquire claims the single exchange slot, cancelling and waiting out any
// prior exchange first.
func (s *Session) acquire(ctx context.Context) (context.Context, chan struct{}) {
	s.mu.Lock()
	for s.state != StateIdle {
		cancel, prev := s.cancel, s.done
		s.mu.Unlock()
		cancel()
		<-prev
		s.mu.Lock()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.state = StateStreaming
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()
	return runCtx, done
}

// release returns the session to idle and unblocks waiters.
func (s *Session) release(done chan struct{}) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateIdle
	s.done = nil
	s.mu.Unlock()
	close(done)
}

// run executes the exchange on an already-acquired slot.
func (s *Session) run(ctx context.Context, userText string) Outcome {
	s.transcript.AppendUser(userText)
	s.sink.UserTurn(userText)
	s.sink.Status(StatusThinking)

	req := llm.CompletionRequest{
		Messages:     s.transcript.Messages(),
		SystemPrompt: strings.TrimSpace(s.cfg.SystemPrompt()),
		Model:        s.cfg.ChatModel(),
	}

	var (
		accumulated strings.Builder
		streamErr   error
	)

	ch, err := s.llm.StreamCompletion(ctx, req)
	if err != nil {
		streamErr = err
	} else {
		s.sink.Status(StatusReceiving)
		for chunk := range ch {
			if chunk.Err != nil {
				streamErr = chunk.Err
				break
			}
			if chunk.Text != "" {
				accumulated.WriteString(chunk.Text)
				s.sink.Render(accumulated.String())
			}
			if chunk.Done {
				break
			}
		}
	}

	cancelled := ctx.Err() != nil || errors.Is(streamErr, context.Canceled)

	s.mu.Lock()
	s.state = StateFinalizing
	s.mu.Unlock()

	return s.finalize(accumulated.String(), streamErr, cancelled)
}

// finalize commits the terminal outcome: exactly one assistant transcript
// entry for any exchange that produced text or failed, exactly one sink
// Finalize call, and a vocalization hand-off when the reply is speakable.
func (s *Session) finalize(accumulated string, streamErr error, cancelled bool) Outcome {
	var out Outcome
	switch {
	case cancelled:
		out = Outcome{Kind: OutcomeCancelled, Text: accumulated + stopAnnotation}
	case streamErr != nil:
		out = Outcome{Kind: OutcomeTransportError, Err: streamErr}
		if accumulated != "" {
			out.Text = accumulated
		} else {
			out.Text = "Error: " + streamErr.Error()
		}
	default:
		out = Outcome{Kind: OutcomeOK, Text: accumulated}
	}

	if out.Text != "" || streamErr != nil {
		s.transcript.AppendAssistant(out.Text)
	}

	s.sink.Finalize(out)

	if s.voice != nil && s.speakable(out, accumulated) {
		s.voice.Speak(out.Text)
	}

	s.log.Debug("exchange finished",
		"outcome", out.Kind.String(),
		"chars", len(accumulated),
		"err", streamErr)
	return out
}

// speakable reports whether the outcome should be handed to the vocalizer. A
// cancelled reply is spoken only when real text arrived before the stop; a
// transport error is never spoken.
func (s *Session) speakable(out Outcome, accumulated string) bool {
	switch out.Kind {
	case OutcomeOK:
		return strings.TrimSpace(out.Text) != ""
	case OutcomeCancelled:
		return strings.TrimSpace(accumulated) != ""
	default:
		return false
	}
}
