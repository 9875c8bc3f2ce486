// Package speech implements the vocalization side of a conversation: deciding
// what part of a reply is speakable, choosing an avatar expression for it,
// synthesizing audio, and driving the avatar while the clip plays.
//
// The pipeline runs on its own lifecycle, decoupled from the text stream that
// produced the reply: a new reply or an explicit stop preempts whatever is
// currently being spoken.
package speech

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aitofresh/hana/internal/observe"
	"github.com/aitofresh/hana/pkg/provider/tts"
)

// Avatar is the animated character the pipeline drives. Implementations
// forward these calls to the rendering side.
type Avatar interface {
	// SetExpression switches the avatar's facial expression.
	SetExpression(expr Expression)

	// PlayClip hands a synthesized clip to the avatar for playback with
	// lip-sync. It should not block for the duration of playback.
	PlayClip(clip tts.Clip)

	// Reset stops playback and returns the avatar to its neutral pose.
	Reset()
}

// Pipeline vocalizes finalized replies. Safe for concurrent use; Speak and
// Stop may be called from any goroutine.
type Pipeline struct {
	tts    tts.Provider
	avatar Avatar
	log    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option is a functional option for Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline constructs a Pipeline.
func NewPipeline(provider tts.Provider, avatar Avatar, opts ...Option) *Pipeline {
	p := &Pipeline{
		tts:    provider,
		avatar: avatar,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Speak vocalizes text asynchronously: the reply is cleaned into speakable
// prose, an expression is chosen from its wording, the clip is synthesized,
// and the avatar plays it. A reply with nothing speakable is dropped.
// Any utterance already in progress is stopped first.
func (p *Pipeline) Speak(text string) {
	speakable := Speakable(text)
	if speakable == "" {
		return
	}

	ctx := p.replace()

	go func() {
		sctx, span := observe.StartStageSpan(ctx, observe.SpanSynthesize)
		clip, err := p.tts.Synthesize(sctx, speakable)
		span.End()
		if err != nil {
			if ctx.Err() == nil {
				p.log.Warn("speech synthesis failed", "err", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		p.avatar.SetExpression(AnalyzeEmotion(speakable))
		p.avatar.PlayClip(clip)
	}()
}

// Stop halts the current utterance, if any, and resets the avatar.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.avatar.Reset()
}

// replace cancels any in-flight utterance and installs a fresh context for
// the next one.
func (p *Pipeline) replace() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	return ctx
}
