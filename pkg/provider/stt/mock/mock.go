// Package mock provides a test double for the stt.Provider interface.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/aitofresh/hana/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// MIME is the content type the caller declared for the audio.
	MIME string
	// Audio holds the audio bytes read from the request.
	Audio []byte
}

// Provider is a mock implementation of stt.Provider. Zero values cause
// Transcribe to return "" and nil.
type Provider struct {
	mu sync.Mutex

	// Text is returned from Transcribe.
	Text string
	// Err, if non-nil, is returned from Transcribe.
	Err error

	// TranscribeCalls records every invocation in order.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call, draining the audio reader, and returns the
// configured Text and Err.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	data, _ := io.ReadAll(audio.Reader)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{
		Ctx:   ctx,
		MIME:  audio.MIME,
		Audio: data,
	})
	return p.Text, p.Err
}

// Calls returns a snapshot of recorded Transcribe calls.
func (p *Provider) Calls() []TranscribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TranscribeCall, len(p.TranscribeCalls))
	copy(out, p.TranscribeCalls)
	return out
}

// Reset clears all recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
}

var _ stt.Provider = (*Provider)(nil)
