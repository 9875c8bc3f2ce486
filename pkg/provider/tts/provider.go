// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider turns a sentence of assistant text into a single encoded
// audio clip. Synthesis is one-shot rather than streaming: kiosk replies are
// short and the playback side needs a complete clip to hand to the browser
// audio element anyway.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Clip is a complete synthesized utterance.
type Clip struct {
	// Data holds the encoded audio bytes.
	Data []byte

	// MIME is the content type of Data (e.g., "audio/mpeg").
	MIME string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize converts text into a playable audio clip. text should be
	// plain prose; callers are responsible for stripping markup first.
	//
	// Returns an error if the provider cannot be reached, rejects the text,
	// or ctx is cancelled before synthesis completes.
	Synthesize(ctx context.Context, text string) (Clip, error)
}
