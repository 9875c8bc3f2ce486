// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription service (e.g., a local Whisper server)
// behind a one-shot interface: the caller hands over a complete recorded
// utterance and receives the recognized text. Kiosk interactions are
// push-to-talk, so whole-utterance transcription is sufficient and keeps
// provider implementations small.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"io"
)

// Audio is a complete recorded utterance ready for transcription.
type Audio struct {
	// Reader supplies the encoded audio bytes. The provider consumes it fully.
	Reader io.Reader

	// MIME is the content type of the encoded audio (e.g., "audio/webm",
	// "audio/wav"). Providers that only accept one format may ignore it.
	MIME string
}

// Provider is the abstraction over any STT backend.
//
// Implementations must be safe for concurrent use; several kiosk connections
// may transcribe at the same time.
type Provider interface {
	// Transcribe converts a complete utterance into text. The returned string
	// may be empty when the provider detects no speech; callers should treat
	// an empty result as "nothing said" rather than an error.
	//
	// Returns an error if the provider cannot be reached, rejects the audio,
	// or ctx is cancelled before the result arrives.
	Transcribe(ctx context.Context, audio Audio) (string, error)
}
