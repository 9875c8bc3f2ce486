package resilience

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aitofresh/hana/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] with automatic failover across multiple
// transcription backends. Each backend has its own circuit breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional transcription provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Transcribe sends the recording to the first healthy provider. The audio is
// buffered up front so that a failed primary does not leave a half-read body
// for the fallbacks.
func (f *STTFallback) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	data, err := io.ReadAll(audio.Reader)
	if err != nil {
		return "", fmt.Errorf("resilience: buffer audio: %w", err)
	}

	return ExecuteWithResult(f.group, func(p stt.Provider) (string, error) {
		return p.Transcribe(ctx, stt.Audio{
			Reader: bytes.NewReader(data),
			MIME:   audio.MIME,
		})
	})
}
