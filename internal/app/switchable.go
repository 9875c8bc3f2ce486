package app

import (
	"context"
	"sync/atomic"

	"github.com/aitofresh/hana/pkg/provider/llm"
)

// SwitchableLLM is an [llm.Provider] whose backing implementation can be
// swapped at runtime, e.g. when a config reload names a different provider.
// Streams already in flight keep their original provider; new exchanges pick
// up the replacement.
type SwitchableLLM struct {
	v atomic.Value
}

// box gives atomic.Value a single concrete type to store regardless of the
// underlying provider implementation.
type box struct {
	p llm.Provider
}

var _ llm.Provider = (*SwitchableLLM)(nil)

// NewSwitchableLLM returns a handle initially backed by p.
func NewSwitchableLLM(p llm.Provider) *SwitchableLLM {
	s := &SwitchableLLM{}
	s.Store(p)
	return s
}

// Store replaces the backing provider.
func (s *SwitchableLLM) Store(p llm.Provider) {
	s.v.Store(box{p: p})
}

func (s *SwitchableLLM) get() llm.Provider {
	b, ok := s.v.Load().(box)
	if !ok {
		return nil
	}
	return b.p
}

func (s *SwitchableLLM) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	return s.get().StreamCompletion(ctx, req)
}

func (s *SwitchableLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return s.get().Complete(ctx, req)
}
