package chat

import (
	"sync"

	"github.com/aitofresh/hana/pkg/provider/llm"
)

// Transcript is the ordered conversation history used as model context. It is
// append-only: turns are never edited, removed, or reordered. The system
// prompt is not stored here; it is supplied fresh on every request so that
// prompt changes take effect immediately.
//
// Safe for concurrent use. Append ordering matches call ordering.
type Transcript struct {
	mu   sync.Mutex
	msgs []llm.Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// AppendUser appends a user turn.
func (t *Transcript) AppendUser(text string) {
	t.append(llm.User(text))
}

// AppendAssistant appends an assistant turn.
func (t *Transcript) AppendAssistant(text string) {
	t.append(llm.Assistant(text))
}

func (t *Transcript) append(m llm.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, m)
}

// Messages returns a snapshot of all turns in order. The returned slice is a
// copy; later appends do not affect it.
func (t *Transcript) Messages() []llm.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]llm.Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}
