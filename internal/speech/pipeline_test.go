package speech_test

import (
	"sync"
	"testing"
	"time"

	"github.com/aitofresh/hana/internal/speech"
	"github.com/aitofresh/hana/pkg/provider/tts"
	ttsmock "github.com/aitofresh/hana/pkg/provider/tts/mock"
)

// recordingAvatar captures avatar calls in order.
type recordingAvatar struct {
	mu          sync.Mutex
	Expressions []speech.Expression
	Clips       []tts.Clip
	Resets      int
}

func (a *recordingAvatar) SetExpression(expr speech.Expression) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Expressions = append(a.Expressions, expr)
}

func (a *recordingAvatar) PlayClip(clip tts.Clip) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Clips = append(a.Clips, clip)
}

func (a *recordingAvatar) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Resets++
}

func (a *recordingAvatar) clipCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Clips)
}

func TestSpeak_SynthesizesCleanedTextAndDrivesAvatar(t *testing.T) {
	t.Parallel()

	provider := &ttsmock.Provider{
		Clip: tts.Clip{Data: []byte{1, 2, 3}, MIME: "audio/mpeg"},
	}
	avatar := &recordingAvatar{}
	p := speech.NewPipeline(provider, avatar)

	p.Speak("We'd be **happy** to see you!")

	waitFor(t, func() bool { return avatar.clipCount() == 1 })

	calls := provider.Calls()
	if len(calls) != 1 {
		t.Fatalf("synthesize calls = %d, want 1", len(calls))
	}
	if calls[0].Text != "We'd be happy to see you!" {
		t.Errorf("synthesized text = %q, want cleaned prose", calls[0].Text)
	}

	avatar.mu.Lock()
	defer avatar.mu.Unlock()
	if len(avatar.Expressions) != 1 || avatar.Expressions[0] != speech.ExpressionHappy {
		t.Errorf("expressions = %v, want [happy]", avatar.Expressions)
	}
	if len(avatar.Clips) != 1 || len(avatar.Clips[0].Data) != 3 {
		t.Errorf("clips = %v", avatar.Clips)
	}
}

func TestSpeak_NothingSpeakableIsDropped(t *testing.T) {
	t.Parallel()

	provider := &ttsmock.Provider{}
	avatar := &recordingAvatar{}
	p := speech.NewPipeline(provider, avatar)

	p.Speak("   ")
	p.Speak("")

	time.Sleep(20 * time.Millisecond)
	if n := len(provider.Calls()); n != 0 {
		t.Errorf("synthesize calls = %d, want 0", n)
	}
}

func TestStop_ResetsAvatar(t *testing.T) {
	t.Parallel()

	avatar := &recordingAvatar{}
	p := speech.NewPipeline(&ttsmock.Provider{}, avatar)

	p.Stop()

	avatar.mu.Lock()
	defer avatar.mu.Unlock()
	if avatar.Resets != 1 {
		t.Errorf("resets = %d, want 1", avatar.Resets)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
