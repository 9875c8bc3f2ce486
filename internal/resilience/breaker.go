// Package resilience keeps the kiosk answering when a backend goes down.
//
// Every configured provider entry (chat, transcription, synthesis) is guarded
// by a [Breaker]: after enough consecutive failures the entry is taken out of
// rotation for a cooldown period, then re-admitted through a small probe
// budget. [FallbackGroup] walks a primary and its configured fallbacks in
// order, skipping entries whose breaker is open, so a dead Ollama instance
// does not stall every kiosk exchange while a healthy cloud fallback sits
// idle.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aitofresh/hana/internal/observe"
)

// ErrBreakerOpen is returned by [Breaker.Do] while the provider is out of
// rotation and its cooldown has not yet elapsed.
var ErrBreakerOpen = errors.New("resilience: provider breaker open")

// Default breaker tuning. A kiosk exchange is interactive, so the breaker
// trips fast and probes cautiously.
const (
	defaultTripAfter   = 5
	defaultCooldown    = 30 * time.Second
	defaultProbeBudget = 3
)

// BreakerState is the admission mode of a [Breaker].
type BreakerState int

const (
	// BreakerClosed admits every call.
	BreakerClosed BreakerState = iota

	// BreakerOpen rejects every call with [ErrBreakerOpen] until the
	// cooldown elapses.
	BreakerOpen

	// BreakerProbing admits a limited number of calls after the cooldown.
	// Enough successes close the breaker; a single failure re-opens it.
	BreakerProbing
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a [Breaker] for one provider entry.
type BreakerConfig struct {
	// Provider is the configured provider name (e.g. "ollama", "whisper").
	Provider string

	// Kind is the pipeline stage the provider serves: "llm", "stt" or "tts".
	Kind string

	// TripAfter is how many consecutive failures open the breaker.
	// Default: 5.
	TripAfter int

	// Cooldown is how long an open breaker rejects calls before probing.
	// Default: 30s.
	Cooldown time.Duration

	// ProbeBudget is how many probe calls are admitted while probing; that
	// many successes in a row close the breaker. Default: 3.
	ProbeBudget int

	// Logger receives state transition messages. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when set, records a provider error for every failure the
	// breaker observes.
	Metrics *observe.Metrics
}

// Breaker guards one provider entry with the three-state breaker pattern.
type Breaker struct {
	provider    string
	kind        string
	tripAfter   int
	cooldown    time.Duration
	probeBudget int
	log         *slog.Logger
	metrics     *observe.Metrics

	mu        sync.Mutex
	state     BreakerState
	failures  int
	openedAt  time.Time
	probes    int
	probeWins int
}

// NewBreaker creates a [Breaker]. Zero-value tuning fields get defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.TripAfter <= 0 {
		cfg.TripAfter = defaultTripAfter
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.ProbeBudget <= 0 {
		cfg.ProbeBudget = defaultProbeBudget
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Breaker{
		provider:    cfg.Provider,
		kind:        cfg.Kind,
		tripAfter:   cfg.TripAfter,
		cooldown:    cfg.Cooldown,
		probeBudget: cfg.ProbeBudget,
		log:         log.With("provider", cfg.Provider, "kind", cfg.Kind),
		metrics:     cfg.Metrics,
	}
}

// Do runs fn if the breaker admits the call, then folds the result into the
// breaker's state. While open it returns [ErrBreakerOpen] without calling fn.
func (b *Breaker) Do(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	err = fn()
	b.observe(probe, err)
	return err
}

// admit decides whether the next call may proceed and whether it counts as a
// probe.
func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if time.Since(b.openedAt) < b.cooldown {
			return false, ErrBreakerOpen
		}
		b.state = BreakerProbing
		b.probes = 0
		b.probeWins = 0
		b.log.Info("provider breaker probing after cooldown")
	}

	if b.state == BreakerProbing {
		if b.probes >= b.probeBudget {
			return false, ErrBreakerOpen
		}
		b.probes++
		return true, nil
	}
	return false, nil
}

// observe folds a call result into the breaker state.
func (b *Breaker) observe(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if probe {
			b.probeWins++
			if b.probeWins >= b.probeBudget {
				b.state = BreakerClosed
				b.failures = 0
				b.probes = 0
				b.probeWins = 0
				b.log.Info("provider breaker closed after successful probes")
			}
			return
		}
		b.failures = 0
		return
	}

	if b.metrics != nil {
		b.metrics.RecordProviderError(context.Background(), b.provider, b.kind)
	}

	if probe {
		// One failed probe is enough evidence the provider is still down.
		b.state = BreakerOpen
		b.openedAt = time.Now()
		b.log.Warn("provider breaker re-opened by failed probe", "error", err)
		return
	}

	b.failures++
	if b.failures >= b.tripAfter {
		b.state = BreakerOpen
		b.openedAt = time.Now()
		b.log.Warn("provider breaker opened",
			"consecutive_failures", b.failures,
			"error", err)
	}
}

// State reports the breaker's admission mode. An open breaker whose cooldown
// has elapsed reports [BreakerProbing]; the stored transition happens on the
// next [Breaker.Do].
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen && time.Since(b.openedAt) >= b.cooldown {
		return BreakerProbing
	}
	return b.state
}

// Reset forces the breaker back to [BreakerClosed] and clears all counters.
// Used when a config reload replaces the underlying provider client.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = BreakerClosed
	b.failures = 0
	b.probes = 0
	b.probeWins = 0
	b.log.Info("provider breaker reset")
}
