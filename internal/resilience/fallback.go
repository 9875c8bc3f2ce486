package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [FallbackGroup] either failed
// or was skipped because its breaker is open.
var ErrAllFailed = errors.New("resilience: all providers failed")

// FallbackConfig is the shared tuning for a [FallbackGroup]. Breaker.Provider
// is overwritten per entry with that entry's configured name.
type FallbackConfig struct {
	Breaker BreakerConfig
}

// guarded pairs one provider value with its breaker.
type guarded[T any] struct {
	name     string
	provider T
	breaker  *Breaker
}

// FallbackGroup holds a primary provider and zero or more fallbacks of the
// same pipeline stage. Calls walk the entries in registration order until one
// succeeds; entries with an open breaker are skipped without being contacted.
//
// Entries must be registered before the group is used; once serving, the
// group is safe for concurrent use.
type FallbackGroup[T any] struct {
	entries []guarded[T]
	cfg     FallbackConfig
	log     *slog.Logger
}

// NewFallbackGroup creates a group with primary as its first entry.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	log := cfg.Breaker.Logger
	if log == nil {
		log = slog.Default()
	}
	fg := &FallbackGroup[T]{cfg: cfg, log: log}
	fg.add(primaryName, primary)
	return fg
}

// AddFallback appends a fallback entry, tried after all earlier entries.
func (fg *FallbackGroup[T]) AddFallback(name string, provider T) {
	fg.add(name, provider)
}

func (fg *FallbackGroup[T]) add(name string, provider T) {
	bcfg := fg.cfg.Breaker
	bcfg.Provider = name
	fg.entries = append(fg.entries, guarded[T]{
		name:     name,
		provider: provider,
		breaker:  NewBreaker(bcfg),
	})
}

// Execute walks the entries with fn until one succeeds.
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, err := ExecuteWithResult(fg, func(p T) (struct{}, error) {
		return struct{}{}, fn(p)
	})
	return err
}

// ExecuteWithResult walks the group's entries with fn until one succeeds and
// returns its result. Open-breaker entries are skipped. When no entry
// succeeds the error wraps [ErrAllFailed] together with the last failure.
//
// A package-level function because Go methods cannot introduce the result
// type parameter.
func ExecuteWithResult[T any, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range fg.entries {
		e := &fg.entries[i]

		var result R
		err := e.breaker.Do(func() error {
			var callErr error
			result, callErr = fn(e.provider)
			return callErr
		})
		if err == nil {
			if i > 0 {
				fg.log.Info("request served by fallback provider",
					"provider", e.name,
					"kind", fg.cfg.Breaker.Kind)
			}
			return result, nil
		}

		lastErr = err
		if errors.Is(err, ErrBreakerOpen) {
			fg.log.Debug("skipping provider with open breaker",
				"provider", e.name,
				"kind", fg.cfg.Breaker.Kind)
			continue
		}
		fg.log.Warn("provider call failed, trying next entry",
			"provider", e.name,
			"kind", fg.cfg.Breaker.Kind,
			"error", err)
	}

	var zero R
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
