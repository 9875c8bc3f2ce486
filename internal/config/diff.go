package config

import "reflect"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// Provider entry changes. A changed provider is rebuilt on the next
	// exchange; in-flight streams keep their old provider.
	LLMChanged bool
	STTChanged bool
	TTSChanged bool

	// Assistant persona changes take effect on the next exchange.
	AssistantChanged bool
}

// Any reports whether the diff contains any change at all.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.LLMChanged || d.STTChanged || d.TTSChanged || d.AssistantChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	d.LLMChanged = !entryEqual(old.Providers.LLM, new.Providers.LLM)
	d.STTChanged = !entryEqual(old.Providers.STT, new.Providers.STT)
	d.TTSChanged = !entryEqual(old.Providers.TTS, new.Providers.TTS)

	if old.Assistant != new.Assistant {
		d.AssistantChanged = true
	}

	return d
}

// entryEqual compares two provider entries including the free-form Options
// map and the fallback chain, which may hold nested values.
func entryEqual(a, b ProviderEntry) bool {
	if a.Name != b.Name || a.APIKey != b.APIKey || a.BaseURL != b.BaseURL || a.Model != b.Model {
		return false
	}
	return reflect.DeepEqual(a.Options, b.Options) && reflect.DeepEqual(a.Fallbacks, b.Fallbacks)
}
