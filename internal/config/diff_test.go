package config

import "testing"

func baseConfig() *Config {
	return &Config{
		Server: ServerConfig{ListenAddr: ":8080", LogLevel: LogInfo},
		Providers: ProvidersConfig{
			LLM: ProviderEntry{Name: "ollama", Model: "llama3.2"},
			STT: ProviderEntry{Name: "whisper"},
			TTS: ProviderEntry{Name: "edge"},
		},
		Assistant: AssistantConfig{Name: "Hana"},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()

	if d := Diff(baseConfig(), baseConfig()); d.Any() {
		t.Errorf("Diff() = %+v, want no changes", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()

	old, new := baseConfig(), baseConfig()
	new.Server.LogLevel = LogDebug

	d := Diff(old, new)
	if !d.LogLevelChanged || d.NewLogLevel != LogDebug {
		t.Errorf("Diff() = %+v, want log level change to debug", d)
	}
	if d.LLMChanged || d.AssistantChanged {
		t.Errorf("Diff() = %+v, want only log level flagged", d)
	}
}

func TestDiff_ProviderModel(t *testing.T) {
	t.Parallel()

	old, new := baseConfig(), baseConfig()
	new.Providers.LLM.Model = "qwen2.5"

	d := Diff(old, new)
	if !d.LLMChanged {
		t.Errorf("Diff() = %+v, want LLM change", d)
	}
	if d.STTChanged || d.TTSChanged {
		t.Errorf("Diff() = %+v, want STT/TTS unchanged", d)
	}
}

func TestDiff_ProviderOptions(t *testing.T) {
	t.Parallel()

	old, new := baseConfig(), baseConfig()
	new.Providers.TTS.Options = map[string]any{"voice": "en-US-AriaNeural"}

	if d := Diff(old, new); !d.TTSChanged {
		t.Errorf("Diff() = %+v, want TTS change from options", d)
	}
}

func TestDiff_ProviderFallbacks(t *testing.T) {
	t.Parallel()

	old, new := baseConfig(), baseConfig()
	new.Providers.LLM.Fallbacks = []ProviderEntry{{Name: "openai", Model: "gpt-4o-mini"}}

	if d := Diff(old, new); !d.LLMChanged {
		t.Errorf("Diff() = %+v, want LLM change from fallbacks", d)
	}
}

func TestDiff_Assistant(t *testing.T) {
	t.Parallel()

	old, new := baseConfig(), baseConfig()
	new.Assistant.SystemPrompt = "You are extra cheerful today."

	if d := Diff(old, new); !d.AssistantChanged {
		t.Errorf("Diff() = %+v, want assistant change", d)
	}
}
