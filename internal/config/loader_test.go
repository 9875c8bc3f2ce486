package config

import (
	"strings"
	"testing"
)

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	const doc = `
server:
  listen_addr: ":8080"
  log_level: debug
providers:
  llm:
    name: ollama
    base_url: http://localhost:11434
    model: llama3.2
  stt:
    name: whisper
    base_url: http://localhost:5000/stt
  tts:
    name: edge
    base_url: http://localhost:5000/tts
assistant:
  name: Hana
settings:
  path: hana-settings.db
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" || cfg.Server.LogLevel != LogDebug {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Providers.LLM.Name != "ollama" || cfg.Providers.LLM.Model != "llama3.2" {
		t.Errorf("llm = %+v", cfg.Providers.LLM)
	}
	if cfg.Assistant.Name != "Hana" {
		t.Errorf("assistant = %+v", cfg.Assistant)
	}
	if cfg.Settings.Path != "hana-settings.db" {
		t.Errorf("settings = %+v", cfg.Settings)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	const doc = `
server:
  listen_address: ":8080"
providers:
  llm:
    name: ollama
`
	if _, err := LoadFromReader(strings.NewReader(doc)); err == nil {
		t.Fatal("LoadFromReader() error = nil, want unknown field error")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Server:    ServerConfig{LogLevel: "loud"},
		Providers: ProvidersConfig{LLM: ProviderEntry{Name: "ollama"}},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Errorf("Validate() error = %v, want log_level error", err)
	}
}

func TestValidate_MissingLLMProvider(t *testing.T) {
	t.Parallel()

	err := Validate(&Config{})
	if err == nil || !strings.Contains(err.Error(), "providers.llm.name") {
		t.Errorf("Validate() error = %v, want llm provider error", err)
	}
}

func TestValidate_TLSRequiresBothFiles(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Server:    ServerConfig{TLS: &TLSConfig{CertFile: "cert.pem"}},
		Providers: ProvidersConfig{LLM: ProviderEntry{Name: "ollama"}},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "key_file") {
		t.Errorf("Validate() error = %v, want key_file error", err)
	}
}

func TestValidate_MissingKnowledgeFile(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Providers: ProvidersConfig{LLM: ProviderEntry{Name: "ollama"}},
		Assistant: AssistantConfig{KnowledgePath: "does/not/exist.yaml"},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "knowledge_path") {
		t.Errorf("Validate() error = %v, want knowledge_path error", err)
	}
}

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []LogLevel{LogDebug, LogInfo, LogWarn, LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if LogLevel("verbose").IsValid() {
		t.Error("verbose should not be valid")
	}
}
