// Package config provides the configuration schema, loader, provider
// registry, and file watcher for the Hana kiosk server.
package config

// LogLevel controls log verbosity for the kiosk server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for the kiosk server.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Assistant AssistantConfig `yaml:"assistant"`
	Settings  SettingsConfig  `yaml:"settings"`
}

// ServerConfig holds network and logging settings for the kiosk server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`
	STT ProviderEntry `yaml:"stt"`
	TTS ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "ollama", "whisper").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "llama3.2").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`

	// Fallbacks lists additional provider entries tried in order when this one
	// fails. Each fallback gets its own circuit breaker.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// AssistantConfig describes the assistant persona presented on the kiosk.
type AssistantConfig struct {
	// Name is the assistant's display name (e.g., "Hana"). Defaults to the
	// name in the knowledge base when empty.
	Name string `yaml:"name"`

	// SystemPrompt overrides the prompt generated from the knowledge base.
	// Leave empty to use the generated prompt.
	SystemPrompt string `yaml:"system_prompt"`

	// KnowledgePath is the path to the restaurant knowledge YAML file.
	// Leave empty to use the built-in knowledge base.
	KnowledgePath string `yaml:"knowledge_path"`
}

// SettingsConfig holds settings persistence options.
type SettingsConfig struct {
	// Path is the SQLite database file for persisted kiosk settings
	// (e.g., "hana-settings.db"). Leave empty to keep settings in memory only.
	Path string `yaml:"path"`
}
