package app

import (
	"context"
	"time"

	"github.com/aitofresh/hana/internal/chat"
	"github.com/aitofresh/hana/internal/knowledge"
	"github.com/aitofresh/hana/internal/settings"
)

// settingsReadTimeout bounds the settings lookup done at the start of every
// exchange.
const settingsReadTimeout = 2 * time.Second

// assistantConfig resolves the chat model and system prompt for each
// exchange. Persisted settings win over the config file; the knowledge base
// provides the prompt when neither names one. Reading per exchange means a
// PUT to /api/settings takes effect on the next message without a restart.
type assistantConfig struct {
	store         *settings.Store
	kb            *knowledge.Base
	defaultModel  string
	defaultPrompt string
}

var _ chat.ConfigSource = (*assistantConfig)(nil)

func (c *assistantConfig) ChatModel() string {
	if v := c.setting(settings.KeyChatModel); v != "" {
		return v
	}
	return c.defaultModel
}

func (c *assistantConfig) SystemPrompt() string {
	if v := c.setting(settings.KeySystemPrompt); v != "" {
		return v
	}
	if c.defaultPrompt != "" {
		return c.defaultPrompt
	}
	if c.kb != nil {
		return c.kb.SystemPrompt()
	}
	return ""
}

func (c *assistantConfig) setting(key string) string {
	if c.store == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), settingsReadTimeout)
	defer cancel()
	v, err := c.store.GetDefault(ctx, key, "")
	if err != nil {
		return ""
	}
	return v
}
