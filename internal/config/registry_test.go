package config

import (
	"errors"
	"testing"

	"github.com/aitofresh/hana/pkg/provider/llm"
	llmmock "github.com/aitofresh/hana/pkg/provider/llm/mock"
)

func TestRegistry_CreateLLM(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var gotEntry ProviderEntry
	r.RegisterLLM("mock", func(entry ProviderEntry) (llm.Provider, error) {
		gotEntry = entry
		return &llmmock.Provider{}, nil
	})

	entry := ProviderEntry{Name: "mock", Model: "llama3.2", BaseURL: "http://localhost:11434"}
	p, err := r.CreateLLM(entry)
	if err != nil {
		t.Fatalf("CreateLLM() error = %v", err)
	}
	if p == nil {
		t.Fatal("CreateLLM() returned nil provider")
	}
	if gotEntry.Model != "llama3.2" || gotEntry.BaseURL != "http://localhost:11434" {
		t.Errorf("factory received entry %+v", gotEntry)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if _, err := r.CreateLLM(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateLLM() error = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateSTT(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateSTT() error = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateTTS(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateTTS() error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_OverwriteRegistration(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterLLM("mock", func(ProviderEntry) (llm.Provider, error) {
		t.Fatal("old factory should have been replaced")
		return nil, nil
	})
	replaced := &llmmock.Provider{}
	r.RegisterLLM("mock", func(ProviderEntry) (llm.Provider, error) {
		return replaced, nil
	})

	p, err := r.CreateLLM(ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateLLM() error = %v", err)
	}
	if p != replaced {
		t.Error("CreateLLM() did not use the replacement factory")
	}
}
