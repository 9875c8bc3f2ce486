package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Set(ctx, KeyChatModel, "llama3.2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, KeyChatModel)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "llama3.2" {
		t.Errorf("Get() = %q, want llama3.2", got)
	}
}

func TestSet_Overwrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Set(ctx, KeyServerURL, "http://localhost:11434"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, KeyServerURL, "http://kiosk-llm:11434"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, KeyServerURL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "http://kiosk-llm:11434" {
		t.Errorf("Get() = %q, want the replacement value", got)
	}
}

func TestGet_Missing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestGetDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.GetDefault(ctx, KeySystemPrompt, "You are Hana.")
	if err != nil {
		t.Fatalf("GetDefault() error = %v", err)
	}
	if got != "You are Hana." {
		t.Errorf("GetDefault() = %q, want fallback", got)
	}

	if err := s.Set(ctx, KeySystemPrompt, "custom"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err = s.GetDefault(ctx, KeySystemPrompt, "You are Hana.")
	if err != nil {
		t.Fatalf("GetDefault() error = %v", err)
	}
	if got != "custom" {
		t.Errorf("GetDefault() = %q, want stored value", got)
	}
}

func TestAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	want := map[string]string{
		KeyServerURL: "http://localhost:11434",
		KeyChatModel: "llama3.2",
	}
	for k, v := range want {
		if err := s.Set(ctx, k, v); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("All() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("All()[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Set(ctx, KeyChatModel, "llama3.2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(ctx, KeyChatModel)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got != "llama3.2" {
		t.Errorf("Get() after reopen = %q", got)
	}
}
