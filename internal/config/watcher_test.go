package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const watcherDoc = `
server:
  listen_addr: ":8080"
providers:
  llm:
    name: ollama
    model: llama3.2
`

const watcherDocUpdated = `
server:
  listen_addr: ":8080"
providers:
  llm:
    name: ollama
    model: qwen2.5
`

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hana.yaml")
	writeConfigFile(t, path, watcherDoc)

	w, err := NewWatcher(path, nil, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if got := w.Current().Providers.LLM.Model; got != "llama3.2" {
		t.Errorf("Current().Providers.LLM.Model = %q", got)
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hana.yaml")
	writeConfigFile(t, path, watcherDoc)

	var (
		mu      sync.Mutex
		changes int
	)
	w, err := NewWatcher(path, func(old, new *Config) {
		mu.Lock()
		defer mu.Unlock()
		changes++
		if old.Providers.LLM.Model != "llama3.2" || new.Providers.LLM.Model != "qwen2.5" {
			t.Errorf("onChange old=%q new=%q", old.Providers.LLM.Model, new.Providers.LLM.Model)
		}
	}, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	// Ensure the mtime moves even on coarse-grained filesystems.
	time.Sleep(20 * time.Millisecond)
	writeConfigFile(t, path, watcherDocUpdated)
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := changes
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if changes == 0 {
		t.Fatal("watcher never reported the change")
	}
	if got := w.Current().Providers.LLM.Model; got != "qwen2.5" {
		t.Errorf("Current().Providers.LLM.Model = %q after reload", got)
	}
}

func TestWatcher_KeepsOldConfigOnInvalidEdit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hana.yaml")
	writeConfigFile(t, path, watcherDoc)

	w, err := NewWatcher(path, nil, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	writeConfigFile(t, path, "server: [not a mapping")
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if got := w.Current().Providers.LLM.Model; got != "llama3.2" {
		t.Errorf("Current() changed after invalid edit: model = %q", got)
	}
}
