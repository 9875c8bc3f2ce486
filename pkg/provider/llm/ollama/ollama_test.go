package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aitofresh/hana/pkg/provider/llm"
	"github.com/aitofresh/hana/pkg/provider/llm/ollama"
)

// collect drains the chunk channel into text deltas and reports whether a
// done chunk or an error chunk arrived.
func collect(t *testing.T, ch <-chan llm.Chunk) (texts []string, done bool, err error) {
	t.Helper()
	for c := range ch {
		if c.Err != nil {
			return texts, done, c.Err
		}
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
		if c.Done {
			done = true
		}
	}
	return texts, done, nil
}

func TestStreamCompletion_HappyPath(t *testing.T) {
	t.Parallel()

	var gotBody struct {
		Model    string        `json:"model"`
		Messages []llm.Message `json:"messages"`
		Stream   bool          `json:"stream"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message":{"content":"We're"}}` + "\n"))
		w.Write([]byte(`{"message":{"content":" open"}}` + "\n"))
		w.Write([]byte(`{"done":true}` + "\n"))
	}))
	defer srv.Close()

	p, err := ollama.New(srv.URL, "llama3:8b")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ch, err := p.StreamCompletion(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are Hana, the AitoFresh assistant.",
		Messages:     []llm.Message{llm.User("What are your hours?")},
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}

	texts, done, streamErr := collect(t, ch)
	if streamErr != nil {
		t.Fatalf("stream error: %v", streamErr)
	}
	if !done {
		t.Error("done signal not received")
	}
	if got := strings.Join(texts, ""); got != "We're open" {
		t.Errorf("accumulated text: got %q, want %q", got, "We're open")
	}

	// Request body shape.
	if !gotBody.Stream {
		t.Error("stream flag not set on outbound request")
	}
	if gotBody.Model != "llama3:8b" {
		t.Errorf("model: got %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != llm.RoleSystem || gotBody.Messages[1].Role != llm.RoleUser {
		t.Errorf("outbound messages wrong: %+v", gotBody.Messages)
	}
}

func TestStreamCompletion_ModelOverride(t *testing.T) {
	t.Parallel()

	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		w.Write([]byte(`{"done":true}` + "\n"))
	}))
	defer srv.Close()

	p, _ := ollama.New(srv.URL, "llama3:8b")
	ch, err := p.StreamCompletion(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{llm.User("hi")},
		Model:    "mistral:7b",
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	collect(t, ch)

	if gotModel != "mistral:7b" {
		t.Errorf("model override: got %q, want %q", gotModel, "mistral:7b")
	}
}

func TestStreamCompletion_EmptySystemPromptOmitted(t *testing.T) {
	t.Parallel()

	var gotMessages []llm.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []llm.Message `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotMessages = body.Messages
		w.Write([]byte(`{"done":true}` + "\n"))
	}))
	defer srv.Close()

	p, _ := ollama.New(srv.URL, "llama3:8b")
	ch, err := p.StreamCompletion(context.Background(), llm.CompletionRequest{
		SystemPrompt: "   \n\t",
		Messages:     []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	collect(t, ch)

	if len(gotMessages) != 1 || gotMessages[0].Role != llm.RoleUser {
		t.Errorf("blank system prompt must be omitted, got %+v", gotMessages)
	}
}

func TestStreamCompletion_HTTPErrorSurfacesDetail(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	p, _ := ollama.New(srv.URL, "llama3:8b")
	_, err := p.StreamCompletion(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}

	var se *ollama.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error type: got %T, want *StatusError", err)
	}
	if se.StatusCode != http.StatusInternalServerError {
		t.Errorf("status code: got %d", se.StatusCode)
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error message must contain server detail, got %q", err.Error())
	}
}

func TestStreamCompletion_StopsReadingAfterDone(t *testing.T) {
	t.Parallel()

	trailing := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		w.Write([]byte(`{"message":{"content":"done now"},"done":true}` + "\n"))
		f.Flush()
		// Keep sending after the done record; the client must have stopped
		// reading and must not surface any of this.
		select {
		case <-trailing:
		case <-time.After(2 * time.Second):
		}
		w.Write([]byte(`{"message":{"content":"stale"}}` + "\n"))
	}))
	defer srv.Close()
	defer close(trailing)

	p, _ := ollama.New(srv.URL, "llama3:8b")
	ch, err := p.StreamCompletion(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}

	texts, done, streamErr := collect(t, ch)
	if streamErr != nil {
		t.Fatalf("stream error: %v", streamErr)
	}
	if !done {
		t.Error("done signal not received")
	}
	if got := strings.Join(texts, ""); got != "done now" {
		t.Errorf("text after done leaked through: got %q", got)
	}
}

func TestStreamCompletion_EOFWithoutDoneCompletes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Server closes the connection without ever sending done:true.
		w.Write([]byte(`{"message":{"content":"half"}}` + "\n"))
	}))
	defer srv.Close()

	p, _ := ollama.New(srv.URL, "llama3:8b")
	ch, err := p.StreamCompletion(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}

	texts, _, streamErr := collect(t, ch)
	if streamErr != nil {
		t.Fatalf("EOF must be treated as completion, got error: %v", streamErr)
	}
	if got := strings.Join(texts, ""); got != "half" {
		t.Errorf("text: got %q, want %q", got, "half")
	}
}

func TestStreamCompletion_CancelAbortsRead(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		w.Write([]byte(`{"message":{"content":"first"}}` + "\n"))
		f.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p, _ := ollama.New(srv.URL, "llama3:8b")
	ch, err := p.StreamCompletion(ctx, llm.CompletionRequest{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}

	// Read the first delta, then cancel mid-stream.
	first := <-ch
	if first.Text != "first" {
		t.Fatalf("first chunk: got %+v", first)
	}
	cancel()

	// The channel must close promptly after cancellation.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("chunk channel not closed after cancellation")
		}
	}
}

func TestComplete_DrainsStream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"content":"Welcome to "}}` + "\n"))
		w.Write([]byte(`{"message":{"content":"AitoFresh!"},"done":true}` + "\n"))
	}))
	defer srv.Close()

	p, _ := ollama.New(srv.URL, "llama3:8b")
	got, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Welcome to AitoFresh!" {
		t.Errorf("Complete: got %q", got)
	}
}
