package whisper_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aitofresh/hana/pkg/provider/stt"
	"github.com/aitofresh/hana/pkg/provider/stt/whisper"
)

func TestTranscribe_HappyPath(t *testing.T) {
	t.Parallel()

	var (
		gotField string
		gotBody  []byte
		gotMIME  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for field, headers := range r.MultipartForm.File {
			gotField = field
			f, err := headers[0].Open()
			if err != nil {
				t.Fatalf("open form file: %v", err)
			}
			gotBody, _ = io.ReadAll(f)
			f.Close()
			gotMIME = headers[0].Header.Get("Content-Type")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text": "  What are your hours?  "}`)
	}))
	defer srv.Close()

	p := whisper.New(srv.URL)
	text, err := p.Transcribe(context.Background(), stt.Audio{
		Reader: strings.NewReader("fake-webm-bytes"),
		MIME:   "audio/webm",
	})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if text != "What are your hours?" {
		t.Errorf("text = %q, want trimmed transcript", text)
	}
	if gotField != "audio" {
		t.Errorf("form field = %q, want %q", gotField, "audio")
	}
	if string(gotBody) != "fake-webm-bytes" {
		t.Errorf("uploaded audio = %q", gotBody)
	}
	if gotMIME != "audio/webm" {
		t.Errorf("part content type = %q, want audio/webm", gotMIME)
	}
}

func TestTranscribe_CustomFieldName(t *testing.T) {
	t.Parallel()

	var gotField string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for field := range r.MultipartForm.File {
			gotField = field
		}
		io.WriteString(w, `{"text": "ok"}`)
	}))
	defer srv.Close()

	p := whisper.New(srv.URL, whisper.WithFieldName("file"))
	if _, err := p.Transcribe(context.Background(), stt.Audio{Reader: strings.NewReader("x")}); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if gotField != "file" {
		t.Errorf("form field = %q, want %q", gotField, "file")
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := whisper.New(srv.URL)
	_, err := p.Transcribe(context.Background(), stt.Audio{Reader: strings.NewReader("x")})
	if err == nil {
		t.Fatal("Transcribe() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model is loading") {
		t.Errorf("error = %q, want status and detail", err)
	}
}

func TestTranscribe_EmptyResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"text": ""}`)
	}))
	defer srv.Close()

	p := whisper.New(srv.URL)
	text, err := p.Transcribe(context.Background(), stt.Audio{Reader: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}
