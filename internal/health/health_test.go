package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func passing(_ context.Context) error { return nil }

// kioskCheckers mirrors the checker set the server registers: the settings
// database plus one checker per configured provider backend.
func kioskCheckers(failures map[string]error) []Checker {
	names := []string{"settings", "llm", "stt", "tts"}
	checkers := make([]Checker, 0, len(names))
	for _, name := range names {
		err := failures[name]
		checkers = append(checkers, Checker{
			Name: name,
			Check: func(_ context.Context) error {
				return err
			},
		})
	}
	return checkers
}

func probeReadyz(t *testing.T, h *Handler) (int, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	var body response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode /readyz body: %v", err)
	}
	return rec.Code, body
}

func TestHealthz_AlwaysOK(t *testing.T) {
	h := New(kioskCheckers(map[string]error{
		"llm": errors.New("ollama: connection refused"),
	})...)

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want JSON", ct)
	}
}

func TestReadyz_AllDependenciesHealthy(t *testing.T) {
	h := New(kioskCheckers(nil)...)

	code, body := probeReadyz(t, h)
	if code != http.StatusOK {
		t.Errorf("/readyz status = %d, want %d", code, http.StatusOK)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	for _, name := range []string{"settings", "llm", "stt", "tts"} {
		if body.Checks[name] != "ok" {
			t.Errorf("check %q = %q, want ok", name, body.Checks[name])
		}
	}
}

func TestReadyz_DeadProviderFailsReadiness(t *testing.T) {
	h := New(kioskCheckers(map[string]error{
		"llm": errors.New("ollama: connection refused"),
	})...)

	code, body := probeReadyz(t, h)
	if code != http.StatusServiceUnavailable {
		t.Errorf("/readyz status = %d, want %d", code, http.StatusServiceUnavailable)
	}
	if body.Status != "fail" {
		t.Errorf("status = %q, want fail", body.Status)
	}
	if body.Checks["llm"] != "fail: ollama: connection refused" {
		t.Errorf("llm check = %q", body.Checks["llm"])
	}
	if body.Checks["settings"] != "ok" {
		t.Errorf("settings check = %q, want ok", body.Checks["settings"])
	}
}

func TestReadyz_ReportsEveryFailure(t *testing.T) {
	h := New(kioskCheckers(map[string]error{
		"settings": errors.New("sqlite: database is locked"),
		"tts":      errors.New("edge: 503"),
	})...)

	code, body := probeReadyz(t, h)
	if code != http.StatusServiceUnavailable {
		t.Errorf("/readyz status = %d, want %d", code, http.StatusServiceUnavailable)
	}
	if body.Checks["settings"] != "fail: sqlite: database is locked" {
		t.Errorf("settings check = %q", body.Checks["settings"])
	}
	if body.Checks["tts"] != "fail: edge: 503" {
		t.Errorf("tts check = %q", body.Checks["tts"])
	}
	if body.Checks["llm"] != "ok" {
		t.Errorf("llm check = %q, want ok", body.Checks["llm"])
	}
}

func TestReadyz_NoCheckersIsReady(t *testing.T) {
	code, body := probeReadyz(t, New())
	if code != http.StatusOK {
		t.Errorf("/readyz status = %d, want %d", code, http.StatusOK)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestReadyz_ChecksRunConcurrently(t *testing.T) {
	// Four checkers that each block until all four have started can only
	// finish if they run in parallel.
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var checkers []Checker
	for _, name := range []string{"settings", "llm", "stt", "tts"} {
		checkers = append(checkers, Checker{
			Name: name,
			Check: func(ctx context.Context) error {
				started <- struct{}{}
				select {
				case <-release:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		})
	}
	h := New(checkers...)

	go func() {
		for range 4 {
			<-started
		}
		close(release)
	}()

	doneBy := time.Now().Add(checkTimeout)
	code, _ := probeReadyz(t, h)
	if code != http.StatusOK {
		t.Errorf("/readyz status = %d, want %d", code, http.StatusOK)
	}
	if time.Now().After(doneBy) {
		t.Error("checks did not run concurrently")
	}
}

func TestReadyz_CheckerSeesCancelledRequestContext(t *testing.T) {
	h := New(Checker{
		Name: "settings",
		Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestRegister_MountsBothProbes(t *testing.T) {
	mux := http.NewServeMux()
	New(kioskCheckers(nil)...).Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}
