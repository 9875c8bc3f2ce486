// Package app wires all Hana subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithSettingsStore, WithKnowledgeBase, etc.). When an option is not
// provided, New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/aitofresh/hana/internal/config"
	"github.com/aitofresh/hana/internal/health"
	"github.com/aitofresh/hana/internal/knowledge"
	"github.com/aitofresh/hana/internal/observe"
	"github.com/aitofresh/hana/internal/settings"
	"github.com/aitofresh/hana/internal/web"
	"github.com/aitofresh/hana/pkg/provider/stt"
	"github.com/aitofresh/hana/pkg/provider/tts"
)

// shutdownGrace is how long Run waits for in-flight HTTP requests after the
// context is cancelled.
const shutdownGrace = 10 * time.Second

// Providers holds one value per provider slot. Nil means the provider is not
// configured. Populated by main.go via the config registry.
type Providers struct {
	LLM *SwitchableLLM
	STT stt.Provider
	TTS tts.Provider
}

// healthchecker is implemented by providers that can probe their backing
// service. Used to build readiness checks.
type healthchecker interface {
	Healthcheck(ctx context.Context) error
}

// App owns all subsystem lifetimes and serves the kiosk backend.
type App struct {
	cfg       *config.Config
	providers *Providers
	registry  *config.Registry

	kb     *knowledge.Base
	store  *settings.Store
	server *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSettingsStore injects a settings store instead of opening one from config.
func WithSettingsStore(s *settings.Store) Option {
	return func(a *App) { a.store = s }
}

// WithKnowledgeBase injects a knowledge base instead of loading one from config.
func WithKnowledgeBase(kb *knowledge.Base) Option {
	return func(a *App) { a.kb = kb }
}

// WithRegistry sets the provider registry used to rebuild providers when the
// config file changes. Without it config reloads only adjust the log level.
func WithRegistry(reg *config.Registry) Option {
	return func(a *App) { a.registry = reg }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option functions
// to inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	if providers.LLM == nil || providers.LLM.get() == nil {
		return nil, fmt.Errorf("app: an LLM provider is required")
	}

	if err := a.initKnowledge(); err != nil {
		return nil, fmt.Errorf("app: init knowledge: %w", err)
	}
	if err := a.initSettings(); err != nil {
		return nil, fmt.Errorf("app: init settings: %w", err)
	}
	a.initHTTP()

	return a, nil
}

// initKnowledge loads the restaurant knowledge base, falling back to the
// built-in AitoFresh data when no file is configured.
func (a *App) initKnowledge() error {
	if a.kb != nil {
		return nil
	}

	path := a.cfg.Assistant.KnowledgePath
	if path == "" {
		a.kb = knowledge.Default()
		slog.Info("using built-in knowledge base", "restaurant", a.kb.Restaurant.Name)
		return nil
	}

	kb, err := knowledge.Load(path)
	if err != nil {
		return err
	}
	a.kb = kb
	slog.Info("loaded knowledge base", "path", path, "topics", len(kb.Topics()))
	return nil
}

// initSettings opens the SQLite settings store.
func (a *App) initSettings() error {
	if a.store != nil {
		return nil
	}

	path := a.cfg.Settings.Path
	if path == "" {
		path = "hana-settings.db"
	}

	store, err := settings.Open(path)
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	return nil
}

// initHTTP assembles the web server, health endpoints and metrics exporter
// into one mux.
func (a *App) initHTTP() {
	assistCfg := &assistantConfig{
		store:         a.store,
		kb:            a.kb,
		defaultModel:  a.cfg.Providers.LLM.Model,
		defaultPrompt: a.cfg.Assistant.SystemPrompt,
	}

	webOpts := []web.Option{
		web.WithKnowledge(a.kb),
		web.WithSettings(a.store),
		web.WithMetrics(observe.DefaultMetrics()),
	}
	if a.providers.STT != nil {
		webOpts = append(webOpts, web.WithSTT(a.providers.STT))
	}
	if a.providers.TTS != nil {
		webOpts = append(webOpts, web.WithTTS(a.providers.TTS))
	}
	ws := web.New(a.providers.LLM, assistCfg, webOpts...)

	mux := http.NewServeMux()
	ws.Register(mux)
	health.New(a.healthCheckers()...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    a.cfg.Server.ListenAddr,
		Handler: observe.Middleware(observe.DefaultMetrics())(mux),
	}
}

// healthCheckers builds one readiness check per subsystem that can be probed.
func (a *App) healthCheckers() []health.Checker {
	checkers := []health.Checker{
		{Name: "settings", Check: a.store.Ping},
	}
	if hc, ok := a.providers.LLM.get().(healthchecker); ok {
		checkers = append(checkers, health.Checker{Name: "llm", Check: hc.Healthcheck})
	}
	if hc, ok := a.providers.STT.(healthchecker); ok {
		checkers = append(checkers, health.Checker{Name: "stt", Check: hc.Healthcheck})
	}
	if hc, ok := a.providers.TTS.(healthchecker); ok {
		checkers = append(checkers, health.Checker{Name: "tts", Check: hc.Healthcheck})
	}
	return checkers
}

// Run serves HTTP and watches the config file for changes. It blocks until
// ctx is cancelled or the server fails, then drains in-flight requests.
func (a *App) Run(ctx context.Context, configPath string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("listening", "addr", a.server.Addr)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})

	g.Go(func() error {
		<-gctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return a.server.Shutdown(drainCtx)
	})

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, a.onConfigChange)
		if err != nil {
			slog.Warn("config watcher disabled", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// onConfigChange applies a live config edit: log level changes take effect
// immediately and a changed LLM entry rebuilds the provider behind the
// switchable handle. STT and TTS changes need a restart because their
// providers are captured by open WebSocket sessions.
func (a *App) onConfigChange(old, next *config.Config) {
	diff := config.Diff(old, next)
	if !diff.Any() {
		return
	}

	if diff.LogLevelChanged {
		slog.Info("log level changed", "level", diff.NewLogLevel)
		LogLevel.Set(SlogLevel(diff.NewLogLevel))
	}

	if diff.LLMChanged {
		if a.registry == nil {
			slog.Warn("llm provider changed but no registry configured; restart to apply")
		} else {
			p, err := a.registry.CreateLLM(next.Providers.LLM)
			if err != nil {
				slog.Error("rebuild llm provider failed; keeping previous", "name", next.Providers.LLM.Name, "error", err)
			} else {
				a.providers.LLM.Store(p)
				slog.Info("llm provider rebuilt", "name", next.Providers.LLM.Name, "model", next.Providers.LLM.Model)
			}
		}
	}

	if diff.STTChanged || diff.TTSChanged {
		slog.Warn("stt/tts provider config changed; restart to apply")
	}

	a.cfg = next
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "error", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
