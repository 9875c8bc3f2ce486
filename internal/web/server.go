package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/aitofresh/hana/internal/chat"
	"github.com/aitofresh/hana/internal/knowledge"
	"github.com/aitofresh/hana/internal/observe"
	"github.com/aitofresh/hana/internal/settings"
	"github.com/aitofresh/hana/internal/speech"
	"github.com/aitofresh/hana/pkg/provider/llm"
	"github.com/aitofresh/hana/pkg/provider/stt"
	"github.com/aitofresh/hana/pkg/provider/tts"
)

// transcribeTimeout bounds a single voice transcription round trip.
const transcribeTimeout = 30 * time.Second

// recordingMIME is what the browser's MediaRecorder produces by default.
const recordingMIME = "audio/webm"

// Server exposes the kiosk's WebSocket endpoint and REST API. Each WebSocket
// connection gets its own transcript, chat session and speech pipeline, so
// multiple kiosk screens can talk to one backend without sharing state.
type Server struct {
	llm     llm.Provider
	stt     stt.Provider
	tts     tts.Provider
	cfg     chat.ConfigSource
	kb      *knowledge.Base
	store   *settings.Store
	metrics *observe.Metrics
	log     *slog.Logger
}

// Option configures a [Server].
type Option func(*Server)

// WithSTT enables voice input. Binary WebSocket frames are transcribed with
// the given provider; without it they are rejected.
func WithSTT(p stt.Provider) Option {
	return func(s *Server) { s.stt = p }
}

// WithTTS enables spoken responses through a per-connection speech pipeline.
func WithTTS(p tts.Provider) Option {
	return func(s *Server) { s.tts = p }
}

// WithKnowledge serves the restaurant knowledge base under /api/knowledge.
func WithKnowledge(kb *knowledge.Base) Option {
	return func(s *Server) { s.kb = kb }
}

// WithSettings serves the persisted settings under /api/settings.
func WithSettings(store *settings.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithMetrics enables instrumentation of connections and exchanges.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// New creates a Server backed by the given chat provider and configuration.
func New(provider llm.Provider, cfg chat.ConfigSource, opts ...Option) *Server {
	s := &Server{
		llm: provider,
		cfg: cfg,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the Server's routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.handleWS)
	if s.stt != nil {
		mux.HandleFunc("POST /api/voice", s.handleVoice)
	}
	if s.store != nil {
		mux.HandleFunc("GET /api/settings", s.handleGetSettings)
		mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	}
	if s.kb != nil {
		mux.HandleFunc("GET /api/knowledge", s.handleKnowledgeTopics)
		mux.HandleFunc("GET /api/knowledge/{topic}", s.handleKnowledgeAnswer)
	}
}

// ── websocket ──────────────────────────────────────────────────────────────────

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}

	log := s.log.With("conn_id", uuid.NewString())
	log.Info("kiosk connected", "remote", r.RemoteAddr)

	if s.metrics != nil {
		s.metrics.ActiveConnections.Add(r.Context(), 1)
		defer s.metrics.ActiveConnections.Add(context.Background(), -1)
	}

	conn := newWSConn(c, log)
	transcript := chat.NewTranscript()
	sink := &eventSink{conn: conn, metrics: s.metrics}

	sessOpts := []chat.Option{chat.WithLogger(log)}
	if s.tts != nil {
		pipeline := speech.NewPipeline(s.tts, &eventAvatar{conn: conn}, speech.WithLogger(log))
		defer pipeline.Stop()
		sessOpts = append(sessOpts, chat.WithVocalizer(pipeline))
	}
	session := chat.NewSession(s.llm, transcript, sink, s.cfg, sessOpts...)
	defer session.Cancel()

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			log.Info("kiosk disconnected", "error", err)
			c.Close(websocket.StatusNormalClosure, "")
			return
		}

		switch typ {
		case websocket.MessageText:
			s.handleCommand(ctx, conn, session, data)
		case websocket.MessageBinary:
			s.handleRecording(ctx, conn, session, data)
		}
	}
}

func (s *Server) handleCommand(ctx context.Context, conn *wsConn, session *chat.Session, data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		conn.send(Event{Type: EventError, Error: "malformed command"})
		return
	}

	switch cmd.Type {
	case CommandChat:
		// Send blocks for the whole exchange and replaces any exchange
		// already in flight, so run it off the read loop.
		go func() {
			sctx, span := observe.StartSpan(ctx, observe.SpanExchange)
			defer span.End()
			session.Send(sctx, cmd.Text)
		}()
	case CommandStop:
		session.Cancel()
	default:
		conn.send(Event{Type: EventError, Error: "unknown command type: " + cmd.Type})
	}
}

func (s *Server) handleRecording(ctx context.Context, conn *wsConn, session *chat.Session, data []byte) {
	if s.stt == nil {
		conn.send(Event{Type: EventError, Error: "voice input is not configured"})
		return
	}

	go func() {
		tctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
		defer cancel()
		tctx, span := observe.StartStageSpan(tctx, observe.SpanTranscribe)
		defer span.End()

		start := time.Now()
		text, err := s.stt.Transcribe(tctx, stt.Audio{
			Reader: bytes.NewReader(data),
			MIME:   recordingMIME,
		})
		if s.metrics != nil {
			s.metrics.STTDuration.Record(tctx, time.Since(start).Seconds())
			status := "ok"
			if err != nil {
				status = "error"
			}
			s.metrics.RecordProviderRequest(tctx, "stt", "stt", status)
		}
		if err != nil {
			conn.log.Warn("transcription failed", "error", err)
			conn.send(Event{Type: EventError, Error: "transcription failed"})
			return
		}
		if strings.TrimSpace(text) == "" {
			conn.send(Event{Type: EventError, Error: "no speech detected"})
			return
		}

		session.Send(ctx, text)
	}()
}

// ── voice api ──────────────────────────────────────────────────────────────────

// maxRecordingBytes caps an uploaded recording. Push-to-talk clips are a few
// hundred KB; anything past this is not speech.
const maxRecordingBytes = 16 << 20

// handleVoice transcribes an uploaded recording and returns the text. Kiosks
// with an open socket send recordings as binary frames instead; this endpoint
// serves clients that only need transcription.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = recordingMIME
	}

	tctx, cancel := context.WithTimeout(r.Context(), transcribeTimeout)
	defer cancel()
	tctx, span := observe.StartStageSpan(tctx, observe.SpanTranscribe)
	defer span.End()

	start := time.Now()
	text, err := s.stt.Transcribe(tctx, stt.Audio{
		Reader: http.MaxBytesReader(w, r.Body, maxRecordingBytes),
		MIME:   mimeType,
	})
	if s.metrics != nil {
		s.metrics.STTDuration.Record(tctx, time.Since(start).Seconds())
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordProviderRequest(tctx, "stt", "stt", status)
	}
	if err != nil {
		s.log.Warn("transcription failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// ── settings api ───────────────────────────────────────────────────────────────

// settableKeys are the only keys the REST API accepts. Anything else in a PUT
// body is rejected so that typos do not silently create orphan rows.
var settableKeys = map[string]bool{
	settings.KeyServerURL:    true,
	settings.KeyChatModel:    true,
	settings.KeySystemPrompt: true,
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.All(r.Context())
	if err != nil {
		s.log.Error("read settings", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	for key := range body {
		if !settableKeys[key] {
			writeJSONError(w, http.StatusBadRequest, "unknown setting: "+key)
			return
		}
	}
	for key, value := range body {
		if err := s.store.Set(r.Context(), key, value); err != nil {
			s.log.Error("write setting", "key", key, "error", err)
			writeJSONError(w, http.StatusInternalServerError, "failed to write settings")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── knowledge api ──────────────────────────────────────────────────────────────

func (s *Server) handleKnowledgeTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"topics": s.kb.Topics()})
}

func (s *Server) handleKnowledgeAnswer(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")
	answer, ok := s.kb.Answer(topic)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown topic: "+topic)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"topic": topic, "answer": answer})
}

// ── helpers ────────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
