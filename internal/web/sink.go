package web

import (
	"context"

	"github.com/aitofresh/hana/internal/chat"
	"github.com/aitofresh/hana/internal/observe"
)

// eventSink forwards chat session updates to the browser as events.
type eventSink struct {
	conn    *wsConn
	metrics *observe.Metrics
}

var _ chat.Sink = (*eventSink)(nil)

func (s *eventSink) UserTurn(text string) {
	s.conn.send(Event{Type: EventUser, Text: text})
}

func (s *eventSink) Status(status chat.Status) {
	s.conn.send(Event{Type: EventStatus, Status: string(status)})
}

func (s *eventSink) Render(partial string) {
	s.conn.send(Event{Type: EventAssistantDelta, Text: partial})
}

func (s *eventSink) Finalize(out chat.Outcome) {
	evt := Event{
		Type:    EventAssistantFinal,
		Text:    out.Text,
		Outcome: out.Kind.String(),
	}
	if out.Err != nil {
		evt.Error = out.Err.Error()
	}
	s.conn.send(evt)

	if s.metrics != nil {
		s.metrics.RecordExchange(context.Background(), out.Kind.String())
	}
}
