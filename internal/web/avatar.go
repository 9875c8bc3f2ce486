package web

import (
	"encoding/base64"

	"github.com/aitofresh/hana/internal/speech"
	"github.com/aitofresh/hana/pkg/provider/tts"
)

// eventAvatar drives the browser-side avatar. Expression changes and audio
// clips travel over the same WebSocket as chat events; the client animates
// lip sync locally from the clip it receives.
type eventAvatar struct {
	conn *wsConn
}

var _ speech.Avatar = (*eventAvatar)(nil)

func (a *eventAvatar) SetExpression(e speech.Expression) {
	a.conn.send(Event{Type: EventExpression, Expression: string(e)})
}

func (a *eventAvatar) PlayClip(clip tts.Clip) {
	a.conn.send(Event{
		Type:  EventSpeak,
		Audio: base64.StdEncoding.EncodeToString(clip.Data),
		MIME:  clip.MIME,
	})
}

func (a *eventAvatar) Reset() {
	a.conn.send(Event{Type: EventAvatarReset})
}
