// Package web serves the kiosk frontend: a WebSocket endpoint that streams
// chat state to the browser and a small REST API for settings and the
// restaurant knowledge base.
//
// The WebSocket protocol is JSON text frames in both directions, plus binary
// frames from the client carrying recorded audio for transcription. Every
// server-to-client frame is an [Event]; every client-to-server text frame is
// a [Command].
package web

// Event types pushed to the browser.
const (
	// EventUser echoes the committed user turn, whether it arrived as a
	// typed command or as a transcribed voice recording.
	EventUser = "user"

	// EventStatus signals a phase change of the current exchange
	// ("thinking" before the first token, "receiving" after).
	EventStatus = "status"

	// EventAssistantDelta carries the full assistant text accumulated so
	// far. The client replaces its rendering on every delta rather than
	// appending, so a dropped frame never corrupts the display.
	EventAssistantDelta = "assistant_delta"

	// EventAssistantFinal closes an exchange. Text holds the committed
	// assistant turn and Outcome one of "ok", "transport_error" or
	// "cancelled".
	EventAssistantFinal = "assistant_final"

	// EventExpression tells the avatar which facial expression to show.
	EventExpression = "expression"

	// EventSpeak delivers a synthesized audio clip, base64-encoded.
	EventSpeak = "speak"

	// EventAvatarReset returns the avatar to its neutral pose and stops
	// any clip that is still playing.
	EventAvatarReset = "avatar_reset"

	// EventError reports a problem outside the chat exchange itself, such
	// as a malformed command or a failed transcription.
	EventError = "error"
)

// Event is a single server-to-client frame. Only the fields relevant to the
// given Type are set.
type Event struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Status     string `json:"status,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	Error      string `json:"error,omitempty"`
	Expression string `json:"expression,omitempty"`
	Audio      string `json:"audio,omitempty"`
	MIME       string `json:"mime,omitempty"`
}

// Command types accepted from the browser.
const (
	// CommandChat submits a user message. Blank text is a no-op.
	CommandChat = "chat"

	// CommandStop interrupts the in-flight response and silences audio.
	CommandStop = "stop"
)

// Command is a single client-to-server text frame.
type Command struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
