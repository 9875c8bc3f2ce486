package chat

// Status describes where an in-flight exchange currently is.
type Status string

const (
	// StatusThinking means the request has been sent and the first byte of
	// the reply has not arrived yet.
	StatusThinking Status = "thinking"

	// StatusReceiving means the reply stream is open and deltas are arriving.
	StatusReceiving Status = "receiving"
)

// OutcomeKind classifies how an exchange ended.
type OutcomeKind int

const (
	// OutcomeOK means the stream completed normally.
	OutcomeOK OutcomeKind = iota

	// OutcomeTransportError means the request failed to connect, returned a
	// non-success status, or the stream broke mid-read.
	OutcomeTransportError

	// OutcomeCancelled means the user stopped the reply early. Partial text
	// is preserved and annotated; this is not a failure.
	OutcomeCancelled
)

// String returns a short label for logs.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one exchange.
type Outcome struct {
	// Kind classifies the ending.
	Kind OutcomeKind

	// Text is the assistant turn as recorded in the transcript: the full
	// reply on success, the annotated partial on cancellation, or a
	// formatted error description on transport failure. Empty only when the
	// stream completed without producing any text.
	Text string

	// Err is set for OutcomeTransportError.
	Err error
}

// Sink receives presentation updates for one conversation. A Session calls it
// synchronously from the exchange flow, so updates for one exchange never
// interleave. Implementations should return quickly; slow consumers must
// buffer on their own side.
//
// Every exchange ends with exactly one Finalize call, whatever the outcome,
// so the sink can always re-enable its input controls there.
type Sink interface {
	// UserTurn announces the user message that starts an exchange. It fires
	// before any network activity so the turn renders immediately.
	UserTurn(text string)

	// Status reports a progress change.
	Status(status Status)

	// Render delivers the full accumulated reply so far, not a delta.
	// Re-rendering the whole utterance keeps the consumer stateless.
	Render(partial string)

	// Finalize reports the terminal outcome and re-enables input.
	Finalize(out Outcome)
}
