package ollama

import (
	"bytes"
	"encoding/json"
	"log/slog"
)

// Event is a single parsed fragment of an NDJSON chat stream. Exactly one of
// the two forms is produced per event: a content delta (Text non-empty) or a
// completion signal (Done true). A wire record carrying both yields two
// events, content first.
type Event struct {
	// Text is the incremental response text from a record's message.content.
	Text string

	// Done is true when the record carried the server's completion flag.
	Done bool
}

// chatLine is the subset of an Ollama /api/chat stream record the decoder
// cares about. Unknown fields (timings, eval counts) are ignored.
type chatLine struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Decoder splits a streamed NDJSON response body into Events. The stream
// arrives in arbitrarily sized chunks with no alignment to record boundaries,
// so the decoder carries the partial trailing line between Feed calls and
// only parses complete, newline-terminated records. A line that fails to
// parse is counted, logged at debug level, and skipped; one bad line never
// aborts the stream.
//
// Decoder is not safe for concurrent use; each response body gets its own.
type Decoder struct {
	rest      []byte
	malformed int
}

// Feed consumes the next chunk of raw bytes and returns the events parsed
// from every complete line now available. The returned slice is nil when p
// completes no line. Event order is exactly wire order, regardless of how
// the byte stream was fragmented.
func (d *Decoder) Feed(p []byte) []Event {
	if len(p) == 0 {
		return nil
	}
	data := p
	if len(d.rest) > 0 {
		data = append(d.rest, p...)
	}

	var events []Event
	for {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			break
		}
		events = d.decodeLine(data[:nl], events)
		data = data[nl+1:]
	}

	// Keep the unterminated tail for the next Feed.
	d.rest = append(d.rest[:0], data...)
	return events
}

// Finish flushes the decoder at end of stream. The transport may close the
// connection without a trailing newline on the last record, so any carried
// bytes are parsed as a final line. The decoder must not be fed again after
// Finish.
func (d *Decoder) Finish() []Event {
	if len(d.rest) == 0 {
		return nil
	}
	events := d.decodeLine(d.rest, nil)
	d.rest = nil
	return events
}

// Malformed reports how many lines failed to parse and were skipped.
func (d *Decoder) Malformed() int {
	return d.malformed
}

// decodeLine parses one record and appends its events to evs. Blank lines
// are ignored; unparseable lines are counted as malformed and skipped.
func (d *Decoder) decodeLine(line []byte, evs []Event) []Event {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return evs
	}

	var rec chatLine
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		d.malformed++
		slog.Debug("ollama: skipping malformed stream line", "err", err, "line", string(trimmed))
		return evs
	}

	if rec.Message.Content != "" {
		evs = append(evs, Event{Text: rec.Message.Content})
	}
	if rec.Done {
		evs = append(evs, Event{Done: true})
	}
	return evs
}
