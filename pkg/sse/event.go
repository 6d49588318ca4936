// Package sse decodes the line-oriented event stream returned by the chat
// backend's send endpoint.
//
// The backend speaks a loose dialect of Server-Sent Events: every event is a
// single line, "data: " lines carry either JSON or raw text, "event:" and
// "id:" envelope lines are ignored, and any other non-empty line is literal
// text. A "data: [DONE]" line terminates the stream.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	dataPrefix  = "data:"
	eventPrefix = "event:"
	idPrefix    = "id:"

	doneMarker = "[DONE]"

	metadataType = "end_metadata"
)

// contentFields are the payload keys that carry emittable text, in priority
// order.
var contentFields = []string{"response", "message", "chunk", "content"}

// documentFields are the keys consulted when the response is a single JSON
// document instead of a stream.
var documentFields = []string{"response", "message", "content"}

// LineKind classifies a single line of the stream.
type LineKind int

const (
	// LineEmpty is a blank (or whitespace-only) line.
	LineEmpty LineKind = iota

	// LineData is a "data:" line carrying a payload.
	LineData

	// LineDone is the terminal "data: [DONE]" marker.
	LineDone

	// LineEnvelope is an "event:" or "id:" line. These are consumed and never
	// emitted.
	LineEnvelope

	// LinePlain is any other non-empty line, emitted as literal text.
	LinePlain
)

func (k LineKind) String() string {
	switch k {
	case LineEmpty:
		return "empty"
	case LineData:
		return "data"
	case LineDone:
		return "done"
	case LineEnvelope:
		return "envelope"
	case LinePlain:
		return "plain"
	default:
		return "unknown"
	}
}

// Line is a single classified line of the stream.
type Line struct {
	Kind LineKind

	// Text is the plain line for LinePlain, with any trailing carriage
	// return removed.
	Text string

	// Payload is set for LineData.
	Payload Payload
}

// PayloadKind tags how a data payload was interpreted.
type PayloadKind int

const (
	// PayloadRaw means the payload was not valid JSON and is kept as text.
	PayloadRaw PayloadKind = iota

	// PayloadParsed means the payload parsed as a JSON value.
	PayloadParsed
)

// Payload is the tagged result of interpreting a data payload: either
// Parsed(value) or Raw(text). Malformed JSON is an ordinary Raw result,
// never an error.
type Payload struct {
	Kind PayloadKind

	// Raw is the trimmed payload text as received.
	Raw string

	value gjson.Result
}

// ParsePayload interprets a data payload as JSON, falling back to raw text.
func ParsePayload(payload string) Payload {
	trimmed := strings.TrimSpace(payload)
	if trimmed != "" && gjson.Valid(trimmed) {
		return Payload{
			Kind:  PayloadParsed,
			Raw:   trimmed,
			value: gjson.Parse(trimmed),
		}
	}

	return Payload{Kind: PayloadRaw, Raw: trimmed}
}

// Text returns the emittable text of the payload with escaped newlines
// normalized. Parsed payloads yield the first non-empty string among the
// content fields; raw payloads yield themselves. The boolean is false when
// nothing should be emitted.
func (p Payload) Text() (string, bool) {
	switch p.Kind {
	case PayloadParsed:
		return p.field(contentFields)
	default:
		if p.Raw == "" {
			return "", false
		}
		return NormalizeNewlines(p.Raw), true
	}
}

// CorrelationID returns the agent_message_id carried by an end_metadata
// payload.
func (p Payload) CorrelationID() (string, bool) {
	if p.Kind != PayloadParsed {
		return "", false
	}

	if p.value.Get("type").String() != metadataType {
		return "", false
	}

	id := p.value.Get("agent_message_id")
	if !id.Exists() || id.String() == "" {
		return "", false
	}

	return id.String(), true
}

func (p Payload) field(keys []string) (string, bool) {
	for _, key := range keys {
		v := p.value.Get(key)
		if v.Type != gjson.String || v.Str == "" {
			continue
		}
		return NormalizeNewlines(v.Str), true
	}
	return "", false
}

// ParseLine classifies one complete line of the stream.
func ParseLine(raw string) Line {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Line{Kind: LineEmpty}
	}

	if after, ok := strings.CutPrefix(trimmed, dataPrefix); ok {
		// A single space after the colon is optional.
		payload := strings.TrimPrefix(after, " ")
		if strings.Contains(payload, doneMarker) {
			return Line{Kind: LineDone}
		}
		return Line{Kind: LineData, Payload: ParsePayload(payload)}
	}

	if strings.HasPrefix(trimmed, eventPrefix) || strings.HasPrefix(trimmed, idPrefix) {
		return Line{Kind: LineEnvelope}
	}

	return Line{Kind: LinePlain, Text: strings.TrimRight(raw, "\r")}
}

// NormalizeNewlines turns the two-character escape sequence `\n` into a
// literal newline.
func NormalizeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
