package sse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"
)

const readChunkSize = 4 * 1024

// Sink receives each unit of emittable text in stream order. It is called
// synchronously and never concurrently.
type Sink func(text string)

// Result is the outcome of decoding one chat response.
type Result struct {
	// AgentMessageID is the correlation id used to attach feedback to the
	// agent's reply. Empty when the response carried none.
	AgentMessageID string

	// Streamed is false when the response was a single JSON document.
	Streamed bool
}

// Decoder reads a chat response stream, reassembles lines across chunk
// boundaries and hands extracted text to a Sink.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │  byte chunks
// ▼
// ┌──────────────────┐   ┌──────────┐
// │   line buffer    │──▶│ ParseLine│
// └──────────────────┘   └──────────┘
// │                           │
// ▼                           ▼
// partial line (carried)     Sink / correlation id
//
// A Decoder is single use: it owns its buffer and correlation id slot.
type Decoder struct {
	src io.Reader

	// buf holds the not-yet-terminated tail of the stream. Splitting happens
	// on raw bytes, so a multi-byte rune cut by a chunk boundary is carried
	// here until its remaining bytes arrive.
	buf []byte

	correlationID string
	hasID         bool
	done          bool
}

// NewDecoder returns a Decoder reading from src.
func NewDecoder(src io.Reader) *Decoder {
	return &Decoder{src: src}
}

// Decode is shorthand for NewDecoder(src).Decode(ctx, sink).
func Decode(ctx context.Context, src io.Reader, sink Sink) (string, bool, error) {
	return NewDecoder(src).Decode(ctx, sink)
}

// Decode consumes the stream until end-of-stream or the terminal marker,
// invoking sink for each emittable chunk. It returns the agent_message_id of
// the last end_metadata event seen, if any.
//
// Malformed payloads degrade to raw text and never fail the call. Read
// failures abort with an *UpstreamError; anything already emitted stays
// emitted.
func (d *Decoder) Decode(ctx context.Context, sink Sink) (string, bool, error) {
	if d == nil || d.src == nil {
		return "", false, ErrStreamUnavailable
	}

	if sink == nil {
		sink = func(string) {}
	}

	chunk := make([]byte, readChunkSize)
	for !d.done {
		if err := ctx.Err(); err != nil {
			return d.correlationID, d.hasID, &UpstreamError{Err: err}
		}

		n, err := d.src.Read(chunk)
		if n > 0 {
			d.buf = append(d.buf, chunk[:n]...)
			d.drainLines(sink)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return d.correlationID, d.hasID, &UpstreamError{Err: err}
		}
	}

	// A final event may arrive without a trailing newline. Nothing after the
	// terminal marker is processed.
	if !d.done && len(d.buf) > 0 {
		tail := d.buf
		d.buf = nil
		d.handleLine(decodeText(tail), sink)
	}

	return d.correlationID, d.hasID, nil
}

// drainLines processes every complete line in the buffer and keeps the
// trailing partial line.
func (d *Decoder) drainLines(sink Sink) {
	for !d.done {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			return
		}

		line := decodeText(d.buf[:idx])
		d.buf = d.buf[idx+1:]
		d.handleLine(line, sink)
	}
}

func (d *Decoder) handleLine(raw string, sink Sink) {
	line := ParseLine(raw)

	switch line.Kind {
	case LineDone:
		d.done = true
		d.buf = nil
	case LineData:
		if id, ok := line.Payload.CorrelationID(); ok {
			d.correlationID = id
			d.hasID = true
		}
		if text, ok := line.Payload.Text(); ok {
			sink(text)
		}
	case LinePlain:
		sink(NormalizeNewlines(line.Text))
	case LineEmpty, LineEnvelope:
	}
}

// decodeText converts a complete line to a string. Each invalid byte becomes
// one replacement character.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + 2)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}

// DecodeResponse decodes a chat response, choosing the path up front from
// the Content-Type header: a JSON document is parsed once and handed to the
// sink whole, anything else is decoded as a stream. The body is not closed.
func DecodeResponse(ctx context.Context, resp *http.Response, sink Sink) (Result, error) {
	if resp == nil || resp.Body == nil {
		return Result{}, ErrStreamUnavailable
	}

	if isJSONDocument(resp.Header.Get("Content-Type")) {
		return decodeDocument(resp.Body, sink)
	}

	id, _, err := Decode(ctx, resp.Body, sink)
	return Result{AgentMessageID: id, Streamed: true}, err
}

func decodeDocument(body io.Reader, sink Sink) (Result, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return Result{}, &UpstreamError{Err: err}
	}

	if sink == nil {
		sink = func(string) {}
	}

	payload := ParsePayload(string(data))
	if payload.Kind == PayloadRaw {
		if text, ok := payload.Text(); ok {
			sink(text)
		}
		return Result{}, nil
	}

	if text, ok := payload.field(documentFields); ok {
		sink(text)
	}

	return Result{AgentMessageID: payload.value.Get("agent_message_id").String()}, nil
}

func isJSONDocument(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
