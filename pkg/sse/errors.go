package sse

import "errors"

// ErrStreamUnavailable is returned when there is no stream to read from at
// all. It is reported before the sink is ever invoked.
var ErrStreamUnavailable = errors.New("stream unavailable")

// UpstreamError reports a failure while physically reading the stream.
// Text already handed to the sink stays delivered.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return "upstream request failed"
	}
	return "upstream request failed: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
