// Package tts holds the request model, error taxonomy, output format
// catalogue and configuration for the text-to-speech bytes endpoint.
package tts

import "context"

// Voice is the opaque voice selector forwarded verbatim to the service,
// e.g. {"mode": "id", "id": "a0e99841-..."}.
type Voice map[string]any

// OutputFormat describes the audio the service should return.
type OutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// Request is the JSON body posted to /tts/bytes.
//
// Language is always serialized and may be null. Duration is only
// serialized when set; the service treats an absent duration differently
// from a null one.
type Request struct {
	ModelID      string       `json:"model_id"`
	Transcript   string       `json:"transcript"`
	Voice        Voice        `json:"voice"`
	OutputFormat OutputFormat `json:"output_format"`
	Language     *string      `json:"language"`
	Duration     *int         `json:"duration,omitempty"`
}

// Result is the audio of one successful send: every chunk of the winning
// attempt joined in arrival order.
type Result struct {
	Audio []byte
}

// Synthesizer sends a request and returns the complete audio.
type Synthesizer interface {
	Send(ctx context.Context, req Request) (*Result, error)
	Close() error
}

// State is the lifecycle of a single send call.
type State int

const (
	// StateIdle indicates the call has not started
	StateIdle State = iota

	// StateConnecting indicates a request is being issued
	StateConnecting

	// StateStreaming indicates the response body is being read
	StateStreaming

	// StateSucceeded indicates the full body was collected
	StateSucceeded

	// StateFailed indicates the attempt ended with an error
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions can happen.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}
