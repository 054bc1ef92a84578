package model

// ErrorKind classifies a per-exchange failure inside a snapshot.
type ErrorKind string

const (
	ErrKindTimeout   ErrorKind = "timeout"
	ErrKindProtocol  ErrorKind = "protocol"
	ErrKindMalformed ErrorKind = "malformed"
	ErrKindCancelled ErrorKind = "cancelled"
	ErrKindNotListed ErrorKind = "not_listed"
)

// Failure records one exchange's failed contribution to a snapshot.
// Timestamp is Unix milliseconds at classification time.
type Failure struct {
	Exchange  string    `json:"exchange"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Timestamp int64     `json:"timestamp"`
}

// Entry is one exchange's slot in a snapshot: a success payload XOR a
// failure record.
type Entry[T any] struct {
	Exchange string   `json:"exchange"`
	OK       bool     `json:"ok"`
	Payload  T        `json:"payload,omitempty"`
	Failure  *Failure `json:"failure,omitempty"`
}

// Snapshot maps exchange identifier to that exchange's result for a single
// request. Every registered exchange appears exactly once, as success or
// failure, never both and never absent.
type Snapshot[T any] map[string]Entry[T]

// Successes returns payloads of successful entries keyed by exchange.
func (s Snapshot[T]) Successes() map[string]T {
	out := make(map[string]T)
	for name, e := range s {
		if e.OK {
			out[name] = e.Payload
		}
	}
	return out
}

// Failures returns failure records keyed by exchange.
func (s Snapshot[T]) Failures() map[string]Failure {
	out := make(map[string]Failure)
	for name, e := range s {
		if !e.OK && e.Failure != nil {
			out[name] = *e.Failure
		}
	}
	return out
}
