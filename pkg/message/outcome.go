package message

import "fmt"

// Status is the result of handing a message to the parent window.
type Status int

const (
	// Delivered means postMessage accepted the payload.
	Delivered Status = iota
	// Blocked means there is no parent, the parent is gone, or the browser
	// rejected the call. The caller decides whether a later attempt makes sense.
	Blocked
)

func (s Status) String() string {
	switch s {
	case Delivered:
		return "delivered"
	case Blocked:
		return "blocked"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome describes a single post attempt.
type Outcome struct {
	Status Status
	Err    error
}

// OK reports whether the message was handed to the parent.
func (o Outcome) OK() bool { return o.Status == Delivered }

// DeliveredOutcome is the zero-error success value.
func DeliveredOutcome() Outcome { return Outcome{Status: Delivered} }

// BlockedOutcome wraps the reason a post did not go through.
func BlockedOutcome(err error) Outcome { return Outcome{Status: Blocked, Err: err} }

// Poster sends messages to the hosting window.
type Poster interface {
	Post(m Message) Outcome
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(m Message) Outcome

// Post calls f(m).
func (f PosterFunc) Post(m Message) Outcome { return f(m) }
