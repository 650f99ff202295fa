package correlator

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is how a SendAndWait call ended.
type Outcome string

const (
	OutcomeReplied   Outcome = "replied"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeClosed    Outcome = "closed"
)

// Exchange describes one finished SendAndWait call.
type Exchange struct {
	Token     uuid.UUID
	Request   string
	Reply     string
	Args      []any
	ReplyArgs []any
	Outcome   Outcome
	Latency   time.Duration
	At        time.Time
}

// Observer receives every Exchange, synchronously, on the caller's
// goroutine.
type Observer interface {
	Observe(Exchange)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Exchange)

// Observe calls f(ex).
func (f ObserverFunc) Observe(ex Exchange) { f(ex) }
