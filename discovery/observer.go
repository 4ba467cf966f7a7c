package discovery

import (
	"context"
	"time"

	"github.com/kbukum/svcreg/errors"
)

// Operation names a registry call.
type Operation string

const (
	OpRegister   Operation = "register"
	OpDeregister Operation = "deregister"
	OpDiscover   Operation = "discover"
)

// Outcome classifies the result of a registry call.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeEmpty            Outcome = "empty"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeProtocolFailure  Outcome = "protocol_failure"
	OutcomeInvalid          Outcome = "invalid"
	OutcomeError            Outcome = "error"
)

// IsFailure reports whether o should alert. OutcomeEmpty is a normal
// answer, not a failure.
func (o Outcome) IsFailure() bool {
	return o != OutcomeSuccess && o != OutcomeEmpty
}

// Event describes one completed registry call.
type Event struct {
	Operation Operation
	Service   string
	Outcome   Outcome
	Err       error
	Duration  time.Duration
}

// Observer receives an Event for every registry call a Client makes.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f(ctx, ev).
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

type nopObserver struct{}

func (nopObserver) Observe(context.Context, Event) {}

// OutcomeOf maps an error returned by a Provider or by Lookup to an Outcome.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeEmptyResult:
		return OutcomeEmpty
	case errors.ErrCodeTransportFailure:
		return OutcomeTransportFailure
	case errors.ErrCodeProtocolFailure:
		return OutcomeProtocolFailure
	case errors.ErrCodeInvalidInput, errors.ErrCodeMissingField:
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
