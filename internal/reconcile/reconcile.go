// Package reconcile applies provider payment events to payable records.
//
// Each event is normalized, located, evaluated by the transition rules and
// applied under a per-record lock. Status, ledger, applied-event mark and
// outbound intents commit together or not at all. Events that cannot be
// applied yet are parked in the dead-letter store instead of being dropped.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/intent"
	"github.com/MrJamesThe3rd/payrecon/internal/matching"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	"github.com/MrJamesThe3rd/payrecon/internal/transition"
)

var ErrInvalidRequest = errors.New("invalid admin request")

// UnresolvedEventError means no record could be found for an event. The
// event has been dead-lettered and will be retried.
type UnresolvedEventError struct {
	Provider        event.Provider
	ProviderEventID string
	Err             error
}

func (e *UnresolvedEventError) Error() string {
	return fmt.Sprintf("unresolved %s event %s: %v", e.Provider, e.ProviderEventID, e.Err)
}

func (e *UnresolvedEventError) Unwrap() error { return e.Err }

type Normalizer interface {
	Normalize(p event.Provider, payload []byte) (*event.Event, error)
}

type Locator interface {
	Locate(ctx context.Context, ev *event.Event) (*matching.Match, error)
}

type Records interface {
	BeginApply(ctx context.Context, recordID uuid.UUID) (payable.ApplyTx, error)
}

type DeadLetters interface {
	Append(ctx context.Context, p deadletter.AppendParams) (*deadletter.Letter, error)
	RecordFailure(ctx context.Context, l *deadletter.Letter, cause error, reason deadletter.Reason, retryable bool) error
	Resolve(ctx context.Context, l *deadletter.Letter) error
}

// Result describes what happened to one event. Exactly one of Decision and
// DeadLetter is meaningful: a dead-lettered event has no decision.
type Result struct {
	Event      *event.Event
	Record     *payable.Record
	Decision   transition.Decision
	DeadLetter *deadletter.Letter
	Intents    []intent.Intent
	Match      *matching.Match
}

func (r *Result) Applied() bool {
	return r.DeadLetter == nil && r.Decision.Verdict == transition.Apply
}

// Status is the short label reported to webhook callers.
func (r *Result) Status() string {
	if r.DeadLetter != nil {
		return "dead_lettered"
	}

	return r.Decision.Verdict.String()
}
