package deadletter

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

var ErrNotFound = errors.New("dead letter not found")

// Reason classifies why an event could not be applied.
type Reason string

const (
	ReasonUnresolved    Reason = "unresolved"
	ReasonAmbiguous     Reason = "ambiguous"
	ReasonUnknownStatus Reason = "unknown_status"
)

// Letter is a durably stored event awaiting retry or review.
type Letter struct {
	ID              uuid.UUID
	Provider        event.Provider
	ProviderEventID string
	Payload         []byte
	Reason          Reason
	Retryable       bool
	Attempts        int
	LastError       string
	NextAttemptAt   *time.Time
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (l *Letter) Resolved() bool {
	return l.ResolvedAt != nil
}

type ListFilter struct {
	Reason *Reason
	// OnlyOpen hides resolved letters.
	OnlyOpen bool
	Limit    int
}
