package payable

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

var (
	ErrNotFound              = errors.New("record not found")
	ErrDuplicateReference    = errors.New("external reference already in use")
	ErrPaymentIDTaken        = errors.New("provider payment id bound to another record")
	ErrVersionConflict       = errors.New("record changed concurrently")
	ErrPurgeRefused          = errors.New("record cannot be purged")
	ErrInvalidRecord         = errors.New("invalid record")
	ErrReferenceAlreadyBound = errors.New("checkout already bound to a different record")
)

// Kind distinguishes one-off orders from recurring subscriptions.
type Kind string

const (
	KindOrder        Kind = "order"
	KindSubscription Kind = "subscription"
)

// Status is the lifecycle state of a payable record. Orders use pending,
// processing, completed and cancelled. Subscriptions use pending, active and cancelled.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusActive     Status = "active"
	StatusCancelled  Status = "cancelled"
)

func (k Kind) Valid() bool {
	return k == KindOrder || k == KindSubscription
}

// Allows reports whether s is a state records of kind k can be in.
func (k Kind) Allows(s Status) bool {
	switch k {
	case KindOrder:
		return s == StatusPending || s == StatusProcessing || s == StatusCompleted || s == StatusCancelled
	case KindSubscription:
		return s == StatusPending || s == StatusActive || s == StatusCancelled
	default:
		return false
	}
}

// Interval is a subscription billing period.
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

func (i Interval) Valid() bool {
	return i == IntervalMonth || i == IntervalYear
}

// Advance returns t moved forward by one period.
func (i Interval) Advance(t time.Time) time.Time {
	if i == IntervalYear {
		return t.AddDate(1, 0, 0)
	}

	return t.AddDate(0, 1, 0)
}

type Customer struct {
	Email string
	Name  string
	Phone string
}

// Record is an order or subscription awaiting or having received payment.
type Record struct {
	ID                uuid.UUID
	Kind              Kind
	ExternalReference string
	ProviderPaymentID *string
	Status            Status
	Amount            decimal.Decimal
	Currency          string
	Customer          Customer
	BillingInterval   Interval // Subscriptions only
	BillingCycle      int
	NextBillingAt     *time.Time
	LastEventAt       *time.Time
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PaymentID returns the bound provider payment id or "".
func (r *Record) PaymentID() string {
	if r.ProviderPaymentID == nil {
		return ""
	}

	return *r.ProviderPaymentID
}

// LedgerEntry is an append-only record of money moving.
type LedgerEntry struct {
	ID                uuid.UUID
	RecordID          uuid.UUID
	Provider          event.Provider
	ProviderEventID   string
	ProviderPaymentID string
	Amount            decimal.Decimal
	Currency          string
	Outcome           event.Outcome
	OccurredAt        time.Time
	CreatedAt         time.Time
}

type AuditAction string

const (
	AuditForceTransition AuditAction = "force_transition"
	AuditReactivate      AuditAction = "reactivate"
	AuditPurge           AuditAction = "purge"
)

// AuditEntry records an administrative operation.
type AuditEntry struct {
	ID         uuid.UUID
	RecordID   uuid.UUID
	Actor      string
	Action     AuditAction
	FromStatus Status
	ToStatus   Status
	Reason     string
	CreatedAt  time.Time
}

// StatusUpdate is the full post-transition state written in one statement.
type StatusUpdate struct {
	Status            Status
	ProviderPaymentID string // bound when the record has none yet
	BillingCycle      int
	NextBillingAt     *time.Time
	LastEventAt       *time.Time
}
