package payable

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/intent"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payable
type Repository interface {
	CreateRecord(ctx context.Context, rec *Record) error
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	GetRecordByReference(ctx context.Context, ref string) (*Record, error)
	ListRecords(ctx context.Context, filter ListFilter) ([]*Record, error)
	ListLedger(ctx context.Context, recordID uuid.UUID) ([]*LedgerEntry, error)
	ListAudit(ctx context.Context, recordID uuid.UUID) ([]*AuditEntry, error)

	BeginApply(ctx context.Context, recordID uuid.UUID) (ApplyTx, error)
}

// ApplyTx holds the per-record lock for the duration of one reconciliation.
// Everything written through it becomes visible atomically on Commit.
type ApplyTx interface {
	// Record is the state read after the lock was taken.
	Record() *Record
	HasEvent(ctx context.Context, provider event.Provider, providerEventID string) (bool, error)
	UpdateStatus(ctx context.Context, expectedVersion int64, upd StatusUpdate) error
	AppendLedger(ctx context.Context, entry *LedgerEntry) error
	MarkEventApplied(ctx context.Context, provider event.Provider, providerEventID string) error
	EnqueueIntents(ctx context.Context, intents []intent.Intent) error
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	LedgerCount(ctx context.Context) (int, error)
	Delete(ctx context.Context) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Kind            Kind
	CheckoutID      string
	Amount          decimal.Decimal
	Currency        string
	Customer        Customer
	BillingInterval Interval
}

type ListFilter struct {
	Kind   *Kind
	Status *Status
}

// Reference derives the external reference sent to the provider at checkout.
// The same checkout always yields the same reference.
func Reference(kind Kind, checkoutID string) string {
	prefix := "ORDER"
	if kind == KindSubscription {
		prefix = "SUB"
	}

	if checkoutID == "" {
		checkoutID = uuid.NewString()
	}

	return prefix + "-" + checkoutID
}

func (p CreateParams) validate() error {
	switch {
	case !p.Kind.Valid():
		return fmt.Errorf("%w: kind %q", ErrInvalidRecord, p.Kind)
	case !p.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRecord)
	case len(p.Currency) != 3:
		return fmt.Errorf("%w: currency %q", ErrInvalidRecord, p.Currency)
	case strings.TrimSpace(p.Customer.Email) == "":
		return fmt.Errorf("%w: customer email required", ErrInvalidRecord)
	case p.Kind == KindSubscription && !p.BillingInterval.Valid():
		return fmt.Errorf("%w: billing interval %q", ErrInvalidRecord, p.BillingInterval)
	}

	return nil
}

// Create registers a pending record. Creating twice for the same checkout
// returns the record created the first time.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Record, error) {
	params.Currency = strings.ToUpper(strings.TrimSpace(params.Currency))
	params.CheckoutID = strings.TrimSpace(params.CheckoutID)

	if err := params.validate(); err != nil {
		return nil, err
	}

	rec := &Record{
		Kind:              params.Kind,
		ExternalReference: Reference(params.Kind, params.CheckoutID),
		Status:            StatusPending,
		Amount:            params.Amount,
		Currency:          params.Currency,
		Customer:          params.Customer,
	}

	if params.Kind == KindSubscription {
		rec.BillingInterval = params.BillingInterval
	}

	err := s.repo.CreateRecord(ctx, rec)
	if err == nil {
		return rec, nil
	}

	if !errors.Is(err, ErrDuplicateReference) || params.CheckoutID == "" {
		return nil, err
	}

	existing, err := s.repo.GetRecordByReference(ctx, rec.ExternalReference)
	if err != nil {
		return nil, fmt.Errorf("loading existing record: %w", err)
	}

	if existing.Kind != rec.Kind || existing.Currency != rec.Currency || !existing.Amount.Equal(rec.Amount) {
		return nil, fmt.Errorf("%w: %s", ErrReferenceAlreadyBound, rec.ExternalReference)
	}

	return existing, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetRecord(ctx, id)
}

func (s *Service) GetByReference(ctx context.Context, ref string) (*Record, error) {
	return s.repo.GetRecordByReference(ctx, ref)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	return s.repo.ListRecords(ctx, filter)
}

func (s *Service) Ledger(ctx context.Context, recordID uuid.UUID) ([]*LedgerEntry, error) {
	return s.repo.ListLedger(ctx, recordID)
}

func (s *Service) Audit(ctx context.Context, recordID uuid.UUID) ([]*AuditEntry, error) {
	return s.repo.ListAudit(ctx, recordID)
}

func (s *Service) BeginApply(ctx context.Context, recordID uuid.UUID) (ApplyTx, error) {
	return s.repo.BeginApply(ctx, recordID)
}

// Purge removes an erroneous duplicate. Records that ever moved money, or
// that are settled, are kept.
func (s *Service) Purge(ctx context.Context, id uuid.UUID, actor, reason string) error {
	if strings.TrimSpace(actor) == "" || strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: purge needs an actor and a reason", ErrInvalidRecord)
	}

	atx, err := s.repo.BeginApply(ctx, id)
	if err != nil {
		return fmt.Errorf("begin purge: %w", err)
	}
	defer atx.Rollback()

	rec := atx.Record()
	if rec.Status == StatusCompleted || rec.Status == StatusActive {
		return fmt.Errorf("%w: status is %s", ErrPurgeRefused, rec.Status)
	}

	n, err := atx.LedgerCount(ctx)
	if err != nil {
		return fmt.Errorf("counting ledger entries: %w", err)
	}

	if n > 0 {
		return fmt.Errorf("%w: %d ledger entries", ErrPurgeRefused, n)
	}

	if err := atx.AppendAudit(ctx, &AuditEntry{
		RecordID:   rec.ID,
		Actor:      actor,
		Action:     AuditPurge,
		FromStatus: rec.Status,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("appending audit: %w", err)
	}

	if err := atx.Delete(ctx); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	if err := atx.Commit(); err != nil {
		return fmt.Errorf("commit purge: %w", err)
	}

	return nil
}
