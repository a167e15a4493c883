package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

type RecordResponse struct {
	ID                uuid.UUID        `json:"id"`
	Kind              payable.Kind     `json:"kind"`
	ExternalReference string           `json:"external_reference"`
	ProviderPaymentID *string          `json:"provider_payment_id,omitempty"`
	Status            payable.Status   `json:"status"`
	Amount            string           `json:"amount"`
	Currency          string           `json:"currency"`
	CustomerEmail     string           `json:"customer_email"`
	CustomerName      string           `json:"customer_name,omitempty"`
	BillingInterval   payable.Interval `json:"billing_interval,omitempty"`
	BillingCycle      int              `json:"billing_cycle"`
	NextBillingAt     *time.Time       `json:"next_billing_at,omitempty"`
	LastEventAt       *time.Time       `json:"last_event_at,omitempty"`
	Version           int64            `json:"version"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type LedgerResponse struct {
	ID                uuid.UUID      `json:"id"`
	Provider          event.Provider `json:"provider"`
	ProviderEventID   string         `json:"provider_event_id"`
	ProviderPaymentID string         `json:"provider_payment_id"`
	Amount            string         `json:"amount"`
	Currency          string         `json:"currency"`
	Outcome           event.Outcome  `json:"outcome"`
	OccurredAt        time.Time      `json:"occurred_at"`
}

type AuditResponse struct {
	ID         uuid.UUID           `json:"id"`
	Actor      string              `json:"actor"`
	Action     payable.AuditAction `json:"action"`
	FromStatus payable.Status      `json:"from_status"`
	ToStatus   payable.Status      `json:"to_status,omitempty"`
	Reason     string              `json:"reason"`
	CreatedAt  time.Time           `json:"created_at"`
}

func ToResponse(rec *payable.Record) RecordResponse {
	return RecordResponse{
		ID:                rec.ID,
		Kind:              rec.Kind,
		ExternalReference: rec.ExternalReference,
		ProviderPaymentID: rec.ProviderPaymentID,
		Status:            rec.Status,
		Amount:            rec.Amount.StringFixed(2),
		Currency:          rec.Currency,
		CustomerEmail:     rec.Customer.Email,
		CustomerName:      rec.Customer.Name,
		BillingInterval:   rec.BillingInterval,
		BillingCycle:      rec.BillingCycle,
		NextBillingAt:     rec.NextBillingAt,
		LastEventAt:       rec.LastEventAt,
		Version:           rec.Version,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

func toResponseList(recs []*payable.Record) []RecordResponse {
	out := make([]RecordResponse, len(recs))
	for i, rec := range recs {
		out[i] = ToResponse(rec)
	}

	return out
}

func toLedgerList(entries []*payable.LedgerEntry) []LedgerResponse {
	out := make([]LedgerResponse, len(entries))
	for i, e := range entries {
		out[i] = LedgerResponse{
			ID:                e.ID,
			Provider:          e.Provider,
			ProviderEventID:   e.ProviderEventID,
			ProviderPaymentID: e.ProviderPaymentID,
			Amount:            e.Amount.StringFixed(2),
			Currency:          e.Currency,
			Outcome:           e.Outcome,
			OccurredAt:        e.OccurredAt,
		}
	}

	return out
}

func ToAuditList(entries []*payable.AuditEntry) []AuditResponse {
	out := make([]AuditResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditResponse{
			ID:         e.ID,
			Actor:      e.Actor,
			Action:     e.Action,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Reason:     e.Reason,
			CreatedAt:  e.CreatedAt,
		}
	}

	return out
}
