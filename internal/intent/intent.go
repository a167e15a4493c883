package intent

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a side effect requested by the reconciler.
type Kind string

const (
	KindSendConfirmationEmail Kind = "send_confirmation_email"
	KindNotifyAdmin           Kind = "notify_admin"
)

// E-mail templates known to the notification service.
const (
	TemplateOrderConfirmation   = "order_confirmation"
	TemplateSubscriptionWelcome = "subscription_welcome"
	TemplateSubscriptionRenewal = "subscription_renewal"
)

// Intent is a declarative side effect. It is recorded with the state change
// that caused it and delivered at least once; consumers dedupe on ID.
type Intent struct {
	ID           uuid.UUID `json:"id"`
	Kind         Kind      `json:"kind"`
	RecordID     uuid.UUID `json:"record_id"`
	TemplateName string    `json:"template_name,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func SendConfirmationEmail(recordID uuid.UUID, template string) Intent {
	return Intent{
		ID:           uuid.New(),
		Kind:         KindSendConfirmationEmail,
		RecordID:     recordID,
		TemplateName: template,
		CreatedAt:    time.Now().UTC(),
	}
}

func NotifyAdmin(recordID uuid.UUID, summary string) Intent {
	return Intent{
		ID:        uuid.New(),
		Kind:      KindNotifyAdmin,
		RecordID:  recordID,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
}
