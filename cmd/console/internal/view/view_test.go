package view

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/matching"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	"github.com/MrJamesThe3rd/payrecon/internal/reconcile"
	"github.com/MrJamesThe3rd/payrecon/internal/testutil"
	"github.com/MrJamesThe3rd/payrecon/internal/transition"
)

type fixture struct {
	store   *testutil.Store
	records *payable.Service
	letters *deadletter.Service
	svc     *reconcile.Service
}

func newFixture() *fixture {
	f := &fixture{store: testutil.NewStore()}
	f.records = payable.NewService(f.store)
	f.letters = deadletter.NewService(testutil.NewDeadLetters(), deadletter.Policy{})
	f.svc = reconcile.NewService(testutil.Normalizer{}, matching.NewService(f.store, nil), f.records, f.letters)

	return f
}

func (f *fixture) seed(kind payable.Kind, ref string, status payable.Status) *payable.Record {
	rec := &payable.Record{
		Kind:              kind,
		ExternalReference: ref,
		Status:            status,
		Amount:            decimal.NewFromInt(250),
		Currency:          "MXN",
		Customer:          payable.Customer{Email: "owner@example.com"},
	}

	if kind == payable.KindSubscription {
		rec.BillingInterval = payable.IntervalMonth
	}

	return f.store.Seed(rec)
}

func (f *fixture) park(t *testing.T, ref string) {
	t.Helper()

	ev := &event.Event{
		ProviderEventID:   "evt-" + uuid.NewString()[:8],
		ProviderPaymentID: "pay-" + uuid.NewString()[:8],
		ExternalReference: ref,
		RawStatus:         "approved",
		Outcome:           event.OutcomeApproved,
		Amount:            decimal.NewFromInt(250),
		Currency:          "MXN",
		OccurredAt:        time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	res, err := f.svc.Reconcile(context.Background(), event.ProviderMercadoPago, testutil.Payload(ev))
	require.Error(t, err)
	require.NotNil(t, res.DeadLetter)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// step feeds msg to m and runs the returned command once.
func step[M tea.Model](t *testing.T, m M, msg tea.Msg) (M, tea.Msg) {
	t.Helper()

	next, cmd := m.Update(msg)

	var out tea.Msg
	if cmd != nil {
		out = cmd()
	}

	return next.(M), out
}

func TestLetters_Retry(t *testing.T) {
	f := newFixture()
	f.park(t, "ORDER-late")

	m := NewLettersModel(f.letters, f.svc)
	m, _ = step(t, m, m.Init()())
	require.Len(t, m.items, 1)
	assert.Contains(t, m.View(), "1 letters")

	order := f.seed(payable.KindOrder, "ORDER-late", payable.StatusPending)

	m, msg := step(t, m, key('t'))
	require.IsType(t, retryMsg{}, msg)

	m, reload := step(t, m, msg)
	assert.Contains(t, m.status, "Resolved")
	assert.Contains(t, m.status, "applied")

	m, _ = step(t, m, reload)
	assert.Empty(t, m.items)

	got, err := f.store.GetRecord(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, payable.StatusCompleted, got.Status)

	// Resolved letters come back when the scope is widened.
	m, msg = step(t, m, key('a'))
	m, _ = step(t, m, msg)
	require.Len(t, m.items, 1)
	assert.True(t, m.items[0].Resolved())
}

func TestLetters_RetryStillUnresolved(t *testing.T) {
	f := newFixture()
	f.park(t, "ORDER-never")

	m := NewLettersModel(f.letters, f.svc)
	m, _ = step(t, m, m.Init()())

	m, msg := step(t, m, key('t'))
	m, reload := step(t, m, msg)
	assert.Contains(t, m.status, "failed")

	m, _ = step(t, m, reload)
	require.Len(t, m.items, 1)
	assert.Equal(t, 1, m.items[0].Attempts)
}

func TestLetters_ReasonFilter(t *testing.T) {
	f := newFixture()
	f.park(t, "ORDER-a")

	m := NewLettersModel(f.letters, f.svc)
	m, _ = step(t, m, m.Init()())
	require.Len(t, m.items, 1)

	// unresolved
	m, msg := step(t, m, key('f'))
	m, _ = step(t, m, msg)
	assert.Len(t, m.items, 1)

	// ambiguous
	m, msg = step(t, m, key('f'))
	m, _ = step(t, m, msg)
	assert.Empty(t, m.items)
	assert.Contains(t, m.View(), "ambiguous")
}

func TestRecords_Filters(t *testing.T) {
	f := newFixture()
	f.seed(payable.KindOrder, "ORDER-1", payable.StatusPending)
	f.seed(payable.KindSubscription, "SUB-1", payable.StatusActive)

	m := NewRecordsModel(f.records, f.svc, "ops@shop")
	m, _ = step(t, m, m.Init()())
	require.Len(t, m.items, 2)

	m, msg := step(t, m, key('k'))
	m, _ = step(t, m, msg)
	require.Len(t, m.items, 1)
	assert.Equal(t, payable.KindOrder, m.items[0].Kind)

	m, msg = step(t, m, key('s'))
	m, _ = step(t, m, msg)
	assert.Len(t, m.items, 1)
}

func TestTargets(t *testing.T) {
	order := &payable.Record{Kind: payable.KindOrder, Status: payable.StatusPending}
	sub := &payable.Record{Kind: payable.KindSubscription, Status: payable.StatusActive}

	values := func(rec *payable.Record) []payable.Status {
		var out []payable.Status
		for _, o := range targets(rec) {
			out = append(out, o.Value)
		}

		return out
	}

	assert.Equal(t, []payable.Status{payable.StatusProcessing, payable.StatusCompleted, payable.StatusCancelled}, values(order))
	assert.Equal(t, []payable.Status{payable.StatusCancelled}, values(sub))
}

func TestRecords_Force(t *testing.T) {
	f := newFixture()
	order := f.seed(payable.KindOrder, "ORDER-9", payable.StatusPending)

	m := NewRecordsModel(f.records, f.svc, "ops@shop")
	m, _ = step(t, m, m.Init()())

	// The form's init command starts cursor blinking, so it is not run here.
	next, _ := m.Update(key('x'))
	m = next.(RecordsModel)
	require.Equal(t, recordsStateForce, m.state)
	assert.Equal(t, payable.StatusProcessing, *m.formStatus)

	msg := m.forceCmd(order, payable.StatusCompleted, "  paid by transfer ")()
	m, _ = step(t, m, msg)
	assert.Equal(t, recordsStateBrowse, m.state)
	assert.Equal(t, "ORDER-9 applied: pending -> completed", m.status)

	audit, err := f.records.Audit(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "ops@shop", audit[0].Actor)
	assert.Equal(t, "paid by transfer", audit[0].Reason)

	fm, ok := m.forceCmd(order, payable.StatusActive, "wrong kind")().(forceMsg)
	require.True(t, ok)
	require.ErrorIs(t, fm.err, transition.ErrIllegalTransition)
	assert.Contains(t, fm.describe(), "failed")
}
