// Package testutil provides in-memory implementations of the reconciler's
// storage interfaces. They honour the same uniqueness, locking and version
// rules as the Postgres stores so reconciliation can be exercised without a
// database.
package testutil

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/intent"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

// Store implements payable.Repository, matching.Repository and
// intent.Repository.
type Store struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*payable.Record
	order     []uuid.UUID
	locks     map[uuid.UUID]*sync.Mutex
	ledger    []*payable.LedgerEntry
	applied   map[string]uuid.UUID
	audit     []*payable.AuditEntry
	outbox    []intent.Intent
	published map[uuid.UUID]bool
}

func NewStore() *Store {
	return &Store{
		records:   map[uuid.UUID]*payable.Record{},
		locks:     map[uuid.UUID]*sync.Mutex{},
		applied:   map[string]uuid.UUID{},
		published: map[uuid.UUID]bool{},
	}
}

func appliedKey(p event.Provider, id string) string {
	return string(p) + ":" + id
}

func cloneRecord(r *payable.Record) *payable.Record {
	c := *r
	if r.ProviderPaymentID != nil {
		c.ProviderPaymentID = new(*r.ProviderPaymentID)
	}

	if r.NextBillingAt != nil {
		c.NextBillingAt = new(*r.NextBillingAt)
	}

	if r.LastEventAt != nil {
		c.LastEventAt = new(*r.LastEventAt)
	}

	return &c
}

// Seed inserts rec without uniqueness checks, which lets tests build the
// corrupted states the locator must refuse to guess about.
func (s *Store) Seed(rec *payable.Record) *payable.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insert(rec)

	return cloneRecord(rec)
}

func (s *Store) insert(rec *payable.Record) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	if rec.Version == 0 {
		rec.Version = 1
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	rec.UpdatedAt = now

	s.records[rec.ID] = cloneRecord(rec)
	s.order = append(s.order, rec.ID)
}

func (s *Store) CreateRecord(_ context.Context, rec *payable.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.ExternalReference == rec.ExternalReference {
			return payable.ErrDuplicateReference
		}
	}

	s.insert(rec)

	return nil
}

func (s *Store) GetRecord(_ context.Context, id uuid.UUID) (*payable.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, payable.ErrNotFound
	}

	return cloneRecord(rec), nil
}

func (s *Store) GetRecordByReference(_ context.Context, ref string) (*payable.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		if rec := s.records[id]; rec != nil && rec.ExternalReference == ref {
			return cloneRecord(rec), nil
		}
	}

	return nil, payable.ErrNotFound
}

func (s *Store) ListRecords(_ context.Context, filter payable.ListFilter) ([]*payable.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*payable.Record

	for _, id := range s.order {
		rec := s.records[id]
		if rec == nil {
			continue
		}

		if filter.Kind != nil && rec.Kind != *filter.Kind {
			continue
		}

		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}

		out = append(out, cloneRecord(rec))
	}

	return out, nil
}

func (s *Store) ListLedger(_ context.Context, recordID uuid.UUID) ([]*payable.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*payable.LedgerEntry

	for _, e := range s.ledger {
		if e.RecordID == recordID {
			c := *e
			out = append(out, &c)
		}
	}

	return out, nil
}

func (s *Store) ListAudit(_ context.Context, recordID uuid.UUID) ([]*payable.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*payable.AuditEntry

	for _, e := range s.audit {
		if e.RecordID == recordID {
			c := *e
			out = append(out, &c)
		}
	}

	return out, nil
}

func (s *Store) FindByProviderPaymentID(_ context.Context, paymentID string) ([]*payable.Record, error) {
	return s.find(func(r *payable.Record) bool { return r.PaymentID() == paymentID }), nil
}

func (s *Store) FindByExternalReference(_ context.Context, ref string) ([]*payable.Record, error) {
	return s.find(func(r *payable.Record) bool { return r.ExternalReference == ref }), nil
}

func (s *Store) find(match func(*payable.Record) bool) []*payable.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*payable.Record

	for _, id := range s.order {
		if rec := s.records[id]; rec != nil && match(rec) {
			out = append(out, cloneRecord(rec))
		}
	}

	return out
}

// Intents returns every intent ever enqueued, published or not.
func (s *Store) Intents() []intent.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.outbox)
}

func (s *Store) ListPending(_ context.Context, limit int) ([]intent.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []intent.Intent

	for _, in := range s.outbox {
		if s.published[in.ID] {
			continue
		}

		out = append(out, in)
		if len(out) == limit {
			break
		}
	}

	return out, nil
}

func (s *Store) MarkPublished(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published[id] = true

	return nil
}

func (s *Store) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}

	return l
}

// BeginApply takes the record's lock and holds it until Commit or Rollback,
// like SELECT ... FOR UPDATE.
func (s *Store) BeginApply(_ context.Context, recordID uuid.UUID) (payable.ApplyTx, error) {
	lock := s.lockFor(recordID)
	lock.Lock()

	s.mu.Lock()
	rec, ok := s.records[recordID]
	s.mu.Unlock()

	if !ok {
		lock.Unlock()
		return nil, payable.ErrNotFound
	}

	return &applyTx{store: s, lock: lock, rec: cloneRecord(rec)}, nil
}

type applyTx struct {
	store   *Store
	lock    *sync.Mutex
	rec     *payable.Record
	done    bool
	dirty   bool
	deleted bool
	ledger  []*payable.LedgerEntry
	applied []string
	audit   []*payable.AuditEntry
	intents []intent.Intent
}

func (a *applyTx) Record() *payable.Record { return a.rec }

func (a *applyTx) HasEvent(_ context.Context, p event.Provider, id string) (bool, error) {
	key := appliedKey(p, id)

	if slices.Contains(a.applied, key) {
		return true, nil
	}

	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	_, ok := a.store.applied[key]

	return ok, nil
}

func (a *applyTx) UpdateStatus(_ context.Context, expectedVersion int64, upd payable.StatusUpdate) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	cur, ok := a.store.records[a.rec.ID]
	if !ok || cur.Version != expectedVersion || a.rec.Version != expectedVersion {
		return payable.ErrVersionConflict
	}

	if a.rec.ProviderPaymentID == nil && upd.ProviderPaymentID != "" {
		for id, other := range a.store.records {
			if id != a.rec.ID && other.PaymentID() == upd.ProviderPaymentID {
				return payable.ErrPaymentIDTaken
			}
		}

		a.rec.ProviderPaymentID = new(upd.ProviderPaymentID)
	}

	a.rec.Status = upd.Status
	a.rec.BillingCycle = upd.BillingCycle
	a.rec.NextBillingAt = upd.NextBillingAt
	a.rec.LastEventAt = upd.LastEventAt
	a.rec.Version++
	a.rec.UpdatedAt = time.Now().UTC()
	a.dirty = true

	return nil
}

func (a *applyTx) AppendLedger(_ context.Context, e *payable.LedgerEntry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()

	c := *e
	a.ledger = append(a.ledger, &c)

	return nil
}

func (a *applyTx) MarkEventApplied(_ context.Context, p event.Provider, id string) error {
	key := appliedKey(p, id)

	a.store.mu.Lock()
	_, exists := a.store.applied[key]
	a.store.mu.Unlock()

	if exists || slices.Contains(a.applied, key) {
		return payable.ErrVersionConflict
	}

	a.applied = append(a.applied, key)

	return nil
}

func (a *applyTx) EnqueueIntents(_ context.Context, intents []intent.Intent) error {
	a.intents = append(a.intents, intents...)
	return nil
}

func (a *applyTx) AppendAudit(_ context.Context, e *payable.AuditEntry) error {
	e.ID = uuid.New()

	c := *e
	a.audit = append(a.audit, &c)

	return nil
}

func (a *applyTx) LedgerCount(_ context.Context) (int, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	n := len(a.ledger)

	for _, e := range a.store.ledger {
		if e.RecordID == a.rec.ID {
			n++
		}
	}

	return n, nil
}

func (a *applyTx) Delete(_ context.Context) error {
	a.deleted = true
	return nil
}

func (a *applyTx) Commit() error {
	if a.done {
		return nil
	}

	s := a.store
	s.mu.Lock()

	id := a.rec.ID

	if a.dirty {
		s.records[id] = cloneRecord(a.rec)
	}

	s.ledger = append(s.ledger, a.ledger...)
	s.audit = append(s.audit, a.audit...)
	s.outbox = append(s.outbox, a.intents...)

	for _, key := range a.applied {
		s.applied[key] = id
	}

	if a.deleted {
		delete(s.records, id)

		for key, rid := range s.applied {
			if rid == id {
				delete(s.applied, key)
			}
		}

		s.outbox = slices.DeleteFunc(s.outbox, func(in intent.Intent) bool {
			return in.RecordID == id && !s.published[in.ID]
		})
	}

	s.mu.Unlock()

	a.done = true
	a.lock.Unlock()

	return nil
}

func (a *applyTx) Rollback() error {
	if a.done {
		return nil
	}

	a.done = true
	a.lock.Unlock()

	return nil
}
