package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

var (
	ErrNotFound = errors.New("no record matches event")
	// ErrLookupFailed wraps provider API failures during indirection.
	ErrLookupFailed = errors.New("provider lookup failed")
)

// Tier is the lookup strategy that produced a match.
type Tier int

const (
	TierPaymentID Tier = iota + 1
	TierReference
	TierIndirection
)

func (t Tier) String() string {
	switch t {
	case TierPaymentID:
		return "provider_payment_id"
	case TierReference:
		return "external_reference"
	case TierIndirection:
		return "provider_lookup"
	default:
		return "unknown"
	}
}

// AmbiguousMatchError means more than one record answers to the same key.
type AmbiguousMatchError struct {
	Tier      Tier
	Key       string
	RecordIDs []uuid.UUID
}

func (e *AmbiguousMatchError) Error() string {
	ids := make([]string, len(e.RecordIDs))
	for i, id := range e.RecordIDs {
		ids[i] = id.String()
	}

	return fmt.Sprintf("ambiguous match on %s %q: records %s", e.Tier, e.Key, strings.Join(ids, ", "))
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	FindByProviderPaymentID(ctx context.Context, providerPaymentID string) ([]*payable.Record, error)
	FindByExternalReference(ctx context.Context, ref string) ([]*payable.Record, error)
}

// Resolver asks the provider for the external reference behind an event.
type Resolver interface {
	ResolveReference(ctx context.Context, ev *event.Event) (string, error)
}

type Match struct {
	Record            *payable.Record
	Tier              Tier
	ResolvedReference string
}

type Service struct {
	repo     Repository
	resolver Resolver
}

func NewService(repo Repository, resolver Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// Locate finds the single record an event belongs to, trying the bound
// payment id, then the external reference, then the provider API.
func (s *Service) Locate(ctx context.Context, ev *event.Event) (*Match, error) {
	if ev.ProviderPaymentID != "" {
		recs, err := s.repo.FindByProviderPaymentID(ctx, ev.ProviderPaymentID)
		if err != nil {
			return nil, fmt.Errorf("finding by payment id: %w", err)
		}

		if m, err := single(recs, TierPaymentID, ev.ProviderPaymentID); m != nil || err != nil {
			return m, err
		}
	}

	if ev.ExternalReference != "" {
		m, err := s.byReference(ctx, ev.ExternalReference, TierReference)
		if m != nil || err != nil {
			return m, err
		}
	}

	if s.resolver == nil {
		return nil, ErrNotFound
	}

	ref, err := s.resolver.ResolveReference(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	m, err := s.byReference(ctx, ref, TierIndirection)
	if err != nil {
		return nil, err
	}

	if m == nil {
		return nil, fmt.Errorf("%w: resolved reference %q", ErrNotFound, ref)
	}

	m.ResolvedReference = ref

	return m, nil
}

func (s *Service) byReference(ctx context.Context, ref string, tier Tier) (*Match, error) {
	recs, err := s.repo.FindByExternalReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("finding by reference: %w", err)
	}

	return single(recs, tier, ref)
}

func single(recs []*payable.Record, tier Tier, key string) (*Match, error) {
	switch len(recs) {
	case 0:
		return nil, nil
	case 1:
		return &Match{Record: recs[0], Tier: tier}, nil
	default:
		ids := make([]uuid.UUID, len(recs))
		for i, r := range recs {
			ids[i] = r.ID
		}

		return nil, &AmbiguousMatchError{Tier: tier, Key: key, RecordIDs: ids}
	}
}
