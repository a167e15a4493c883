package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

type Service struct {
	adapters map[event.Provider]Adapter
}

func NewService(adapters map[event.Provider]Adapter) *Service {
	return &Service{adapters: adapters}
}

func (s *Service) adapter(p event.Provider) (Adapter, error) {
	a, ok := s.adapters[p]
	if !ok || a.Normalizer == nil {
		return Adapter{}, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}

	return a, nil
}

// Providers lists the registered provider names.
func (s *Service) Providers() []event.Provider {
	out := make([]event.Provider, 0, len(s.adapters))
	for p := range s.adapters {
		out = append(out, p)
	}

	return out
}

func (s *Service) Normalize(p event.Provider, payload []byte) (*event.Event, error) {
	a, err := s.adapter(p)
	if err != nil {
		return nil, err
	}

	return a.Normalizer.Normalize(payload)
}

// Verify fails closed: a provider without a verifier rejects everything.
func (s *Service) Verify(p event.Provider, payload []byte, header http.Header, query url.Values) error {
	a, err := s.adapter(p)
	if err != nil {
		return err
	}

	if a.Verifier == nil {
		return ErrInvalidSignature
	}

	return a.Verifier.Verify(payload, header, query)
}

func (s *Service) ResolveReference(ctx context.Context, ev *event.Event) (string, error) {
	a, err := s.adapter(ev.Provider)
	if err != nil {
		return "", err
	}

	if a.Resolver == nil {
		return "", ErrNoIndirection
	}

	return a.Resolver.ResolveReference(ctx, ev)
}
