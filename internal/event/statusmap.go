package event

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatusMap translates raw provider statuses into outcomes.
type StatusMap struct {
	provider Provider
	entries  map[string]Outcome
}

// LoadStatusMap parses a YAML document of the form
//
//	statuses:
//	  approved: approved
//	  in_process: pending
func LoadStatusMap(provider Provider, data []byte) (*StatusMap, error) {
	var doc struct {
		Statuses map[string]string `yaml:"statuses"`
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s status map: %w", provider, err)
	}

	if len(doc.Statuses) == 0 {
		return nil, fmt.Errorf("%s status map is empty", provider)
	}

	m := &StatusMap{provider: provider, entries: make(map[string]Outcome, len(doc.Statuses))}

	for raw, out := range doc.Statuses {
		o, err := ParseOutcome(out)
		if err != nil {
			return nil, fmt.Errorf("%s status %q: %w", provider, raw, err)
		}

		m.entries[strings.ToLower(raw)] = o
	}

	return m, nil
}

func MustLoadStatusMap(provider Provider, data []byte) *StatusMap {
	m, err := LoadStatusMap(provider, data)
	if err != nil {
		panic(err)
	}

	return m
}

// Outcome never falls back to a default: unmapped statuses are an error.
func (m *StatusMap) Outcome(raw string) (Outcome, error) {
	o, ok := m.entries[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", &UnknownStatusError{Provider: m.provider, Status: raw}
	}

	return o, nil
}
