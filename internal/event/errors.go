package event

import "fmt"

// MalformedEventError is returned when a payload lacks the identifiers
// required for reconciliation or cannot be decoded at all.
type MalformedEventError struct {
	Provider Provider
	Reason   string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: %s", e.Provider, e.Reason)
}

// UnknownStatusError is returned when a provider status has no mapping.
type UnknownStatusError struct {
	Provider Provider
	Status   string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown %s status %q", e.Provider, e.Status)
}

func Malformed(p Provider, format string, args ...any) error {
	return &MalformedEventError{Provider: p, Reason: fmt.Sprintf(format, args...)}
}
