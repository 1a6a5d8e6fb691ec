package domain

import "fmt"

// Dispatch failure kinds. The engine records the kind and moves on; no kind
// is retried automatically because the DM send is not idempotent upstream.
const (
	DispatchUnauthorized     = "unauthorized"
	DispatchRateLimited      = "rate_limited"
	DispatchInvalidRecipient = "invalid_recipient"
	DispatchTransient        = "transient"
)

// DispatchError classifies a failed outbound DM send.
type DispatchError struct {
	Kind   string
	Status int
	Code   int
	Reason string
}

func (e *DispatchError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("dispatch failed: %s (http %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("dispatch failed: %s (http %d): %s", e.Kind, e.Status, e.Reason)
}

// Retryable reports whether the caller may attempt a later re-send under its
// own policy. The automation engine never does; this exists for operator
// tooling that inspects recorded outcomes.
func (e *DispatchError) Retryable() bool {
	return e.Kind == DispatchTransient || e.Kind == DispatchRateLimited
}
