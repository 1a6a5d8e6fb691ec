package domain

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidInput     = errors.New("invalid_input")
	ErrConflict         = errors.New("conflict")
	ErrAccountLinked    = errors.New("account_already_linked")
	ErrInvalidSignature = errors.New("invalid_webhook_signature")
	ErrCycleRunning     = errors.New("reconcile_cycle_running")
)
