package services

import "errors"

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrMissingReference marks a checkout event that cannot be linked to an
	// internal user. Non-retriable for the business operation; the handler
	// still answers 500 so the provider redelivers.
	ErrMissingReference = errors.New("checkout session has no client reference id")

	// ErrUnknownCustomer means a subscription event referenced a customer id
	// no user record carries. Failing loudly makes the provider retry instead
	// of silently dropping the transition.
	ErrUnknownCustomer = errors.New("no user for stripe customer id")

	// ErrNotReconciled is the retriable poll-path signal: the webhook that
	// flips the stored subscription state has not landed yet.
	ErrNotReconciled = errors.New("subscription not reconciled yet")

	// ErrSessionMismatch means the polled checkout session belongs to a
	// different user than the caller.
	ErrSessionMismatch = errors.New("checkout session does not belong to caller")
)
