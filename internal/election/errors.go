package election

import (
	"errors"
	"fmt"
)

// RejectReason is the machine-readable outcome of a failed ballot check.
type RejectReason string

const (
	ReasonAlreadyVoted     RejectReason = "already_voted"
	ReasonInvalidCandidate RejectReason = "invalid_candidate"
	ReasonMalformedInput   RejectReason = "malformed_input"
)

// ErrDuplicateVote marks a unique-constraint violation on
// (voter_id, position_id): a concurrent request won the race.
var ErrDuplicateVote = errors.New("vote already recorded for this position")

// RejectedError is an expected, user-facing outcome, not a failure.
type RejectedError struct {
	Reason RejectReason
	cause  error
}

func (e *RejectedError) Error() string {
	return "ballot rejected: " + string(e.Reason)
}

func (e *RejectedError) Unwrap() error { return e.cause }

func rejected(reason RejectReason) error {
	return &RejectedError{Reason: reason}
}

// IdentityResolutionError wraps a failure to map an external user id to an
// internal voter id.
type IdentityResolutionError struct {
	ExternalID string
	Err        error
}

func (e *IdentityResolutionError) Error() string {
	return fmt.Sprintf("resolving voter identity %q: %v", e.ExternalID, e.Err)
}

func (e *IdentityResolutionError) Unwrap() error { return e.Err }

// PersistenceError wraps an unexpected storage failure. Not retried; the
// handler logs it and answers with a generic 500.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
