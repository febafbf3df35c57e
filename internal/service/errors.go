package service

import "errors"

// Sentinel errors controllers translate into HTTP responses.
var (
	// ErrUnknownAgentKey means the external agent id resolved to no tenant.
	// This is a security boundary: the request must be rejected, never
	// served from a default tenant.
	ErrUnknownAgentKey = errors.New("unknown agent key")

	// ErrNotFound covers tenant-scoped lookups that matched nothing. A
	// record owned by another tenant is indistinguishable from a missing one.
	ErrNotFound = errors.New("not found")

	// ErrAssignConflict means another operator won the assignment, or the
	// handoff already left the pending state. The caller should refresh its
	// pending list rather than retry blindly.
	ErrAssignConflict = errors.New("handoff already assigned or closed")

	// ErrNoCapacity means the chosen agent had no spare slot at assignment
	// time.
	ErrNoCapacity = errors.New("agent has no spare capacity")

	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidCursor means the poll cursor was not a timestamp this
	// server ever handed out. The client should restart from an empty
	// cursor rather than retry.
	ErrInvalidCursor = errors.New("invalid message cursor")
)
