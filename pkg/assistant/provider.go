package assistant

import (
	"context"
	"errors"
)

// Turn is one prior exchange passed upstream for completion context.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Provider is the external generative backend: one session-create call plus
// one completion call per user turn. Consumed, not reimplemented.
type Provider interface {
	CreateSession(ctx context.Context) (string, error)
	Complete(ctx context.Context, sessionRef string, history []Turn, message string) (string, error)
}

// ErrSessionInvalid reports that the stored upstream session ref is no longer
// accepted and a fresh session must be created.
var ErrSessionInvalid = errors.New("assistant: upstream session ref invalid")

// ErrNotReady reports that the upstream session exists but is not warm yet;
// the call may be retried.
var ErrNotReady = errors.New("assistant: upstream session not ready")
