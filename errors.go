package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/session"
)

var (
	// ErrSessionNotFound is returned when a session id resolves to nothing,
	// either because it never existed or because it idled out.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired marks a session destroyed for exceeding its absolute
	// age. Callers should clear the client cookie. It is the store's
	// sentinel re-exported, so checks match at either layer, and lookups
	// join it with ErrSessionNotFound so plain not-found handling also
	// catches it.
	ErrSessionExpired = session.ErrSessionExpired

	// ErrRedisUnavailable wraps store transport failures. Every lifecycle
	// operation fails closed on it.
	ErrRedisUnavailable = session.ErrRedisUnavailable

	// ErrGuardClosed is returned by operations invoked after Close.
	ErrGuardClosed = errors.New("guard closed")
)
