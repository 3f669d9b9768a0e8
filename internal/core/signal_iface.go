package core

import (
	"time"

	"github.com/dkeye/Messenger/internal/domain"
)

// Blob is an opaque signaling payload. An empty blob means "not set".
type Blob []byte

// SessionSnapshot is a read-only copy of a signaling session.
type SessionSnapshot struct {
	Offer       Blob
	Answer      Blob
	Candidates  []Blob
	LastTouched time.Time
}

// SignalStore relays offer/answer/candidates between the two peers of a call.
// It holds no authorization logic; callers check participation first.
type SignalStore interface {
	SetOffer(id domain.CallID, offer Blob)
	SetAnswer(id domain.CallID, answer Blob)
	AppendCandidate(id domain.CallID, candidate Blob) error
	GetSession(id domain.CallID) SessionSnapshot
	Evict(id domain.CallID)
	// Idle lists sessions last written before olderThan; EvictIdle removes
	// one of them unless it was written since.
	Idle(olderThan time.Time) []domain.CallID
	EvictIdle(id domain.CallID, olderThan time.Time) bool
	Len() int
}
