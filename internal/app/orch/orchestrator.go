// Package orch coordinates the call lifecycle and the signaling relay.
package orch

import (
	"time"

	"github.com/google/uuid"

	"github.com/dkeye/Messenger/internal/app"
	"github.com/dkeye/Messenger/internal/core"
	"github.com/dkeye/Messenger/internal/domain"
)

// Orchestrator composes the call directory and the signaling store and
// enforces who may do what. Every method takes the already resolved
// identity of the requester; an empty identity is rejected as unauthorized.
type Orchestrator struct {
	Users    core.UserDirectory
	Calls    core.CallDirectory
	Signals  core.SignalStore
	Policy   app.Policy
	Limiter  *app.RateLimiter
	Observer app.Observer

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() domain.CallID
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) newID() domain.CallID {
	if o.NewID != nil {
		return o.NewID()
	}
	return domain.CallID(uuid.NewString())
}

func (o *Orchestrator) policy() app.Policy {
	if o.Policy == nil {
		return app.SimplePolicy{}
	}
	return o.Policy
}

func (o *Orchestrator) observer() app.Observer {
	if o.Observer == nil {
		return app.NopObserver{}
	}
	return o.Observer
}

func requireIdentity(who domain.Username) error {
	if who == "" {
		return domain.ErrUnauthorized
	}
	return nil
}
