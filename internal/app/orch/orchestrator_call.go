package orch

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Messenger/internal/domain"
)

// Initiate creates a pending call from who to receiver and returns its id.
func (o *Orchestrator) Initiate(ctx context.Context, who, receiver domain.Username) (domain.CallID, error) {
	if err := requireIdentity(who); err != nil {
		return "", err
	}
	if receiver == "" {
		return "", domain.Validation("receiver is required")
	}
	if receiver == who {
		return "", domain.Validation("cannot call yourself")
	}
	ok, err := o.Users.Exists(ctx, receiver)
	if err != nil {
		return "", errors.Wrap(err, "lookup receiver")
	}
	if !ok {
		return "", errors.WithMessage(domain.ErrNotFound, "user not found")
	}
	if !o.Limiter.Allow(who) {
		return "", domain.ErrRateLimited
	}

	rec := &domain.CallRecord{
		ID:        o.newID(),
		Caller:    who,
		Receiver:  receiver,
		Status:    domain.CallPending,
		CreatedAt: o.now(),
	}
	if err := o.Calls.Create(ctx, rec); err != nil {
		return "", err
	}
	o.observer().CallInitiated()
	log.Info().Str("module", "app.orch").Str("call_id", string(rec.ID)).
		Str("caller", string(who)).Str("receiver", string(receiver)).Msg("call initiated")
	return rec.ID, nil
}

// Accept moves a pending call to accepted and returns the caller.
// Only the receiver of the call may accept it.
func (o *Orchestrator) Accept(ctx context.Context, who domain.Username, id domain.CallID) (domain.Username, error) {
	if err := requireIdentity(who); err != nil {
		return "", err
	}
	if id == "" {
		return "", domain.Validation("call_id is required")
	}
	rec, err := o.Calls.Accept(ctx, id, who)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			log.Warn().Str("module", "app.orch").Str("call_id", string(id)).Str("user", string(who)).Msg("accept by non-receiver")
		}
		return "", err
	}
	o.observer().CallAccepted()
	log.Info().Str("module", "app.orch").Str("call_id", string(id)).Str("receiver", string(who)).Msg("call accepted")
	return rec.Caller, nil
}

// End deletes the call and its signaling session. Ending a call that is
// already gone succeeds.
func (o *Orchestrator) End(ctx context.Context, who domain.Username, id domain.CallID) error {
	if err := requireIdentity(who); err != nil {
		return err
	}
	if id == "" {
		return domain.Validation("call_id is required")
	}
	rec, err := o.Calls.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		o.Signals.Evict(id)
		return nil
	}
	if !o.policy().CanEnd(rec, who) {
		return domain.ErrForbidden
	}
	// the record goes first so a failed delete leaves the session usable
	if err := o.Calls.Delete(ctx, id); err != nil {
		return err
	}
	o.Signals.Evict(id)
	o.observer().CallEnded()
	log.Info().Str("module", "app.orch").Str("call_id", string(id)).Str("by", string(who)).Msg("call ended")
	return nil
}

// CheckPending returns the most recent pending call addressed to who, or nil.
func (o *Orchestrator) CheckPending(ctx context.Context, who domain.Username) (*domain.CallRecord, error) {
	if err := requireIdentity(who); err != nil {
		return nil, err
	}
	return o.Calls.LatestPendingFor(ctx, who)
}

// Status reports where a call is in its lifecycle. A missing record is ended.
func (o *Orchestrator) Status(ctx context.Context, who domain.Username, id domain.CallID) (domain.CallStatus, error) {
	if err := requireIdentity(who); err != nil {
		return "", err
	}
	if id == "" {
		return "", domain.Validation("call_id is required")
	}
	rec, err := o.Calls.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return domain.CallEnded, nil
	}
	if !o.policy().CanObserve(rec, who) {
		return "", domain.ErrForbidden
	}
	return rec.Status, nil
}
