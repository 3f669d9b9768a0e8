package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Messenger/internal/core"
	"github.com/dkeye/Messenger/internal/domain"
)

// authorizeSignal checks that id names a live call and who may signal on it.
func (o *Orchestrator) authorizeSignal(ctx context.Context, who domain.Username, id domain.CallID) error {
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
		return domain.ErrInvalidCall
	}
	if !o.policy().CanSignal(rec, who) {
		log.Warn().Str("module", "app.orch").Str("call_id", string(id)).Str("user", string(who)).Msg("signal by non-participant")
		return domain.ErrForbidden
	}
	return nil
}

func (o *Orchestrator) SetOffer(ctx context.Context, who domain.Username, id domain.CallID, offer core.Blob) error {
	if err := o.authorizeSignal(ctx, who, id); err != nil {
		return err
	}
	if len(offer) == 0 {
		return domain.Validation("offer is required")
	}
	o.Signals.SetOffer(id, offer)
	o.observer().SignalWrite("offer")
	log.Debug().Str("module", "app.orch").Str("call_id", string(id)).Str("from", string(who)).Msg("offer stored")
	return nil
}

func (o *Orchestrator) SetAnswer(ctx context.Context, who domain.Username, id domain.CallID, answer core.Blob) error {
	if err := o.authorizeSignal(ctx, who, id); err != nil {
		return err
	}
	if len(answer) == 0 {
		return domain.Validation("answer is required")
	}
	o.Signals.SetAnswer(id, answer)
	o.observer().SignalWrite("answer")
	log.Debug().Str("module", "app.orch").Str("call_id", string(id)).Str("from", string(who)).Msg("answer stored")
	return nil
}

func (o *Orchestrator) AppendCandidate(ctx context.Context, who domain.Username, id domain.CallID, candidate core.Blob) error {
	if err := o.authorizeSignal(ctx, who, id); err != nil {
		return err
	}
	if len(candidate) == 0 {
		return domain.Validation("candidate is required")
	}
	if err := o.Signals.AppendCandidate(id, candidate); err != nil {
		return err
	}
	o.observer().SignalWrite("candidate")
	return nil
}

// GetSession returns the current signaling snapshot for a participant.
func (o *Orchestrator) GetSession(ctx context.Context, who domain.Username, id domain.CallID) (core.SessionSnapshot, error) {
	if err := o.authorizeSignal(ctx, who, id); err != nil {
		return core.SessionSnapshot{}, err
	}
	return o.Signals.GetSession(id), nil
}
