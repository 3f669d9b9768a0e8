package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Messenger/internal/domain"
)

// DeleteAccount removes who together with their messages and calls, and
// drops the signaling sessions of those calls.
func (o *Orchestrator) DeleteAccount(ctx context.Context, who domain.Username) error {
	if err := requireIdentity(who); err != nil {
		return err
	}
	ids, err := o.Users.Delete(ctx, who)
	if err != nil {
		return err
	}
	for _, id := range ids {
		o.Signals.Evict(id)
		o.observer().CallEnded()
	}
	log.Info().Str("module", "app.orch").Str("user", string(who)).Int("calls", len(ids)).Msg("account deleted")
	return nil
}
