package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Messenger/internal/core"
)

// Reaper evicts signaling sessions left behind by vanished calls once nobody
// wrote to them within SessionTTL. When PendingTTL is positive it also
// deletes calls left pending longer than that.
type Reaper struct {
	Signals    core.SignalStore
	Calls      core.CallDirectory
	Limiter    *RateLimiter
	Observer   Observer
	SessionTTL time.Duration
	PendingTTL time.Duration
	Interval   time.Duration
	Now        func() time.Time

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// Start runs the reap loop in the background until ctx is done or Stop is called.
// Only the first call has an effect.
func (r *Reaper) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.done = make(chan struct{})
		if r.Interval <= 0 {
			log.Warn().Str("module", "app.reaper").Msg("reap interval not set, reaper disabled")
			return
		}
		r.wg.Add(1)
		go r.run(ctx)
		log.Info().Str("module", "app.reaper").Dur("interval", r.Interval).Msg("reaper started")
	})
}

// Stop halts the loop and waits for it to exit. Safe to call more than once.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		if r.done == nil {
			return
		}
		close(r.done)
		r.wg.Wait()
		log.Info().Str("module", "app.reaper").Msg("reaper stopped")
	})
}

func (r *Reaper) run(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reap pass.
func (r *Reaper) RunOnce(ctx context.Context) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	obs := r.observer()
	t := now().UTC()

	if r.PendingTTL > 0 && r.Calls != nil {
		ids, err := r.Calls.DeletePendingBefore(ctx, t.Add(-r.PendingTTL))
		if err != nil {
			log.Error().Err(err).Str("module", "app.reaper").Msg("expire pending calls")
		} else if len(ids) > 0 {
			for _, id := range ids {
				r.Signals.Evict(id)
			}
			obs.CallsExpired(len(ids))
			log.Info().Str("module", "app.reaper").Int("expired", len(ids)).Msg("pending calls expired")
		}
	}

	if r.SessionTTL > 0 {
		if n := r.reapIdle(ctx, t.Add(-r.SessionTTL)); n > 0 {
			obs.SessionsReaped(n)
			log.Info().Str("module", "app.reaper").Int("reaped", n).Msg("idle sessions reaped")
		}
	}
	obs.ActiveSessions(r.Signals.Len())
	r.Limiter.Prune()
}

// reapIdle evicts idle sessions whose call no longer exists. Sessions of
// live calls stay until End or pending expiry removes the record.
func (r *Reaper) reapIdle(ctx context.Context, cutoff time.Time) int {
	n := 0
	for _, id := range r.Signals.Idle(cutoff) {
		if r.Calls != nil {
			rec, err := r.Calls.Get(ctx, id)
			if err != nil {
				log.Error().Err(err).Str("module", "app.reaper").Str("call_id", string(id)).Msg("check call before reaping")
				continue
			}
			if rec != nil {
				continue
			}
		}
		if r.Signals.EvictIdle(id, cutoff) {
			n++
		}
	}
	return n
}

func (r *Reaper) observer() Observer {
	if r.Observer == nil {
		return NopObserver{}
	}
	return r.Observer
}
