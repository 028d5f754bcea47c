package tracker

import (
	"context"
	"log/slog"
	"time"

	"sentinel/internal/logging"
	"sentinel/internal/presence"
)

// verifier suppresses transient flapping: a session ending and restarting
// within seconds would otherwise announce two spurious transitions.
type verifier struct {
	source Source
	delay  time.Duration
	logger *slog.Logger
}

// confirm waits out the cooldown window, then re-queries the single
// candidate entity. The candidate is confirmed only when the re-queried
// status matches the observed one; a fetch failure or a mismatch discards
// it silently. The returned observation is the re-queried one, which may
// carry fresher session identifiers than the candidate.
func (v *verifier) confirm(ctx context.Context, cand candidate) (presence.UserPresence, bool) {
	select {
	case <-ctx.Done():
		return presence.UserPresence{}, false
	case <-time.After(v.delay):
	}

	observations, err := v.source.QueryPresence(ctx, []int64{cand.entity.ID})
	if err != nil {
		v.logger.Debug("re-query failed, discarding candidate",
			logging.EntityID(cand.entity.ID), logging.Error(err))
		return presence.UserPresence{}, false
	}
	if len(observations) == 0 {
		return presence.UserPresence{}, false
	}

	latest := normalizeObservation(observations[0], v.logger)
	if latest.Type != cand.observed.Type {
		v.logger.Debug("candidate did not hold, discarding",
			logging.EntityID(cand.entity.ID),
			logging.Int("candidate", cand.observed.Type),
			logging.Int("recheck", latest.Type),
		)
		return presence.UserPresence{}, false
	}
	return latest, true
}
