package tracker

import (
	"log/slog"

	"sentinel/internal/logging"
	"sentinel/internal/presence"
	"sentinel/internal/store"
)

// candidate is a detected but unverified status change.
type candidate struct {
	entity   *store.TrackedEntity
	observed presence.UserPresence
}

// detectCandidates compares fresh observations against committed state and
// returns the transitions worth verifying. Non-candidates produce no side
// effects. Observations for entities outside the batch are ignored.
func detectCandidates(entities []*store.TrackedEntity, observations []presence.UserPresence, logger *slog.Logger) []candidate {
	byID := make(map[int64]*store.TrackedEntity, len(entities))
	for _, entity := range entities {
		byID[entity.ID] = entity
	}

	var candidates []candidate
	for _, observed := range observations {
		entity, ok := byID[observed.UserID]
		if !ok {
			continue
		}
		observed = normalizeObservation(observed, logger)
		if !isTransition(entity, observed) {
			continue
		}
		candidates = append(candidates, candidate{entity: entity, observed: observed})
	}
	return candidates
}

// normalizeObservation folds unknown status codes into offline. The
// enumeration is closed upstream; anything else gets no special handling.
func normalizeObservation(observed presence.UserPresence, logger *slog.Logger) presence.UserPresence {
	if store.Presence(observed.Type).Known() {
		return observed
	}
	if logger != nil {
		logger.Warn("unknown presence code, treating as offline",
			logging.EntityID(observed.UserID),
			logging.Int("code", observed.Type),
		)
	}
	observed.Type = presence.StatusOffline
	observed.PlaceID = nil
	observed.GameID = nil
	return observed
}

// isTransition reports whether observed differs from the entity's committed
// state: either the status changed, or the entity hopped servers while
// nominally remaining in-session.
func isTransition(entity *store.TrackedEntity, observed presence.UserPresence) bool {
	if int(entity.Status) != observed.Type {
		return true
	}
	return isSessionHop(entity, observed)
}

func isSessionHop(entity *store.TrackedEntity, observed presence.UserPresence) bool {
	if entity.Status != store.PresenceInSession || observed.Type != presence.StatusInSession {
		return false
	}
	return !int64PtrEqual(entity.PlaceID, observed.PlaceID) || !stringPtrEqual(entity.SessionID, observed.GameID)
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
