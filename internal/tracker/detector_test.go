package tracker

import (
	"testing"

	"sentinel/internal/logging"
	"sentinel/internal/presence"
	"sentinel/internal/store"
)

func trackedEntity(id int64, status store.Presence) *store.TrackedEntity {
	return &store.TrackedEntity{
		ID:          id,
		Username:    "user",
		DisplayName: "User",
		NotifyMode:  store.NotifySilent,
		Status:      status,
		Enabled:     true,
	}
}

func TestDetectCandidatesSkipsUnchanged(t *testing.T) {
	entities := []*store.TrackedEntity{trackedEntity(1, store.PresenceOnline)}
	observations := []presence.UserPresence{observation(1, presence.StatusOnline)}

	candidates := detectCandidates(entities, observations, logging.NewNop())
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestDetectCandidatesStatusChange(t *testing.T) {
	entities := []*store.TrackedEntity{trackedEntity(1, store.PresenceOffline)}
	observations := []presence.UserPresence{observation(1, presence.StatusInStudio)}

	candidates := detectCandidates(entities, observations, logging.NewNop())
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	if candidates[0].observed.Type != presence.StatusInStudio {
		t.Fatalf("unexpected candidate observation: %#v", candidates[0].observed)
	}
}

func TestDetectCandidatesIgnoresUnknownEntities(t *testing.T) {
	entities := []*store.TrackedEntity{trackedEntity(1, store.PresenceOffline)}
	observations := []presence.UserPresence{observation(99, presence.StatusOnline)}

	if candidates := detectCandidates(entities, observations, logging.NewNop()); len(candidates) != 0 {
		t.Fatalf("observation outside the batch must be ignored, got %d candidates", len(candidates))
	}
}

func TestDetectCandidatesSessionHop(t *testing.T) {
	placeID := int64(1818)
	sessionID := "old-session"
	entity := trackedEntity(1, store.PresenceInSession)
	entity.PlaceID = &placeID
	entity.SessionID = &sessionID

	observations := []presence.UserPresence{sessionObservation(1, 1818, "new-session", "Example Place")}
	candidates := detectCandidates([]*store.TrackedEntity{entity}, observations, logging.NewNop())
	if len(candidates) != 1 {
		t.Fatalf("server hop must be a candidate, got %d", len(candidates))
	}

	// Same place and session: not a transition.
	observations = []presence.UserPresence{sessionObservation(1, 1818, "old-session", "Example Place")}
	if candidates := detectCandidates([]*store.TrackedEntity{entity}, observations, logging.NewNop()); len(candidates) != 0 {
		t.Fatalf("unchanged session must not be a candidate, got %d", len(candidates))
	}
}

func TestNormalizeObservationUnknownCode(t *testing.T) {
	placeID := int64(1818)
	gameID := "session"
	observed := presence.UserPresence{UserID: 1, Type: 9, PlaceID: &placeID, GameID: &gameID}

	normalized := normalizeObservation(observed, logging.NewNop())
	if normalized.Type != presence.StatusOffline {
		t.Fatalf("unknown code must fold to offline, got %d", normalized.Type)
	}
	if normalized.PlaceID != nil || normalized.GameID != nil {
		t.Fatal("unknown code must clear session identifiers")
	}
}

func TestIsTransitionPointerComparisons(t *testing.T) {
	a := int64(1)
	b := int64(1)
	if !int64PtrEqual(&a, &b) {
		t.Fatal("equal values behind distinct pointers must compare equal")
	}
	if int64PtrEqual(&a, nil) {
		t.Fatal("value vs nil must compare unequal")
	}
	if !stringPtrEqual(nil, nil) {
		t.Fatal("nil vs nil must compare equal")
	}
}
