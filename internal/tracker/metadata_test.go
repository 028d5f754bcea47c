package tracker

import (
	"context"
	"strings"
	"testing"

	"sentinel/internal/logging"
	"sentinel/internal/presence"
	"sentinel/internal/store"
	"sentinel/internal/testsupport"
)

func TestRefreshAvatarFirstObservationSeedsSilently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	entity := testsupport.TrackEntity(t, st, 1, "one", store.NotifySilent)

	url := "https://cdn.example.com/v1.png"
	source := &fakeSource{
		avatarFn: func(ctx context.Context, id int64) (string, error) {
			return url, nil
		},
	}
	events := &fakeEvents{}
	tr := newTestTracker(t, st, source, events)

	tr.refreshAvatar(context.Background(), entity, logging.NewNop())
	if len(events.Events()) != 0 {
		t.Fatalf("first avatar observation must not notify, got %d events", len(events.Events()))
	}
	if entity.AvatarURL != url {
		t.Fatalf("avatar not cached: %q", entity.AvatarURL)
	}

	// A change against the stored reference notifies.
	url = "https://cdn.example.com/v2.png"
	tr.refreshAvatar(context.Background(), entity, logging.NewNop())
	got := events.Events()
	if len(got) != 1 {
		t.Fatalf("avatar change must notify once, got %d events", len(got))
	}
	if got[0].Title != "Avatar Changed" {
		t.Fatalf("unexpected event title: %s", got[0].Title)
	}

	// Unchanged reference stays silent.
	tr.refreshAvatar(context.Background(), entity, logging.NewNop())
	if len(events.Events()) != 1 {
		t.Fatal("unchanged avatar must not notify again")
	}
}

func TestDiffFriendsSeedThenDiff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	entity := testsupport.TrackEntity(t, st, 1, "one", store.NotifySilent)
	ctx := context.Background()

	friends := []presence.Friend{
		{ID: 5, Name: "alpha", DisplayName: "Alpha"},
		{ID: 9, Name: "beta", DisplayName: "Beta"},
	}
	source := &fakeSource{
		friendsFn: func(ctx context.Context, id int64) ([]presence.Friend, error) {
			return friends, nil
		},
	}
	events := &fakeEvents{}
	tr := newTestTracker(t, st, source, events)

	// Empty stored set plus a non-empty observation seeds silently.
	history, err := st.History(ctx, 1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	tr.diffFriends(ctx, entity, history, logging.NewNop())
	if len(events.Events()) != 0 {
		t.Fatalf("friend seed must be silent, got %d events", len(events.Events()))
	}
	history, err = st.History(ctx, 1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history.FriendIDs) != 2 {
		t.Fatalf("friend set not seeded: %#v", history.FriendIDs)
	}

	// One addition and one removal announce together, exactly once.
	friends = []presence.Friend{
		{ID: 5, Name: "alpha", DisplayName: "Alpha"},
		{ID: 12, Name: "gamma", DisplayName: "Gamma"},
	}
	tr.diffFriends(ctx, entity, history, logging.NewNop())
	got := events.Events()
	if len(got) != 1 {
		t.Fatalf("expected exactly one friend event, got %d", len(got))
	}
	if !strings.Contains(got[0].Body, "➕ Added: **gamma**") {
		t.Fatalf("addition missing from body:\n%s", got[0].Body)
	}
	if !strings.Contains(got[0].Body, "➖ Removed ID: **9**") {
		t.Fatalf("removal missing from body:\n%s", got[0].Body)
	}

	history, err = st.History(ctx, 1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history.FriendIDs) != 2 || history.FriendIDs[0] != 5 || history.FriendIDs[1] != 12 {
		t.Fatalf("friend set not updated: %#v", history.FriendIDs)
	}

	// No further changes, no further events.
	tr.diffFriends(ctx, entity, history, logging.NewNop())
	if len(events.Events()) != 1 {
		t.Fatal("unchanged friend set must not notify")
	}
}

func TestDiffGroupRanks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	entity := testsupport.TrackEntity(t, st, 1, "one", store.NotifySilent)
	ctx := context.Background()

	role := func(groupID int64, groupName, roleName string, rank int) presence.GroupRole {
		var r presence.GroupRole
		r.Group.ID = groupID
		r.Group.Name = groupName
		r.Role.Name = roleName
		r.Role.Rank = rank
		return r
	}

	roles := []presence.GroupRole{role(100, "Example Group", "Member", 10)}
	source := &fakeSource{
		groupsFn: func(ctx context.Context, id int64) ([]presence.GroupRole, error) {
			return roles, nil
		},
	}
	events := &fakeEvents{}
	tr := newTestTracker(t, st, source, events)

	// Seed is silent.
	history, err := st.History(ctx, 1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	tr.diffGroupRanks(ctx, entity, history, logging.NewNop())
	if len(events.Events()) != 0 {
		t.Fatalf("group seed must be silent, got %d events", len(events.Events()))
	}

	// A new membership without a rank change updates silently.
	roles = []presence.GroupRole{
		role(100, "Example Group", "Member", 10),
		role(200, "Other Group", "Recruit", 1),
	}
	history, err = st.History(ctx, 1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	tr.diffGroupRanks(ctx, entity, history, logging.NewNop())
	if len(events.Events()) != 0 {
		t.Fatalf("membership-only change must be silent, got %d events", len(events.Events()))
	}

	// A rank change within a known group announces.
	roles = []presence.GroupRole{
		role(100, "Example Group", "Officer", 50),
		role(200, "Other Group", "Recruit", 1),
	}
	history, err = st.History(ctx, 1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	tr.diffGroupRanks(ctx, entity, history, logging.NewNop())
	got := events.Events()
	if len(got) != 1 {
		t.Fatalf("expected one rank event, got %d", len(got))
	}
	if !strings.Contains(got[0].Body, "**Example Group**") || !strings.Contains(got[0].Body, "**Officer**") {
		t.Fatalf("unexpected rank event body:\n%s", got[0].Body)
	}
	if !strings.Contains(got[0].Body, "was **Member** (rank 10)") {
		t.Fatalf("previous rank missing from body:\n%s", got[0].Body)
	}
}

func TestDiffIDSets(t *testing.T) {
	added, removed := diffIDSets([]int64{1, 2, 3}, []int64{2, 3, 4, 5})
	if len(added) != 2 || added[0] != 4 || added[1] != 5 {
		t.Fatalf("unexpected added set: %v", added)
	}
	if len(removed) != 1 || removed[0] != 1 {
		t.Fatalf("unexpected removed set: %v", removed)
	}

	added, removed = diffIDSets(nil, nil)
	if len(added) != 0 || len(removed) != 0 {
		t.Fatalf("empty sets must diff empty, got %v / %v", added, removed)
	}
}

func TestSweepMetadataSkipsMissingHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.TrackEntity(t, st, 1, "one", store.NotifySilent)

	source := &fakeSource{
		avatarFn: func(ctx context.Context, id int64) (string, error) {
			return "https://cdn.example.com/v1.png", nil
		},
		friendsFn: func(ctx context.Context, id int64) ([]presence.Friend, error) {
			return nil, nil
		},
		groupsFn: func(ctx context.Context, id int64) ([]presence.GroupRole, error) {
			return nil, nil
		},
	}
	events := &fakeEvents{}
	tr := newTestTracker(t, st, source, events)

	if err := tr.sweepMetadata(context.Background()); err != nil {
		t.Fatalf("sweepMetadata returned error: %v", err)
	}
	if len(events.Events()) != 0 {
		t.Fatalf("quiet sweep must not notify, got %d events", len(events.Events()))
	}
}
