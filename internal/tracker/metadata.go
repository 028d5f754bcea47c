package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"sentinel/internal/dispatch"
	"sentinel/internal/logging"
	"sentinel/internal/store"
)

// sweepMetadata refreshes avatar references, friend sets, and group ranks
// for every enabled entity. It only ever touches the metadata column set,
// never presence state; that disjointness is what lets it overlap the
// presence loops without locking.
func (t *Tracker) sweepMetadata(ctx context.Context) error {
	entities, err := t.store.ListEnabled(ctx)
	if err != nil {
		return err
	}

	logger := logging.WithComponent(t.logger, "tracker").With(logging.String(logging.FieldLoop, "metadata"))
	pause := time.Duration(t.cfg.Tracker.MetadataPause) * time.Second

	for i, entity := range entities {
		if err := ctx.Err(); err != nil {
			return err
		}

		t.refreshAvatar(ctx, entity, logger)

		history, err := t.store.History(ctx, entity.ID)
		if errors.Is(err, store.ErrNoHistory) {
			// Data-integrity gap: skip this entity's diff for the cycle.
			logger.Warn("metadata history missing", logging.EntityID(entity.ID))
			continue
		}
		if err != nil {
			logger.Error("load metadata history failed", logging.EntityID(entity.ID), logging.Error(err))
			continue
		}

		t.diffFriends(ctx, entity, history, logger)
		t.diffGroupRanks(ctx, entity, history, logger)

		if i < len(entities)-1 && pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return nil
}

// refreshAvatar updates the cached avatar reference. The first-ever
// observation seeds silently; only a change from a previously known
// reference notifies.
func (t *Tracker) refreshAvatar(ctx context.Context, entity *store.TrackedEntity, logger *slog.Logger) {
	url, err := t.source.AvatarURL(ctx, entity.ID)
	if err != nil {
		logger.Debug("avatar lookup failed", logging.EntityID(entity.ID), logging.Error(err))
		return
	}
	if url == "" || url == entity.AvatarURL {
		return
	}

	hadPrevious := entity.AvatarURL != ""
	if err := t.store.UpdateAvatar(ctx, entity.ID, url); err != nil {
		logger.Error("store avatar failed", logging.EntityID(entity.ID), logging.Error(err))
		return
	}
	entity.AvatarURL = url

	if hadPrevious {
		event := dispatch.NewEvent("Avatar Changed", "Updated their avatar.", dispatch.ColorAvatar, author(entity))
		t.events.Dispatch(ctx, event)
	}
}

// diffFriends compares the stored friend set against the live one. A first
// non-empty observation over an empty stored set seeds silently; otherwise
// additions and removals are announced together.
func (t *Tracker) diffFriends(ctx context.Context, entity *store.TrackedEntity, history *store.MetadataHistory, logger *slog.Logger) {
	friends, err := t.source.Friends(ctx, entity.ID)
	if err != nil {
		logger.Debug("friends lookup failed", logging.EntityID(entity.ID), logging.Error(err))
		return
	}

	current := make([]int64, 0, len(friends))
	names := make(map[int64]string, len(friends))
	for _, friend := range friends {
		current = append(current, friend.ID)
		names[friend.ID] = friend.Name
	}

	if len(history.FriendIDs) == 0 {
		if len(current) > 0 {
			if err := t.store.UpdateFriendIDs(ctx, entity.ID, current); err != nil {
				logger.Error("seed friend set failed", logging.EntityID(entity.ID), logging.Error(err))
			}
		}
		return
	}

	added, removed := diffIDSets(history.FriendIDs, current)
	if len(added) == 0 && len(removed) == 0 {
		return
	}

	addedNames := make([]string, 0, len(added))
	for _, id := range added {
		name := names[id]
		if name == "" {
			name = fmt.Sprintf("%d", id)
		}
		addedNames = append(addedNames, name)
	}
	collate.New(language.English, collate.IgnoreCase).SortStrings(addedNames)

	var builder strings.Builder
	for _, name := range addedNames {
		fmt.Fprintf(&builder, "➕ Added: **%s**\n", name)
	}
	for _, id := range removed {
		fmt.Fprintf(&builder, "➖ Removed ID: **%d**\n", id)
	}

	event := dispatch.NewEvent("Friend List Updated", strings.TrimRight(builder.String(), "\n"), dispatch.ColorFriends, author(entity))
	t.events.Dispatch(ctx, event)

	if err := t.store.UpdateFriendIDs(ctx, entity.ID, current); err != nil {
		logger.Error("store friend set failed", logging.EntityID(entity.ID), logging.Error(err))
	}
}

// diffGroupRanks announces rank changes per group. New memberships and
// departures update silently; only a changed rank within a group the
// entity was already known to belong to is announced.
func (t *Tracker) diffGroupRanks(ctx context.Context, entity *store.TrackedEntity, history *store.MetadataHistory, logger *slog.Logger) {
	roles, err := t.source.GroupRoles(ctx, entity.ID)
	if err != nil {
		logger.Debug("group roles lookup failed", logging.EntityID(entity.ID), logging.Error(err))
		return
	}

	observed := make(map[int64]store.GroupRank, len(roles))
	for _, role := range roles {
		observed[role.Group.ID] = store.GroupRank{
			GroupName: role.Group.Name,
			Rank:      role.Role.Rank,
			RoleName:  role.Role.Name,
		}
	}

	if len(history.GroupRanks) == 0 {
		if len(observed) > 0 {
			if err := t.store.UpdateGroupRanks(ctx, entity.ID, observed); err != nil {
				logger.Error("seed group ranks failed", logging.EntityID(entity.ID), logging.Error(err))
			}
		}
		return
	}

	changed := groupRanksChanged(history.GroupRanks, observed)
	for _, groupID := range sortedGroupIDs(observed) {
		rank := observed[groupID]
		previous, known := history.GroupRanks[groupID]
		if !known || previous.Rank == rank.Rank {
			continue
		}
		body := fmt.Sprintf("Rank changed in **%s**: now **%s** (rank %d), was **%s** (rank %d).",
			rank.GroupName, rank.RoleName, rank.Rank, previous.RoleName, previous.Rank)
		event := dispatch.NewEvent("Group Rank Changed", body, dispatch.ColorGroups, author(entity))
		t.events.Dispatch(ctx, event)
	}

	if changed {
		if err := t.store.UpdateGroupRanks(ctx, entity.ID, observed); err != nil {
			logger.Error("store group ranks failed", logging.EntityID(entity.ID), logging.Error(err))
		}
	}
}

// diffIDSets returns the ids present only in current (added) and only in
// previous (removed), each in ascending order.
func diffIDSets(previous, current []int64) (added, removed []int64) {
	prevSet := make(map[int64]struct{}, len(previous))
	for _, id := range previous {
		prevSet[id] = struct{}{}
	}
	curSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		curSet[id] = struct{}{}
	}

	for _, id := range current {
		if _, ok := prevSet[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range previous {
		if _, ok := curSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}

func groupRanksChanged(stored, observed map[int64]store.GroupRank) bool {
	if len(stored) != len(observed) {
		return true
	}
	for groupID, rank := range observed {
		previous, ok := stored[groupID]
		if !ok || previous != rank {
			return true
		}
	}
	return false
}

func sortedGroupIDs(ranks map[int64]store.GroupRank) []int64 {
	ids := make([]int64, 0, len(ranks))
	for id := range ranks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
