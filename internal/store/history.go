package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// History returns the metadata history for a tracked entity. A tracked
// entity without a history row yields ErrNoHistory.
func (s *Store) History(ctx context.Context, id int64) (*MetadataHistory, error) {
	var (
		friendsRaw string
		groupsRaw  string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT friend_ids, group_data FROM user_history WHERE user_id = ?", id,
	).Scan(&friendsRaw, &groupsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("query metadata history: %w", err)
	}

	history := &MetadataHistory{EntityID: id}
	if err := json.Unmarshal([]byte(friendsRaw), &history.FriendIDs); err != nil {
		return nil, fmt.Errorf("decode friend ids: %w", err)
	}

	// Group keys are serialized as strings; JSON objects cannot carry
	// integer keys.
	var rawRanks map[string]GroupRank
	if err := json.Unmarshal([]byte(groupsRaw), &rawRanks); err != nil {
		return nil, fmt.Errorf("decode group ranks: %w", err)
	}
	history.GroupRanks = make(map[int64]GroupRank, len(rawRanks))
	for key, rank := range rawRanks {
		groupID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode group id %q: %w", key, err)
		}
		history.GroupRanks[groupID] = rank
	}
	return history, nil
}

// UpdateFriendIDs replaces the stored friend set.
func (s *Store) UpdateFriendIDs(ctx context.Context, id int64, friendIDs []int64) error {
	if friendIDs == nil {
		friendIDs = []int64{}
	}
	encoded, err := json.Marshal(friendIDs)
	if err != nil {
		return fmt.Errorf("encode friend ids: %w", err)
	}
	return s.updateHistory(ctx, id,
		"UPDATE user_history SET friend_ids = ? WHERE user_id = ?", string(encoded), id)
}

// UpdateGroupRanks replaces the stored group-rank map.
func (s *Store) UpdateGroupRanks(ctx context.Context, id int64, ranks map[int64]GroupRank) error {
	raw := make(map[string]GroupRank, len(ranks))
	for groupID, rank := range ranks {
		raw[strconv.FormatInt(groupID, 10)] = rank
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode group ranks: %w", err)
	}
	return s.updateHistory(ctx, id,
		"UPDATE user_history SET group_data = ? WHERE user_id = ?", string(encoded), id)
}

func (s *Store) updateHistory(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update metadata history %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("history rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNoHistory
	}
	return nil
}
