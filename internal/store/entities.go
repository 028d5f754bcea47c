package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const entityColumns = "user_id, username, display_name, ping_mode, last_presence_type, last_place_id, last_game_id, last_avatar_url, priority, enabled"

func scanEntity(scanner interface{ Scan(dest ...any) error }) (*TrackedEntity, error) {
	var (
		id       int64
		username string
		display  string
		pingMode string
		presence int
		placeID  sql.NullInt64
		gameID   sql.NullString
		avatar   sql.NullString
		priority int
		enabled  int
	)
	if err := scanner.Scan(&id, &username, &display, &pingMode, &presence, &placeID, &gameID, &avatar, &priority, &enabled); err != nil {
		return nil, err
	}

	entity := &TrackedEntity{
		ID:          id,
		Username:    username,
		DisplayName: display,
		NotifyMode:  NotifyMode(pingMode),
		Status:      Presence(presence),
		AvatarURL:   avatar.String,
		Priority:    priority != 0,
		Enabled:     enabled != 0,
	}
	if placeID.Valid {
		v := placeID.Int64
		entity.PlaceID = &v
	}
	if gameID.Valid {
		v := gameID.String
		entity.SessionID = &v
	}
	return entity, nil
}

// Track upserts a tracked entity and seeds its empty metadata history.
// Re-tracking an existing entity refreshes names and mode but preserves
// committed presence state.
func (s *Store) Track(ctx context.Context, id int64, username, displayName string, mode NotifyMode) (*TrackedEntity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin track tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO tracked_users (user_id, username, display_name, ping_mode)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            username = excluded.username,
            display_name = excluded.display_name,
            ping_mode = excluded.ping_mode,
            enabled = 1`,
		id, username, displayName, string(mode),
	); err != nil {
		return nil, fmt.Errorf("insert tracked entity: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_history (user_id) VALUES (?)", id,
	); err != nil {
		return nil, fmt.Errorf("seed metadata history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit track: %w", err)
	}
	return s.Entity(ctx, id)
}

// Untrack removes an entity and its metadata history.
func (s *Store) Untrack(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tracked_users WHERE user_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete tracked entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("untrack rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotTracked
	}
	// Cascade handles user_history, but older databases may predate the FK.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM user_history WHERE user_id = ?", id); err != nil {
		return fmt.Errorf("delete metadata history: %w", err)
	}
	return nil
}

// Entity returns a single tracked entity by id.
func (s *Store) Entity(ctx context.Context, id int64) (*TrackedEntity, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM tracked_users WHERE user_id = ?", id)
	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotTracked
	}
	if err != nil {
		return nil, fmt.Errorf("scan tracked entity: %w", err)
	}
	return entity, nil
}

// ListEnabled returns every enabled entity, priority and standard alike.
func (s *Store) ListEnabled(ctx context.Context) ([]*TrackedEntity, error) {
	return s.list(ctx, "SELECT "+entityColumns+" FROM tracked_users WHERE enabled = 1 ORDER BY user_id")
}

// ListByPriority returns the enabled entities in one polling partition.
// The priority and standard loops call this with opposite arguments, which
// is what keeps their entity sets disjoint.
func (s *Store) ListByPriority(ctx context.Context, priority bool) ([]*TrackedEntity, error) {
	flag := 0
	if priority {
		flag = 1
	}
	return s.list(ctx,
		"SELECT "+entityColumns+" FROM tracked_users WHERE enabled = 1 AND priority = ? ORDER BY user_id", flag)
}

// ListAll returns every entity including disabled ones, for CLI listings.
func (s *Store) ListAll(ctx context.Context) ([]*TrackedEntity, error) {
	return s.list(ctx, "SELECT "+entityColumns+" FROM tracked_users ORDER BY user_id")
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*TrackedEntity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracked entities: %w", err)
	}
	defer rows.Close()

	var entities []*TrackedEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracked entity: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked entities: %w", err)
	}
	return entities, nil
}

// CommitPresence writes a verified transition's status and session pair in
// one update. Reapplying identical values is a no-op in effect.
func (s *Store) CommitPresence(ctx context.Context, id int64, status Presence, placeID *int64, sessionID *string) error {
	var place sql.NullInt64
	if placeID != nil {
		place = sql.NullInt64{Int64: *placeID, Valid: true}
	}
	var session sql.NullString
	if sessionID != nil {
		session = sql.NullString{String: *sessionID, Valid: true}
	}
	return s.updateEntity(ctx, id,
		`UPDATE tracked_users SET last_presence_type = ?, last_place_id = ?, last_game_id = ? WHERE user_id = ?`,
		int(status.Normalize()), place, session, id)
}

// UpdateAvatar replaces the cached avatar reference.
func (s *Store) UpdateAvatar(ctx context.Context, id int64, url string) error {
	return s.updateEntity(ctx, id,
		"UPDATE tracked_users SET last_avatar_url = ? WHERE user_id = ?", url, id)
}

// SetPriority moves an entity between the priority and standard partitions.
func (s *Store) SetPriority(ctx context.Context, id int64, priority bool) error {
	flag := 0
	if priority {
		flag = 1
	}
	return s.updateEntity(ctx, id,
		"UPDATE tracked_users SET priority = ? WHERE user_id = ?", flag, id)
}

// SetNotifyMode switches the mass-notify marker policy for an entity.
func (s *Store) SetNotifyMode(ctx context.Context, id int64, mode NotifyMode) error {
	return s.updateEntity(ctx, id,
		"UPDATE tracked_users SET ping_mode = ? WHERE user_id = ?", string(mode), id)
}

// SetEnabled soft-deletes or restores an entity.
func (s *Store) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	flag := 0
	if enabled {
		flag = 1
	}
	return s.updateEntity(ctx, id,
		"UPDATE tracked_users SET enabled = ? WHERE user_id = ?", flag, id)
}

func (s *Store) updateEntity(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update tracked entity %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotTracked
	}
	return nil
}
