package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const deploymentColumns = "guild_id, event_channel_id, log_channel_id, event_webhook_url, prefix"

func scanDeployment(scanner interface{ Scan(dest ...any) error }) (*Deployment, error) {
	var (
		guildID    int64
		eventChan  sql.NullInt64
		logChan    sql.NullInt64
		webhookURL sql.NullString
		prefix     string
	)
	if err := scanner.Scan(&guildID, &eventChan, &logChan, &webhookURL, &prefix); err != nil {
		return nil, err
	}

	deployment := &Deployment{GuildID: guildID, Prefix: prefix}
	if eventChan.Valid {
		v := eventChan.Int64
		deployment.EventChannelID = &v
	}
	if logChan.Valid {
		v := logChan.Int64
		deployment.LogChannelID = &v
	}
	if webhookURL.Valid && webhookURL.String != "" {
		v := webhookURL.String
		deployment.WebhookURL = &v
	}
	return deployment, nil
}

// Deployments returns every deployment configuration.
func (s *Store) Deployments(ctx context.Context) ([]*Deployment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+deploymentColumns+" FROM server_config ORDER BY guild_id")
	if err != nil {
		return nil, fmt.Errorf("query deployments: %w", err)
	}
	defer rows.Close()

	var deployments []*Deployment
	for rows.Next() {
		deployment, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deployment: %w", err)
		}
		deployments = append(deployments, deployment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployments: %w", err)
	}
	return deployments, nil
}

// Deployment returns one deployment by guild id, or nil when unconfigured.
func (s *Store) Deployment(ctx context.Context, guildID int64) (*Deployment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+deploymentColumns+" FROM server_config WHERE guild_id = ?", guildID)
	deployment, err := scanDeployment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan deployment: %w", err)
	}
	return deployment, nil
}

// SetEventChannel points a deployment's event destination at a channel.
// Zero clears the destination.
func (s *Store) SetEventChannel(ctx context.Context, guildID, channelID int64) error {
	return s.upsertDeploymentColumn(ctx, guildID, "event_channel_id", nullableID(channelID))
}

// SetLogChannel points a deployment's log destination at a channel.
// Zero clears the destination.
func (s *Store) SetLogChannel(ctx context.Context, guildID, channelID int64) error {
	return s.upsertDeploymentColumn(ctx, guildID, "log_channel_id", nullableID(channelID))
}

// SetWebhook sets or clears a deployment's webhook destination.
func (s *Store) SetWebhook(ctx context.Context, guildID int64, url string) error {
	var value any
	if url != "" {
		value = url
	}
	return s.upsertDeploymentColumn(ctx, guildID, "event_webhook_url", value)
}

// SetPrefix changes a deployment's command prefix.
func (s *Store) SetPrefix(ctx context.Context, guildID int64, prefix string) error {
	if prefix == "" {
		prefix = "!"
	}
	return s.upsertDeploymentColumn(ctx, guildID, "prefix", prefix)
}

// Prefix returns a deployment's command prefix, defaulting to "!".
func (s *Store) Prefix(ctx context.Context, guildID int64) (string, error) {
	var prefix string
	err := s.db.QueryRowContext(ctx,
		"SELECT prefix FROM server_config WHERE guild_id = ?", guildID).Scan(&prefix)
	if errors.Is(err, sql.ErrNoRows) {
		return "!", nil
	}
	if err != nil {
		return "", fmt.Errorf("query prefix: %w", err)
	}
	return prefix, nil
}

func (s *Store) upsertDeploymentColumn(ctx context.Context, guildID int64, column string, value any) error {
	query := fmt.Sprintf(`INSERT INTO server_config (guild_id, %s) VALUES (?, ?)
        ON CONFLICT(guild_id) DO UPDATE SET %s = excluded.%s`, column, column, column)
	if _, err := s.db.ExecContext(ctx, query, guildID, value); err != nil {
		return fmt.Errorf("upsert deployment %s: %w", column, err)
	}
	return nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
