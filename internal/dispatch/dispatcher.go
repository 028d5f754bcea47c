package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"sentinel/internal/logging"
	"sentinel/internal/store"
)

// ChannelSender delivers rendered messages to a channel destination.
type ChannelSender interface {
	SendMessage(ctx context.Context, channelID int64, msg Message) error
	SendFile(ctx context.Context, channelID int64, filename string, data []byte, msg Message) error
}

// WebhookPoster delivers rendered messages to a raw webhook URL.
type WebhookPoster interface {
	Post(ctx context.Context, url string, msg Message) error
}

// DeploymentSource lists the configured deployments. *store.Store
// satisfies it.
type DeploymentSource interface {
	Deployments(ctx context.Context) ([]*store.Deployment, error)
}

// Dispatcher fans events out across deployments and destinations.
type Dispatcher struct {
	deployments DeploymentSource
	sender      ChannelSender
	webhooks    WebhookPoster
	logger      *slog.Logger
}

// New constructs a dispatcher. A nil sender or webhook poster disables
// that destination kind.
func New(deployments DeploymentSource, sender ChannelSender, webhooks WebhookPoster, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		deployments: deployments,
		sender:      sender,
		webhooks:    webhooks,
		logger:      logging.WithComponent(logger, "dispatch"),
	}
}

// Dispatch renders the event once and delivers it to every deployment with
// a configured event channel and/or webhook, then routes a derived log line
// to the log stream. No destination failure escapes this call.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	logger := d.logger.With(logging.String(logging.FieldEventID, event.ID))

	configs, err := d.deployments.Deployments(ctx)
	if err != nil {
		logger.Error("list deployments failed", logging.Error(err))
		return
	}

	msg := renderMessage(event)
	for _, deployment := range configs {
		if deployment.EventChannelID != nil && d.sender != nil {
			if err := d.sender.SendMessage(ctx, *deployment.EventChannelID, msg); err != nil {
				logger.Warn("channel delivery failed",
					logging.GuildID(deployment.GuildID),
					logging.Int64("channel_id", *deployment.EventChannelID),
					logging.Error(err),
				)
			}
		}
		if deployment.WebhookURL != nil && d.webhooks != nil {
			if err := d.webhooks.Post(ctx, *deployment.WebhookURL, msg); err != nil {
				logger.Warn("webhook delivery failed",
					logging.GuildID(deployment.GuildID),
					logging.Error(err),
				)
			}
		}
	}

	d.dispatchLog(ctx, configs, fmt.Sprintf("Event sent: **%s**", event.Title), event.Color)
}

// DispatchLog routes a line to every deployment's log destination. A line
// over the embed limit degrades to an attached-file delivery rather than
// truncation.
func (d *Dispatcher) DispatchLog(ctx context.Context, content string, color int) {
	configs, err := d.deployments.Deployments(ctx)
	if err != nil {
		d.logger.Error("list deployments failed", logging.Error(err))
		return
	}
	d.dispatchLog(ctx, configs, content, color)
}

func (d *Dispatcher) dispatchLog(ctx context.Context, configs []*store.Deployment, content string, color int) {
	if d.sender == nil {
		return
	}
	for _, deployment := range configs {
		if deployment.LogChannelID == nil {
			continue
		}
		channelID := *deployment.LogChannelID

		var err error
		if len(content) > maxEmbedDescription {
			notice := renderLogMessage("Log content too long for embed, see attached file.", color)
			err = d.sender.SendFile(ctx, channelID, "log_details.txt", []byte(content), notice)
		} else {
			err = d.sender.SendMessage(ctx, channelID, renderLogMessage(content, color))
		}
		if err != nil {
			d.logger.Warn("log delivery failed",
				logging.GuildID(deployment.GuildID),
				logging.Int64("channel_id", channelID),
				logging.Error(err),
			)
		}
	}
}
