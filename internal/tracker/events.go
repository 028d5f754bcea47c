package tracker

import (
	"context"
	"fmt"
	"strings"

	"sentinel/internal/dispatch"
	"sentinel/internal/logging"
	"sentinel/internal/presence"
	"sentinel/internal/store"
)

func profileURL(id int64) string {
	return fmt.Sprintf("https://www.roblox.com/users/%d/profile", id)
}

func author(entity *store.TrackedEntity) dispatch.Author {
	return dispatch.Author{
		DisplayName: entity.DisplayName,
		Username:    entity.Username,
		AvatarURL:   entity.AvatarURL,
		ProfileURL:  profileURL(entity.ID),
	}
}

// buildPresenceEvent renders a confirmed transition. The in-session case
// performs a live server-detail lookup; when that fails or the detail is
// private, a "stats unavailable" placeholder is rendered but the raw
// session id is still shown.
func (t *Tracker) buildPresenceEvent(ctx context.Context, entity *store.TrackedEntity, observed presence.UserPresence) dispatch.Event {
	var event dispatch.Event
	switch observed.Type {
	case presence.StatusOnline:
		event = dispatch.NewEvent(
			fmt.Sprintf("%s is Online", entity.DisplayName),
			"Is now **Online**.",
			dispatch.ColorOnline,
			author(entity),
		)
		event.MassNotify = entity.NotifyMode == store.NotifyPing

	case presence.StatusInSession:
		event = t.buildSessionEvent(ctx, entity, observed)
		event.MassNotify = entity.NotifyMode == store.NotifyPing

	case presence.StatusInStudio:
		event = dispatch.NewEvent(
			fmt.Sprintf("%s is in Studio", entity.DisplayName),
			"Is building in **Roblox Studio**.",
			dispatch.ColorStudio,
			author(entity),
		)
		event.MassNotify = entity.NotifyMode == store.NotifyPing

	default:
		// Offline transitions never mass-notify.
		event = dispatch.NewEvent(
			fmt.Sprintf("%s went Offline", entity.DisplayName),
			"Went **Offline**.",
			dispatch.ColorOffline,
			author(entity),
		)
	}
	return event
}

func (t *Tracker) buildSessionEvent(ctx context.Context, entity *store.TrackedEntity, observed presence.UserPresence) dispatch.Event {
	title := fmt.Sprintf("%s started Playing", entity.DisplayName)

	if !observed.Joinable() {
		// Missing either identifier: joins are off, the session is
		// private, or the platform hides it. No deep link, no session id.
		body := fmt.Sprintf("🚫 **%s does not have joins on.**\n*(Server ID is hidden by privacy settings or platform)*",
			entity.DisplayName)
		return dispatch.NewEvent(title, body, dispatch.ColorPlaying, author(entity))
	}

	placeID := *observed.PlaceID
	sessionID := *observed.GameID

	location := strings.TrimSpace(observed.LastLocation)
	if location == "" {
		location = "a Game"
	}

	lines := []string{
		fmt.Sprintf("Playing: [**%s**](https://www.roblox.com/games/%d)", location, placeID),
	}

	info, err := t.source.QuerySessionInfo(ctx, placeID, sessionID)
	if err != nil {
		logging.WithComponent(t.logger, "tracker").Warn("session info lookup failed",
			logging.EntityID(entity.ID), logging.Error(err))
	}
	if info != nil {
		lines = append(lines,
			"",
			"**Server Stats:**",
			fmt.Sprintf("👥 **Players:** %d/%d", info.Playing, info.MaxPlayers),
			fmt.Sprintf("📶 **Ping:** %dms", info.Ping),
			fmt.Sprintf("🖥️ **FPS:** %.0f", info.FPS),
			fmt.Sprintf("🆔 **Server ID:** `%s`", info.ID),
		)
	} else {
		lines = append(lines,
			"",
			"⚠️ *Could not fetch server stats (Private?)*",
			fmt.Sprintf("🆔 **Server ID:** `%s`", sessionID),
		)
	}

	event := dispatch.NewEvent(title, strings.Join(lines, "\n"), dispatch.ColorPlaying, author(entity))
	event.JoinURL = fmt.Sprintf("https://www.roblox.com/games/start?placeId=%d&launchData=%s", placeID, sessionID)
	event.SessionID = sessionID
	return event
}
