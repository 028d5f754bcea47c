package dispatch

import (
	"testing"
)

func TestRenderMessageMassNotify(t *testing.T) {
	event := NewEvent("Title", "Body", ColorOnline, Author{
		DisplayName: "Builderman",
		Username:    "builderman",
		ProfileURL:  "https://www.roblox.com/users/156/profile",
	})
	event.MassNotify = true

	msg := renderMessage(event)
	if msg.Content != "@everyone" {
		t.Fatalf("mass-notify must set @everyone content, got %q", msg.Content)
	}
	if len(msg.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(msg.Embeds))
	}
	embed := msg.Embeds[0]
	if embed.Author == nil || embed.Author.Name != "Builderman (@builderman)" {
		t.Fatalf("unexpected embed author: %#v", embed.Author)
	}
	if embed.Color != ColorOnline || embed.Description != "Body" {
		t.Fatalf("unexpected embed: %#v", embed)
	}
	if embed.Footer == nil || embed.Footer.Text != footerText {
		t.Fatalf("unexpected footer: %#v", embed.Footer)
	}

	event.MassNotify = false
	if msg := renderMessage(event); msg.Content != "" {
		t.Fatalf("silent event must carry no content, got %q", msg.Content)
	}
}

func TestRenderMessageButtons(t *testing.T) {
	event := NewEvent("Title", "Body", ColorPlaying, Author{
		DisplayName: "Builderman",
		Username:    "builderman",
		ProfileURL:  "https://www.roblox.com/users/156/profile",
	})
	event.JoinURL = "https://www.roblox.com/games/start?placeId=1818&launchData=s"

	msg := renderMessage(event)
	if len(msg.Components) != 1 {
		t.Fatalf("expected one action row, got %d", len(msg.Components))
	}
	row := msg.Components[0]
	if row.Type != componentActionRow || len(row.Components) != 2 {
		t.Fatalf("unexpected action row: %#v", row)
	}
	if row.Components[0].Label != "Profile" || row.Components[1].Label != "Join Game" {
		t.Fatalf("unexpected button labels: %#v", row.Components)
	}
	for _, button := range row.Components {
		if button.Type != componentButton || button.Style != buttonStyleLink {
			t.Fatalf("unexpected button shape: %#v", button)
		}
	}

	event.JoinURL = ""
	msg = renderMessage(event)
	if len(msg.Components[0].Components) != 1 {
		t.Fatalf("expected profile button only, got %#v", msg.Components[0].Components)
	}
}

func TestRenderMessageThumbnail(t *testing.T) {
	event := NewEvent("Title", "Body", ColorOnline, Author{
		DisplayName: "Builderman",
		Username:    "builderman",
		AvatarURL:   "https://cdn.example.com/avatar.png",
	})

	msg := renderMessage(event)
	if msg.Embeds[0].Thumbnail == nil || msg.Embeds[0].Thumbnail.URL != "https://cdn.example.com/avatar.png" {
		t.Fatalf("unexpected thumbnail: %#v", msg.Embeds[0].Thumbnail)
	}
}

func TestRenderLogMessageDefaultsColor(t *testing.T) {
	msg := renderLogMessage("line", 0)
	if msg.Embeds[0].Color != ColorSystem {
		t.Fatalf("expected system color fallback, got %#x", msg.Embeds[0].Color)
	}
	if msg.Embeds[0].Description != "line" {
		t.Fatalf("unexpected description: %q", msg.Embeds[0].Description)
	}
}
