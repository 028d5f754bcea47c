package dispatch

import "fmt"

// Discord caps embed descriptions at 4096 characters; anything past this
// threshold is delivered as a file attachment instead.
const maxEmbedDescription = 4000

const footerText = "Sentinel presence tracking"

// Message is the wire payload delivered to channel and webhook destinations.
type Message struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// Embed is a Discord rich-embed block.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Thumbnail   *EmbedMedia  `json:"thumbnail,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedMedia struct {
	URL string `json:"url"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// Component models the subset of Discord message components sentinel uses:
// one action row of link buttons.
type Component struct {
	Type       int         `json:"type"`
	Style      int         `json:"style,omitempty"`
	Label      string      `json:"label,omitempty"`
	URL        string      `json:"url,omitempty"`
	Components []Component `json:"components,omitempty"`
}

const (
	componentActionRow = 1
	componentButton    = 2
	buttonStyleLink    = 5
)

// renderMessage turns an event into the payload shared by every
// destination. The action links always include the profile; the join
// deep-link is added when the session is joinable.
func renderMessage(event Event) Message {
	embed := Embed{
		Description: event.Body,
		Color:       event.Color,
		Footer:      &EmbedFooter{Text: footerText},
	}
	if event.Author.DisplayName != "" {
		embed.Author = &EmbedAuthor{
			Name:    fmt.Sprintf("%s (@%s)", event.Author.DisplayName, event.Author.Username),
			URL:     event.Author.ProfileURL,
			IconURL: event.Author.AvatarURL,
		}
	}
	if event.Author.AvatarURL != "" {
		embed.Thumbnail = &EmbedMedia{URL: event.Author.AvatarURL}
	}

	msg := Message{Embeds: []Embed{embed}}
	if event.MassNotify {
		msg.Content = "@everyone"
	}

	var buttons []Component
	if event.Author.ProfileURL != "" {
		buttons = append(buttons, Component{
			Type:  componentButton,
			Style: buttonStyleLink,
			Label: "Profile",
			URL:   event.Author.ProfileURL,
		})
	}
	if event.JoinURL != "" {
		buttons = append(buttons, Component{
			Type:  componentButton,
			Style: buttonStyleLink,
			Label: "Join Game",
			URL:   event.JoinURL,
		})
	}
	if len(buttons) > 0 {
		msg.Components = []Component{{Type: componentActionRow, Components: buttons}}
	}
	return msg
}

// renderLogMessage wraps a log-stream line in a minimal embed.
func renderLogMessage(content string, color int) Message {
	if color == 0 {
		color = ColorSystem
	}
	return Message{
		Embeds: []Embed{{
			Description: content,
			Color:       color,
			Footer:      &EmbedFooter{Text: footerText},
		}},
	}
}
