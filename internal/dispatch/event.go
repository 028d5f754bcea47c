package dispatch

import "github.com/google/uuid"

// Severity colors shared by event builders and the log stream.
const (
	ColorOnline  = 0x4287F5
	ColorPlaying = 0x37B06D
	ColorStudio  = 0xEE8700
	ColorOffline = 0x808080
	ColorAvatar  = 0xFFFF00
	ColorFriends = 0x9B59B6
	ColorGroups  = 0xE67E22
	ColorSystem  = 0x2B2D31
)

// Author identifies the entity an event is about.
type Author struct {
	DisplayName string
	Username    string
	AvatarURL   string
	ProfileURL  string
}

// Event is one rendered notification ready for fan-out. ID correlates the
// per-destination delivery log lines of a single dispatch.
type Event struct {
	ID         string
	Title      string
	Body       string
	Color      int
	Author     Author
	JoinURL    string
	SessionID  string
	MassNotify bool
}

// NewEvent stamps an event with a fresh correlation id.
func NewEvent(title, body string, color int, author Author) Event {
	return Event{
		ID:     uuid.NewString(),
		Title:  title,
		Body:   body,
		Color:  color,
		Author: author,
	}
}
