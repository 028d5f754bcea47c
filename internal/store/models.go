package store

import (
	"fmt"
	"strings"
)

// Presence is the closed enumeration of committed entity states. The
// numeric values are the upstream wire codes and are stored as-is.
type Presence int

const (
	PresenceOffline   Presence = 0
	PresenceOnline    Presence = 1
	PresenceInSession Presence = 2
	PresenceInStudio  Presence = 3
)

// Normalize maps unknown wire codes to PresenceOffline. The upstream
// enumeration is closed; anything else is treated as offline-equivalent.
func (p Presence) Normalize() Presence {
	switch p {
	case PresenceOffline, PresenceOnline, PresenceInSession, PresenceInStudio:
		return p
	default:
		return PresenceOffline
	}
}

// Known reports whether p is one of the defined wire codes.
func (p Presence) Known() bool {
	return p == p.Normalize()
}

func (p Presence) String() string {
	switch p {
	case PresenceOffline:
		return "offline"
	case PresenceOnline:
		return "online"
	case PresenceInSession:
		return "in-session"
	case PresenceInStudio:
		return "studio"
	default:
		return "unknown"
	}
}

// NotifyMode governs whether dispatched events carry a mass-notify marker.
type NotifyMode string

const (
	NotifyPing   NotifyMode = "ping"
	NotifySilent NotifyMode = "silent"
)

// ParseNotifyMode normalizes a user-supplied mode string. Empty input
// defaults to silent.
func ParseNotifyMode(value string) (NotifyMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(NotifySilent):
		return NotifySilent, nil
	case string(NotifyPing):
		return NotifyPing, nil
	default:
		return "", fmt.Errorf("notify mode must be ping or silent, got %q", value)
	}
}

func (m NotifyMode) String() string {
	return string(m)
}

// TrackedEntity is a row of tracked_users: one tracked external account and
// its last committed presence state.
type TrackedEntity struct {
	ID          int64
	Username    string
	DisplayName string
	NotifyMode  NotifyMode
	Status      Presence
	PlaceID     *int64
	SessionID   *string
	AvatarURL   string
	Priority    bool
	Enabled     bool
}

// MetadataHistory is a row of user_history: the auxiliary attribute sets
// the metadata loop diffs against.
type MetadataHistory struct {
	EntityID   int64
	FriendIDs  []int64
	GroupRanks map[int64]GroupRank
}

// GroupRank records an entity's standing within one group.
type GroupRank struct {
	GroupName string `json:"group_name"`
	Rank      int    `json:"rank"`
	RoleName  string `json:"role_name"`
}

// Deployment is a row of server_config: one installation's destinations
// and command prefix. Any destination may be unset.
type Deployment struct {
	GuildID        int64
	EventChannelID *int64
	LogChannelID   *int64
	WebhookURL     *string
	Prefix         string
}
