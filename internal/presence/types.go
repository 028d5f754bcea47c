package presence

// Status codes reported by the presence endpoint. The enumeration is
// closed upstream; sentinel normalizes anything else to offline.
const (
	StatusOffline   = 0
	StatusOnline    = 1
	StatusInSession = 2
	StatusInStudio  = 3
)

// UserPresence is one entity's observed state from a presence query.
type UserPresence struct {
	UserID       int64   `json:"userId"`
	Type         int     `json:"userPresenceType"`
	LastLocation string  `json:"lastLocation"`
	PlaceID      *int64  `json:"placeId"`
	GameID       *string `json:"gameId"`
}

// Joinable reports whether the observation carries the full session
// identifier pair needed for a deep link.
func (p UserPresence) Joinable() bool {
	return p.Type == StatusInSession && p.PlaceID != nil && p.GameID != nil && *p.GameID != ""
}

// SessionInfo is the live detail of one public server instance.
type SessionInfo struct {
	ID         string  `json:"id"`
	Playing    int     `json:"playing"`
	MaxPlayers int     `json:"maxPlayers"`
	Ping       int     `json:"ping"`
	FPS        float64 `json:"fps"`
}

// UserInfo identifies an account resolved by id or username.
type UserInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Friend is one entry of an entity's friend list.
type Friend struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// GroupRole is one entry of an entity's group membership with its rank.
type GroupRole struct {
	Group struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"group"`
	Role struct {
		Name string `json:"name"`
		Rank int    `json:"rank"`
	} `json:"role"`
}
