package presence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sentinel/internal/config"
)

const userAgent = "Sentinel/0.1.0"

// Client provides access to the Roblox web APIs.
type Client struct {
	usersBase      string
	presenceBase   string
	friendsBase    string
	thumbnailsBase string
	groupsBase     string
	gamesBase      string
	cookie         string
	httpClient     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a presence client from configuration.
func New(cfg *config.Config, opts ...Option) *Client {
	timeout := time.Duration(cfg.Roblox.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		usersBase:      cfg.Roblox.UsersBaseURL,
		presenceBase:   cfg.Roblox.PresenceBaseURL,
		friendsBase:    cfg.Roblox.FriendsBaseURL,
		thumbnailsBase: cfg.Roblox.ThumbnailsBaseURL,
		groupsBase:     cfg.Roblox.GroupsBaseURL,
		gamesBase:      cfg.Roblox.GamesBaseURL,
		cookie:         strings.TrimSpace(cfg.Roblox.SecurityCookie),
		httpClient:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// QueryPresence returns the current status of each requested entity.
func (c *Client) QueryPresence(ctx context.Context, ids []int64) ([]UserPresence, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	body := struct {
		UserIDs []int64 `json:"userIds"`
	}{UserIDs: ids}

	var payload struct {
		UserPresences []UserPresence `json:"userPresences"`
	}
	if err := c.postJSON(ctx, c.presenceBase+"/v1/presence/users", body, &payload); err != nil {
		return nil, fmt.Errorf("query presence: %w", err)
	}
	return payload.UserPresences, nil
}

// QuerySessionInfo looks up one public server instance. A nil result with
// a nil error means the session exists but its detail is private, not that
// it ended.
func (c *Client) QuerySessionInfo(ctx context.Context, placeID int64, sessionID string) (*SessionInfo, error) {
	endpoint := fmt.Sprintf("%s/v1/games/%d/servers/Public?serverId=%s",
		c.gamesBase, placeID, url.QueryEscape(sessionID))

	var payload struct {
		Data []SessionInfo `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("query session info: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}
	return &payload.Data[0], nil
}

// LookupUser resolves a numeric id or a username into account identity.
func (c *Client) LookupUser(ctx context.Context, identifier string) (*UserInfo, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errors.New("identifier must not be empty")
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		var info UserInfo
		if err := c.getJSON(ctx, fmt.Sprintf("%s/v1/users/%d", c.usersBase, id), &info); err != nil {
			return nil, fmt.Errorf("lookup user %d: %w", id, err)
		}
		return &info, nil
	}

	body := struct {
		Usernames          []string `json:"usernames"`
		ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
	}{Usernames: []string{identifier}, ExcludeBannedUsers: true}

	var payload struct {
		Data []UserInfo `json:"data"`
	}
	if err := c.postJSON(ctx, c.usersBase+"/v1/usernames/users", body, &payload); err != nil {
		return nil, fmt.Errorf("lookup user %q: %w", identifier, err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("user %q not found", identifier)
	}
	return &payload.Data[0], nil
}

// AvatarURL returns the current avatar headshot image for an entity.
func (c *Client) AvatarURL(ctx context.Context, id int64) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/users/avatar-headshot?userIds=%d&size=420x420&format=Png&isCircular=false",
		c.thumbnailsBase, id)

	var payload struct {
		Data []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return "", fmt.Errorf("query avatar: %w", err)
	}
	if len(payload.Data) == 0 {
		return "", errors.New("avatar response empty")
	}
	return payload.Data[0].ImageURL, nil
}

// Friends returns an entity's current friend list.
func (c *Client) Friends(ctx context.Context, id int64) ([]Friend, error) {
	var payload struct {
		Data []Friend `json:"data"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v1/users/%d/friends", c.friendsBase, id), &payload); err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	return payload.Data, nil
}

// GroupRoles returns an entity's group memberships with ranks.
func (c *Client) GroupRoles(ctx context.Context, id int64) ([]GroupRole, error) {
	var payload struct {
		Data []GroupRole `json:"data"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v1/users/%d/groups/roles", c.groupsBase, id), &payload); err != nil {
		return nil, fmt.Errorf("query group roles: %w", err)
	}
	return payload.Data, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", userAgent)
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: ".ROBLOSECURITY", Value: c.cookie})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited by %s", req.URL.Host)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", req.URL.Host, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
