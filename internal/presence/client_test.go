package presence_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sentinel/internal/config"
	"sentinel/internal/presence"
	"sentinel/internal/testsupport"
)

func newClient(t *testing.T, serverURL string) *presence.Client {
	t.Helper()
	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Roblox.UsersBaseURL = serverURL
		cfg.Roblox.PresenceBaseURL = serverURL
		cfg.Roblox.FriendsBaseURL = serverURL
		cfg.Roblox.ThumbnailsBaseURL = serverURL
		cfg.Roblox.GroupsBaseURL = serverURL
		cfg.Roblox.GamesBaseURL = serverURL
		cfg.Roblox.SecurityCookie = "test-cookie"
	})
	return presence.New(cfg)
}

func TestQueryPresenceParsesObservations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/presence/users" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		cookie, err := r.Cookie(".ROBLOSECURITY")
		if err != nil || cookie.Value != "test-cookie" {
			t.Fatalf("expected security cookie, got %v", err)
		}
		var body struct {
			UserIDs []int64 `json:"userIds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.UserIDs) != 2 || body.UserIDs[0] != 1 || body.UserIDs[1] != 2 {
			t.Fatalf("unexpected ids: %v", body.UserIDs)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userPresences":[
			{"userId":1,"userPresenceType":2,"lastLocation":"Example Place","placeId":1818,"gameId":"session-1"},
			{"userId":2,"userPresenceType":0}
		]}`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	observations, err := client.QueryPresence(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("QueryPresence returned error: %v", err)
	}
	if len(observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(observations))
	}
	first := observations[0]
	if first.UserID != 1 || first.Type != presence.StatusInSession {
		t.Fatalf("unexpected observation: %#v", first)
	}
	if first.PlaceID == nil || *first.PlaceID != 1818 || first.GameID == nil || *first.GameID != "session-1" {
		t.Fatalf("session fields not parsed: %#v", first)
	}
	if !first.Joinable() {
		t.Fatal("expected observation with place and session to be joinable")
	}
	if observations[1].Joinable() {
		t.Fatal("offline observation must not be joinable")
	}
}

func TestQueryPresenceEmptyInput(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:0")
	observations, err := client.QueryPresence(context.Background(), nil)
	if err != nil || observations != nil {
		t.Fatalf("expected no-op for empty input, got %v, %v", observations, err)
	}
}

func TestQueryPresenceRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	if _, err := client.QueryPresence(context.Background(), []int64{1}); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestQuerySessionInfoPrivateServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("serverId") != "session-1" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	info, err := client.QuerySessionInfo(context.Background(), 1818, "session-1")
	if err != nil {
		t.Fatalf("QuerySessionInfo returned error: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info for private server, got %#v", info)
	}
}

func TestQuerySessionInfoStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"session-1","playing":7,"maxPlayers":10,"ping":42,"fps":59.94}]}`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	info, err := client.QuerySessionInfo(context.Background(), 1818, "session-1")
	if err != nil {
		t.Fatalf("QuerySessionInfo returned error: %v", err)
	}
	if info == nil || info.Playing != 7 || info.MaxPlayers != 10 || info.Ping != 42 {
		t.Fatalf("unexpected session info: %#v", info)
	}
}

func TestLookupUserByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/156" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":156,"name":"builderman","displayName":"Builderman"}`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	info, err := client.LookupUser(context.Background(), "156")
	if err != nil {
		t.Fatalf("LookupUser returned error: %v", err)
	}
	if info.ID != 156 || info.Name != "builderman" {
		t.Fatalf("unexpected user info: %#v", info)
	}
}

func TestLookupUserByUsername(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/usernames/users" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":156,"name":"builderman","displayName":"Builderman"}]}`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	info, err := client.LookupUser(context.Background(), "builderman")
	if err != nil {
		t.Fatalf("LookupUser returned error: %v", err)
	}
	if info.ID != 156 {
		t.Fatalf("unexpected user info: %#v", info)
	}
}

func TestLookupUserNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	if _, err := client.LookupUser(context.Background(), "nobody"); err == nil {
		t.Fatal("expected error for unknown username")
	}
}

func TestAvatarURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userIds") != "156" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"targetId":156,"imageUrl":"https://cdn.example.com/avatar.png"}]}`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	url, err := client.AvatarURL(context.Background(), 156)
	if err != nil {
		t.Fatalf("AvatarURL returned error: %v", err)
	}
	if url != "https://cdn.example.com/avatar.png" {
		t.Fatalf("unexpected avatar url: %s", url)
	}
}

func TestFriendsAndGroupRoles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/users/156/friends":
			_, _ = w.Write([]byte(`{"data":[{"id":5,"name":"alpha","displayName":"Alpha"}]}`))
		case "/v1/users/156/groups/roles":
			_, _ = w.Write([]byte(`{"data":[{"group":{"id":1234,"name":"Example Group"},"role":{"id":1,"name":"Member","rank":10}}]}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)

	friends, err := client.Friends(context.Background(), 156)
	if err != nil {
		t.Fatalf("Friends returned error: %v", err)
	}
	if len(friends) != 1 || friends[0].ID != 5 || friends[0].DisplayName != "Alpha" {
		t.Fatalf("unexpected friends: %#v", friends)
	}

	roles, err := client.GroupRoles(context.Background(), 156)
	if err != nil {
		t.Fatalf("GroupRoles returned error: %v", err)
	}
	if len(roles) != 1 || roles[0].Group.ID != 1234 || roles[0].Role.Rank != 10 {
		t.Fatalf("unexpected group roles: %#v", roles)
	}
}
