package daemon

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sentinel/internal/authz"
	"sentinel/internal/config"
)

func authConfig(adminToken, viewerToken string) *config.Config {
	cfg := config.Default()
	cfg.Paths.APIToken = adminToken
	cfg.Paths.APIViewerToken = viewerToken
	cfg.Authz.AdminRoles = []string{"moderator"}
	cfg.Authz.ViewerRoles = []string{"member"}
	return &cfg
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestBearerRoles(t *testing.T) {
	cfg := authConfig("admin-1", "viewer-1")

	tests := []struct {
		name  string
		token string
		want  []string
	}{
		{"admin token", "admin-1", []string{"moderator"}},
		{"viewer token", "viewer-1", []string{"member"}},
		{"unknown token", "other", nil},
		{"missing token", "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := bearerRoles(cfg, bearerRequest(tc.token))
			if len(got) != len(tc.want) {
				t.Fatalf("bearerRoles = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("bearerRoles = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestBearerRolesOpenWithoutTokens(t *testing.T) {
	cfg := authConfig("", "")
	roles := bearerRoles(cfg, bearerRequest(""))
	if len(roles) != 1 || roles[0] != "moderator" {
		t.Fatalf("tokenless config must grant admin roles, got %v", roles)
	}
}

func TestRequireCapability(t *testing.T) {
	cfg := authConfig("admin-1", "viewer-1")
	policy := authz.NewPolicy(cfg.Authz.AdminRoles, cfg.Authz.ViewerRoles)

	next := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	tests := []struct {
		name       string
		token      string
		capability authz.Capability
		want       int
	}{
		{"admin can manage", "admin-1", authz.CapManageTracking, http.StatusOK},
		{"viewer can view", "viewer-1", authz.CapViewStatus, http.StatusOK},
		{"viewer cannot manage", "viewer-1", authz.CapManageTracking, http.StatusForbidden},
		{"anonymous rejected", "", authz.CapViewStatus, http.StatusUnauthorized},
		{"bad token rejected", "nope", authz.CapViewStatus, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := requireCapability(cfg, policy, tc.capability, next)
			rec := httptest.NewRecorder()
			handler(rec, bearerRequest(tc.token))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
