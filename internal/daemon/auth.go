package daemon

import (
	"net/http"
	"strings"

	"sentinel/internal/authz"
	"sentinel/internal/config"
)

// bearerRoles maps a request's bearer token to the role names it carries.
// An admin token grants the configured admin roles, a viewer token the
// viewer roles. When no tokens are configured the surface is open and
// every caller is treated as admin (local single-operator use).
func bearerRoles(cfg *config.Config, r *http.Request) []string {
	adminToken := strings.TrimSpace(cfg.Paths.APIToken)
	viewerToken := strings.TrimSpace(cfg.Paths.APIViewerToken)
	if adminToken == "" && viewerToken == "" {
		return cfg.Authz.AdminRoles
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	switch {
	case adminToken != "" && token == adminToken:
		return cfg.Authz.AdminRoles
	case viewerToken != "" && token == viewerToken:
		return cfg.Authz.ViewerRoles
	default:
		return nil
	}
}

// requireCapability wraps a handler with a policy check against the
// caller's bearer roles.
func requireCapability(cfg *config.Config, policy *authz.Policy, capability authz.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles := bearerRoles(cfg, r)
		if len(roles) == 0 {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if !policy.Allow(roles, capability) {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
