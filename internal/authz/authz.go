// Package authz is the authorization predicate for sentinel's management
// surface: given an actor's roles and a required capability, allow or deny.
// It is deliberately decoupled from the engine; the engine never checks
// permissions, only its callers do.
package authz

import "strings"

// Capability names an operation class the management surface can require.
type Capability string

const (
	// CapManageTracking covers adding, removing, and tuning tracked entities.
	CapManageTracking Capability = "manage-tracking"
	// CapManageDeployments covers destination and prefix configuration.
	CapManageDeployments Capability = "manage-deployments"
	// CapViewStatus covers read-only status and listing access.
	CapViewStatus Capability = "view-status"
)

// Policy maps role names to granted capabilities.
type Policy struct {
	adminRoles  map[string]struct{}
	viewerRoles map[string]struct{}
}

// NewPolicy builds a policy. Admin roles hold every capability; viewer
// roles hold only CapViewStatus. Role matching is case-insensitive.
func NewPolicy(adminRoles, viewerRoles []string) *Policy {
	return &Policy{
		adminRoles:  roleSet(adminRoles),
		viewerRoles: roleSet(viewerRoles),
	}
}

// Allow reports whether any of the actor's roles grants the capability.
func (p *Policy) Allow(actorRoles []string, capability Capability) bool {
	for _, role := range actorRoles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if _, ok := p.adminRoles[normalized]; ok {
			return true
		}
		if _, ok := p.viewerRoles[normalized]; ok && capability == CapViewStatus {
			return true
		}
	}
	return false
}

func roleSet(roles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}
