// ABOUTME: Tri-state access gate combining identity with an allow-list
// ABOUTME: loading until the first identity event, then authorized or denied
package auth

import (
	"sync"

	"github.com/harperreed/opsdesk/models"
)

// Access is the gate's authorization state.
type Access int

const (
	// AccessLoading holds until the first identity event arrives. No
	// protected view renders while loading.
	AccessLoading Access = iota
	AccessAuthorized
	AccessDenied
)

func (a Access) String() string {
	switch a {
	case AccessAuthorized:
		return "authorized"
	case AccessDenied:
		return "denied"
	default:
		return "loading"
	}
}

// Gate resolves identities against a fixed allow-list. Both resolved
// states are terminal until the next full authentication event.
type Gate struct {
	mu     sync.Mutex
	allow  map[string]struct{}
	access Access
	email  string
}

// NewGate builds a gate from the configured allow-list. Addresses are
// normalized once here so later comparisons are exact.
func NewGate(allowList []string) *Gate {
	allow := make(map[string]struct{}, len(allowList))
	for _, email := range allowList {
		if normalized := models.NormalizeEmail(email); normalized != "" {
			allow[normalized] = struct{}{}
		}
	}
	return &Gate{allow: allow, access: AccessLoading}
}

// Allowed reports whether email is on the allow-list.
func (g *Gate) Allowed(email string) bool {
	_, ok := g.allow[models.NormalizeEmail(email)]
	return ok
}

// Access returns the current state.
func (g *Gate) Access() Access {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.access
}

// Email returns the authorized address, empty unless authorized.
func (g *Gate) Email() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.email
}

// Resolve consumes one identity event and returns the old and new states.
// A nil identity is unauthenticated and resolves to denied; a present
// identity resolves by allow-list membership.
func (g *Gate) Resolve(identity *Identity) (previous, current Access) {
	g.mu.Lock()
	defer g.mu.Unlock()
	previous = g.access
	if identity == nil || !g.Allowed(identity.Email) {
		g.access = AccessDenied
		g.email = ""
	} else {
		g.access = AccessAuthorized
		g.email = models.NormalizeEmail(identity.Email)
	}
	return previous, g.access
}
