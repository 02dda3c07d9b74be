// ABOUTME: Session context produced once at startup and threaded through
// ABOUTME: Drives the gate from identity events, seeding and subscription hooks
package auth

import (
	"fmt"
	"log"
	"sync"

	"github.com/harperreed/opsdesk/store"
)

// Session wires the authenticator, gate, and store together. Entering
// authorized seeds the users collection (once, guarded) and runs the
// onAuthorized hook; leaving authorized runs onRevoked so subscriptions
// are released.
type Session struct {
	auth  Authenticator
	gate  *Gate
	store store.Store
	allow []string

	onAuthorized func(Identity) error
	onRevoked    func()

	mu              sync.Mutex
	seeded          bool
	releaseIdentity func()
	closed          sync.Once
}

// NewSession builds the session context. Hooks may be nil.
func NewSession(a Authenticator, s store.Store, allowList []string, onAuthorized func(Identity) error, onRevoked func()) *Session {
	return &Session{
		auth:         a,
		gate:         NewGate(allowList),
		store:        s,
		allow:        allowList,
		onAuthorized: onAuthorized,
		onRevoked:    onRevoked,
	}
}

// Gate exposes the session's access gate.
func (s *Session) Gate() *Gate {
	return s.gate
}

// Start registers for identity changes. The authenticator delivers the
// current identity immediately, so the gate leaves loading on the first
// event.
func (s *Session) Start() error {
	release, err := s.auth.OnIdentityChange(s.handleIdentity)
	if err != nil {
		return fmt.Errorf("failed to observe identity changes: %w", err)
	}
	s.mu.Lock()
	s.releaseIdentity = release
	s.mu.Unlock()
	return nil
}

// Login begins an interactive login through the auth provider.
func (s *Session) Login() (Identity, error) {
	return s.auth.BeginInteractiveLogin()
}

// SignOut ends the provider session. The identity callback observes the
// sign-out and revokes access.
func (s *Session) SignOut() error {
	return s.auth.EndSession()
}

// Close stops observing identity changes and revokes access. Idempotent.
func (s *Session) Close() {
	s.closed.Do(func() {
		s.mu.Lock()
		release := s.releaseIdentity
		s.mu.Unlock()
		if release != nil {
			release()
		}
		if previous, _ := s.gate.Resolve(nil); previous == AccessAuthorized && s.onRevoked != nil {
			s.onRevoked()
		}
	})
}

func (s *Session) handleIdentity(identity *Identity) {
	previous, current := s.gate.Resolve(identity)
	if previous == AccessAuthorized && current != AccessAuthorized {
		if s.onRevoked != nil {
			s.onRevoked()
		}
		return
	}
	if current != AccessAuthorized || previous == AccessAuthorized {
		return
	}

	s.mu.Lock()
	needSeed := !s.seeded
	s.seeded = true
	s.mu.Unlock()
	if needSeed {
		if n, err := SeedUsers(s.store, s.allow); err != nil {
			log.Printf("User seeding failed: %v", err)
		} else if n > 0 {
			log.Printf("Seeded %d user records", n)
		}
	}

	if s.onAuthorized != nil {
		if err := s.onAuthorized(*identity); err != nil {
			log.Printf("Failed to open session resources: %v", err)
		}
	}
}
