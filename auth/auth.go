// ABOUTME: Authentication collaborator contract
// ABOUTME: Identity value and the Authenticator interface the console consumes
package auth

// Identity is what the external auth provider knows about the signed-in
// person. Email is the only field authorization cares about.
type Identity struct {
	Email string
	Name  string
}

// Authenticator is the external auth provider. Implementations push
// identity changes to a registered callback; an absent identity (nil)
// means signed out.
type Authenticator interface {
	// BeginInteractiveLogin prompts for credentials and establishes a
	// session. The resulting identity is also delivered through the
	// OnIdentityChange callback.
	BeginInteractiveLogin() (Identity, error)

	// EndSession signs out. Observers receive a nil identity.
	EndSession() error

	// OnIdentityChange registers fn to receive every identity transition,
	// starting with the current state. The returned release func is
	// synchronous and idempotent.
	OnIdentityChange(fn func(*Identity)) (func(), error)
}
