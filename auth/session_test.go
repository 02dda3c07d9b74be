// ABOUTME: Tests for the session lifecycle using a fake auth provider
// ABOUTME: Seeding on first authorization, hook ordering, revocation
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/opsdesk/store"
)

// fakeAuth is a scripted auth provider. Emit pushes an identity event to
// the registered observer.
type fakeAuth struct {
	observer func(*Identity)
	released int
	identity *Identity
}

func (f *fakeAuth) BeginInteractiveLogin() (Identity, error) {
	id := Identity{Email: "ana@x.com"}
	f.identity = &id
	if f.observer != nil {
		f.observer(f.identity)
	}
	return id, nil
}

func (f *fakeAuth) EndSession() error {
	f.identity = nil
	if f.observer != nil {
		f.observer(nil)
	}
	return nil
}

func (f *fakeAuth) OnIdentityChange(fn func(*Identity)) (func(), error) {
	f.observer = fn
	fn(f.identity)
	return func() { f.released++ }, nil
}

func (f *fakeAuth) Emit(identity *Identity) {
	f.identity = identity
	f.observer(identity)
}

func TestSessionStartDeniedWhenSignedOut(t *testing.T) {
	fake := &fakeAuth{}
	session := NewSession(fake, store.NewMemStore(), []string{"ana@x.com"}, nil, nil)
	require.NoError(t, session.Start())
	defer session.Close()

	assert.Equal(t, AccessDenied, session.Gate().Access())
}

func TestSessionAuthorizesAndSeeds(t *testing.T) {
	fake := &fakeAuth{}
	mem := store.NewMemStore()

	var authorizedAs string
	session := NewSession(fake, mem, []string{"ana@x.com", "bob@y.com"}, func(id Identity) error {
		authorizedAs = id.Email
		return nil
	}, nil)
	require.NoError(t, session.Start())
	defer session.Close()

	fake.Emit(&Identity{Email: "ana@x.com"})
	assert.Equal(t, AccessAuthorized, session.Gate().Access())
	assert.Equal(t, "ana@x.com", authorizedAs)

	snap, err := mem.ReadOnce("users")
	require.NoError(t, err)
	assert.Len(t, snap, 2, "first authorization seeds the allow-list")
}

func TestSessionSeedsOnlyOnce(t *testing.T) {
	fake := &fakeAuth{}
	mem := store.NewMemStore()
	session := NewSession(fake, mem, []string{"ana@x.com"}, nil, nil)
	require.NoError(t, session.Start())
	defer session.Close()

	fake.Emit(&Identity{Email: "ana@x.com"})
	require.NoError(t, mem.Remove("users/user_1"))

	// Sign out and back in: the guard keeps seeding from re-running even
	// though the collection is empty again within this session.
	fake.Emit(nil)
	fake.Emit(&Identity{Email: "ana@x.com"})

	snap, err := mem.ReadOnce("users")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSessionRevokesOnSignOut(t *testing.T) {
	fake := &fakeAuth{}
	revoked := 0
	session := NewSession(fake, store.NewMemStore(), []string{"ana@x.com"}, nil, func() { revoked++ })
	require.NoError(t, session.Start())
	defer session.Close()

	fake.Emit(&Identity{Email: "ana@x.com"})
	require.Zero(t, revoked)

	fake.Emit(nil)
	assert.Equal(t, 1, revoked)
	assert.Equal(t, AccessDenied, session.Gate().Access())
}

func TestSessionDeniedIdentityDoesNotAuthorize(t *testing.T) {
	fake := &fakeAuth{}
	mem := store.NewMemStore()
	hooked := 0
	session := NewSession(fake, mem, []string{"ana@x.com"}, func(Identity) error {
		hooked++
		return nil
	}, nil)
	require.NoError(t, session.Start())
	defer session.Close()

	fake.Emit(&Identity{Email: "intruder@x.com"})
	assert.Equal(t, AccessDenied, session.Gate().Access())
	assert.Zero(t, hooked)

	snap, err := mem.ReadOnce("users")
	require.NoError(t, err)
	assert.Nil(t, snap, "denied identities never trigger seeding")
}

func TestSessionCloseIdempotent(t *testing.T) {
	fake := &fakeAuth{}
	revoked := 0
	session := NewSession(fake, store.NewMemStore(), []string{"ana@x.com"}, nil, func() { revoked++ })
	require.NoError(t, session.Start())
	fake.Emit(&Identity{Email: "ana@x.com"})

	session.Close()
	session.Close()
	assert.Equal(t, 1, fake.released)
	assert.Equal(t, 1, revoked)
}
