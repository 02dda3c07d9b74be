// ABOUTME: Console application wiring for CLI commands
// ABOUTME: Builds the store backend, adapter, gateway, and session from config
package cli

import (
	"fmt"
	"log"

	"github.com/harperreed/opsdesk/actions"
	"github.com/harperreed/opsdesk/auth"
	"github.com/harperreed/opsdesk/config"
	"github.com/harperreed/opsdesk/state"
	"github.com/harperreed/opsdesk/store"
)

// App holds the wired-up console for one session.
type App struct {
	Config  *config.Config
	Store   store.Store
	Adapter *state.Adapter
	Gateway *actions.Gateway
	Session *auth.Session

	closeStore func() error
}

// NewApp builds the console from config. The session is started but the
// adapter only subscribes once an identity on the allow-list shows up.
func NewApp(cfg *config.Config, authenticator auth.Authenticator) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	switch cfg.Backend {
	case config.BackendRest:
		tokens := store.StaticToken(cfg.StoreToken)
		if cfg.StoreToken == "" {
			tokens = nil
		}
		app.Store = store.NewRestStore(cfg.StoreURL, tokens, nil)
	case config.BackendBadger:
		badgerStore, err := store.OpenBadgerStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		app.Store = badgerStore
		app.closeStore = badgerStore.Close
	case config.BackendMemory:
		app.Store = store.NewMemStore()
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	app.Adapter = state.NewAdapter(app.Store, nil)
	app.Gateway = actions.NewGateway(app.Adapter)
	app.Session = auth.NewSession(authenticator, app.Store, cfg.AllowedEmails,
		func(id auth.Identity) error {
			log.Printf("Authorized as %s", id.Email)
			return app.Adapter.Start()
		},
		app.Adapter.Release,
	)
	if err := app.Session.Start(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// RequireAccess fails unless the gate has resolved to authorized.
func (a *App) RequireAccess() error {
	if access := a.Session.Gate().Access(); access != auth.AccessAuthorized {
		return fmt.Errorf("access is %s; run the login command with an allow-listed address", access)
	}
	return nil
}

// Close releases the session, subscriptions, and the store.
func (a *App) Close() {
	if a.Session != nil {
		a.Session.Close()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			log.Printf("Warning: failed to close store: %v", err)
		}
	}
}
