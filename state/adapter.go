// ABOUTME: Adapter owning the live entity collections behind one mutex
// ABOUTME: Subscribes to all five collections and applies optimistic updates
package state

import (
	"fmt"
	"sync"

	"github.com/harperreed/opsdesk/models"
	"github.com/harperreed/opsdesk/store"
)

// Adapter holds the console's working copy of every collection. Each
// subscription notification replaces the owning slice wholesale, so a
// remote echo of a local write simply confirms what the optimistic apply
// already showed.
type Adapter struct {
	store store.Store

	mu            sync.Mutex
	clients       []models.Client
	opportunities []models.Opportunity
	projects      []models.Project
	transactions  []models.Transaction
	users         []models.User

	releases []func()
	onChange func(collection string)
}

// NewAdapter wraps s. onChange, if non-nil, fires after every collection
// replacement and optimistic apply; it runs outside the adapter lock.
func NewAdapter(s store.Store, onChange func(collection string)) *Adapter {
	return &Adapter{store: s, onChange: onChange}
}

// Start opens one subscription per collection. On failure it releases any
// subscriptions already opened. Start may be called again after Release,
// when a session re-authorizes.
func (a *Adapter) Start() error {
	for _, collection := range store.Collections {
		release, err := a.subscribe(collection)
		if err != nil {
			a.Release()
			return fmt.Errorf("failed to subscribe to %s: %w", collection, err)
		}
		a.mu.Lock()
		a.releases = append(a.releases, release)
		a.mu.Unlock()
	}
	return nil
}

// Release tears down every open subscription. Safe to call more than
// once; each call drains only what has been opened since the last one.
func (a *Adapter) Release() {
	a.mu.Lock()
	releases := a.releases
	a.releases = nil
	a.mu.Unlock()
	for _, release := range releases {
		release()
	}
}

func (a *Adapter) subscribe(collection string) (func(), error) {
	return a.store.Subscribe(collection, func(snap store.Snapshot) {
		a.mu.Lock()
		switch collection {
		case store.CollectionClients:
			a.clients = ReduceClients(snap)
		case store.CollectionOpportunities:
			a.opportunities = ReduceOpportunities(snap)
		case store.CollectionProjects:
			a.projects = ReduceProjects(snap)
		case store.CollectionTransactions:
			a.transactions = ReduceTransactions(snap)
		case store.CollectionUsers:
			a.users = ReduceUsers(snap)
		}
		a.mu.Unlock()
		a.notify(collection)
	})
}

func (a *Adapter) notify(collection string) {
	if a.onChange != nil {
		a.onChange(collection)
	}
}

// Store exposes the underlying backend for write-through callers.
func (a *Adapter) Store() store.Store {
	return a.store
}

// Clients returns a copy of the current client list, sorted by name.
func (a *Adapter) Clients() []models.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Client(nil), a.clients...)
}

// Opportunities returns a copy of the current opportunity list.
func (a *Adapter) Opportunities() []models.Opportunity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Opportunity(nil), a.opportunities...)
}

// Projects returns a copy of the current project list.
func (a *Adapter) Projects() []models.Project {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Project(nil), a.projects...)
}

// Transactions returns a copy of the current transaction list, most
// recent first.
func (a *Adapter) Transactions() []models.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Transaction(nil), a.transactions...)
}

// Users returns a copy of the current user list.
func (a *Adapter) Users() []models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.User(nil), a.users...)
}

// ClientByID resolves a client reference. Dangling references return a
// zero Client and false, never an error.
func (a *Adapter) ClientByID(id string) (models.Client, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.clients {
		if c.ID == id {
			return c, true
		}
	}
	return models.Client{}, false
}

// OpportunityByID resolves an opportunity by id.
func (a *Adapter) OpportunityByID(id string) (models.Opportunity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range a.opportunities {
		if o.ID == id {
			return o, true
		}
	}
	return models.Opportunity{}, false
}

// ProjectByID resolves a project by id.
func (a *Adapter) ProjectByID(id string) (models.Project, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.projects {
		if p.ID == id {
			return p, true
		}
	}
	return models.Project{}, false
}

// ApplyOpportunity replaces (or appends) one opportunity in the working
// copy ahead of the subscription echo.
func (a *Adapter) ApplyOpportunity(o models.Opportunity) {
	a.mu.Lock()
	replaced := false
	for i := range a.opportunities {
		if a.opportunities[i].ID == o.ID {
			a.opportunities[i] = o
			replaced = true
			break
		}
	}
	if !replaced {
		a.opportunities = append(a.opportunities, o)
	}
	a.mu.Unlock()
	a.notify(store.CollectionOpportunities)
}

// ApplyProjectTasks replaces one project's embedded task map ahead of the
// subscription echo. Unknown project ids are ignored; the echo will carry
// the authoritative state anyway.
func (a *Adapter) ApplyProjectTasks(projectID string, tasks map[string]models.Task) {
	a.mu.Lock()
	for i := range a.projects {
		if a.projects[i].ID == projectID {
			copied := make(map[string]models.Task, len(tasks))
			for id, t := range tasks {
				copied[id] = t
			}
			a.projects[i].Tasks = copied
			break
		}
	}
	a.mu.Unlock()
	a.notify(store.CollectionProjects)
}
