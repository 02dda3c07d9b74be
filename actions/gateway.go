// ABOUTME: Mutation gateway writing through to the remote store
// ABOUTME: Validation first, then create/replace/patch/remove; echo closes the loop
package actions

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/opsdesk/models"
	"github.com/harperreed/opsdesk/state"
	"github.com/harperreed/opsdesk/store"
)

// Gateway performs all entity mutations. It never updates the adapter's
// collections directly except through explicit optimistic applies; the
// subscription echo is the authoritative reflection of every write.
type Gateway struct {
	adapter *state.Adapter
	now     func() time.Time
}

// NewGateway wraps the adapter's store with the console's mutation rules.
func NewGateway(a *state.Adapter) *Gateway {
	return &Gateway{adapter: a, now: time.Now}
}

func (g *Gateway) store() store.Store {
	return g.adapter.Store()
}

func (g *Gateway) timestamp() string {
	return g.now().UTC().Format(time.RFC3339)
}

// CreateClient validates and writes a new client record.
func (g *Gateway) CreateClient(c models.Client) error {
	if err := requireField("name", c.Name); err != nil {
		return err
	}
	c.ID = ""
	c.CreatedAt = g.timestamp()
	if _, err := g.store().Create(store.CollectionClients, c); err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// UpdateClient replaces an existing client record, re-asserting its id.
func (g *Gateway) UpdateClient(c models.Client) error {
	if err := requireField("id", c.ID); err != nil {
		return err
	}
	if err := requireField("name", c.Name); err != nil {
		return err
	}
	if current, ok := g.adapter.ClientByID(c.ID); ok {
		c.CreatedAt = current.CreatedAt
	}
	if err := g.store().Write(store.RecordPath(store.CollectionClients, c.ID), c); err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

// DeleteClient removes a client. Opportunities and projects holding its
// id keep their weak reference; lookups on it resolve to empty.
func (g *Gateway) DeleteClient(id string, confirmed bool) error {
	return g.deleteRecord(store.CollectionClients, id, confirmed)
}

// CreateProject validates and writes a new project record.
func (g *Gateway) CreateProject(p models.Project) error {
	if err := requireField("name", p.Name); err != nil {
		return err
	}
	if p.Budget < 0 {
		return fmt.Errorf("budget must not be negative")
	}
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	if !models.ValidProjectStatus(p.Status) {
		return fmt.Errorf("unknown project status %q", p.Status)
	}
	p.ID = ""
	p.ClientName = g.clientName(p.ClientID)
	p.CreatedAt = g.timestamp()
	if _, err := g.store().Create(store.CollectionProjects, p); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// UpdateProject replaces a project record, preserving its embedded tasks
// and denormalized client fields from the current working copy.
func (g *Gateway) UpdateProject(p models.Project) error {
	if err := requireField("id", p.ID); err != nil {
		return err
	}
	if err := requireField("name", p.Name); err != nil {
		return err
	}
	if p.Budget < 0 {
		return fmt.Errorf("budget must not be negative")
	}
	if !models.ValidProjectStatus(p.Status) {
		return fmt.Errorf("unknown project status %q", p.Status)
	}
	if current, ok := g.adapter.ProjectByID(p.ID); ok {
		p.Tasks = current.Tasks
		p.ClientName = current.ClientName
		p.CreatedAt = current.CreatedAt
	}
	if err := g.store().Write(store.RecordPath(store.CollectionProjects, p.ID), p); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// DeleteProject removes a project and its embedded tasks.
func (g *Gateway) DeleteProject(id string, confirmed bool) error {
	return g.deleteRecord(store.CollectionProjects, id, confirmed)
}

// CreateTransaction validates and writes a new transaction. amount is the
// raw form input; the sign lives in the type field.
func (g *Gateway) CreateTransaction(t models.Transaction, amount string) error {
	parsed, err := ParseAmount(amount)
	if err != nil {
		return err
	}
	if t.Type != models.TransactionIncome && t.Type != models.TransactionExpense {
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}
	if err := requireField("category", t.Category); err != nil {
		return err
	}
	if err := requireField("date", t.Date); err != nil {
		return err
	}
	t.Amount = parsed
	t.ID = ""
	t.CreatedAt = g.timestamp()
	if _, err := g.store().Create(store.CollectionTransactions, t); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// UpdateTransaction replaces a transaction record from an edit form,
// re-asserting its id. The amount is re-validated like a create.
func (g *Gateway) UpdateTransaction(t models.Transaction, amount string) error {
	if err := requireField("id", t.ID); err != nil {
		return err
	}
	parsed, err := ParseAmount(amount)
	if err != nil {
		return err
	}
	if t.Type != models.TransactionIncome && t.Type != models.TransactionExpense {
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}
	if err := requireField("category", t.Category); err != nil {
		return err
	}
	if err := requireField("date", t.Date); err != nil {
		return err
	}
	t.Amount = parsed
	for _, current := range g.adapter.Transactions() {
		if current.ID == t.ID {
			t.CreatedAt = current.CreatedAt
			break
		}
	}
	if err := g.store().Write(store.RecordPath(store.CollectionTransactions, t.ID), t); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes a transaction.
func (g *Gateway) DeleteTransaction(id string, confirmed bool) error {
	return g.deleteRecord(store.CollectionTransactions, id, confirmed)
}

func (g *Gateway) deleteRecord(collection, id string, confirmed bool) error {
	if err := requireField("id", id); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := g.store().Remove(store.RecordPath(collection, id)); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// clientName resolves a weak client reference for denormalized capture.
// Dangling references resolve to empty, never an error.
func (g *Gateway) clientName(clientID string) string {
	if strings.TrimSpace(clientID) == "" {
		return ""
	}
	c, ok := g.adapter.ClientByID(clientID)
	if !ok {
		return ""
	}
	return c.Name
}
