// ABOUTME: Tests for the live collection adapter
// ABOUTME: Subscription wiring, optimistic applies, and echo convergence
package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/opsdesk/models"
	"github.com/harperreed/opsdesk/store"
)

func newTestAdapter(t *testing.T) (*Adapter, *store.MemStore) {
	t.Helper()
	s := store.NewMemStore()
	a := NewAdapter(s, nil)
	require.NoError(t, a.Start())
	t.Cleanup(a.Release)
	return a, s
}

func TestAdapterSeesRemoteWrites(t *testing.T) {
	a, s := newTestAdapter(t)

	key, err := s.Create("clients", models.Client{Name: "Acme"})
	require.NoError(t, err)

	clients := a.Clients()
	require.Len(t, clients, 1)
	assert.Equal(t, key, clients[0].ID)
	assert.Equal(t, "Acme", clients[0].Name)
}

func TestAdapterReplacesWholeCollection(t *testing.T) {
	a, s := newTestAdapter(t)

	k1, err := s.Create("opportunities", models.Opportunity{Title: "One", Status: models.StageLead})
	require.NoError(t, err)
	_, err = s.Create("opportunities", models.Opportunity{Title: "Two", Status: models.StageLead})
	require.NoError(t, err)
	require.Len(t, a.Opportunities(), 2)

	require.NoError(t, s.Remove(store.RecordPath("opportunities", k1)))
	opportunities := a.Opportunities()
	require.Len(t, opportunities, 1)
	assert.Equal(t, "Two", opportunities[0].Title)
}

func TestAdapterOnChangeFires(t *testing.T) {
	s := store.NewMemStore()
	changed := map[string]int{}
	a := NewAdapter(s, func(collection string) { changed[collection]++ })
	require.NoError(t, a.Start())
	defer a.Release()

	// Start delivers one initial notification per collection.
	for _, c := range store.Collections {
		assert.Equal(t, 1, changed[c], c)
	}

	_, err := s.Create("transactions", models.Transaction{Amount: 10, Type: models.TransactionIncome, Date: "2026-01-01"})
	require.NoError(t, err)
	assert.Equal(t, 2, changed["transactions"])
	assert.Equal(t, 1, changed["clients"], "writes touch only the owning collection")
}

func TestAdapterApplyOpportunityOptimistic(t *testing.T) {
	a, s := newTestAdapter(t)

	key, err := s.Create("opportunities", models.Opportunity{Title: "Deal", Status: models.StageLead})
	require.NoError(t, err)

	o, ok := a.OpportunityByID(key)
	require.True(t, ok)
	o.Status = models.StageProposal
	a.ApplyOpportunity(o)

	got, ok := a.OpportunityByID(key)
	require.True(t, ok)
	assert.Equal(t, models.StageProposal, got.Status, "optimistic apply is visible before the echo")

	// Remote echo confirms the same state.
	require.NoError(t, s.Patch(store.RecordPath("opportunities", key), map[string]any{"status": "proposal"}))
	got, ok = a.OpportunityByID(key)
	require.True(t, ok)
	assert.Equal(t, models.StageProposal, got.Status)
}

func TestAdapterApplyProjectTasks(t *testing.T) {
	a, s := newTestAdapter(t)

	key, err := s.Create("projects", models.Project{Name: "Site", Status: models.ProjectActive})
	require.NoError(t, err)

	a.ApplyProjectTasks(key, map[string]models.Task{
		"t1": {ID: "t1", Title: "Design", Status: models.BoardBacklog},
	})

	p, ok := a.ProjectByID(key)
	require.True(t, ok)
	require.Contains(t, p.Tasks, "t1")
	assert.Equal(t, "Design", p.Tasks["t1"].Title)

	// Unknown project ids are a no-op.
	a.ApplyProjectTasks("missing", map[string]models.Task{"x": {ID: "x"}})
}

func TestAdapterReleaseAfterRestart(t *testing.T) {
	s := store.NewMemStore()
	changes := 0
	a := NewAdapter(s, func(string) { changes++ })

	// A session can revoke and re-authorize; the second Release must tear
	// down the second batch of subscriptions too.
	require.NoError(t, a.Start())
	a.Release()
	require.NoError(t, a.Start())
	a.Release()

	before := changes
	_, err := s.Create("clients", models.Client{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, before, changes, "released adapter must not receive notifications")
}

func TestAdapterDanglingClientRef(t *testing.T) {
	a, _ := newTestAdapter(t)

	c, ok := a.ClientByID("no-such-client")
	assert.False(t, ok)
	assert.Zero(t, c)
}

func TestAdapterAccessorsReturnCopies(t *testing.T) {
	a, s := newTestAdapter(t)

	_, err := s.Create("clients", models.Client{Name: "Original"})
	require.NoError(t, err)

	clients := a.Clients()
	clients[0].Name = "Mutated"
	assert.Equal(t, "Original", a.Clients()[0].Name)
}
