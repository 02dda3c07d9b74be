// ABOUTME: Tests for the in-memory store backend
// ABOUTME: Covers snapshot fan-out, key allocation, patching, and release semantics
package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/opsdesk/models"
)

func TestMemStoreCreateAssignsKey(t *testing.T) {
	s := NewMemStore()

	key, err := s.Create("clients", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	snap, err := s.ReadOnce("clients")
	require.NoError(t, err)
	require.Len(t, snap, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(snap[key], &record))
	assert.Equal(t, key, record["id"], "assigned key is echoed into the id field")
	assert.Equal(t, "Acme", record["name"])
}

func TestMemStoreClientRoundTrip(t *testing.T) {
	s := NewMemStore()

	in := models.Client{Name: "Ana Silva", Email: "ana@x.com", Phone: "1199999", Company: "Acme"}
	key, err := s.Create("clients", in)
	require.NoError(t, err)

	snap, err := s.ReadOnce("clients")
	require.NoError(t, err)

	var out models.Client
	require.NoError(t, json.Unmarshal(snap[key], &out))
	assert.Equal(t, key, out.ID)
	assert.Equal(t, "Ana Silva", out.Name)
	assert.Equal(t, "ana@x.com", out.Email)
	assert.Equal(t, "1199999", out.Phone)
	assert.Equal(t, "Acme", out.Company)
}

func TestMemStoreSubscribeDeliversFullSnapshots(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Write("clients/a", map[string]any{"id": "a", "name": "First"}))

	var got []Snapshot
	release, err := s.Subscribe("clients", func(snap Snapshot) {
		got = append(got, snap)
	})
	require.NoError(t, err)
	defer release()

	// Initial delivery carries current state.
	require.Len(t, got, 1)
	assert.Len(t, got[0], 1)

	require.NoError(t, s.Write("clients/b", map[string]any{"id": "b", "name": "Second"}))
	require.Len(t, got, 2)
	assert.Len(t, got[1], 2, "every notification is the whole collection")

	require.NoError(t, s.Remove("clients/a"))
	require.Len(t, got, 3)
	assert.Len(t, got[2], 1)
}

func TestMemStoreReleaseIdempotent(t *testing.T) {
	s := NewMemStore()

	calls := 0
	release, err := s.Subscribe("projects", func(Snapshot) { calls++ })
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	release()
	release() // second release must not panic

	require.NoError(t, s.Write("projects/p1", map[string]any{"id": "p1"}))
	assert.Equal(t, 1, calls, "released subscription must not fire again")
}

func TestMemStorePatchLeavesOtherFields(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Write("opportunities/o1", map[string]any{
		"id":     "o1",
		"title":  "Deal",
		"status": "lead",
	}))

	require.NoError(t, s.Patch("opportunities/o1", map[string]any{"status": "proposal"}))

	snap, err := s.ReadOnce("opportunities")
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(snap["o1"], &record))
	assert.Equal(t, "proposal", record["status"])
	assert.Equal(t, "Deal", record["title"])
}

func TestMemStoreEmbeddedTaskPath(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Write("projects/p1", map[string]any{"id": "p1", "name": "Site"}))

	task := models.Task{ID: "t1", Title: "Design", Status: models.BoardBacklog}
	require.NoError(t, s.Write(TaskPath("p1", "t1"), task))

	// Decode into a fresh struct each time: Unmarshal merges into an
	// existing map, which would mask a removal.
	snap, err := s.ReadOnce("projects")
	require.NoError(t, err)
	var created models.Project
	require.NoError(t, json.Unmarshal(snap["p1"], &created))
	require.Len(t, created.Tasks, 1)
	assert.Equal(t, "Design", created.Tasks["t1"].Title)

	require.NoError(t, s.Patch(TaskPath("p1", "t1"), map[string]any{"status": "em_andamento"}))
	snap, err = s.ReadOnce("projects")
	require.NoError(t, err)
	var patched models.Project
	require.NoError(t, json.Unmarshal(snap["p1"], &patched))
	assert.Equal(t, models.BoardInProgress, patched.Tasks["t1"].Status)
	assert.Equal(t, "Design", patched.Tasks["t1"].Title)

	require.NoError(t, s.Remove(TaskPath("p1", "t1")))
	snap, err = s.ReadOnce("projects")
	require.NoError(t, err)
	var removed models.Project
	require.NoError(t, json.Unmarshal(snap["p1"], &removed))
	assert.Empty(t, removed.Tasks)
}

func TestMemStoreReadOnceAbsent(t *testing.T) {
	s := NewMemStore()
	snap, err := s.ReadOnce("users")
	require.NoError(t, err)
	assert.Nil(t, snap, "absent collection reads as nil, not an error")
}

func TestMemStoreKeysSortChronologically(t *testing.T) {
	s := NewMemStore()
	k1, err := s.Create("transactions", map[string]any{"amount": 1})
	require.NoError(t, err)
	k2, err := s.Create("transactions", map[string]any{"amount": 2})
	require.NoError(t, err)
	assert.Less(t, k1, k2, "push keys order by creation time")
}
