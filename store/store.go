// ABOUTME: Store collaborator contract and document path convention
// ABOUTME: Defines Snapshot, the Store interface, and path helpers
package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Snapshot is a full-replace view of a document subtree: a mapping from
// child key to record body. A nil snapshot means the subtree is absent;
// consumers must treat it as empty, never as an error.
type Snapshot map[string]json.RawMessage

// Store is the remote realtime store collaborator. Writes are fire-and-
// forget from the caller's perspective; the subscription observes the
// write and republishes the authoritative snapshot.
type Store interface {
	// Subscribe opens one persistent subscription on path. The callback
	// receives the entire current snapshot on every change, starting with
	// the state at subscribe time. The returned release func is
	// synchronous and idempotent.
	Subscribe(path string, fn func(Snapshot)) (func(), error)

	// Create allocates a new opaque key under path and writes body with
	// the assigned key echoed into an "id" field.
	Create(path string, body any) (string, error)

	// Write replaces the record at path with body.
	Write(path string, body any) error

	// Patch writes only the given fields at path; other fields are left
	// untouched.
	Patch(path string, fields map[string]any) error

	// Remove deletes the record at path.
	Remove(path string) error

	// ReadOnce returns the current snapshot at path without subscribing.
	ReadOnce(path string) (Snapshot, error)
}

// Top-level collection paths.
const (
	CollectionClients       = "clients"
	CollectionOpportunities = "opportunities"
	CollectionProjects      = "projects"
	CollectionTransactions  = "transactions"
	CollectionUsers         = "users"
)

// Collections lists the five top-level collections in subscription order.
var Collections = []string{
	CollectionClients,
	CollectionOpportunities,
	CollectionProjects,
	CollectionTransactions,
	CollectionUsers,
}

// ValidCollection reports whether name is a known top-level collection.
func ValidCollection(name string) bool {
	for _, c := range Collections {
		if name == c {
			return true
		}
	}
	return false
}

// RecordPath returns "{collection}/{id}".
func RecordPath(collection, id string) string {
	return collection + "/" + id
}

// TaskPath returns "projects/{projectID}/tasks/{taskID}".
func TaskPath(projectID, taskID string) string {
	return CollectionProjects + "/" + projectID + "/tasks/" + taskID
}

func splitPath(path string) ([]string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil, fmt.Errorf("empty store path")
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("malformed store path: %q", path)
		}
	}
	return segs, nil
}

// toValue round-trips body through JSON so every backend stores the same
// generic shape regardless of the caller's concrete type.
func toValue(body any) (any, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return v, nil
}

func snapshotOf(node any) (Snapshot, error) {
	m, ok := node.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, nil
	}
	snap := make(Snapshot, len(m))
	for key, child := range m {
		raw, err := json.Marshal(child)
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot child %s: %w", key, err)
		}
		snap[key] = raw
	}
	return snap, nil
}
