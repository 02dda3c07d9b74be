// ABOUTME: In-memory Store backend with synchronous snapshot fan-out
// ABOUTME: Reference implementation used by tests and the local demo mode
package store

import (
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
)

// MemStore keeps the whole document tree in memory and republishes the
// full collection snapshot to subscribers after every write, in the order
// the writes arrive. Push keys are ULIDs, so key order is creation order.
type MemStore struct {
	mu     sync.Mutex
	root   map[string]any
	subs   map[string]map[int]func(Snapshot)
	nextID int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		root: map[string]any{},
		subs: map[string]map[int]func(Snapshot){},
	}
}

func (s *MemStore) Subscribe(path string, fn func(Snapshot)) (func(), error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("subscribe callback is required")
	}
	key := segs[0]

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.subs[key] == nil {
		s.subs[key] = map[int]func(Snapshot){}
	}
	s.subs[key][id] = fn
	snap, err := s.snapshotLocked(key)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Initial delivery with the current state.
	fn(snap)

	release := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if subs, ok := s.subs[key]; ok {
			delete(subs, id)
		}
	}
	return release, nil
}

func (s *MemStore) Create(path string, body any) (string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", err
	}
	value, err := toValue(body)
	if err != nil {
		return "", err
	}
	record, ok := value.(map[string]any)
	if !ok {
		return "", fmt.Errorf("record body must be an object")
	}

	key := ulid.Make().String()
	record["id"] = key

	s.mu.Lock()
	setIn(s.root, append(segs, key), record)
	snap, fns, err := s.changedLocked(segs[0])
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	dispatch(fns, snap)
	return key, nil
}

func (s *MemStore) Write(path string, body any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	value, err := toValue(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	setIn(s.root, segs, value)
	snap, fns, err := s.changedLocked(segs[0])
	s.mu.Unlock()
	if err != nil {
		return err
	}
	dispatch(fns, snap)
	return nil
}

func (s *MemStore) Patch(path string, fields map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	value, err := toValue(fields)
	if err != nil {
		return err
	}
	patch, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("patch fields must be an object")
	}

	s.mu.Lock()
	mergeIn(s.root, segs, patch)
	snap, fns, err := s.changedLocked(segs[0])
	s.mu.Unlock()
	if err != nil {
		return err
	}
	dispatch(fns, snap)
	return nil
}

func (s *MemStore) Remove(path string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	deleteIn(s.root, segs)
	snap, fns, err := s.changedLocked(segs[0])
	s.mu.Unlock()
	if err != nil {
		return err
	}
	dispatch(fns, snap)
	return nil
}

func (s *MemStore) ReadOnce(path string) (Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := getIn(s.root, segs)
	if !ok {
		return nil, nil
	}
	return snapshotOf(node)
}

func (s *MemStore) snapshotLocked(collection string) (Snapshot, error) {
	node, ok := s.root[collection]
	if !ok {
		return nil, nil
	}
	return snapshotOf(node)
}

func (s *MemStore) changedLocked(collection string) (Snapshot, []func(Snapshot), error) {
	snap, err := s.snapshotLocked(collection)
	if err != nil {
		return nil, nil, err
	}
	subs := s.subs[collection]
	if len(subs) == 0 {
		return snap, nil, nil
	}
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sortInts(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, subs[id])
	}
	return snap, fns, nil
}

func dispatch(fns []func(Snapshot), snap Snapshot) {
	for _, fn := range fns {
		fn(snap)
	}
}

func sortInts(a []int) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}
