// ABOUTME: BadgerDB-backed Store for offline and single-machine use
// ABOUTME: One badger entry per top-level record, keyed "collection/id"
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"
)

// BadgerStore persists records locally while keeping the same contract as
// the remote backends: every write republishes the owning collection's full
// snapshot to subscribers. Paths deeper than "{collection}/{id}" are
// resolved inside the owning record, so task writes rewrite the parent
// project entry.
type BadgerStore struct {
	mu     sync.Mutex
	db     *badger.DB
	dir    string
	subs   map[string]map[int]func(Snapshot)
	nextID int
}

// OpenBadgerStore opens (or creates) a store at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{
		db:   db,
		dir:  dir,
		subs: map[string]map[int]func(Snapshot){},
	}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Subscribe(path string, fn func(Snapshot)) (func(), error) {
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
	snap, err := s.collectionSnapshot(key)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

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

func (s *BadgerStore) Create(path string, body any) (string, error) {
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

	if err := s.mutate(segs[0], func() error {
		return s.writeAt(append(segs, key), record)
	}); err != nil {
		return "", err
	}
	return key, nil
}

func (s *BadgerStore) Write(path string, body any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	value, err := toValue(body)
	if err != nil {
		return err
	}
	return s.mutate(segs[0], func() error {
		return s.writeAt(segs, value)
	})
}

func (s *BadgerStore) Patch(path string, fields map[string]any) error {
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
	if len(segs) < 2 {
		return fmt.Errorf("patch path must name a record: %q", path)
	}
	return s.mutate(segs[0], func() error {
		record, err := s.loadRecord(segs[0], segs[1])
		if err != nil {
			return err
		}
		if record == nil {
			record = map[string]any{}
		}
		mergeIn(record, segs[2:], patch)
		return s.storeRecord(segs[0], segs[1], record)
	})
}

func (s *BadgerStore) Remove(path string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segs) < 2 {
		return fmt.Errorf("remove path must name a record: %q", path)
	}
	return s.mutate(segs[0], func() error {
		if len(segs) == 2 {
			return s.db.Update(func(txn *badger.Txn) error {
				return txn.Delete([]byte(segs[0] + "/" + segs[1]))
			})
		}
		record, err := s.loadRecord(segs[0], segs[1])
		if err != nil || record == nil {
			return err
		}
		deleteIn(record, segs[2:])
		return s.storeRecord(segs[0], segs[1], record)
	})
}

func (s *BadgerStore) ReadOnce(path string) (Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(segs) == 1 {
		return s.collectionSnapshot(segs[0])
	}
	record, err := s.loadRecord(segs[0], segs[1])
	if err != nil || record == nil {
		return nil, err
	}
	node, ok := getIn(record, segs[2:])
	if !ok {
		return nil, nil
	}
	return snapshotOf(node)
}

// mutate runs op under the store mutex, then republishes the collection.
func (s *BadgerStore) mutate(collection string, op func() error) error {
	s.mu.Lock()
	if err := op(); err != nil {
		s.mu.Unlock()
		return err
	}
	snap, err := s.collectionSnapshot(collection)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	subs := s.subs[collection]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sortInts(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, subs[id])
	}
	s.mu.Unlock()

	dispatch(fns, snap)
	return nil
}

// writeAt replaces the value at segs. Paths of depth two replace a whole
// record; deeper paths rewrite the owning record.
func (s *BadgerStore) writeAt(segs []string, value any) error {
	if len(segs) < 2 {
		return fmt.Errorf("write path must name a record")
	}
	if len(segs) == 2 {
		record, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("record body must be an object")
		}
		return s.storeRecord(segs[0], segs[1], record)
	}
	record, err := s.loadRecord(segs[0], segs[1])
	if err != nil {
		return err
	}
	if record == nil {
		record = map[string]any{}
	}
	setIn(record, segs[2:], value)
	return s.storeRecord(segs[0], segs[1], record)
}

func (s *BadgerStore) loadRecord(collection, id string) (map[string]any, error) {
	var record map[string]any
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(collection + "/" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s/%s: %w", collection, id, err)
	}
	return record, nil
}

func (s *BadgerStore) storeRecord(collection, id string, record map[string]any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(collection+"/"+id), raw)
	})
}

func (s *BadgerStore) collectionSnapshot(collection string) (Snapshot, error) {
	prefix := []byte(collection + "/")
	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			id := strings.TrimPrefix(key, collection+"/")
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if snap == nil {
				snap = Snapshot{}
			}
			snap[id] = json.RawMessage(val)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
	}
	return snap, nil
}
