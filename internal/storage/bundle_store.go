package storage

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/mmo-game/internal/idmap"
)

// BundleStore persists the raw bundle-encoded byte blobs described in
// spec §6.4 (planes/<stable>.plane, terrain_chunks/<stable>.terrain_chunk,
// clients/<user_id>.client, summary/<pass>/<plane>/<x>,<y>) under a
// single BadgerDB keyspace, one key per logical path. Grounded on
// WorldStorage's badger.DefaultOptions/db.Update/db.View idiom, reduced
// from delta-shaped JSON values to the bundle container's own
// self-describing bytes — no wrapper encoding is needed since the
// bundle format already carries its own version and section table.
//
// BundleStore implements both chunklifecycle.Loader and
// terraingen.PassStore; neither package imports storage directly, so
// there is no import cycle.
type BundleStore struct {
	db      *badger.DB
	mu      sync.RWMutex
	isReady bool
}

// NewBundleStore opens (or creates) the BadgerDB database rooted at
// dataPath/world_bundles.
func NewBundleStore(dataPath string) (*BundleStore, error) {
	dbPath := filepath.Join(dataPath, "world_bundles")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("bundle store: open badger db: %w", err)
	}

	return &BundleStore{db: db, isReady: true}, nil
}

// Close releases the underlying database handle.
func (bs *BundleStore) Close() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if !bs.isReady {
		return nil
	}
	bs.isReady = false
	return bs.db.Close()
}

func (bs *BundleStore) get(key string) ([]byte, bool, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	if !bs.isReady {
		return nil, false, fmt.Errorf("bundle store: not ready")
	}

	var data []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("bundle store: read %q: %w", key, err)
	}
	return data, true, nil
}

func (bs *BundleStore) put(key string, data []byte) error {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	if !bs.isReady {
		return fmt.Errorf("bundle store: not ready")
	}
	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("bundle store: write %q: %w", key, err)
	}
	return nil
}

func (bs *BundleStore) delete(key string) error {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	if !bs.isReady {
		return fmt.Errorf("bundle store: not ready")
	}
	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bundle store: delete %q: %w", key, err)
	}
	return nil
}

// --- chunklifecycle.Loader ---

func chunkKeyFor(stable idmap.StableID) string {
	return fmt.Sprintf("terrain_chunks/%d.terrain_chunk", stable)
}

func planeKeyFor(stable idmap.StableID) string {
	return fmt.Sprintf("planes/%d.plane", stable)
}

// ClientKeyFor is exported since clients/<user_id>.client is keyed by
// the account's user ID rather than a worldstore stable ID.
func ClientKeyFor(userID string) string {
	return fmt.Sprintf("clients/%s.client", userID)
}

func (bs *BundleStore) LoadChunk(stable idmap.StableID) ([]byte, bool, error) {
	return bs.get(chunkKeyFor(stable))
}

func (bs *BundleStore) SaveChunk(stable idmap.StableID, data []byte) error {
	return bs.put(chunkKeyFor(stable), data)
}

func (bs *BundleStore) DeleteChunk(stable idmap.StableID) error {
	return bs.delete(chunkKeyFor(stable))
}

func (bs *BundleStore) LoadPlane(stable idmap.StableID) ([]byte, bool, error) {
	return bs.get(planeKeyFor(stable))
}

func (bs *BundleStore) SavePlane(stable idmap.StableID, data []byte) error {
	return bs.put(planeKeyFor(stable), data)
}

// LoadClient and SaveClient round out the persisted-client half of
// spec §6.4 that chunklifecycle.Loader doesn't need but the engine's
// connect/disconnect handlers do.
func (bs *BundleStore) LoadClient(userID string) ([]byte, bool, error) {
	return bs.get(ClientKeyFor(userID))
}

func (bs *BundleStore) SaveClient(userID string, data []byte) error {
	return bs.put(ClientKeyFor(userID), data)
}

// --- terraingen.PassStore ---

func (bs *BundleStore) LoadSummary(key string) ([]byte, bool, error) {
	return bs.get(key)
}

func (bs *BundleStore) SaveSummary(key string, data []byte) error {
	return bs.put(key, data)
}
