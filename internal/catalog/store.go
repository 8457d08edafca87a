package catalog

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

// Snapshot is an immutable view of the loaded catalog. Callers may hold it
// without locks; the store swaps in a fresh snapshot when the file changes.
type Snapshot struct {
	products []Product
	index    map[string]int
}

// Products returns the loaded entries in file order. The slice must not be
// mutated.
func (s *Snapshot) Products() []Product {
	if s == nil {
		return nil
	}
	return s.products
}

// Lookup finds a product by its unique id.
func (s *Snapshot) Lookup(id string) (*Product, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.products[i], true
}

// Len reports the number of valid entries in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.products)
}

type fileSig struct {
	size  int64
	mtime time.Time
}

// Store caches the catalog in memory and reloads it when the backing
// file's (size, mtime) signature changes.
type Store struct {
	path string
	logg *logger.Logger

	mu       sync.Mutex
	snapshot *Snapshot
	sig      fileSig
	sigOK    bool
}

// NewStore performs the initial catalog load. A load failure here is fatal
// to the caller; later reload failures keep the previous snapshot.
func NewStore(ctx context.Context, logg *logger.Logger, path string) (*Store, error) {
	store := &Store{path: path, logg: logg}
	products, err := Load(ctx, logg, path)
	if err != nil {
		return nil, err
	}
	store.snapshot = buildSnapshot(products)
	store.sig, store.sigOK = store.fileSignature()
	return store, nil
}

// Get returns the current snapshot, reloading first if the file changed.
func (s *Store) Get(ctx context.Context) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.fileSignature()
	if ok && (!s.sigOK || sig != s.sig) {
		products, err := Load(ctx, s.logg, s.path)
		if err != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "catalog reload failed, keeping previous snapshot", err)
			}
			return s.snapshot
		}
		s.snapshot = buildSnapshot(products)
		s.sig = sig
		s.sigOK = true
		if s.logg != nil {
			ctx = s.logg.WithFields(ctx, map[string]any{"path": s.path, "entries": len(products)})
			s.logg.Info(ctx, "catalog reloaded")
		}
	}
	return s.snapshot
}

func (s *Store) fileSignature() (fileSig, bool) {
	st, err := os.Stat(s.path)
	if err != nil {
		return fileSig{}, false
	}
	return fileSig{size: st.Size(), mtime: st.ModTime()}, true
}

// NewSnapshot builds an immutable snapshot from already-loaded products.
func NewSnapshot(products []Product) *Snapshot {
	return buildSnapshot(products)
}

func buildSnapshot(products []Product) *Snapshot {
	index := make(map[string]int, len(products))
	for i := range products {
		index[products[i].ID] = i
	}
	return &Snapshot{products: products, index: index}
}
