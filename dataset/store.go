package dataset

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"
)

// Persister stores datasets outside the process.
type Persister interface {
	Save(ctx context.Context, ds *Dataset) error
	Load(ctx context.Context, id string) (*Dataset, error)
	Remove(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]Info, error)
}

// Store is the process-wide cache of loaded datasets.
//
// Queries read datasets through View, which holds a read guard for the
// duration of the callback; Add and Remove take the write guard and are
// therefore exclusive with running queries. Each id is loaded from the
// persister at most once while it stays cached.
type Store struct {
	persister Persister
	logger    log.Logger

	mtx      sync.RWMutex
	datasets map[string]*Dataset

	loads singleflight.Group
}

// NewStore returns an empty store backed by p.
func NewStore(p Persister, logger log.Logger) *Store {
	return &Store{
		persister: p,
		logger:    log.With(logger, "component", "dataset-store"),
		datasets:  make(map[string]*Dataset),
	}
}

// Add validates, persists and caches ds. It returns the ids of every
// persisted dataset.
func (s *Store) Add(ctx context.Context, ds *Dataset) ([]string, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.datasets[ds.ID]; ok {
		return nil, fmt.Errorf("%w: %q", ErrExists, ds.ID)
	}
	exists, err := s.persister.Exists(ctx, ds.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %q", ErrExists, ds.ID)
	}

	if err := s.persister.Save(ctx, ds); err != nil {
		return nil, err
	}
	s.datasets[ds.ID] = ds
	level.Info(s.logger).Log("msg", "dataset added", "id", ds.ID, "kind", ds.Kind, "rows", len(ds.Rows))

	infos, err := s.persister.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	return ids, nil
}

// Remove deletes the dataset from the persister and the cache.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.persister.Remove(ctx, id); err != nil {
		return err
	}
	delete(s.datasets, id)
	level.Info(s.logger).Log("msg", "dataset removed", "id", id)
	return nil
}

// Get returns the dataset with the given id, loading it from the persister
// on a cache miss.
func (s *Store) Get(ctx context.Context, id string) (*Dataset, error) {
	s.mtx.RLock()
	ds, ok := s.datasets[id]
	s.mtx.RUnlock()
	if ok {
		return ds, nil
	}

	if err := ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	v, err, _ := s.loads.Do(id, func() (interface{}, error) {
		return s.load(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

func (s *Store) load(ctx context.Context, id string) (*Dataset, error) {
	s.mtx.RLock()
	ds, ok := s.datasets[id]
	s.mtx.RUnlock()
	if ok {
		return ds, nil
	}

	ds, err := s.persister.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	if cached, ok := s.datasets[id]; ok {
		return cached, nil
	}
	// A Remove may have completed while the file was being read.
	exists, err := s.persister.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s.datasets[id] = ds
	level.Debug(s.logger).Log("msg", "dataset loaded", "id", id, "kind", ds.Kind, "rows", len(ds.Rows))
	return ds, nil
}

// View calls fn with the dataset while holding the read guard.
func (s *Store) View(ctx context.Context, id string, fn func(*Dataset) error) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()
	ds, ok := s.datasets[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return fn(ds)
}

// List returns every persisted dataset, sorted by id.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	infos, err := s.persister.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}
