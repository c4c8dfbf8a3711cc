package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"pharmacy/internal/models"
)

// ErrTransientIO marks a failed fetch from the product source. Callers may
// retry or fall back to a local copy.
var ErrTransientIO = errors.New("transient i/o error")

// TransientIOError wraps the cause of a failed source fetch.
type TransientIOError struct {
	Op  string
	Err error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientIOError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransientIO) match any TransientIOError.
func (e *TransientIOError) Is(target error) bool { return target == ErrTransientIO }

// Source supplies complete product and category collections.
type Source interface {
	FetchAllProducts(ctx context.Context) ([]models.Product, error)
	FetchAllCategories(ctx context.Context) ([]models.Category, error)
}

// Snapshot is a complete point-in-time copy of the catalog. It must not be
// modified once published.
type Snapshot struct {
	Products   []models.Product
	Categories []models.Category
	Seq        uint64
	FetchedAt  time.Time
}

var emptySnapshot = &Snapshot{Products: []models.Product{}, Categories: []models.Category{}}

// Store holds the current catalog snapshot. Refreshes may overlap; each is
// tagged with a sequence number when it starts and a completed refresh is
// only published if no later-started refresh was published before it.
type Store struct {
	source  Source
	now     func() time.Time
	issued  atomic.Uint64
	mu      sync.Mutex // serialises publication
	current atomic.Pointer[Snapshot]
}

// NewStore creates a Store backed by source. The store is empty until the
// first successful Refresh.
func NewStore(source Source) *Store {
	s := &Store{source: source, now: time.Now}
	s.current.Store(emptySnapshot)
	return s
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Refresh fetches a new snapshot from the source. On success it returns the
// snapshot that is current afterwards and whether this fetch was the one
// published; a fetch overtaken by a later one is discarded. Source errors are
// returned unchanged and leave the current snapshot in place.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, bool, error) {
	seq := s.issued.Add(1)

	var products []models.Product
	var categories []models.Category
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.source.FetchAllProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.source.FetchAllCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return s.Snapshot(), false, err
	}

	if products == nil {
		products = []models.Product{}
	}
	if categories == nil {
		categories = []models.Category{}
	}
	next := &Snapshot{Products: products, Categories: categories, Seq: seq, FetchedAt: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.current.Load(); cur.Seq > seq {
		return cur, false, nil
	}
	s.current.Store(next)
	return next, true, nil
}
