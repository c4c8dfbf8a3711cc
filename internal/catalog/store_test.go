package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/catalog"
	"pharmacy/internal/models"
)

// gatedSource hands out one scripted response per FetchAllProducts call. A
// call blocks until its gate is released, which lets a test decide the order
// in which overlapping refreshes complete.
type gatedSource struct {
	mu        sync.Mutex
	calls     int
	gates     []chan struct{}
	responses [][]models.Product
	started   chan int
}

func newGatedSource(responses ...[]models.Product) *gatedSource {
	s := &gatedSource{responses: responses, started: make(chan int, len(responses))}
	for range responses {
		s.gates = append(s.gates, make(chan struct{}))
	}
	return s
}

func (s *gatedSource) FetchAllProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()

	s.started <- i
	select {
	case <-s.gates[i]:
		return s.responses[i], nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *gatedSource) FetchAllCategories(context.Context) ([]models.Category, error) {
	return []models.Category{{ID: "c1", Name: "Vitamins"}}, nil
}

type staticSource struct {
	products   []models.Product
	categories []models.Category
	err        error
}

func (s *staticSource) FetchAllProducts(context.Context) ([]models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func (s *staticSource) FetchAllCategories(context.Context) ([]models.Category, error) {
	return s.categories, nil
}

func TestStore_EmptyBeforeRefresh(t *testing.T) {
	store := catalog.NewStore(&staticSource{})
	snap := store.Snapshot()
	require.NotNil(t, snap)
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Categories)
	assert.Zero(t, snap.Seq)
}

func TestStore_Refresh(t *testing.T) {
	src := &staticSource{
		products:   sampleProducts(),
		categories: []models.Category{{ID: "c", Name: "Vitamins"}},
	}
	store := catalog.NewStore(src)

	snap, applied, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Len(t, snap.Products, 5)
	assert.Len(t, snap.Categories, 1)
	assert.Same(t, snap, store.Snapshot())
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestStore_RefreshErrorKeepsSnapshot(t *testing.T) {
	src := &staticSource{products: sampleProducts()}
	store := catalog.NewStore(src)
	first, _, err := store.Refresh(context.Background())
	require.NoError(t, err)

	cause := &catalog.TransientIOError{Op: "fetch products", Err: errors.New("disk unavailable")}
	src.err = cause
	snap, applied, err := store.Refresh(context.Background())
	assert.Same(t, cause, err, "source errors surface unchanged")
	assert.True(t, errors.Is(err, catalog.ErrTransientIO))
	assert.False(t, applied)
	assert.Same(t, first, snap)
	assert.Same(t, first, store.Snapshot())
}

func TestStore_StaleRefreshIsDiscarded(t *testing.T) {
	slow := []models.Product{{ID: "old"}}
	fast := []models.Product{{ID: "new"}}
	src := newGatedSource(slow, fast)
	store := catalog.NewStore(src)
	ctx := context.Background()

	type outcome struct {
		snap    *catalog.Snapshot
		applied bool
		err     error
	}
	slowDone := make(chan outcome, 1)
	go func() {
		s, a, err := store.Refresh(ctx)
		slowDone <- outcome{s, a, err}
	}()
	require.Equal(t, 0, <-src.started)

	fastDone := make(chan outcome, 1)
	go func() {
		s, a, err := store.Refresh(ctx)
		fastDone <- outcome{s, a, err}
	}()
	require.Equal(t, 1, <-src.started)

	// the refresh started second finishes first
	close(src.gates[1])
	f := <-fastDone
	require.NoError(t, f.err)
	assert.True(t, f.applied)
	assert.Equal(t, "new", f.snap.Products[0].ID)

	close(src.gates[0])
	s := <-slowDone
	require.NoError(t, s.err)
	assert.False(t, s.applied)
	assert.Same(t, f.snap, s.snap)
	assert.Equal(t, "new", store.Snapshot().Products[0].ID)
}

func TestStore_ConcurrentRefreshesConverge(t *testing.T) {
	store := catalog.NewStore(&staticSource{products: sampleProducts()})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, store.Snapshot().Products, 5)
	assert.LessOrEqual(t, store.Snapshot().Seq, uint64(20))
}

func TestTransientIOError(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("refresh: %w", &catalog.TransientIOError{Op: "fetch categories", Err: cause})
	assert.True(t, errors.Is(err, catalog.ErrTransientIO))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "fetch categories: connection reset")
	assert.False(t, errors.Is(errors.New("other"), catalog.ErrTransientIO))
}
