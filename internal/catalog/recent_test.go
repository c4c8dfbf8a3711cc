package catalog_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"pharmacy/internal/catalog"
	"pharmacy/internal/models"
)

func TestResolveRecent(t *testing.T) {
	products := sampleProducts()

	got := catalog.ResolveRecent([]string{"zinc", "gone", "vitc", "zinc"}, products)
	assert.Equal(t, []string{"zinc", "vitc"}, ids(got))

	assert.Empty(t, catalog.ResolveRecent(nil, products))
	assert.Empty(t, catalog.ResolveRecent([]string{"zinc"}, nil))
}

func TestResolveRecent_Caps(t *testing.T) {
	var products []models.Product
	var wanted []string
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("p%d", i)
		products = append(products, models.Product{ID: id})
		wanted = append(wanted, id)
	}
	got := catalog.ResolveRecent(wanted, products)
	assert.Len(t, got, catalog.MaxRecent)
	assert.Equal(t, wanted[:catalog.MaxRecent], ids(got))
}

func TestPushRecent(t *testing.T) {
	list := catalog.PushRecent(nil, "a")
	list = catalog.PushRecent(list, "b")
	list = catalog.PushRecent(list, "c")
	assert.Equal(t, []string{"c", "b", "a"}, list)

	moved := catalog.PushRecent(list, "a")
	assert.Equal(t, []string{"a", "c", "b"}, moved)
	assert.Equal(t, []string{"c", "b", "a"}, list, "input must not change")

	for i := 0; i < 20; i++ {
		list = catalog.PushRecent(list, fmt.Sprint(i))
	}
	assert.Len(t, list, catalog.MaxRecent)
	assert.Equal(t, "19", list[0])

	assert.Equal(t, []string{"x"}, catalog.PushRecent([]string{"x"}, ""))
}
