package services_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"pharmacy/internal/models"
	"pharmacy/internal/repositories"
	"pharmacy/internal/services"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Vitamin C", Price: 10.0, Stock: 100},
		{ID: "2", Name: "Zinc", Price: 20.0, Stock: 50},
	}

	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts()

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expectedProduct := &models.Product{ID: "1", Name: "Vitamin C", Price: 10.0, Stock: 100}

	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	product, err = service.GetProductByID("99")
	assert.Nil(t, product)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	refresher := newRefresher()
	service := services.NewProductService(mockRepo, refresher)

	newProduct := &models.Product{Name: "Sunscreen", Price: 50.0, Stock: 20}

	mockRepo.On("Create", newProduct).Return(nil).Once()
	err := service.CreateProduct(newProduct)
	assert.NoError(t, err)
	refresher.AssertNumberOfCalls(t, "Refresh", 1)

	mockRepo.On("Create", newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	refresher.AssertNumberOfCalls(t, "Refresh", 1)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProductValidation(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	cases := []struct {
		name    string
		product models.Product
		field   string
	}{
		{"missing name", models.Product{Price: 10}, "name"},
		{"negative price", models.Product{Name: "Zinc", Price: -1}, "price"},
		{"discount over 100", models.Product{Name: "Zinc", Price: 10, Discount: 120}, "discount"},
		{"negative stock", models.Product{Name: "Zinc", Stock: -2}, "stock"},
		{"rating over 5", models.Product{Name: "Zinc", Rating: 5.5}, "rating"},
		{"offer ends before it starts", models.Product{Name: "Zinc", OfferStart: &start, OfferEnd: &before}, "offerEnd"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.product
			err := service.CreateProduct(&p)
			var verr *services.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProductService_RejectsUndecodableFields(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	var p models.Product
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Aspirin","price":"abc","discount":"ten","stock":"lots"}`), &p))
	require.ElementsMatch(t, []string{"price", "discount", "stock"}, p.Defaulted)

	err := service.CreateProduct(&p)
	var verr *services.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Len(t, verr.Fields, 3)
	for _, field := range []string{"price", "discount", "stock"} {
		assert.Equal(t, "could not be decoded", verr.Fields[field])
	}

	p.ID = "p-1"
	err = service.UpdateProduct(&p)
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Contains(t, verr.Fields, "price")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestProductService_IgnoresUndecodableTimestamps(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	var p models.Product
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Aspirin","price":5,"createdAt":"not a date"}`), &p))
	require.Equal(t, []string{"createdAt"}, p.Defaulted)

	mockRepo.On("Create", &p).Return(nil).Once()
	assert.NoError(t, service.CreateProduct(&p))
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	refresher := newRefresher()
	service := services.NewProductService(mockRepo, refresher)

	updatedProduct := &models.Product{ID: "1", Name: "Vitamin C 1000", Price: 12.0, Stock: 95}

	mockRepo.On("Update", updatedProduct).Return(nil).Once()
	err := service.UpdateProduct(updatedProduct)
	assert.NoError(t, err)

	missing := &models.Product{ID: "99", Name: "NonExistent", Price: 1.0, Stock: 1}
	mockRepo.On("Update", missing).Return(fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	err = service.UpdateProduct(missing)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
	mockRepo.AssertExpectations(t)
	refresher.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, newRefresher())

	mockRepo.On("Delete", "1").Return(nil).Once()
	err := service.DeleteProduct("1")
	assert.NoError(t, err)

	mockRepo.On("Delete", "99").Return(fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	err = service.DeleteProduct("99")
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_ExportCSV(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	end := now.Add(48 * time.Hour)
	mockRepo := new(MockProductRepository)
	mockRepo.On("GetAll").Return([]models.Product{
		{ID: "a", Name: "Vitamin C", Category: "Vitamins", Price: 100, Discount: 20, IsOffer: true, OfferEnd: &end, Stock: 4},
		{ID: "b", Name: "Zinc, chelated", Price: 45, Stock: 0},
	}, nil)
	service := services.NewProductService(mockRepo, nil)

	var buf bytes.Buffer
	require.NoError(t, service.ExportCSV(&buf, now))

	type row struct {
		ID          string  `csv:"id"`
		Name        string  `csv:"name"`
		FinalPrice  float64 `csv:"final_price"`
		ActiveOffer bool    `csv:"active_offer"`
		OfferEnd    string  `csv:"offer_end"`
	}
	var rows []*row
	require.NoError(t, gocsv.Unmarshal(&buf, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)
	assert.Equal(t, 80.0, rows[0].FinalPrice)
	assert.True(t, rows[0].ActiveOffer)
	assert.Equal(t, "2025-06-17T12:00:00Z", rows[0].OfferEnd)
	assert.Equal(t, "Zinc, chelated", rows[1].Name)
	assert.Equal(t, 45.0, rows[1].FinalPrice)
}

func TestProductService_Import(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	require.NoError(t, repo.Create(&models.Product{ID: "p-1", Name: "Existing", Price: 5}))
	refresher := newRefresher()
	service := services.NewProductService(repo, refresher)

	data := `[
		{"id": "p-1", "name": "Duplicate", "price": 1},
		{"id": "p-2", "name": "Vitamin C", "price": "120", "discount": "10", "isOffer": "true", "offerEnd": "2025-07-01"},
		{"name": "No id", "price": "abc", "volumes": ["30ml"]},
		{"id": "p-9", "name": "  ", "price": 3},
		{"id": "p-10", "price": "oops"}
	]`
	created, err := service.Import(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Existing", all[0].Name)
	assert.Equal(t, 120.0, all[1].Price)
	assert.Equal(t, 10, all[1].Discount)
	assert.True(t, all[1].IsOffer)
	require.NotNil(t, all[1].OfferEnd)
	assert.Zero(t, all[2].Price, "unreadable price falls back to zero")
	assert.NotEmpty(t, all[2].ID)
	for _, id := range []string{"p-9", "p-10"} {
		_, err := repo.GetByID(id)
		assert.True(t, errors.Is(err, repositories.ErrNotFound), "nameless %s is skipped", id)
	}
	refresher.AssertNumberOfCalls(t, "Refresh", 1)

	_, err = service.Import(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}
