package services_test

import (
	"errors"
	"testing"
	"time"

	"pharmacy/internal/models"
	"pharmacy/internal/repositories"
	"pharmacy/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var orderNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newOrderFixture(t *testing.T) (*services.OrderService, *repositories.MockProductRepository, *MockPublisher) {
	t.Helper()
	products := repositories.NewMockProductRepository()
	end := orderNow.Add(24 * time.Hour)
	expired := orderNow.Add(-time.Hour)
	for _, p := range []models.Product{
		{ID: "vitc", Name: "Vitamin C", Price: 100, Discount: 20, IsOffer: true, OfferEnd: &end, Stock: 5, Volumes: []string{"30ml", "60ml"}},
		{ID: "zinc", Name: "Zinc", Price: 45, Discount: 10, IsOffer: true, OfferEnd: &expired, Stock: 2},
		{ID: "cream", Name: "Cream", Price: 19.5, Stock: 10},
	} {
		p := p
		require.NoError(t, products.Create(&p))
	}
	pub := new(MockPublisher)
	svc := services.NewOrderService(repositories.NewMockOrderRepository(), products, pub, nil)
	svc.SetClock(func() time.Time { return orderNow })
	return svc, products, pub
}

func TestOrderService_CreateOrder(t *testing.T) {
	svc, products, pub := newOrderFixture(t)
	pub.On("PublishEvent", services.EventOrderCreated, mock.AnythingOfType("services.OrderEvent")).Return(nil).Once()

	order, err := svc.CreateOrder(models.Order{
		CustomerName: "Sara",
		Phone:        "0100",
		Items: []models.OrderItem{
			{ProductID: "vitc", Quantity: 2},
			{ProductID: "zinc", Quantity: 1},
			{ProductID: "cream", Quantity: 2, Price: 1},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.OrderPending, order.Status)

	require.Len(t, order.Items, 3)
	assert.Equal(t, 80.0, order.Items[0].Price, "active offer is charged at the final price")
	assert.Equal(t, 100.0, order.Items[0].ListPrice)
	assert.Equal(t, "30ml", order.Items[0].Volume)
	assert.Equal(t, 41.0, order.Items[1].Price, "discount applies after the offer window closes")
	assert.Equal(t, 19.5, order.Items[2].Price, "client prices are ignored")
	assert.Equal(t, 80.0*2+41+19.5*2, order.TotalAmount)

	vitc, err := products.GetByID("vitc")
	require.NoError(t, err)
	assert.Equal(t, 3, vitc.Stock)

	stored, err := svc.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount, stored.TotalAmount)
	pub.AssertExpectations(t)
}

func TestOrderService_InsufficientStock(t *testing.T) {
	svc, products, pub := newOrderFixture(t)

	_, err := svc.CreateOrder(models.Order{
		CustomerName: "Sara",
		Phone:        "0100",
		Items: []models.OrderItem{
			{ProductID: "vitc", Quantity: 1},
			{ProductID: "zinc", Quantity: 2},
			{ProductID: "zinc", Quantity: 1},
		},
	})
	assert.True(t, errors.Is(err, services.ErrInsufficientStock))

	vitc, _ := products.GetByID("vitc")
	assert.Equal(t, 5, vitc.Stock, "nothing is reserved when an order is rejected")
	orders, _ := svc.GetAllOrders()
	assert.Empty(t, orders)
	pub.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrderRejects(t *testing.T) {
	svc, _, _ := newOrderFixture(t)

	_, err := svc.CreateOrder(models.Order{CustomerName: "Sara", Phone: "0100"})
	var verr *services.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items")

	_, err = svc.CreateOrder(models.Order{CustomerName: "Sara", Phone: "0100", Items: []models.OrderItem{{ProductID: "vitc", Quantity: 0}}})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items[0].quantity")

	_, err = svc.CreateOrder(models.Order{CustomerName: "Sara", Phone: "0100", Items: []models.OrderItem{{ProductID: "vitc", Quantity: 1, Volume: "1l"}}})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items[0].volume")

	_, err = svc.CreateOrder(models.Order{CustomerName: "Sara", Phone: "0100", Items: []models.OrderItem{{ProductID: "nope", Quantity: 1}}})
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestOrderService_PublishFailureDoesNotFailOrder(t *testing.T) {
	svc, _, pub := newOrderFixture(t)
	pub.On("PublishEvent", services.EventOrderCreated, mock.Anything).Return(errors.New("broker down")).Once()

	order, err := svc.CreateOrder(models.Order{CustomerName: "Sara", Phone: "0100", Items: []models.OrderItem{{ProductID: "cream", Quantity: 1}}})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	pub.AssertExpectations(t)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	svc, _, pub := newOrderFixture(t)
	pub.On("PublishEvent", services.EventOrderCreated, mock.Anything).Return(nil)

	order, err := svc.CreateOrder(models.Order{CustomerName: "Sara", Phone: "0100", Items: []models.OrderItem{{ProductID: "cream", Quantity: 1}}})
	require.NoError(t, err)

	pub.On("PublishEvent", services.EventOrderStatus, services.OrderEvent{
		OrderID: order.ID, Status: models.OrderShipped, Timestamp: orderNow,
	}).Return(nil).Once()
	require.NoError(t, svc.UpdateOrderStatus(order.ID, models.OrderShipped))

	stored, err := svc.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, stored.Status)

	err = svc.UpdateOrderStatus(order.ID, "lost")
	assert.True(t, errors.Is(err, services.ErrInvalidStatus))

	err = svc.UpdateOrderStatus("missing", models.OrderDelivered)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}
