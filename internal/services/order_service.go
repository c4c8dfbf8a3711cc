package services

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"pharmacy/internal/catalog"
	"pharmacy/internal/models"
	"pharmacy/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
	refresher   Refresher
	now         func() time.Time
	mu          sync.Mutex // serialises stock checks and decrements
}

// NewOrderService creates a new OrderService. events and refresher may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, events EventPublisher, refresher Refresher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		events:      events,
		refresher:   refresher,
		now:         time.Now,
	}
}

// SetClock replaces the clock used to price order lines.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// CreateOrder prices every line at the product's final price at order time,
// reserves stock and stores the order as pending.
func (s *OrderService) CreateOrder(orderRequest models.Order) (*models.Order, error) {
	if err := validateStruct(&orderRequest); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	products := make(map[string]*models.Product)
	var touched []string
	requested := make(map[string]int)
	var totalAmount float64
	items := make([]models.OrderItem, 0, len(orderRequest.Items))

	for i, item := range orderRequest.Items {
		product, ok := products[item.ProductID]
		if !ok {
			var err error
			product, err = s.productRepo.GetByID(item.ProductID)
			if err != nil {
				return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
			}
			products[item.ProductID] = product
			touched = append(touched, item.ProductID)
		}

		volume := item.Volume
		if volume == "" {
			volume = catalog.DefaultVolume(*product)
		} else if len(product.Volumes) > 0 && !slices.Contains(product.Volumes, volume) {
			return nil, invalidField(fmt.Sprintf("items[%d].volume", i), "unknown volume "+volume)
		}

		requested[item.ProductID] += item.Quantity
		if product.Stock < requested[item.ProductID] {
			return nil, fmt.Errorf("%w for product %s (requested: %d, available: %d)",
				ErrInsufficientStock, product.Name, requested[item.ProductID], product.Stock)
		}

		pricing := catalog.ResolvePrice(*product, now)
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Volume:    volume,
			Quantity:  item.Quantity,
			ListPrice: pricing.ListPrice,
			Price:     pricing.FinalPrice,
		})
		totalAmount += pricing.FinalPrice * float64(item.Quantity)
	}

	var reserved []*models.Product
	for _, id := range touched {
		p := products[id]
		p.Stock -= requested[id]
		if err := s.productRepo.Update(p); err != nil {
			s.releaseStock(reserved, requested)
			return nil, fmt.Errorf("failed to reserve stock for %s: %w", id, err)
		}
		reserved = append(reserved, p)
	}

	newOrder := &models.Order{
		ID:           uuid.New().String(),
		CustomerName: orderRequest.CustomerName,
		Phone:        orderRequest.Phone,
		Address:      orderRequest.Address,
		Items:        items,
		TotalAmount:  math.Round(totalAmount*100) / 100,
		Status:       models.OrderPending,
	}
	if err := s.orderRepo.Create(newOrder); err != nil {
		s.releaseStock(reserved, requested)
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	publish(s.events, EventOrderCreated, OrderEvent{
		OrderID:   newOrder.ID,
		Status:    newOrder.Status,
		Total:     newOrder.TotalAmount,
		Items:     len(newOrder.Items),
		Timestamp: now,
	})
	refreshAfterWrite(s.refresher, "order created")
	return newOrder, nil
}

func (s *OrderService) releaseStock(reserved []*models.Product, requested map[string]int) {
	for _, p := range reserved {
		p.Stock += requested[p.ID]
		if err := s.productRepo.Update(p); err != nil {
			zap.L().Error("failed to release reserved stock", zap.String("product_id", p.ID), zap.Error(err))
		}
	}
}

// UpdateOrderStatus updates the status of an existing order.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}

	publish(s.events, EventOrderStatus, OrderEvent{OrderID: id, Status: status, Timestamp: s.now()})
	return nil
}
