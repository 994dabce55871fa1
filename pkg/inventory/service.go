// Package inventory owns the catalog and order rules: product CRUD, stock
// checks at booking time and the stock adjustments triggered when an order
// enters or leaves the Returned state.
//
// Stock adjustments span several documents without a transaction. Two
// bookings racing for the last unit can both pass the validation pass; the
// guarded decrement then rejects the loser. Store I/O failures midway through
// an adjustment loop are not rolled back.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/repository"
	"go.uber.org/zap"
)

type ProductStore interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	InsertProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id string, fields map[string]interface{}, at time.Time) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	IncrementStock(ctx context.Context, id string, delta int) error
	DecrementStockIfAvailable(ctx context.Context, id string, qty int) (bool, error)
}

type OrderStore interface {
	ListOrders(ctx context.Context) ([]*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status models.Status, at time.Time) (*models.Order, error)
}

// Store is the persistence layer the service runs against.
type Store interface {
	ProductStore
	OrderStore
	ReplaceAll(ctx context.Context, products []*models.Product, orders []*models.Order) error
}

// ProductCache holds the catalog listing. SetProducts must refuse the write
// when the generation moved since ProductsGeneration was read.
type ProductCache interface {
	GetProducts(ctx context.Context) ([]*models.Product, error)
	ProductsGeneration(ctx context.Context) (int64, error)
	SetProducts(ctx context.Context, generation int64, products []*models.Product) error
	InvalidateProducts(ctx context.Context) error
}

// Publisher is told about order lifecycle changes after they are persisted.
type Publisher interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order, from models.Status) error
}

// Auditor records applied stock movements.
type Auditor interface {
	StockMoved(movement models.StockMovement)
}

type Option func(*Service)

func WithCache(cache ProductCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

type Service struct {
	store     Store
	cache     ProductCache
	publisher Publisher
	auditor   Auditor
	auditLog  AuditReader
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) invalidateProducts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProducts(ctx); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Error(err))
	}
}

func (s *Service) audit(orderID, productID string, delta int, reason string) {
	if s.auditor == nil {
		return
	}
	s.auditor.StockMoved(models.StockMovement{
		OrderID:   orderID,
		ProductID: productID,
		Delta:     delta,
		Reason:    reason,
		At:        s.now(),
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
