package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
)

// MemoryRepository is a process-local store with the same contract as
// MongoRepository. It backs the "memory" storage driver and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]*models.Product
	orders   map[string]*models.Order
	audit    []*AuditLog

	// insertion order, so listings are stable
	productOrder []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]*models.Product),
		orders:   make(map[string]*models.Order),
	}
}

func (m *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Product, 0, len(m.productOrder))
	for _, id := range m.productOrder {
		if p, ok := m.products[id]; ok {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (m *MemoryRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProduct(p), nil
}

func (m *MemoryRepository) InsertProduct(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.putProduct(product)
	return nil
}

func (m *MemoryRepository) UpdateProduct(ctx context.Context, id string, fields map[string]interface{}, at time.Time) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			p.Name = v.(string)
		case "price":
			p.Price = v.(float64)
		case "category":
			p.Category = v.(string)
		case "stock":
			p.Stock = v.(int)
		case "totalUnits":
			p.TotalUnits = v.(int)
		case "image":
			p.Image = v.(string)
		}
	}
	p.UpdatedAt = at
	return copyProduct(p), nil
}

func (m *MemoryRepository) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	for i, pid := range m.productOrder {
		if pid == id {
			m.productOrder = append(m.productOrder[:i], m.productOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepository) IncrementStock(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepository) DecrementStockIfAvailable(ctx context.Context, id string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemoryRepository) ListOrders(ctx context.Context) ([]*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, copyOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func (m *MemoryRepository) InsertOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *MemoryRepository) UpdateOrderStatus(ctx context.Context, id string, status models.Status, at time.Time) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	return copyOrder(o), nil
}

func (m *MemoryRepository) ReplaceAll(ctx context.Context, products []*models.Product, orders []*models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products = make(map[string]*models.Product, len(products))
	m.productOrder = nil
	m.orders = make(map[string]*models.Order, len(orders))

	for _, p := range products {
		m.putProduct(p)
	}
	for _, o := range orders {
		m.orders[o.ID] = copyOrder(o)
	}
	return nil
}

func (m *MemoryRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	entry := *log
	m.audit = append(m.audit, &entry)
	return nil
}

func (m *MemoryRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var logs []*AuditLog
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].EntityID != entityID {
			continue
		}
		entry := *m.audit[i]
		logs = append(logs, &entry)
		if limit > 0 && int64(len(logs)) == limit {
			break
		}
	}
	return logs, nil
}

// putProduct must be called with mu held.
func (m *MemoryRepository) putProduct(product *models.Product) {
	if _, exists := m.products[product.ID]; !exists {
		m.productOrder = append(m.productOrder, product.ID)
	}
	m.products[product.ID] = copyProduct(product)
}

func copyProduct(p *models.Product) *models.Product {
	c := *p
	return &c
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.LineItem(nil), o.Items...)
	return &c
}
