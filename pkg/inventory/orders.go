package inventory

import (
	"context"
	"strings"

	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"go.uber.org/zap"
)

// ListOrders returns every order, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]*models.Order, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, storeFailure("list orders", "", err)
	}
	return orders, nil
}

// CreateOrder books the requested units. All line items are checked before
// any stock is touched; one short item rejects the whole order.
func (s *Service) CreateOrder(ctx context.Context, in *models.OrderInput) (*models.Order, error) {
	const op = "create order"

	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	// Validation pass. Repeated lines for the same product are summed.
	requested := make(map[string]int, len(in.Items))
	for _, item := range in.Items {
		requested[item.ProductID] += item.Quantity
	}
	checked := make(map[string]bool, len(requested))
	for _, item := range in.Items {
		if checked[item.ProductID] {
			continue
		}
		checked[item.ProductID] = true

		product, err := s.store.GetProduct(ctx, item.ProductID)
		if isNotFound(err) {
			s.logger.Info("Order rejected, unknown product", zap.String("product_id", item.ProductID))
			return nil, insufficientStock(op, item.ProductID, item.ProductID)
		}
		if err != nil {
			s.logger.Error("Failed to check stock", zap.String("product_id", item.ProductID), zap.Error(err))
			return nil, storeFailure(op, item.ProductID, err)
		}
		if product.Stock < requested[item.ProductID] {
			s.logger.Info("Order rejected, insufficient stock",
				zap.String("product_id", product.ID),
				zap.Int("stock", product.Stock),
				zap.Int("requested", requested[item.ProductID]))
			return nil, insufficientStock(op, product.ID, productLabel(product))
		}
	}

	orderID := s.newID()

	// Mutation pass.
	applied := make([]models.LineItem, 0, len(in.Items))
	for _, item := range in.Items {
		ok, err := s.store.DecrementStockIfAvailable(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.logger.Error("Failed to decrement stock, earlier items stay decremented",
				zap.String("order_id", orderID),
				zap.String("product_id", item.ProductID),
				zap.Int("applied_items", len(applied)),
				zap.Error(err))
			s.invalidateProducts(ctx)
			return nil, storeFailure(op, item.ProductID, err)
		}
		if !ok {
			// Another booking took the units after the validation pass.
			s.releaseItems(ctx, orderID, applied)
			s.invalidateProducts(ctx)
			s.logger.Info("Order rejected, stock taken concurrently",
				zap.String("order_id", orderID),
				zap.String("product_id", item.ProductID))
			return nil, insufficientStock(op, item.ProductID, s.productLabelByID(ctx, item.ProductID))
		}
		applied = append(applied, item)
		s.audit(orderID, item.ProductID, -item.Quantity, models.ReasonBooked)
	}
	s.invalidateProducts(ctx)

	now := s.now()
	order := &models.Order{
		ID:           orderID,
		CustomerName: strings.TrimSpace(in.CustomerName),
		Date:         now,
		Status:       models.StatusPending,
		Items:        append([]models.LineItem(nil), in.Items...),
		TotalAmount:  in.TotalAmount.Float(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Date != nil && !in.Date.IsZero() {
		order.Date = in.Date.UTC()
	}

	if err := s.store.InsertOrder(ctx, order); err != nil {
		s.logger.Error("Failed to persist order, stock stays decremented",
			zap.String("order_id", orderID), zap.Error(err))
		return nil, storeFailure(op, orderID, err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("customer", order.CustomerName),
		zap.Int("items", len(order.Items)),
		zap.Float64("total_amount", order.TotalAmount))

	if s.publisher != nil {
		if err := s.publisher.OrderCreated(ctx, order); err != nil {
			s.logger.Warn("Failed to publish order event", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	return order, nil
}

// UpdateOrderStatus moves the order to status. Entering Returned puts every
// line item's units back in stock; leaving Returned takes them out again.
// Any other transition leaves stock alone.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status models.Status) (*models.Order, error) {
	const op = "update order"

	if !status.Valid() {
		return nil, invalid(op, "Invalid status "+string(status))
	}

	order, err := s.store.GetOrder(ctx, id)
	if isNotFound(err) {
		return nil, notFound(op, "Order", id)
	}
	if err != nil {
		s.logger.Error("Failed to load order", zap.String("order_id", id), zap.Error(err))
		return nil, storeFailure(op, id, err)
	}

	from := order.Status
	sign, reason := stockDirection(from, status)
	if sign != 0 {
		for _, item := range order.Items {
			delta := sign * item.Quantity
			err := s.store.IncrementStock(ctx, item.ProductID, delta)
			if isNotFound(err) {
				s.logger.Warn("Skipping stock adjustment for deleted product",
					zap.String("order_id", id),
					zap.String("product_id", item.ProductID))
				continue
			}
			if err != nil {
				s.logger.Error("Failed to adjust stock, earlier items stay adjusted",
					zap.String("order_id", id),
					zap.String("product_id", item.ProductID),
					zap.Error(err))
				s.invalidateProducts(ctx)
				return nil, storeFailure(op, id, err)
			}
			s.audit(id, item.ProductID, delta, reason)
		}
		s.invalidateProducts(ctx)
	}

	updated, err := s.store.UpdateOrderStatus(ctx, id, status, s.now())
	if isNotFound(err) {
		return nil, notFound(op, "Order", id)
	}
	if err != nil {
		s.logger.Error("Failed to update order status", zap.String("order_id", id), zap.Error(err))
		return nil, storeFailure(op, id, err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(status)))

	if s.publisher != nil && from != status {
		if err := s.publisher.OrderStatusChanged(ctx, updated, from); err != nil {
			s.logger.Warn("Failed to publish order event", zap.String("order_id", id), zap.Error(err))
		}
	}
	return updated, nil
}

// stockDirection returns +1 when units come back, -1 when a return is undone
// and 0 otherwise.
func stockDirection(from, to models.Status) (int, string) {
	switch {
	case to == models.StatusReturned && from != models.StatusReturned:
		return 1, models.ReasonReturned
	case to != models.StatusReturned && from == models.StatusReturned:
		return -1, models.ReasonUnreturned
	default:
		return 0, ""
	}
}

// releaseItems puts back units taken for an order that is being abandoned.
func (s *Service) releaseItems(ctx context.Context, orderID string, items []models.LineItem) {
	for _, item := range items {
		if err := s.store.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("Failed to release stock",
				zap.String("order_id", orderID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			continue
		}
		s.audit(orderID, item.ProductID, item.Quantity, models.ReasonReleased)
	}
}

func (s *Service) productLabelByID(ctx context.Context, id string) string {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return id
	}
	return productLabel(product)
}

func productLabel(p *models.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func validateOrderInput(in *models.OrderInput) error {
	const op = "create order"

	if in == nil || len(in.Items) == 0 {
		return invalid(op, "Order must contain at least one item")
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return invalid(op, "Customer name is required")
	}
	for _, item := range in.Items {
		if item.ProductID == "" {
			return invalid(op, "Line item is missing productId")
		}
		if item.Quantity <= 0 {
			return invalid(op, "Quantity must be positive for product "+item.ProductID)
		}
	}
	if in.TotalAmount < 0 {
		return invalid(op, "Total amount must not be negative")
	}
	return nil
}
