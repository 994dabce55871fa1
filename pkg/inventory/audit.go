package inventory

import (
	"context"

	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/repository"
	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// AuditReader reads back the stock audit trail written by the Auditor.
type AuditReader interface {
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*repository.AuditLog, error)
}

func WithAuditLog(r AuditReader) Option {
	return func(s *Service) { s.auditLog = r }
}

// StockHistory returns the newest stock movements of a product, at most limit.
func (s *Service) StockHistory(ctx context.Context, productID string, limit int64) ([]*repository.AuditLog, error) {
	const op = "load stock history"

	if limit <= 0 || limit > MaxHistoryLimit {
		return nil, invalid(op, "limit must be between 1 and 500")
	}

	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		if isNotFound(err) {
			return nil, notFound(op, "Product", productID)
		}
		s.logger.Error("Failed to get product", zap.String("product_id", productID), zap.Error(err))
		return nil, storeFailure(op, productID, err)
	}

	logs := make([]*repository.AuditLog, 0)
	if s.auditLog == nil {
		return logs, nil
	}
	found, err := s.auditLog.GetAuditLogs(ctx, productID, limit)
	if err != nil {
		s.logger.Error("Failed to read stock history", zap.String("product_id", productID), zap.Error(err))
		return nil, storeFailure(op, productID, err)
	}
	return append(logs, found...), nil
}
