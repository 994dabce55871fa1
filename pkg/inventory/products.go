package inventory

import (
	"context"
	"errors"

	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/repository"
	"go.uber.org/zap"
)

// ListProducts returns the whole catalog, served from the cache when one is
// configured.
func (s *Service) ListProducts(ctx context.Context) ([]*models.Product, error) {
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		products, err := s.cache.GetProducts(ctx)
		if err == nil {
			return products, nil
		}
		s.logger.Debug("Product cache unavailable", zap.Error(err))

		// Read before the store so a concurrent invalidation wins.
		generation, err = s.cache.ProductsGeneration(ctx)
		cacheable = err == nil
	}

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, storeFailure("list products", "", err)
	}

	if cacheable {
		err := s.cache.SetProducts(ctx, generation, products)
		switch {
		case errors.Is(err, repository.ErrStaleGeneration):
			s.logger.Debug("Catalog changed while listing, not caching")
		case err != nil:
			s.logger.Warn("Failed to cache products", zap.Error(err))
		}
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if isNotFound(err) {
		return nil, notFound("get product", "Product", id)
	}
	if err != nil {
		s.logger.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
		return nil, storeFailure("get product", id, err)
	}
	return product, nil
}

// CreateProduct assigns a fresh id and stores the coerced form values.
func (s *Service) CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	product := in.ToProduct()
	product.ID = s.newID()
	now := s.now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.store.InsertProduct(ctx, product); err != nil {
		s.logger.Error("Failed to create product", zap.String("product_id", product.ID), zap.Error(err))
		return nil, storeFailure("create product", product.ID, err)
	}
	s.invalidateProducts(ctx)

	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("stock", product.Stock))
	return product, nil
}

// UpdateProduct merges the patch onto the product with the given external id.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch *models.ProductPatch) (*models.Product, error) {
	product, err := s.store.UpdateProduct(ctx, id, patch.Fields(), s.now())
	if isNotFound(err) {
		return nil, notFound("update product", "Product", id)
	}
	if err != nil {
		s.logger.Error("Failed to update product", zap.String("product_id", id), zap.Error(err))
		return nil, storeFailure("update product", id, err)
	}
	s.invalidateProducts(ctx)
	return product, nil
}

// DeleteProduct removes the product. Orders referencing it are left alone.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	err := s.store.DeleteProduct(ctx, id)
	if isNotFound(err) {
		return notFound("delete product", "Product", id)
	}
	if err != nil {
		s.logger.Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		return storeFailure("delete product", id, err)
	}
	s.invalidateProducts(ctx)

	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}
