package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"go.uber.org/zap"
)

// Fixtures is the bulk data loaded by Seed. Products go through the same
// numeric coercion as the admin form; orders are taken as stored documents.
type Fixtures struct {
	Products []*models.ProductInput
	Orders   []*models.Order
}

type SeedResult struct {
	Products int `json:"products"`
	Orders   int `json:"orders"`
}

func (r SeedResult) Message() string {
	return fmt.Sprintf("Migrated %d products and %d orders.", r.Products, r.Orders)
}

// LoadFixtures reads JSON arrays from the two files. A missing file is treated
// as an empty array.
func LoadFixtures(productsFile, ordersFile string) (*Fixtures, error) {
	var f Fixtures
	if err := readJSONFile(productsFile, &f.Products); err != nil {
		return nil, fmt.Errorf("failed to read products fixture: %w", err)
	}
	if err := readJSONFile(ordersFile, &f.Orders); err != nil {
		return nil, fmt.Errorf("failed to read orders fixture: %w", err)
	}
	return &f, nil
}

func readJSONFile(path string, dest interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Seed wipes both collections and loads the fixtures.
func (s *Service) Seed(ctx context.Context, f *Fixtures) (SeedResult, error) {
	now := s.now()

	products := make([]*models.Product, 0, len(f.Products))
	for _, in := range f.Products {
		p := in.ToProduct()
		if p.ID == "" {
			p.ID = s.newID()
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		products = append(products, p)
	}

	orders := make([]*models.Order, 0, len(f.Orders))
	for _, o := range f.Orders {
		c := *o
		if c.ID == "" {
			c.ID = s.newID()
		}
		if !c.Status.Valid() {
			c.Status = models.StatusPending
		}
		if c.Date.IsZero() {
			c.Date = now
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = c.Date
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = c.CreatedAt
		}
		orders = append(orders, &c)
	}

	if err := s.store.ReplaceAll(ctx, products, orders); err != nil {
		s.logger.Error("Failed to seed store", zap.Error(err))
		return SeedResult{}, storeFailure("seed store", "", err)
	}
	s.invalidateProducts(ctx)

	result := SeedResult{Products: len(products), Orders: len(orders)}
	s.logger.Info("Store seeded",
		zap.Int("products", result.Products),
		zap.Int("orders", result.Orders))
	return result, nil
}
