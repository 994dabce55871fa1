package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsFixture = `[
  {"id": "t1", "name": "Nauvari Saree", "price": 500, "category": "Traditional", "stock": 3, "totalUnits": 3, "image": "/img/nauvari.jpg"},
  {"id": "w1", "name": "Cowboy Set", "price": "350", "category": "Western", "stock": "2", "totalUnits": "2", "image": "/img/cowboy.jpg"}
]`

const ordersFixture = `[
  {"id": "o1", "customerName": "Meera", "date": "2026-02-01T10:00:00Z", "status": "Rented",
   "items": [{"productId": "t1", "quantity": 1}], "totalAmount": 500}
]`

func writeFixture(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFixtures(t *testing.T) {
	dir := t.TempDir()
	products := writeFixture(t, dir, "products.json", productsFixture)
	orders := writeFixture(t, dir, "orders.json", ordersFixture)

	f, err := LoadFixtures(products, orders)
	require.NoError(t, err)
	assert.Len(t, f.Products, 2)
	assert.Len(t, f.Orders, 1)
	assert.Equal(t, 2, f.Products[1].Stock.Int())
}

func TestLoadFixtures_MissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()

	f, err := LoadFixtures(filepath.Join(dir, "nope.json"), filepath.Join(dir, "nada.json"))
	require.NoError(t, err)
	assert.Empty(t, f.Products)
	assert.Empty(t, f.Orders)
}

func TestLoadFixtures_BadJSON(t *testing.T) {
	dir := t.TempDir()
	products := writeFixture(t, dir, "products.json", `{"not": "an array"`)

	_, err := LoadFixtures(products, "")
	assert.Error(t, err)
}

func TestSeed_ReplacesEverything(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "old", "Old Costume", 1)
	svc := newTestService(t, repo)
	ctx := context.Background()

	dir := t.TempDir()
	f, err := LoadFixtures(
		writeFixture(t, dir, "products.json", productsFixture),
		writeFixture(t, dir, "orders.json", ordersFixture),
	)
	require.NoError(t, err)

	result, err := svc.Seed(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Products: 2, Orders: 1}, result)
	assert.Equal(t, "Migrated 2 products and 1 orders.", result.Message())

	_, err = repo.GetProduct(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cowboy, err := repo.GetProduct(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 350.0, cowboy.Price)
	assert.Equal(t, 2, cowboy.Stock)

	order, err := repo.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRented, order.Status)
	assert.Equal(t, order.Date, order.CreatedAt)
}
