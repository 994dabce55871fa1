package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyStore fails chosen operations on top of the in-memory store.
type flakyStore struct {
	*repository.MemoryRepository

	failIncrementFor string
	failDecrementFor string
	stealStockFor    string
	failInsertOrder  bool
	failGetProduct   bool
}

func (f *flakyStore) IncrementStock(ctx context.Context, id string, delta int) error {
	if id == f.failIncrementFor {
		return errors.New("connection reset")
	}
	return f.MemoryRepository.IncrementStock(ctx, id, delta)
}

func (f *flakyStore) DecrementStockIfAvailable(ctx context.Context, id string, qty int) (bool, error) {
	if id == f.failDecrementFor {
		return false, errors.New("connection reset")
	}
	if id == f.stealStockFor {
		return false, nil
	}
	return f.MemoryRepository.DecrementStockIfAvailable(ctx, id, qty)
}

func (f *flakyStore) InsertOrder(ctx context.Context, order *models.Order) error {
	if f.failInsertOrder {
		return errors.New("write concern error")
	}
	return f.MemoryRepository.InsertOrder(ctx, order)
}

func (f *flakyStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if f.failGetProduct {
		return nil, errors.New("server selection timeout")
	}
	return f.MemoryRepository.GetProduct(ctx, id)
}

type recordingAuditor struct {
	movements []models.StockMovement
}

func (r *recordingAuditor) StockMoved(m models.StockMovement) {
	r.movements = append(r.movements, m)
}

type recordingPublisher struct {
	created []string
	changed []string
}

func (r *recordingPublisher) OrderCreated(ctx context.Context, order *models.Order) error {
	r.created = append(r.created, order.ID)
	return nil
}

func (r *recordingPublisher) OrderStatusChanged(ctx context.Context, order *models.Order, from models.Status) error {
	r.changed = append(r.changed, fmt.Sprintf("%s:%s->%s", order.ID, from, order.Status))
	return nil
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestService(t *testing.T, store Store, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithIDGenerator(sequentialIDs("o"))}, opts...)
	return NewService(store, zap.NewNop(), opts...)
}

func seedProduct(t *testing.T, repo *repository.MemoryRepository, id, name string, stock int) {
	t.Helper()
	require.NoError(t, repo.InsertProduct(context.Background(), &models.Product{
		ID:         id,
		Name:       name,
		Price:      150,
		Category:   "Traditional",
		Stock:      stock,
		TotalUnits: stock,
	}))
}

func stockOf(t *testing.T, repo *repository.MemoryRepository, id string) int {
	t.Helper()
	p, err := repo.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func booking(items ...models.LineItem) *models.OrderInput {
	return &models.OrderInput{
		CustomerName: "Asha",
		Items:        items,
		TotalAmount:  300,
	}
}

func TestCreateOrder_DecrementsStock(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 5)
	seedProduct(t, repo, "p2", "Cowboy Hat", 3)
	svc := newTestService(t, repo)

	order, err := svc.CreateOrder(context.Background(), booking(
		models.LineItem{ProductID: "p1", Quantity: 2},
		models.LineItem{ProductID: "p2", Quantity: 3},
	))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, 3, stockOf(t, repo, "p1"))
	assert.Equal(t, 0, stockOf(t, repo, "p2"))

	stored, err := repo.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Items, stored.Items)
	assert.Equal(t, 300.0, stored.TotalAmount)
}

func TestCreateOrder_IgnoresClientStatusAndKeepsDate(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 1)
	svc := newTestService(t, repo)

	date := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	in := booking(models.LineItem{ProductID: "p1", Quantity: 1})
	in.Date = &date

	order, err := svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.True(t, order.Date.Equal(date))
}

func TestCreateOrder_AllOrNothing(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 5)
	seedProduct(t, repo, "p2", "Cowboy Hat", 1)
	svc := newTestService(t, repo)

	_, err := svc.CreateOrder(context.Background(), booking(
		models.LineItem{ProductID: "p1", Quantity: 2},
		models.LineItem{ProductID: "p2", Quantity: 2},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock for product Cowboy Hat", err.Error())

	assert.Equal(t, 5, stockOf(t, repo, "p1"))
	assert.Equal(t, 1, stockOf(t, repo, "p2"))

	orders, err := repo.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_UnknownProductNamedByID(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := newTestService(t, repo)

	_, err := svc.CreateOrder(context.Background(), booking(models.LineItem{ProductID: "ghost", Quantity: 1}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Insufficient stock for product ghost", err.Error())
}

func TestCreateOrder_RepeatedLinesAreSummed(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 1)
	svc := newTestService(t, repo)

	_, err := svc.CreateOrder(context.Background(), booking(
		models.LineItem{ProductID: "p1", Quantity: 1},
		models.LineItem{ProductID: "p1", Quantity: 1},
	))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, stockOf(t, repo, "p1"))
}

func TestCreateOrder_RejectsBadInput(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 5)
	svc := newTestService(t, repo)

	cases := map[string]*models.OrderInput{
		"no items":      booking(),
		"zero quantity": booking(models.LineItem{ProductID: "p1", Quantity: 0}),
		"no product id": booking(models.LineItem{Quantity: 1}),
		"no customer":   {Items: []models.LineItem{{ProductID: "p1", Quantity: 1}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.NotErrorIs(t, err, ErrInsufficientStock)
		})
	}
	assert.Equal(t, 5, stockOf(t, repo, "p1"))
}

func TestCreateOrder_LostRaceReleasesAppliedItems(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 4)
	seedProduct(t, repo, "p2", "Cowboy Hat", 4)
	auditor := &recordingAuditor{}
	store := &flakyStore{MemoryRepository: repo, stealStockFor: "p2"}
	svc := newTestService(t, store, WithAuditor(auditor))

	_, err := svc.CreateOrder(context.Background(), booking(
		models.LineItem{ProductID: "p1", Quantity: 2},
		models.LineItem{ProductID: "p2", Quantity: 1},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 4, stockOf(t, repo, "p1"))

	require.Len(t, auditor.movements, 2)
	assert.Equal(t, models.ReasonBooked, auditor.movements[0].Reason)
	assert.Equal(t, models.ReasonReleased, auditor.movements[1].Reason)
	assert.Equal(t, 2, auditor.movements[1].Delta)
}

func TestCreateOrder_StoreFailureIsNotRolledBack(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 4)
	seedProduct(t, repo, "p2", "Cowboy Hat", 4)
	store := &flakyStore{MemoryRepository: repo, failDecrementFor: "p2"}
	svc := newTestService(t, store)

	_, err := svc.CreateOrder(context.Background(), booking(
		models.LineItem{ProductID: "p1", Quantity: 2},
		models.LineItem{ProductID: "p2", Quantity: 1},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStore)
	assert.Equal(t, 2, stockOf(t, repo, "p1"))
	assert.Equal(t, 4, stockOf(t, repo, "p2"))
}

func TestCreateOrder_StoreFailureDuringCheck(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 4)
	svc := newTestService(t, &flakyStore{MemoryRepository: repo, failGetProduct: true})

	_, err := svc.CreateOrder(context.Background(), booking(models.LineItem{ProductID: "p1", Quantity: 1}))
	assert.ErrorIs(t, err, ErrStore)
	assert.Equal(t, 4, stockOf(t, repo, "p1"))
}

func TestCreateOrder_InsertFailure(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 4)
	publisher := &recordingPublisher{}
	svc := newTestService(t, &flakyStore{MemoryRepository: repo, failInsertOrder: true}, WithPublisher(publisher))

	_, err := svc.CreateOrder(context.Background(), booking(models.LineItem{ProductID: "p1", Quantity: 1}))
	assert.ErrorIs(t, err, ErrStore)
	assert.Empty(t, publisher.created)
}

func TestUpdateOrderStatus_ReturnRoundTrip(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 5)
	seedProduct(t, repo, "p2", "Cowboy Hat", 2)
	publisher := &recordingPublisher{}
	svc := newTestService(t, repo, WithPublisher(publisher))
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, booking(
		models.LineItem{ProductID: "p1", Quantity: 3},
		models.LineItem{ProductID: "p2", Quantity: 1},
	))
	require.NoError(t, err)

	steps := []struct {
		to     models.Status
		p1, p2 int
	}{
		{models.StatusRented, 2, 1},
		{models.StatusReturned, 5, 2},
		{models.StatusReturned, 5, 2},
		{models.StatusRented, 2, 1},
		{models.StatusPending, 2, 1},
		{models.StatusReturned, 5, 2},
		{models.StatusPending, 2, 1},
	}
	for _, step := range steps {
		updated, err := svc.UpdateOrderStatus(ctx, order.ID, step.to)
		require.NoError(t, err)
		assert.Equal(t, step.to, updated.Status)
		assert.Equal(t, step.p1, stockOf(t, repo, "p1"), "p1 after %s", step.to)
		assert.Equal(t, step.p2, stockOf(t, repo, "p2"), "p2 after %s", step.to)
	}

	assert.Equal(t, []string{order.ID}, publisher.created)
	// Returned -> Returned is not a change.
	assert.Len(t, publisher.changed, len(steps)-1)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	svc := newTestService(t, repository.NewMemoryRepository())

	_, err := svc.UpdateOrderStatus(context.Background(), "missing", models.StatusReturned)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 5)
	svc := newTestService(t, repo)

	order, err := svc.CreateOrder(context.Background(), booking(models.LineItem{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(context.Background(), order.ID, "Lost")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 4, stockOf(t, repo, "p1"))
}

func TestUpdateOrderStatus_DeletedProductIsSkipped(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 5)
	seedProduct(t, repo, "p2", "Cowboy Hat", 5)
	svc := newTestService(t, repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, booking(
		models.LineItem{ProductID: "p1", Quantity: 1},
		models.LineItem{ProductID: "p2", Quantity: 1},
	))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, "p1"))

	updated, err := svc.UpdateOrderStatus(ctx, order.ID, models.StatusReturned)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, updated.Status)
	assert.Equal(t, 5, stockOf(t, repo, "p2"))

	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "p1", orders[0].Items[0].ProductID)
}

func TestUpdateOrderStatus_StoreFailureStopsBeforeStatusWrite(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 5)
	seedProduct(t, repo, "p2", "Cowboy Hat", 5)
	store := &flakyStore{MemoryRepository: repo}
	svc := newTestService(t, store)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, booking(
		models.LineItem{ProductID: "p1", Quantity: 2},
		models.LineItem{ProductID: "p2", Quantity: 2},
	))
	require.NoError(t, err)

	store.failIncrementFor = "p2"
	_, err = svc.UpdateOrderStatus(ctx, order.ID, models.StatusReturned)
	assert.ErrorIs(t, err, ErrStore)

	// p1 was already put back and stays that way.
	assert.Equal(t, 5, stockOf(t, repo, "p1"))
	assert.Equal(t, 3, stockOf(t, repo, "p2"))

	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestLastUnitScenario(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 2)
	svc := newTestService(t, repo)
	ctx := context.Background()

	o1, err := svc.CreateOrder(ctx, booking(models.LineItem{ProductID: "p1", Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, repo, "p1"))

	_, err = svc.CreateOrder(ctx, booking(models.LineItem{ProductID: "p1", Quantity: 1}))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 0, stockOf(t, repo, "p1"))

	_, err = svc.UpdateOrderStatus(ctx, o1.ID, models.StatusReturned)
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, repo, "p1"))

	_, err = svc.UpdateOrderStatus(ctx, o1.ID, models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, repo, "p1"))
}

func TestListOrders_NewestFirst(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedProduct(t, repo, "p1", "Paithani Saree", 5)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, booking(models.LineItem{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, booking(models.LineItem{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}
