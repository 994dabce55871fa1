package audit

import (
	"context"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecorder_WritesMovementsInOrder(t *testing.T) {
	system := actor.NewActorSystem()
	defer system.Shutdown()

	repo := repository.NewMemoryRepository()
	rec, err := NewRecorder(system, repo, "storefront", zap.NewNop())
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rec.StockMoved(models.StockMovement{OrderID: "o1", ProductID: "p1", Delta: -2, Reason: models.ReasonBooked, At: at})
	rec.StockMoved(models.StockMovement{OrderID: "o1", ProductID: "p1", Delta: 2, Reason: models.ReasonReturned, At: at.Add(time.Hour)})
	rec.StockMoved(models.StockMovement{OrderID: "o2", ProductID: "p2", Delta: -1, Reason: models.ReasonBooked, At: at})

	require.NoError(t, rec.Flush(time.Second))

	logs, err := repo.GetAuditLogs(context.Background(), "p1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// newest first
	assert.Equal(t, "stock_returned", logs[0].Action)
	assert.Equal(t, 2, logs[0].Data["delta"])
	assert.Equal(t, "stock_booked", logs[1].Action)
	assert.Equal(t, "o1", logs[1].Data["order_id"])
	assert.Equal(t, "storefront", logs[1].Service)

	require.NoError(t, rec.Stop())
}
