// Package audit keeps a trail of every stock movement. Movements are handed to
// an actor so the audit write happens off the request path, in arrival order.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

type Writer interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

// Messages
type recordMovement struct {
	Movement models.StockMovement
}

type flushRequest struct{}

type flushed struct{}

// stockAuditActor writes one audit log entry per movement.
type stockAuditActor struct {
	writer  Writer
	service string
	logger  *zap.Logger
}

func (a *stockAuditActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *recordMovement:
		m := msg.Movement
		entry := &repository.AuditLog{
			Service:  a.service,
			Action:   "stock_" + m.Reason,
			EntityID: m.ProductID,
			Data: bson.M{
				"order_id": m.OrderID,
				"delta":    m.Delta,
			},
			CreatedAt: m.At,
		}

		wctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := a.writer.CreateAuditLog(wctx, entry); err != nil {
			a.logger.Warn("Failed to write audit log",
				zap.String("order_id", m.OrderID),
				zap.String("product_id", m.ProductID),
				zap.Int("delta", m.Delta),
				zap.Error(err))
		}

	case *flushRequest:
		ctx.Respond(&flushed{})

	case *actor.Started:
		a.logger.Info("Stock audit actor started")

	case *actor.Stopped:
		a.logger.Info("Stock audit actor stopped")
	}
}

// Recorder is the inventory.Auditor backed by the audit actor.
type Recorder struct {
	system *actor.ActorSystem
	pid    *actor.PID
}

func NewRecorder(system *actor.ActorSystem, writer Writer, service string, logger *zap.Logger) (*Recorder, error) {
	props := actor.PropsFromProducer(func() actor.Actor {
		return &stockAuditActor{
			writer:  writer,
			service: service,
			logger:  logger.Named("stock-audit"),
		}
	})
	pid, err := system.Root.SpawnNamed(props, "stock-audit")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit actor: %w", err)
	}
	return &Recorder{system: system, pid: pid}, nil
}

func (r *Recorder) StockMoved(m models.StockMovement) {
	r.system.Root.Send(r.pid, &recordMovement{Movement: m})
}

// Flush waits until every movement sent before the call has been written.
func (r *Recorder) Flush(timeout time.Duration) error {
	_, err := r.system.Root.RequestFuture(r.pid, &flushRequest{}, timeout).Result()
	return err
}

// Stop drains the mailbox and stops the actor.
func (r *Recorder) Stop() error {
	return r.system.Root.PoisonFuture(r.pid).Wait()
}
