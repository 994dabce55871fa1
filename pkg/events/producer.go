package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/config"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrProducerClosed is returned by Publish after Close.
var ErrProducerClosed = errors.New("producer closed")

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order events from a buffered inbox so request handlers
// never wait on the broker. A full inbox drops the event.
type Producer struct {
	w       MessageWriter
	service string
	logger  *zap.Logger

	mu      sync.RWMutex
	closed  bool
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(cfg *config.KafkaConfig, service string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return newProducer(w, cfg.Buffer, service, logger)
}

func newProducer(w MessageWriter, buf int, service string, logger *zap.Logger) *Producer {
	return &Producer{
		w:       w,
		service: service,
		logger:  logger,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the writer loop until Close drains the inbox.
func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				p.logger.Warn("Failed to write event", zap.ByteString("key", m.Key), zap.Error(err))
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.logger.Warn("Failed to close kafka writer", zap.Error(err))
		}
	}()
}

// Close stops accepting events and waits until the queued ones are written.
func (p *Producer) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.closeCh
}

func (p *Producer) OrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(order.ID, EventOrderCreated, OrderCreatedPayload{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Items:        order.Items,
		TotalAmount:  order.TotalAmount,
	})
}

func (p *Producer) OrderStatusChanged(ctx context.Context, order *models.Order, from models.Status) error {
	return p.publish(order.ID, EventOrderStatusChanged, OrderStatusChangedPayload{
		OrderID: order.ID,
		From:    from,
		To:      order.Status,
		Items:   order.Items,
	})
}

func (p *Producer) publish(orderID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.service,
		CorrelationID: orderID,
		Payload:       body,
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   PartitionKey(orderID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	default:
		return errors.New("event buffer full")
	}
}
