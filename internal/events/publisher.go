// Package events publishes settlement outcomes to Kafka so downstream
// consumers (audit, analytics) see every approved or rejected trade.
// Publishing is best-effort: a broker outage never fails a settlement.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/cloudxplorer/StockDash/internal/models"
)

// Settlement is the wire event emitted once per processed transaction.
type Settlement struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Quantity      int64     `json:"quantity"`
	Price         string    `json:"price"`
	TotalAmount   string    `json:"total_amount"`
	Status        string    `json:"status"`
	ProcessedBy   string    `json:"processed_by"`
	ProcessedAt   time.Time `json:"processed_at"`
	Notes         string    `json:"notes,omitempty"`
}

type Publisher interface {
	PublishSettlement(ctx context.Context, txn models.Transaction)
	Close() error
}

// messageWriter is the slice of kafka.Writer we use; tests swap in a mock.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w      messageWriter
	logger *zap.Logger
}

// NewKafka builds a publisher on a kafka-go writer.
func NewKafka(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: int(kafka.RequireOne),
	})
	return &KafkaPublisher{w: w, logger: logger}
}

func (p *KafkaPublisher) PublishSettlement(ctx context.Context, txn models.Transaction) {
	ev := Settlement{
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		Symbol:        txn.Symbol,
		Side:          txn.Side.String(),
		Quantity:      txn.Quantity,
		Price:         txn.Price.String(),
		TotalAmount:   txn.TotalAmount.String(),
		Status:        txn.Status.String(),
		ProcessedBy:   txn.ProcessedBy,
		Notes:         txn.Notes,
	}
	if txn.ProcessedAt != nil {
		ev.ProcessedAt = *txn.ProcessedAt
	}
	val, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal settlement event", zap.Error(err))
		return
	}
	msg := kafka.Message{Key: []byte(txn.UserID), Value: val}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("publish settlement event",
			zap.String("transaction_id", txn.ID), zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishSettlement(context.Context, models.Transaction) {}
func (Noop) Close() error                                          { return nil }
