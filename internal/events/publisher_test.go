package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/models"
)

type mockWriter struct {
	msgs []kafka.Message
	err  error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}
func (m *mockWriter) Close() error { return nil }

func sampleTxn() models.Transaction {
	processed := time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC)
	return models.Transaction{
		ID:          "txn-1",
		UserID:      "user-1",
		Symbol:      "AAPL",
		Side:        domain.SideBuy,
		Quantity:    10,
		Price:       decimal.RequireFromString("191.24"),
		TotalAmount: decimal.RequireFromString("1912.40"),
		Status:      domain.StatusApproved,
		ProcessedBy: "admin-1",
		ProcessedAt: &processed,
	}
}

func TestPublishSettlement(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{w: w, logger: zap.NewNop()}

	p.PublishSettlement(context.Background(), sampleTxn())

	if len(w.msgs) != 1 {
		t.Fatalf("messages=%d want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "user-1" {
		t.Fatalf("key=%q want user id for per-user partitioning", w.msgs[0].Key)
	}
	var ev Settlement
	if err := json.Unmarshal(w.msgs[0].Value, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.TransactionID != "txn-1" || ev.Status != "approved" || ev.Price != "191.24" {
		t.Fatalf("event=%+v", ev)
	}
	if !ev.ProcessedAt.Equal(time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC)) {
		t.Fatalf("processedAt=%v", ev.ProcessedAt)
	}
}

func TestPublishSettlementSwallowsWriterError(t *testing.T) {
	w := &mockWriter{err: errors.New("broker down")}
	p := &KafkaPublisher{w: w, logger: zap.NewNop()}
	// must not panic or block settlement
	p.PublishSettlement(context.Background(), sampleTxn())
}
