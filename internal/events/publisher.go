package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RelayReceipt is emitted for every successful relayed transaction so
// downstream consumers (analytics, the indexer) can pick them up without
// polling the chain.
type RelayReceipt struct {
	AccountID       string `json:"account_id"`
	Operation       string `json:"operation"`
	TransactionHash string `json:"transaction_hash"`
	Amount          string `json:"amount,omitempty"`
	TokenSymbol     string `json:"token_symbol,omitempty"`
	TsUnixMs        int64  `json:"ts_unix_ms"`
}

// Publisher writes relay receipts to Kafka. A nil Publisher is valid and
// drops everything, so callers never need to check whether Kafka is
// configured.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewPublisher(brokers []string, topic string, log *zap.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		log: log,
	}
}

// PublishReceipt is fire-and-forget: relay responses never block on Kafka,
// and a publish failure is only logged.
func (p *Publisher) PublishReceipt(receipt RelayReceipt) {
	if p == nil {
		return
	}

	receipt.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(receipt)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(receipt.AccountID),
			Value: b,
		}); err != nil {
			p.log.Warn("failed to publish relay receipt", zap.Error(err))
		}
	}()
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
