package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kraken-orderbook-watcher/internal/domain"

	"github.com/segmentio/kafka-go"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TopOfBook is the kafka event: best prices only, keyed by pair.
type TopOfBook struct {
	Exchange  string             `json:"exchange"`
	Pair      string             `json:"pair"`
	BestAsk   *domain.PriceLevel `json:"bestAsk"`
	BestBid   *domain.PriceLevel `json:"bestBid"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Name() string {
	return "kafka"
}

func (s *KafkaSink) Publish(ctx context.Context, view domain.BookView) error {
	payload, err := json.Marshal(TopOfBook{
		Exchange:  view.Exchange,
		Pair:      view.Pair,
		BestAsk:   view.BestAsk,
		BestBid:   view.BestBid,
		UpdatedAt: view.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal top of book: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(view.Pair),
		Value: payload,
		Time:  view.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("kafka write for %s: %w", view.Pair, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
