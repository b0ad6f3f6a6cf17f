package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
	return &Producer{Writer: writer, Logger: log}
}

// PublishAccessAttempt streams a recorded attempt keyed by event, so every
// attempt of one event lands on the same partition in order.
func (p *Producer) PublishAccessAttempt(ctx context.Context, attempt models.AccessAttempt) error {
	msgBytes, err := json.Marshal(attempt)
	if err != nil {
		return err
	}

	p.Logger.Debug("KAFKA", fmt.Sprintf("Publishing access attempt %s for event %s", attempt.ID, attempt.EventID))

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(attempt.EventID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
