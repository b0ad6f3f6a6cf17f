package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader MessageReader
	topic  string
	logger *logger.Logger
}

// NewConsumer reads topic as groupID starting at the newest offset. Each
// replica passes its own group so that every replica sees every attempt.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader, topic: topic, logger: log}
}

// Start delivers decoded attempts to handler until ctx is cancelled.
// Undecodable messages are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler func(attempt models.AccessAttempt)) {
	c.logger.LogKafka("CONSUME", c.topic, "Attempt consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.LogKafka("CONSUME", c.topic, "Attempt consumer stopped")
				return
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		var attempt models.AccessAttempt
		if err := json.Unmarshal(msg.Value, &attempt); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal attempt at offset %d: %v", msg.Offset, err))
			continue
		}

		handler(attempt)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
