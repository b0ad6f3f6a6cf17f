package service

import (
	"context"
	"fmt"

	"controle-acesso/internal/access"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"
)

type KafkaPublisher interface {
	PublishAccessAttempt(ctx context.Context, attempt models.AccessAttempt) error
}

type LiveFeed interface {
	Emit(attempt models.AccessAttempt)
}

// AttemptRecorder is the engine's access log. The store write is the record;
// the kafka publish and the live feed are best effort and never fail the
// decision. Either may be nil.
type AttemptRecorder struct {
	Store  access.AttemptLog
	Kafka  KafkaPublisher
	Live   LiveFeed
	Logger *logger.Logger
}

func NewAttemptRecorder(store access.AttemptLog, kafka KafkaPublisher, live LiveFeed, log *logger.Logger) *AttemptRecorder {
	return &AttemptRecorder{Store: store, Kafka: kafka, Live: live, Logger: log}
}

func (r *AttemptRecorder) AppendAccessAttempt(ctx context.Context, attempt models.AccessAttempt) error {
	if err := r.Store.AppendAccessAttempt(ctx, attempt); err != nil {
		return err
	}

	if r.Kafka != nil {
		if err := r.Kafka.PublishAccessAttempt(ctx, attempt); err != nil {
			r.Logger.Error("KAFKA", fmt.Sprintf("Publish error (access attempt %s): %v", attempt.ID, err))
		}
	}

	if r.Live != nil {
		r.Live.Emit(attempt)
	}
	return nil
}
