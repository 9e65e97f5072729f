package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/logger"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/events"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type RunRequestListener struct {
	consumer MessageReader
	uc       replenishment.UseCase
	timeout  time.Duration
	logger   logger.ZapLogger
}

func NewRunRequestListener(consumer MessageReader, uc replenishment.UseCase, timeout time.Duration, logger logger.ZapLogger) *RunRequestListener {
	return &RunRequestListener{
		consumer: consumer,
		uc:       uc,
		timeout:  timeout,
		logger:   logger,
	}
}

func (l *RunRequestListener) Start(ctx context.Context) {
	l.logger.Info("Starting run request Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping run request Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *RunRequestListener) processMessage(ctx context.Context, value []byte) {
	var event events.RunRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != events.EventRunRequested {
		return
	}

	input := &dto.TriggerRunInput{
		StoreID:     event.Payload.StoreID,
		RequestedBy: event.Payload.RequestedBy,
	}
	if input.RequestedBy == "" {
		input.RequestedBy = "kafka"
	}
	if event.Payload.RunDate != "" {
		d, err := time.Parse("2006-01-02", event.Payload.RunDate)
		if err != nil {
			l.logger.Error("Invalid run_date in run request",
				zap.String("event_id", event.EventID),
				zap.String("run_date", event.Payload.RunDate),
			)
			return
		}
		input.RunDate = &d
	}

	l.logger.Info("Processing run request", zap.String("event_id", event.EventID))

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	if _, err := l.uc.TriggerRun(ctx, input); err != nil {
		if errors.Is(err, replenishment.ErrRunInProgress) {
			l.logger.Warn("Run request skipped, run already in progress",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			return
		}
		l.logger.Error("Failed to process run request",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}
