package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
	"github.com/google/uuid"
)

const (
	EventRunRequested  = "ReplenishmentRunRequested"
	EventPlanCommitted = "ReplenishmentPlanCommitted"
)

// Producer is satisfied by broker.KafkaProducer.
type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

type PlanCommittedEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   *dto.RunSummary `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type RunRequestedEvent struct {
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Payload   RunRequestedPayload `json:"payload"`
	Timestamp time.Time           `json:"timestamp"`
}

type RunRequestedPayload struct {
	RunDate     string  `json:"run_date,omitempty"`
	StoreID     *string `json:"store_id,omitempty"`
	RequestedBy string  `json:"requested_by,omitempty"`
}

type KafkaPublisher struct {
	producer Producer
	nowFn    func() time.Time
}

func NewKafkaPublisher(producer Producer) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		nowFn:    time.Now,
	}
}

// PublishPlanCommitted announces a committed plan, keyed by run date so that
// events for one date stay ordered on a partition.
func (p *KafkaPublisher) PublishPlanCommitted(ctx context.Context, summary *dto.RunSummary) error {
	event := PlanCommittedEvent{
		EventID:   uuid.New().String(),
		EventType: EventPlanCommitted,
		Payload:   summary,
		Timestamp: p.nowFn().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, []byte(summary.RunDate), value)
}
