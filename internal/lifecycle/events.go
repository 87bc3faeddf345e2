package lifecycle

import (
	"context"
	"time"

	"autolease/pkg/kafka"
	"autolease/pkg/model"
)

// Event types published to the lifecycle topic. Messages are keyed by vehicle
// ID so consumers see each vehicle's transitions in order.
const (
	EventReservationCreated  = "reservation.created"
	EventReservationReleased = "reservation.released"
	EventReservationExpired  = "reservation.expired"
	EventLeaseOriginated     = "lease.originated"
)

const eventSource = "leasing"

// EventPublisher is satisfied by kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type LifecycleEvent struct {
	EventType     string     `json:"event_type"`
	VehicleID     string     `json:"vehicle_id"`
	HolderID      string     `json:"holder_id,omitempty"`
	ReservationID string     `json:"reservation_id,omitempty"`
	ContractID    string     `json:"contract_id,omitempty"`
	WindowStart   *time.Time `json:"window_start,omitempty"`
	WindowEnd     *time.Time `json:"window_end,omitempty"`
	TotalCost     float64    `json:"total_cost,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

func reservationEvent(eventType string, r *model.Reservation, occurredAt time.Time) LifecycleEvent {
	start, end := r.Window()
	return LifecycleEvent{
		EventType:     eventType,
		VehicleID:     r.VehicleID,
		HolderID:      r.HolderID,
		ReservationID: r.ID,
		WindowStart:   &start,
		WindowEnd:     &end,
		OccurredAt:    occurredAt,
	}
}

func leaseEvent(c *model.LeaseContract, occurredAt time.Time) LifecycleEvent {
	return LifecycleEvent{
		EventType:  EventLeaseOriginated,
		VehicleID:  c.VehicleID,
		HolderID:   c.HolderID,
		ContractID: c.ID,
		TotalCost:  c.TotalCost,
		OccurredAt: occurredAt,
	}
}

// publishEvent ships a committed transition to the topic. Event delivery is
// best effort: a publish failure is logged, never surfaced to the caller,
// because the state change has already committed.
func (c *coordinator) publishEvent(ctx context.Context, event LifecycleEvent) {
	if c.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(event.VehicleID).
		WithValue(event).
		WithEventType(event.EventType).
		WithSource(eventSource).
		Build()

	if err := c.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		c.cfg.Log.Error("Failed to publish lifecycle event",
			"event_type", event.EventType,
			"vehicle_id", event.VehicleID,
			"error", err,
		)
	}
}
