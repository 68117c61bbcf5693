package enums

import "fmt"

// OutboxEventType identifies the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventUserRegistered    OutboxEventType = "user.registered"
	EventUserOvertaken     OutboxEventType = "user.overtaken"
	EventUserPasswordReset OutboxEventType = "user.password_reset"
)

var validOutboxEventTypes = []OutboxEventType{
	EventUserRegistered,
	EventUserOvertaken,
	EventUserPasswordReset,
}

// IsValid checks whether the given event type matches the canonical enum.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw strings into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType identifies which aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateUser OutboxAggregateType = "user"
)

// IsValid checks whether the given aggregate type matches the canonical enum.
func (o OutboxAggregateType) IsValid() bool {
	return o == AggregateUser
}
