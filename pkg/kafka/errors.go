package kafka

import "errors"

var (
	// ErrProducerClosed is returned when publishing on a closed producer
	ErrProducerClosed = errors.New("producer is closed")

	// ErrEmptyKey is returned when a message has no partition key
	ErrEmptyKey = errors.New("message key cannot be empty")

	// ErrEmptyValue is returned when a message has no payload
	ErrEmptyValue = errors.New("message value cannot be empty")

	// ErrInvalidMessage is returned when a batch contains no publishable messages
	ErrInvalidMessage = errors.New("no valid messages to publish")
)
