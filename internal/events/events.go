// Package events publishes domain events to Redis streams.
package events

import "time"

// Event types
const (
	TransactionCreated = "transaction.created"
)

// Stream names
const (
	TransactionEventsStream = "transaction.events"
)

// Event is the envelope written to the stream.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TransactionCreatedEvent is emitted after the saga persists a
// transaction.
type TransactionCreatedEvent struct {
	TransactionID string  `json:"transactionId"`
	AccountNumber string  `json:"accountNumber"`
	Amount        float64 `json:"amount"`
	Commission    float64 `json:"commission"`
	Type          string  `json:"type"`
}
