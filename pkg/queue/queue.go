package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Job handles one message type.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type the job consumes.
	Type() string

	Handle(ctx context.Context, payload json.RawMessage) error
}

// Config tunes the consumer side of the queue.
type Config struct {
	Workers     int           // concurrent BRPOP workers
	RetryLimit  int           // attempts before a message is dead-lettered
	RetryDelay  time.Duration // delay before a failed message is retried
	PollTimeout time.Duration // BRPOP block time
}

// Message is the envelope stored in the redis list.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
}

type outcome int

const (
	outcomeDone outcome = iota
	outcomeRetry
	outcomeDead
)
