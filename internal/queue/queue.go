// Package queue provides the durable job topics the pipeline workers
// pull from. Messages are opaque record ids resolved against the store,
// never self-describing payloads.
package queue

import "context"

// Handler processes a single dequeued message id. A non-nil error is
// logged by the consumer loop; redelivery policy belongs to the broker
// configuration, not to this package.
type Handler func(ctx context.Context, id string) error

// Queue is a durable FIFO topic set. Implementations must be safe for
// concurrent use.
type Queue interface {
	// Publish appends an id to the named topic.
	Publish(ctx context.Context, topic, id string) error

	// Consume blocks, delivering ids from the topic to the handler one
	// at a time until the context is cancelled.
	Consume(ctx context.Context, topic string, handler Handler) error

	// Len reports the number of pending messages on a topic.
	Len(ctx context.Context, topic string) (int64, error)

	// Ping verifies broker connectivity.
	Ping(ctx context.Context) error
}
