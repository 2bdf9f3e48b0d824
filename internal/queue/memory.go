package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue used by tests and single-binary
// development runs. FIFO per topic, safe for concurrent use.
type MemoryQueue struct {
	mu     sync.Mutex
	topics map[string][]string
}

// NewMemoryQueue creates an empty MemoryQueue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{topics: make(map[string][]string)}
}

// Publish appends an id to the named topic.
func (q *MemoryQueue) Publish(ctx context.Context, topic, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.topics[topic] = append(q.topics[topic], id)
	return nil
}

// Len reports the number of pending messages on a topic.
func (q *MemoryQueue) Len(ctx context.Context, topic string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.topics[topic])), nil
}

// Ping always succeeds.
func (q *MemoryQueue) Ping(ctx context.Context) error { return nil }

// pop removes the oldest message, reporting whether one existed.
func (q *MemoryQueue) pop(topic string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.topics[topic]
	if len(pending) == 0 {
		return "", false
	}
	id := pending[0]
	q.topics[topic] = pending[1:]
	return id, true
}

// Consume delivers ids to the handler until the context is cancelled.
// Handler errors are swallowed to match the broker-backed behavior.
func (q *MemoryQueue) Consume(ctx context.Context, topic string, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		id, ok := q.pop(topic)
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		_ = handler(ctx, id)
	}
}
