package queue

import (
	"context"
	"errors"
	"time"

	"github.com/rankforge/rankforge/internal/logger"
	"github.com/redis/go-redis/v9"
)

// popTimeout bounds each blocking pop so consumers notice context
// cancellation promptly.
const popTimeout = 5 * time.Second

// RedisQueue implements Queue on redis lists: LPUSH to publish, BRPOP
// to consume, giving per-topic FIFO delivery.
type RedisQueue struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisQueue creates a new RedisQueue from a Redis URL.
func NewRedisQueue(redisURL string, log *logger.Logger) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisQueue{
		client: redis.NewClient(opts),
		log:    log.WithField(logger.FieldComponent, "queue"),
	}, nil
}

// Ping verifies broker connectivity.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Publish appends an id to the named topic.
func (q *RedisQueue) Publish(ctx context.Context, topic, id string) error {
	return q.client.LPush(ctx, topic, id).Err()
}

// Len reports the number of pending messages on a topic.
func (q *RedisQueue) Len(ctx context.Context, topic string) (int64, error) {
	return q.client.LLen(ctx, topic).Result()
}

// Consume blocks on the topic, invoking the handler for each id until
// the context is cancelled. Handler errors are logged and consumption
// continues; this layer does not retry.
func (q *RedisQueue) Consume(ctx context.Context, topic string, handler Handler) error {
	log := q.log.WithField(logger.FieldTopic, topic)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		vals, err := q.client.BRPop(ctx, popTimeout, topic).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // timed out empty, poll again
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.WithError(err).Error("Failed to pop from topic")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		// BRPop returns [key, value]
		if len(vals) != 2 {
			continue
		}
		id := vals[1]

		if err := handler(ctx, id); err != nil {
			log.WithField("message_id", id).WithError(err).Error("Handler failed")
		}
	}
}

// Close releases the underlying client.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
