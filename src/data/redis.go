package data

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ProposalStream is the Redis stream that receives proposal announcements.
const ProposalStream = "govproposals.proposals"

// NewRedis parses url and returns a client. An empty url means Redis is not configured.
func NewRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return redis.NewClient(opt), nil
}

// StreamAdder is the slice of the Redis client used to publish; *redis.Client satisfies it.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

func PublishMessage(ctx context.Context, rdb StreamAdder, stream string, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: payload,
	}).Result()
	return err
}
