package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect establishes a connection to Redis. The server runs without Redis
// (rate limiting and the live feed shut off); callers treat a nil client as
// "not configured" rather than an error.
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
