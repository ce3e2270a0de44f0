package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	requestKeyPrefix = "order-request:"
	requestKeyTTL    = 24 * time.Hour
	pendingMarker    = "pending"
)

// releaseRequestScript deletes a claim only while it is still pending, so a
// completed request keeps pointing at its order.
var releaseRequestScript = redis.NewScript(`
local key = KEYS[1]
local marker = ARGV[1]

local current = redis.call('GET', key)
if current == marker then
	return redis.call('DEL', key)
end

return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) ClaimRequest(ctx context.Context, requestID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, requestKeyPrefix+requestID, pendingMarker, requestKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) CompleteRequest(ctx context.Context, requestID, orderID string) error {
	return r.client.Set(ctx, requestKeyPrefix+requestID, orderID, redis.KeepTTL).Err()
}

func (r *RedisAdapter) ReleaseRequest(ctx context.Context, requestID string) error {
	return releaseRequestScript.Run(ctx, r.client, []string{requestKeyPrefix + requestID}, pendingMarker).Err()
}

func (r *RedisAdapter) LookupRequest(ctx context.Context, requestID string) (string, error) {
	value, err := r.client.Get(ctx, requestKeyPrefix+requestID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if value == pendingMarker {
		return "", nil
	}
	return value, nil
}
