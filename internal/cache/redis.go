package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	messageKeyPrefix = "matter_msgs:"
	tokenKeyPrefix   = "token:"
)

// Redis implements Store on a shared Redis instance so state survives
// restarts and is visible across replicas.
type Redis struct {
	client *redis.Client
}

var _ Store = (*Redis)(nil)

// NewRedis connects to addr with default options.
func NewRedis(addr string) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) AppendMessage(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := messageKeyPrefix + msg.MatterID
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-maxMessagesPerMatter), -1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) ListMessages(ctx context.Context, matterID string, limit int) ([]Message, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := r.client.LRange(ctx, messageKeyPrefix+matterID, start, -1).Result()
	if err != nil {
		return nil, err
	}
	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (r *Redis) SetToken(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, tokenKeyPrefix+key, value, ttl).Err()
}

func (r *Redis) GetToken(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, tokenKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
