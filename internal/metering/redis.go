package metering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	fieldCalls        = "calls"
	fieldCost         = "cost"
	fieldInputTokens  = "input_tokens"
	fieldOutputTokens = "output_tokens"
)

var _ Meter = (*RedisMeter)(nil)

// RedisMeter keeps one hash per user under "<prefix>:<user_id>".
type RedisMeter struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key prefix, default "chatgpt_usage"
}

// NewRedisMeter connects to Redis and verifies the connection.
func NewRedisMeter(ctx context.Context, opts RedisOptions) (*RedisMeter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "chatgpt_usage"
	}
	return &RedisMeter{client: client, prefix: prefix}, nil
}

func (m *RedisMeter) key(userID string) string {
	return m.prefix + ":" + userID
}

// IncrementUsage bumps all counters of the user atomically.
func (m *RedisMeter) IncrementUsage(ctx context.Context, inc model.UsageIncrement) error {
	key := m.key(inc.UserID)
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, fieldCalls, 1)
		pipe.HIncrByFloat(ctx, key, fieldCost, inc.Cost)
		pipe.HIncrBy(ctx, key, fieldInputTokens, inc.InputTokens)
		pipe.HIncrBy(ctx, key, fieldOutputTokens, inc.OutputTokens)
		return nil
	})
	if err != nil {
		return fmt.Errorf("counting usage of %s: %w", inc.UserID, err)
	}
	return nil
}

// GetUsage reads the user's counters; zero when nothing was metered.
func (m *RedisMeter) GetUsage(ctx context.Context, userID string) (model.Usage, error) {
	fields, err := m.client.HGetAll(ctx, m.key(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return model.Usage{}, fmt.Errorf("getting usage of %s: %w", userID, err)
	}

	u := model.Usage{UserID: userID}
	if u.Calls, err = parseInt(fields[fieldCalls]); err != nil {
		return model.Usage{}, fmt.Errorf("parsing %s of %s: %w", fieldCalls, userID, err)
	}
	if u.InputTokens, err = parseInt(fields[fieldInputTokens]); err != nil {
		return model.Usage{}, fmt.Errorf("parsing %s of %s: %w", fieldInputTokens, userID, err)
	}
	if u.OutputTokens, err = parseInt(fields[fieldOutputTokens]); err != nil {
		return model.Usage{}, fmt.Errorf("parsing %s of %s: %w", fieldOutputTokens, userID, err)
	}
	if v := fields[fieldCost]; v != "" {
		if u.Cost, err = strconv.ParseFloat(v, 64); err != nil {
			return model.Usage{}, fmt.Errorf("parsing %s of %s: %w", fieldCost, userID, err)
		}
	}
	return u, nil
}

// Close releases the connection pool.
func (m *RedisMeter) Close() error {
	return m.client.Close()
}

func parseInt(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
