package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DefaultQueue is the redis list jobs are pushed to.
const DefaultQueue = "notifications"

// ErrNoJob is returned by Dequeue when the wait timed out.
var ErrNoJob = errors.New("no job")

type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// redisList issues each command on a client bound to the caller's context,
// so its deadline caps dial, write and read.
type redisList struct {
	c *redis.Client
}

func (l redisList) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	return l.c.WithContext(ctx).LPush(key, values...)
}

func (l redisList) BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	return l.c.WithContext(ctx).BRPop(timeout, keys...)
}

// RedisQueue is a FIFO job queue on a redis list: LPUSH to enqueue,
// BRPOP to dequeue.
type RedisQueue struct {
	client listClient
	key    string
	now    func() time.Time
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueue
	}
	return &RedisQueue{client: redisList{c: client}, key: key, now: time.Now}
}

// NewRedisClient parses a redis URL ("redis://host:6379/0") into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, kind Kind, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	job := Job{ID: uuid.NewString(), Kind: kind, Payload: p, EnqueuedAt: q.now()}
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("dequeue: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("dequeue: unexpected reply %v", res)
	}

	job := &Job{}
	if err := json.Unmarshal([]byte(res[1]), job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
