package notify

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fintrack/internal/logging"
)

type fakeList struct {
	pushed  [][]byte
	pushErr error
	popped  []string
	popErr  error
}

func (f *fakeList) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		f.pushed = append(f.pushed, v.([]byte))
	}
	return redis.NewIntResult(int64(len(f.pushed)), nil)
}

func (f *fakeList) BRPop(_ context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	if f.popErr != nil {
		return redis.NewStringSliceResult(nil, f.popErr)
	}
	return redis.NewStringSliceResult(f.popped, nil)
}

func TestRedisQueue_EnqueueEncodesJob(t *testing.T) {
	fake := &fakeList{}
	q := &RedisQueue{client: fake, key: DefaultQueue, now: time.Now}

	err := q.Enqueue(context.Background(), KindEmailVerification, Payload{Email: "a@b.com", OTP: "123456", FirstName: "A", LastName: "B"})
	require.NoError(t, err)
	require.Len(t, fake.pushed, 1)

	var job Job
	require.NoError(t, json.Unmarshal(fake.pushed[0], &job))
	assert.Equal(t, KindEmailVerification, job.Kind)
	assert.Equal(t, "123456", job.Payload.OTP)
	assert.NotEmpty(t, job.ID)
}

func TestRedisQueue_EnqueueOmitsEmptyOTP(t *testing.T) {
	fake := &fakeList{}
	q := &RedisQueue{client: fake, key: DefaultQueue, now: time.Now}

	require.NoError(t, q.Enqueue(context.Background(), KindWelcome, Payload{Email: "a@b.com"}))
	assert.NotContains(t, string(fake.pushed[0]), `"otp"`)
}

func TestRedisQueue_EnqueueError(t *testing.T) {
	q := &RedisQueue{client: &fakeList{pushErr: errors.New("down")}, key: DefaultQueue, now: time.Now}
	require.Error(t, q.Enqueue(context.Background(), KindWelcome, Payload{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, q.Enqueue(ctx, KindWelcome, Payload{}), context.Canceled)
}

func TestRedisQueue_Dequeue(t *testing.T) {
	b, err := json.Marshal(Job{ID: "j-1", Kind: KindForgotPassword, Payload: Payload{Email: "a@b.com", OTP: "654321"}})
	require.NoError(t, err)

	q := &RedisQueue{client: &fakeList{popped: []string{DefaultQueue, string(b)}}, key: DefaultQueue, now: time.Now}
	job, err := q.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "j-1", job.ID)
	assert.Equal(t, KindForgotPassword, job.Kind)
}

func TestRedisQueue_DequeueTimeout(t *testing.T) {
	q := &RedisQueue{client: &fakeList{popErr: redis.Nil}, key: DefaultQueue, now: time.Now}
	_, err := q.Dequeue(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrNoJob)
}

func TestRedisQueue_DequeueGarbage(t *testing.T) {
	q := &RedisQueue{client: &fakeList{popped: []string{DefaultQueue, "{not json"}}, key: DefaultQueue, now: time.Now}
	_, err := q.Dequeue(context.Background(), time.Second)
	assert.Error(t, err)
}

// silentListener accepts connections and never answers.
func silentListener(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var conns []net.Conn
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			c, err := lis.Accept()
			if err != nil {
				return
			}
			conns = append(conns, c)
		}
	}()
	t.Cleanup(func() {
		_ = lis.Close()
		<-done
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return lis.Addr().String()
}

func TestRedisQueue_EnqueueHonoursDeadline(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: silentListener(t), ReadTimeout: 5 * time.Second})
	defer client.Close()
	q := NewRedisQueue(client, "")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := q.Enqueue(ctx, KindWelcome, Payload{Email: "a@b.com"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRedisQueue_DequeueHonoursDeadline(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: silentListener(t), ReadTimeout: 5 * time.Second})
	defer client.Close()
	q := NewRedisQueue(client, "")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := q.Dequeue(ctx, 10*time.Second)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewRedisClient(t *testing.T) {
	c, err := NewRedisClient("redis://localhost:6379/1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Options().DB)
	_ = c.Close()

	_, err = NewRedisClient("http://nope")
	assert.Error(t, err)
}

func TestLogSink(t *testing.T) {
	s := NewLogSink(logging.Nop())
	assert.NoError(t, s.Enqueue(context.Background(), KindWelcome, Payload{Email: "a@b.com"}))
}
