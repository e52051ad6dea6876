package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTrader/pkg/logger"
)

type stubJob struct {
	typ   string
	err   error
	calls []json.RawMessage
}

func (j *stubJob) Name() string { return "stub" }
func (j *stubJob) Type() string { return j.typ }
func (j *stubJob) Handle(_ context.Context, p json.RawMessage) error {
	j.calls = append(j.calls, p)
	return j.err
}

func newTestQueue(retries int) *RedisQueue {
	// never dialled: dispatch does not touch redis
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	return NewRedisQueue(client, logger.NewNop(), Config{RetryLimit: retries})
}

func TestDispatchSuccess(t *testing.T) {
	q := newTestQueue(2)
	job := &stubJob{typ: "news.headline"}
	q.Register(job)

	msg := &Message{ID: "1", Type: "news.headline", Payload: json.RawMessage(`{"title":"x"}`)}
	assert.Equal(t, outcomeDone, q.dispatch(context.Background(), msg))
	require.Len(t, job.calls, 1)
	assert.JSONEq(t, `{"title":"x"}`, string(job.calls[0]))
	assert.Equal(t, 0, msg.Attempts)
}

func TestDispatchRetriesThenDeadLetters(t *testing.T) {
	q := newTestQueue(2)
	q.Register(&stubJob{typ: "t", err: errors.New("boom")})

	msg := &Message{ID: "1", Type: "t"}
	assert.Equal(t, outcomeRetry, q.dispatch(context.Background(), msg))
	assert.Equal(t, outcomeRetry, q.dispatch(context.Background(), msg))
	assert.Equal(t, outcomeDead, q.dispatch(context.Background(), msg))
	assert.Equal(t, 3, msg.Attempts)
}

func TestDispatchUnknownTypeIsDead(t *testing.T) {
	q := newTestQueue(5)
	assert.Equal(t, outcomeDead, q.dispatch(context.Background(), &Message{ID: "1", Type: "nope"}))
}

func TestRegisterIgnoresDuplicateType(t *testing.T) {
	q := newTestQueue(0)
	first := &stubJob{typ: "t"}
	q.Register(first)
	q.Register(&stubJob{typ: "t", err: errors.New("second")})

	assert.Equal(t, outcomeDone, q.dispatch(context.Background(), &Message{Type: "t"}))
	assert.Len(t, first.calls, 1)
}

func TestKeysUsePrefix(t *testing.T) {
	q := NewRedisQueue(redis.NewClient(&redis.Options{}), logger.NewNop(), Config{}, WithKeyPrefix("nt:inbox"))
	assert.Equal(t, "nt:inbox:messages", q.queueKey())
	assert.Equal(t, "nt:inbox:retry", q.retryKey())
	assert.Equal(t, "nt:inbox:dlq", q.deadLetterKey())
}
