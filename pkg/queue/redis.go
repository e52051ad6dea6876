package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"NewsTrader/pkg/logger"
)

// RedisQueue is a list-backed job queue with delayed retries and a dead
// letter list. Producers only need Enqueue; consumers register jobs and Start.
type RedisQueue struct {
	log       *logger.Logger
	cfg       Config
	client    *redis.Client
	keyPrefix string

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		if prefix != "" {
			r.keyPrefix = prefix
		}
	}
}

func NewRedisQueue(client *redis.Client, log *logger.Logger, cfg Config, opts ...RedisQueueOption) *RedisQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 10 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Second
	}
	r := &RedisQueue{
		log:       log,
		cfg:       cfg,
		client:    client,
		keyPrefix: "newstrader:queue",
		jobs:      make(map[string]Job),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a job. A second job for the same type is ignored.
func (r *RedisQueue) Register(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.Type()]; exists {
		r.log.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	r.jobs[job.Type()] = job
}

// Start pings redis and launches the workers and the retry mover.
func (r *RedisQueue) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("queue already running")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	runCtx, stop := context.WithCancel(context.Background())
	r.cancel = stop
	r.running = true

	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}
	r.wg.Add(1)
	go r.retryLoop(runCtx)

	r.log.Info("redis queue started",
		logger.Int("workers", r.cfg.Workers),
		logger.String("key", r.queueKey()))
	return nil
}

// Stop waits for in-flight messages, then closes the redis client.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return r.client.Close()
	}
	r.running = false
	r.cancel()
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue stop: %w", ctx.Err())
	case <-done:
		return r.client.Close()
	}
}

// Enqueue pushes one message. It does not require Start.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	data, err := json.Marshal(Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := r.client.LPush(ctx, r.queueKey(), data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

func (r *RedisQueue) worker(ctx context.Context) {
	defer r.wg.Done()
	for ctx.Err() == nil {
		res, err := r.client.BRPop(ctx, r.cfg.PollTimeout, r.queueKey()).Result()
		switch {
		case err == nil:
		case errors.Is(err, redis.Nil), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			continue
		default:
			r.log.Error("brpop error", logger.Error(err))
			sleepCtx(ctx, time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			r.log.Error("unmarshal message", logger.Error(err))
			continue
		}

		switch r.dispatch(ctx, &msg) {
		case outcomeRetry:
			r.scheduleRetry(ctx, msg, time.Now().Add(r.cfg.RetryDelay))
		case outcomeDead:
			r.deadLetter(ctx, msg)
		}
	}
}

// dispatch runs the job for msg and bumps Attempts on failure.
func (r *RedisQueue) dispatch(ctx context.Context, msg *Message) outcome {
	r.mu.RLock()
	job, ok := r.jobs[msg.Type]
	r.mu.RUnlock()
	if !ok {
		r.log.Error("no job for message", logger.String("type", msg.Type), logger.String("id", msg.ID))
		return outcomeDead
	}

	err := job.Handle(ctx, msg.Payload)
	if err == nil {
		return outcomeDone
	}
	if errors.Is(err, context.Canceled) {
		// requeue untouched; shutdown interrupted it
		return outcomeRetry
	}

	msg.Attempts++
	r.log.Warn("message processing error",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts),
		logger.Error(err))
	if msg.Attempts > r.cfg.RetryLimit {
		return outcomeDead
	}
	return outcomeRetry
}

func (r *RedisQueue) scheduleRetry(ctx context.Context, msg Message, at time.Time) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("marshal retry", logger.Error(err))
		return
	}
	// the worker ctx may already be cancelled; the retry must still land
	if err := r.client.ZAdd(context.WithoutCancel(ctx), r.retryKey(), redis.Z{
		Score:  float64(at.Unix()),
		Member: data,
	}).Err(); err != nil {
		r.log.Error("zadd retry", logger.Error(err))
	}
}

func (r *RedisQueue) deadLetter(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("marshal dlq", logger.Error(err))
		return
	}
	if err := r.client.LPush(context.WithoutCancel(ctx), r.deadLetterKey(), data).Err(); err != nil {
		r.log.Error("lpush dlq", logger.Error(err))
	}
}

func (r *RedisQueue) retryLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.moveDueRetries(ctx)
		}
	}
}

func (r *RedisQueue) moveDueRetries(ctx context.Context) {
	due, err := r.client.ZRangeByScore(ctx, r.retryKey(), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.log.Error("fetch retry messages", logger.Error(err))
		}
		return
	}

	for _, data := range due {
		pipe := r.client.TxPipeline()
		pipe.ZRem(ctx, r.retryKey(), data)
		pipe.LPush(ctx, r.queueKey(), data)
		if _, err := pipe.Exec(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.log.Error("move retry to queue", logger.Error(err))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (r *RedisQueue) queueKey() string      { return r.keyPrefix + ":messages" }
func (r *RedisQueue) retryKey() string      { return r.keyPrefix + ":retry" }
func (r *RedisQueue) deadLetterKey() string { return r.keyPrefix + ":dlq" }
