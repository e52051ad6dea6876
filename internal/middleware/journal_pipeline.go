package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"NewsTrader/internal/domain/models"
	domrepo "NewsTrader/internal/domain/repository"
	"NewsTrader/pkg/logger"
)

var ErrJournalClosed = errors.New("journal closed")

// BatchProc is the downstream the pipeline flushes into.
type BatchProc interface {
	ProcessBatch(ctx context.Context, trades []*models.TradeRecord) error
}

// JournalPipeline sits between the market loop and the journal backend. It
// validates trades and buffers them for a background flusher, so Record never
// waits on the backend. Every accepted trade is handed to the backend.
type JournalPipeline struct {
	proc      BatchProc
	metrics   domrepo.Metrics
	log       *logger.Logger
	validate  *validator.Validate
	bufSize   int
	batchSize int
	batchTO   time.Duration
	bufCh     chan *models.TradeRecord
	stopCh    chan struct{}
	stopOnce  sync.Once
	doneCh    chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

type PipelineOption func(*JournalPipeline)

// WithBufferSize sets how many trades may wait for the backend.
func WithBufferSize(n int) PipelineOption {
	return func(p *JournalPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBatch sets the flush size and the longest a partial batch may wait.
func WithBatch(size int, timeout time.Duration) PipelineOption {
	return func(p *JournalPipeline) {
		if size > 0 {
			p.batchSize = size
		}
		if timeout > 0 {
			p.batchTO = timeout
		}
	}
}

func NewJournalPipeline(proc BatchProc, metrics domrepo.Metrics, log *logger.Logger, opts ...PipelineOption) *JournalPipeline {
	p := &JournalPipeline{
		proc:      proc,
		metrics:   metrics,
		log:       log,
		validate:  validator.New(),
		bufSize:   500,
		batchSize: 50,
		batchTO:   time.Second,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.TradeRecord, p.bufSize)
	return p
}

// Start launches the background flusher. Cancelling ctx stops it after a
// final drain and flush; Close does the same and also stops new trades.
func (p *JournalPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.flushLoop(ctx)
}

// Record validates t and queues it. It fails only for invalid trades, a full
// buffer or a closed journal.
func (p *JournalPipeline) Record(_ context.Context, t *models.TradeRecord) error {
	if t == nil {
		return fmt.Errorf("trade nil")
	}
	if err := p.validate.Struct(t); err != nil {
		p.metrics.RecordError("journal_validate")
		return fmt.Errorf("journal validate: %w", err)
	}

	// the send stays under mu so nothing lands in the buffer after the final drain
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrJournalClosed
	}
	select {
	case p.bufCh <- t:
		return nil
	default:
		p.metrics.RecordError("journal_buffer_full")
		return fmt.Errorf("journal buffer full (%d)", p.bufSize)
	}
}

func (p *JournalPipeline) flushLoop(ctx context.Context) {
	defer close(p.doneCh)

	batch := make([]*models.TradeRecord, 0, p.batchSize)
	timer := time.NewTimer(p.batchTO)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.final(&batch)
			return
		case <-p.stopCh:
			p.final(&batch)
			return
		case t := <-p.bufCh:
			batch = append(batch, t)
			if len(batch) >= p.batchSize {
				p.flush(ctx, &batch, false)
			}
		case <-timer.C:
			p.flush(ctx, &batch, false)
			timer.Reset(p.batchTO)
		}
	}
}

// final drains the buffer and flushes it on a fresh context bounded by
// finalFlushTimeout, since the run context may already be cancelled.
func (p *JournalPipeline) final(batch *[]*models.TradeRecord) {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.drain(batch)
	ctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	p.flush(ctx, batch, true)
}

const finalFlushTimeout = 5 * time.Second

// flush retries with backoff until the backend accepts the batch. Outside the
// final flush, cancellation or Close abandons the retries and keeps the batch
// for final; inside it, the expired context drops the batch.
func (p *JournalPipeline) flush(ctx context.Context, batch *[]*models.TradeRecord, final bool) {
	if len(*batch) == 0 {
		return
	}
	var stop <-chan struct{}
	if !final {
		stop = p.stopCh
	}
	backoff := 50 * time.Millisecond
	for {
		err := p.proc.ProcessBatch(ctx, *batch)
		if err == nil {
			*batch = (*batch)[:0]
			return
		}
		p.metrics.RecordError("journal_flush")
		p.log.Warn("journal flush failed",
			logger.Int("trades", len(*batch)),
			logger.Duration("backoff", backoff),
			logger.Error(err))
		select {
		case <-ctx.Done():
			if !final {
				return
			}
			p.metrics.RecordError("journal_buffer_drop")
			p.log.Error("journal batch dropped", logger.Int("trades", len(*batch)))
			*batch = (*batch)[:0]
			return
		case <-stop:
			return
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

func (p *JournalPipeline) drain(batch *[]*models.TradeRecord) {
	for {
		select {
		case t := <-p.bufCh:
			*batch = append(*batch, t)
		default:
			return
		}
	}
}

// Close stops accepting trades and waits until what is buffered has been
// flushed. It is safe to call after the run context was cancelled.
func (p *JournalPipeline) Close() error {
	p.mu.Lock()
	p.closed = true
	started := p.started
	p.mu.Unlock()

	p.stopOnce.Do(func() { close(p.stopCh) })
	if started {
		<-p.doneCh
	}
	return nil
}
