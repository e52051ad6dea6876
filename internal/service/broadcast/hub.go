package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"NewsTrader/internal/domain/models"
	"NewsTrader/internal/domain/repository"
	"NewsTrader/pkg/logger"
)

var ErrDuplicateSubscriber = errors.New("broadcast: subscriber already connected")

// Subscriber is one connected observer.
type Subscriber interface {
	ID() string
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// SnapshotFunc returns the state a new subscriber receives on connect.
type SnapshotFunc func() models.PortfolioSnapshot

type member struct {
	sub Subscriber
	mu  sync.Mutex // serializes writes to sub
}

// Hub fans envelopes out to every connected subscriber. A subscriber that
// fails a write is dropped without affecting the others.
type Hub struct {
	mu      sync.RWMutex
	members map[string]*member

	snapshot     SnapshotFunc
	writeTimeout time.Duration
	metrics      repository.Metrics
	log          *logger.Logger
}

func NewHub(snapshot SnapshotFunc, writeTimeout time.Duration, metrics repository.Metrics, log *logger.Logger) *Hub {
	return &Hub{
		members:      make(map[string]*member),
		snapshot:     snapshot,
		writeTimeout: writeTimeout,
		metrics:      metrics,
		log:          log,
	}
}

// Connect registers sub and sends it the current portfolio snapshot. The
// snapshot is always the first frame sub receives.
func (h *Hub) Connect(ctx context.Context, sub Subscriber) error {
	m := &member{sub: sub}
	m.mu.Lock()
	defer m.mu.Unlock()

	h.mu.Lock()
	if _, ok := h.members[sub.ID()]; ok {
		h.mu.Unlock()
		return ErrDuplicateSubscriber
	}
	h.members[sub.ID()] = m
	n := len(h.members)
	h.mu.Unlock()
	h.metrics.RecordSubscribers(n)
	h.log.Info("subscriber connected", logger.String("id", sub.ID()), logger.Int("subscribers", n))

	payload, err := json.Marshal(models.Envelope{Type: models.EventPortfolioUpdate, Data: h.snapshot()})
	if err != nil {
		h.remove(sub.ID())
		return err
	}
	if err := h.send(ctx, m, payload); err != nil {
		h.metrics.RecordDelivery("failed")
		h.remove(sub.ID())
		_ = sub.Close()
		return err
	}
	h.metrics.RecordDelivery("ok")
	return nil
}

// Disconnect removes sub if it is still registered.
func (h *Hub) Disconnect(sub Subscriber) {
	if h.remove(sub.ID()) {
		h.log.Info("subscriber disconnected", logger.String("id", sub.ID()), logger.Int("subscribers", h.Count()))
	}
}

// Broadcast delivers env to every subscriber connected when it starts.
func (h *Hub) Broadcast(ctx context.Context, env models.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.log.Error("broadcast marshal failed", logger.String("type", string(env.Type)), logger.Error(err))
		h.metrics.RecordError("broadcast_marshal")
		return
	}

	h.mu.RLock()
	targets := make([]*member, 0, len(h.members))
	for _, m := range h.members {
		targets = append(targets, m)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	var (
		wg     sync.WaitGroup
		failMu sync.Mutex
		failed []*member
	)
	for _, m := range targets {
		wg.Add(1)
		go func(m *member) {
			defer wg.Done()
			m.mu.Lock()
			err := h.send(ctx, m, payload)
			m.mu.Unlock()
			if err != nil {
				failMu.Lock()
				failed = append(failed, m)
				failMu.Unlock()
				h.metrics.RecordDelivery("failed")
				h.log.Debug("subscriber write failed", logger.String("id", m.sub.ID()), logger.Error(err))
				return
			}
			h.metrics.RecordDelivery("ok")
		}(m)
	}
	wg.Wait()

	for _, m := range failed {
		h.remove(m.sub.ID())
		_ = m.sub.Close()
	}
	if len(failed) > 0 {
		h.log.Warn("pruned subscribers", logger.Int("pruned", len(failed)), logger.Int("subscribers", h.Count()))
	}
}

func (h *Hub) send(ctx context.Context, m *member, payload []byte) error {
	if h.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.writeTimeout)
		defer cancel()
	}
	return m.sub.Send(ctx, payload)
}

func (h *Hub) remove(id string) bool {
	h.mu.Lock()
	_, ok := h.members[id]
	delete(h.members, id)
	n := len(h.members)
	h.mu.Unlock()
	if ok {
		h.metrics.RecordSubscribers(n)
	}
	return ok
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	members := h.members
	h.members = make(map[string]*member)
	h.mu.Unlock()
	for _, m := range members {
		_ = m.sub.Close()
	}
	h.metrics.RecordSubscribers(0)
}
