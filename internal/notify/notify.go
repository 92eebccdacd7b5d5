// Package notify carries user-facing messages from the orchestration core to whatever layer renders them.
package notify

import (
	"context"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

const defaultQueueSize = 64

// Notification is a fire-and-forget message for the rendering layer.
type Notification struct {
	Message string                 `json:"message"`
	Kind    enums.NotificationKind `json:"kind"`
	// Field names the form field the message belongs to, when the gateway identified one.
	Field string `json:"field,omitempty"`
}

// Notifier accepts notifications without blocking the caller.
type Notifier interface {
	Enqueue(n Notification)
}

// FromError builds an error notification from a typed or untyped error.
func FromError(err error) Notification {
	n := Notification{Message: pkgerrors.UserMessage(err), Kind: enums.NotificationKindError}
	if typed := pkgerrors.As(err); typed != nil {
		n.Field = typed.Field()
	}
	return n
}

// Queue is a bounded, non-blocking Notifier. A full queue drops the new message.
type Queue struct {
	ch      chan Notification
	logg    *logger.Logger
	metrics *metrics.NotifyMetrics

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewQueue builds a queue with the given capacity.
func NewQueue(size int, logg *logger.Logger, m *metrics.NotifyMetrics) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Queue{ch: make(chan Notification, size), logg: logg, metrics: m}
}

// Enqueue implements Notifier.
func (q *Queue) Enqueue(n Notification) {
	if n.Kind == "" {
		n.Kind = enums.NotificationKindInfo
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}
	select {
	case q.ch <- n:
		q.metrics.IncEnqueued(n.Kind.String())
	default:
		q.metrics.IncDropped()
		ctx := q.logg.WithFields(context.Background(), map[string]any{
			"kind":    n.Kind.String(),
			"message": n.Message,
		})
		q.logg.Warn(ctx, "notification.dropped")
	}
}

// C exposes the queue to the rendering layer.
func (q *Queue) C() <-chan Notification {
	return q.ch
}

// Close stops accepting notifications and closes the channel.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
}

// Drain forwards queued notifications to fn until the queue is closed. Everything enqueued
// before Close is delivered.
func (q *Queue) Drain(fn func(Notification)) {
	for n := range q.ch {
		fn(n)
	}
}

// Recorder keeps every notification in memory. Tests and headless runs use it.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Enqueue implements Notifier.
func (r *Recorder) Enqueue(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Kinds returns the recorded notifications of the given kind.
func (r *Recorder) Kinds(kind enums.NotificationKind) []Notification {
	var out []Notification
	for _, n := range r.All() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
