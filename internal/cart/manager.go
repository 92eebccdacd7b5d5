// Package cart owns optimistic cart line mutation and the cart section loader.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/scheduler"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

// DefaultDebounce is the quiet window before a quantity change is sent.
const DefaultDebounce = 800 * time.Millisecond

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type sectionReloader interface {
	Reload(ctx context.Context, section enums.Section) (bool, error)
}

// PendingMutation is the quantity a line will be synced to when its debounce fires.
type PendingMutation struct {
	LineID         uuid.UUID
	TargetQuantity int
}

// ManagerParams configure the mutation manager.
type ManagerParams struct {
	Gateway   gateway.CartGateway
	Store     *readmodel.Store
	Sections  sectionReloader
	Scheduler scheduler.Scheduler
	Notifier  notify.Notifier
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
	Debounce  time.Duration
}

// Manager applies cart quantity changes locally first and reconciles with the server afterwards.
// Every settled server call ends in exactly one cart reload; the server copy always wins.
type Manager struct {
	gw        gateway.CartGateway
	store     *readmodel.Store
	sections  sectionReloader
	scheduler scheduler.Scheduler
	notifier  notify.Notifier
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
	debounce  time.Duration

	mu      sync.Mutex
	pending map[uuid.UUID]PendingMutation
}

// NewManager builds a mutation manager.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("read model store required")
	}
	if params.Sections == nil {
		return nil, fmt.Errorf("section reloader required")
	}
	if params.Scheduler == nil {
		return nil, fmt.Errorf("scheduler required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	debounce := params.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Manager{
		gw:        params.Gateway,
		store:     params.Store,
		sections:  params.Sections,
		scheduler: params.Scheduler,
		notifier:  params.Notifier,
		logg:      logg,
		metrics:   params.Metrics,
		debounce:  debounce,
		pending:   map[uuid.UUID]PendingMutation{},
	}, nil
}

// UpdateQuantity shifts a line's quantity by delta. A result of zero or less removes the
// line right away; otherwise the new quantity shows immediately and is synced after the
// debounce window, coalescing with any change still pending for the line.
func (m *Manager) UpdateQuantity(ctx context.Context, lineID uuid.UUID, delta int) error {
	syncCtx := context.WithoutCancel(ctx)

	// mu spans the store adjustment so the pending target always matches the latest delta.
	m.mu.Lock()
	target, ok := m.store.AdjustLineQuantity(lineID, delta)
	if !ok {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if delta == 0 {
		m.mu.Unlock()
		return nil
	}
	if target <= 0 {
		m.mu.Unlock()
		return m.RemoveLine(ctx, lineID)
	}
	if _, replaced := m.pending[lineID]; replaced {
		m.metrics.IncCoalesced()
	}
	m.pending[lineID] = PendingMutation{LineID: lineID, TargetQuantity: target}
	m.scheduler.Schedule(lineID.String(), m.debounce, func() {
		_ = m.sync(syncCtx, lineID)
	})
	m.mu.Unlock()

	m.logg.Debug(m.logg.WithFields(m.logg.WithLineID(ctx, lineID.String()), map[string]any{
		"target_quantity": target,
	}), "cart.quantity.scheduled")
	return nil
}

// RemoveLine deletes a line on the server immediately, dropping any pending quantity change.
// The cart is reloaded only when the removal succeeds.
func (m *Manager) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	m.discard(lineID)

	ctx = m.logg.WithLineID(ctx, lineID.String())
	if err := m.gw.RemoveLine(ctx, lineID); err != nil {
		m.metrics.IncRemoval(outcomeFailure)
		m.logg.Error(ctx, "cart.line.remove_failed", err)
		m.notifier.Enqueue(notify.FromError(err))
		return err
	}
	m.metrics.IncRemoval(outcomeSuccess)
	m.logg.Info(ctx, "cart.line.removed")
	m.reloadCart(ctx)
	return nil
}

// Flush sends every pending quantity change now instead of waiting for its window.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs error
	for _, id := range ids {
		if !m.scheduler.Cancel(id.String()) {
			continue
		}
		errs = multierr.Append(errs, m.sync(ctx, id))
	}
	return errs
}

// Pending returns the change waiting to be synced for lineID, if any.
func (m *Manager) Pending(lineID uuid.UUID) (PendingMutation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[lineID]
	return p, ok
}

func (m *Manager) discard(lineID uuid.UUID) {
	m.mu.Lock()
	delete(m.pending, lineID)
	m.mu.Unlock()
	m.scheduler.Cancel(lineID.String())
}

func (m *Manager) sync(ctx context.Context, lineID uuid.UUID) error {
	m.mu.Lock()
	p, ok := m.pending[lineID]
	delete(m.pending, lineID)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	ctx = m.logg.WithLineID(ctx, lineID.String())
	ctx = m.logg.WithField(ctx, "target_quantity", p.TargetQuantity)
	if err := m.gw.SetQuantity(ctx, lineID, p.TargetQuantity); err != nil {
		m.metrics.IncSync(outcomeFailure)
		m.logg.Error(ctx, "cart.quantity.sync_failed", err)
		m.reloadCart(ctx)
		recErr := pkgerrors.Wrap(pkgerrors.CodeReconciliation, err, reconciliationMessage(err))
		m.notifier.Enqueue(notify.FromError(recErr))
		return recErr
	}
	m.metrics.IncSync(outcomeSuccess)
	m.logg.Info(ctx, "cart.quantity.synced")
	m.reloadCart(ctx)
	return nil
}

// reloadCart refetches the cart. Loader failures are already notified by the coordinator.
func (m *Manager) reloadCart(ctx context.Context) {
	if _, err := m.sections.Reload(ctx, enums.SectionCart); err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "cart.reload.failed")
	}
}

func reconciliationMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return pkgerrors.MetadataFor(pkgerrors.CodeReconciliation).PublicMessage
}
