// Package sections decides when a section's loaders may run and tracks each section's load state.
package sections

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

// Params configure the coordinator.
type Params struct {
	Logger   *logger.Logger
	Notifier notify.Notifier
	Metrics  *metrics.SectionMetrics
	Clock    func() time.Time
}

// Coordinator owns per-section load state and the single navigation gate.
// All guard state lives behind mu; no lock is held while loaders run.
type Coordinator struct {
	logg     *logger.Logger
	notifier notify.Notifier
	metrics  *metrics.SectionMetrics
	now      func() time.Time

	mu         sync.Mutex
	order      []enums.Section
	sections   map[enums.Section]*entry
	active     enums.Section
	navigating bool
}

type entry struct {
	loaders []Loader
	state   LoadState
	flight  *flight
	// staleOnFinish records an invalidation that arrived while a load was in flight.
	staleOnFinish bool
	// rerun records a reload that collapsed into the flight; the flight fetches once more before it ends.
	rerun bool
}

type flight struct {
	done chan struct{}
	err  error
}

// NewCoordinator builds a coordinator.
func NewCoordinator(params Params) (*Coordinator, error) {
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Coordinator{
		logg:     logg,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		now:      clock,
		sections: map[enums.Section]*entry{},
	}, nil
}

// Register adds a section with its loaders. Each section is registered once.
func (c *Coordinator) Register(section enums.Section, loaders ...Loader) error {
	if !section.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid section %q", section))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sections[section]; ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("section %s already registered", section))
	}
	kept := make([]Loader, 0, len(loaders))
	for _, l := range loaders {
		if l != nil {
			kept = append(kept, l)
		}
	}
	c.sections[section] = &entry{
		loaders: kept,
		state:   LoadState{Status: enums.LoadStatusUnloaded},
	}
	c.order = append(c.order, section)
	return nil
}

// Navigate makes section active and loads it when it is unloaded or stale.
// It returns false without doing anything while another navigation load is in flight.
func (c *Coordinator) Navigate(ctx context.Context, section enums.Section) (bool, error) {
	c.mu.Lock()
	e, ok := c.sections[section]
	if !ok {
		c.mu.Unlock()
		return false, unknownSection(section)
	}
	if c.navigating {
		c.mu.Unlock()
		c.metrics.IncNavigationRejected(section.String())
		c.logg.Debug(c.logg.WithSection(ctx, section.String()), "section.navigate.rejected")
		return false, nil
	}
	c.active = section
	if !needsLoad(e.state) {
		c.mu.Unlock()
		return true, nil
	}
	c.navigating = true
	c.mu.Unlock()

	defer c.releaseGate()
	return true, c.navigationLoad(ctx, section, e)
}

// Load runs a navigation-class load of section. It fails with STATE_CONFLICT while
// another navigation load holds the gate.
func (c *Coordinator) Load(ctx context.Context, section enums.Section) error {
	c.mu.Lock()
	e, ok := c.sections[section]
	if !ok {
		c.mu.Unlock()
		return unknownSection(section)
	}
	if c.navigating {
		c.mu.Unlock()
		c.metrics.IncNavigationRejected(section.String())
		return pkgerrors.New(pkgerrors.CodeStateConflict, "another section is loading")
	}
	c.navigating = true
	c.mu.Unlock()

	defer c.releaseGate()
	return c.navigationLoad(ctx, section, e)
}

// Reload refetches section regardless of its status and never touches the navigation gate.
// A reload requested while a load is pending for the same section returns false and queues
// one trailing fetch on that flight, so data written before the call is always picked up.
// Any number of collapsed reloads share the same trailing fetch.
func (c *Coordinator) Reload(ctx context.Context, section enums.Section) (bool, error) {
	c.mu.Lock()
	e, ok := c.sections[section]
	if !ok {
		c.mu.Unlock()
		return false, unknownSection(section)
	}
	if e.flight != nil {
		e.rerun = true
		c.mu.Unlock()
		c.metrics.IncReloadCollapsed(section.String())
		c.logg.Debug(c.logg.WithSection(ctx, section.String()), "section.reload.collapsed")
		return false, nil
	}
	f := c.beginLocked(e)
	c.mu.Unlock()

	return true, c.run(ctx, section, e, f, enums.LoadTriggerReload)
}

// Invalidate marks loaded sections stale so the next navigation refetches them.
func (c *Coordinator) Invalidate(sections ...enums.Section) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, section := range sections {
		e, ok := c.sections[section]
		if !ok {
			continue
		}
		if e.flight != nil {
			e.staleOnFinish = true
			continue
		}
		if e.state.Status == enums.LoadStatusLoaded {
			e.state.Stale = true
		}
	}
}

// Activate switches the active section without loading it.
func (c *Coordinator) Activate(section enums.Section) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sections[section]; !ok {
		return unknownSection(section)
	}
	c.active = section
	return nil
}

// CanRender reports whether section has data to show. Stale or refreshing data still renders.
func (c *Coordinator) CanRender(section enums.Section) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.sections[section]
	return ok && e.state.Status == enums.LoadStatusLoaded
}

func (c *Coordinator) Active() enums.Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Navigating reports whether a navigation load currently holds the gate.
func (c *Coordinator) Navigating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigating
}

func (c *Coordinator) State(section enums.Section) (LoadState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.sections[section]
	if !ok {
		return LoadState{}, false
	}
	return e.state, true
}

// Snapshot lists every section in registration order.
func (c *Coordinator) Snapshot() []Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Status, 0, len(c.order))
	for _, section := range c.order {
		out = append(out, statusOf(section, c.sections[section].state, section == c.active))
	}
	return out
}

// navigationLoad runs the section's loaders under the gate the caller already holds.
// If a reload of the same section is pending, it waits for that one instead of fetching twice.
func (c *Coordinator) navigationLoad(ctx context.Context, section enums.Section, e *entry) error {
	c.mu.Lock()
	if pending := e.flight; pending != nil {
		c.mu.Unlock()
		select {
		case <-pending.done:
			return pending.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f := c.beginLocked(e)
	c.mu.Unlock()

	return c.run(ctx, section, e, f, enums.LoadTriggerNavigation)
}

// run executes the flight and any trailing fetch queued while it was running.
func (c *Coordinator) run(ctx context.Context, section enums.Section, e *entry, f *flight, trigger enums.LoadTrigger) error {
	for {
		err := c.execute(ctx, section, e.loaders, trigger)
		if !c.finish(ctx, e, f, err) {
			return err
		}
		c.logg.Debug(c.logg.WithSection(ctx, section.String()), "section.reload.trailing")
		trigger = enums.LoadTriggerReload
	}
}

func (c *Coordinator) releaseGate() {
	c.mu.Lock()
	c.navigating = false
	c.mu.Unlock()
}

func (c *Coordinator) beginLocked(e *entry) *flight {
	f := &flight{done: make(chan struct{})}
	e.flight = f
	e.staleOnFinish = false
	e.rerun = false
	if e.state.Status == enums.LoadStatusLoaded {
		e.state.Refreshing = true
	} else {
		e.state.Status = enums.LoadStatusLoading
	}
	return f
}

// finish ends the flight, or reports true when a trailing fetch is queued and the flight
// must run again. A queued fetch that cannot run because ctx is done leaves the section stale.
func (c *Coordinator) finish(ctx context.Context, e *entry, f *flight, err error) bool {
	c.mu.Lock()
	if e.rerun && ctx.Err() == nil {
		e.rerun = false
		// The trailing fetch starts after any invalidation seen so far.
		e.staleOnFinish = false
		c.mu.Unlock()
		return true
	}
	e.state = LoadState{
		Status:       enums.LoadStatusLoaded,
		LastLoadedAt: c.now(),
		Err:          err,
		Stale:        e.staleOnFinish || e.rerun,
	}
	e.staleOnFinish = false
	e.rerun = false
	e.flight = nil
	f.err = err
	c.mu.Unlock()
	close(f.done)
	return false
}

// execute runs every loader concurrently. A failing loader never cancels its siblings;
// each failure is notified and all of them are combined into the returned error.
func (c *Coordinator) execute(ctx context.Context, section enums.Section, loaders []Loader, trigger enums.LoadTrigger) error {
	ctx = c.logg.WithSection(ctx, section.String())
	ctx = c.logg.WithField(ctx, "trigger", trigger.String())
	c.logg.Info(ctx, "section.load.start")
	start := c.now()

	errs := make([]error, len(loaders))
	var g errgroup.Group
	for i, l := range loaders {
		i, l := i, l
		g.Go(func() error {
			if err := l.Load(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", l.Name(), err)
				c.notifier.Enqueue(notify.FromError(err))
				c.logg.Error(c.logg.WithField(ctx, "loader", l.Name()), "section.loader.failed", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := multierr.Combine(errs...)
	duration := c.now().Sub(start)
	c.metrics.ObserveLoad(section.String(), trigger.String(), duration)
	c.metrics.AddLoaderFailures(section.String(), len(multierr.Errors(err)))
	ctx = c.logg.WithFields(ctx, map[string]any{
		"duration_ms": duration.Milliseconds(),
		"failures":    len(multierr.Errors(err)),
	})
	c.logg.Info(ctx, "section.load.complete")
	return err
}

func needsLoad(state LoadState) bool {
	return state.Status != enums.LoadStatusLoaded || state.Stale
}

func unknownSection(section enums.Section) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("section %s is not registered", section))
}
