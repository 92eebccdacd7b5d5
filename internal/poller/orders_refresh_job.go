package poller

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

type sectionWatcher interface {
	Active() enums.Section
	Navigating() bool
	Reload(ctx context.Context, section enums.Section) (bool, error)
}

// OrdersRefreshJob silently reloads the orders section while the buyer is looking at it.
type OrdersRefreshJob struct {
	sections sectionWatcher
}

func NewOrdersRefreshJob(sections sectionWatcher) *OrdersRefreshJob {
	return &OrdersRefreshJob{sections: sections}
}

func (j *OrdersRefreshJob) Name() string { return "orders_refresh" }

// Run skips the tick unless orders is active and no navigation load is in flight.
// A reload collapsed into one already pending also counts as skipped.
func (j *OrdersRefreshJob) Run(ctx context.Context) error {
	if j.sections.Active() != enums.SectionOrders || j.sections.Navigating() {
		return ErrSkipped
	}
	ran, err := j.sections.Reload(ctx, enums.SectionOrders)
	if err != nil {
		return err
	}
	if !ran {
		return ErrSkipped
	}
	return nil
}
