package sections

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// Reloader is the part of the coordinator a mutating component needs.
type Reloader interface {
	Reload(ctx context.Context, section enums.Section) (bool, error)
}

// Settle finishes a gateway mutation that affects section. A failure is notified and
// returned untouched; a success reloads the section exactly once.
func Settle(ctx context.Context, r Reloader, n notify.Notifier, logg *logger.Logger, section enums.Section, err error) error {
	if logg == nil {
		logg = logger.Nop()
	}
	ctx = logg.WithSection(ctx, section.String())
	if err != nil {
		logg.Error(ctx, "section.mutation.failed", err)
		n.Enqueue(notify.FromError(err))
		return err
	}
	if _, reloadErr := r.Reload(ctx, section); reloadErr != nil {
		logg.Warn(logg.WithField(ctx, "error", reloadErr.Error()), "section.mutation.reload_failed")
	}
	return nil
}
