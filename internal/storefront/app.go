// Package storefront wires the orchestration core: read models, sections, the cart mutation
// manager, checkout and background polling.
package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/packfinderz-storefront/internal/address"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/checkout"
	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/orders"
	"github.com/angelmondragon/packfinderz-storefront/internal/poller"
	"github.com/angelmondragon/packfinderz-storefront/internal/products"
	"github.com/angelmondragon/packfinderz-storefront/internal/profile"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/scheduler"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

// Params configures an App. Gateway and Notifier are required.
type Params struct {
	Gateway    gateway.Gateway
	Notifier   notify.Notifier
	Logger     *logger.Logger
	Registerer prometheus.Registerer
	// Scheduler defaults to a timer-backed scheduler.
	Scheduler     scheduler.Scheduler
	Clock         func() time.Time
	CartDebounce  time.Duration
	OrdersPerPage int
	PollInterval  time.Duration
}

// App is the storefront facade the rendering layer talks to.
type App struct {
	Store     *readmodel.Store
	Sections  *sections.Coordinator
	Cart      *cart.Manager
	Checkout  *checkout.Workflow
	Catalog   *products.Catalog
	Orders    *orders.History
	Wishlist  wishlist.Service
	Addresses address.Service
	Profile   *profile.Service
	Poller    *poller.Service

	logg *logger.Logger
}

func New(params Params) (*App, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	sched := params.Scheduler
	if sched == nil {
		sched = scheduler.NewTimerScheduler()
	}
	gw := params.Gateway
	store := readmodel.NewStore()

	coord, err := sections.NewCoordinator(sections.Params{
		Logger:   logg,
		Notifier: params.Notifier,
		Metrics:  metrics.NewSectionMetrics(params.Registerer),
		Clock:    params.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("sections: %w", err)
	}

	catalog, err := products.NewCatalog(products.CatalogParams{
		Gateway: gw, Store: store, Sections: coord, Notifier: params.Notifier, Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	history, err := orders.NewHistory(orders.HistoryParams{
		Gateway: gw, Store: store, Sections: coord, Notifier: params.Notifier, Logger: logg,
		PerPage: params.OrdersPerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("orders: %w", err)
	}

	registrations := []struct {
		section enums.Section
		loaders []sections.Loader
	}{
		// The shop shows the buyer's cart badge next to the listing.
		{enums.SectionShop, []sections.Loader{catalog.Loader(), cart.Loader(gw, store)}},
		{enums.SectionCart, []sections.Loader{cart.Loader(gw, store), address.Loader(gw, store)}},
		{enums.SectionOrders, []sections.Loader{history.Loader()}},
		{enums.SectionFavorites, []sections.Loader{wishlist.Loader(gw, store)}},
		{enums.SectionAddresses, []sections.Loader{address.Loader(gw, store)}},
		{enums.SectionProfile, []sections.Loader{profile.Loader(gw, store)}},
	}
	for _, reg := range registrations {
		if err := coord.Register(reg.section, reg.loaders...); err != nil {
			return nil, fmt.Errorf("register %s: %w", reg.section, err)
		}
	}

	cartManager, err := cart.NewManager(cart.ManagerParams{
		Gateway:   gw,
		Store:     store,
		Sections:  coord,
		Scheduler: sched,
		Notifier:  params.Notifier,
		Logger:    logg,
		Metrics:   metrics.NewCartMetrics(params.Registerer),
		Debounce:  params.CartDebounce,
	})
	if err != nil {
		return nil, fmt.Errorf("cart: %w", err)
	}
	workflow, err := checkout.NewWorkflow(checkout.WorkflowParams{
		Gateway:  gw,
		Store:    store,
		Sections: coord,
		Notifier: params.Notifier,
		Logger:   logg,
		Metrics:  metrics.NewCheckoutMetrics(params.Registerer),
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{
		Gateway: gw, Store: store, Sections: coord, Notifier: params.Notifier, Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("wishlist: %w", err)
	}
	addressSvc, err := address.NewService(address.ServiceParams{
		Gateway: gw, Sections: coord, Notifier: params.Notifier, Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	profileSvc, err := profile.NewService(profile.ServiceParams{
		Gateway: gw, Sections: coord, Notifier: params.Notifier, Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	pollerSvc, err := poller.NewService(poller.ServiceParams{
		Logger:   logg,
		Registry: poller.NewRegistry(poller.NewOrdersRefreshJob(coord)),
		Metrics:  metrics.NewPollJobMetrics(params.Registerer),
		Interval: params.PollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("poller: %w", err)
	}

	return &App{
		Store:     store,
		Sections:  coord,
		Cart:      cartManager,
		Checkout:  workflow,
		Catalog:   catalog,
		Orders:    history,
		Wishlist:  wishlistSvc,
		Addresses: addressSvc,
		Profile:   profileSvc,
		Poller:    pollerSvc,
		logg:      logg,
	}, nil
}

// Navigate moves to section, loading it when needed. It reports false when another
// navigation load holds the gate.
func (a *App) Navigate(ctx context.Context, section enums.Section) (bool, error) {
	return a.Sections.Navigate(ctx, section)
}

// OpenCheckout pushes pending quantity changes to the server before opening checkout, so the
// session groups sellers from a reconciled cart. A failed flush still opens on the
// rolled-back cart.
func (a *App) OpenCheckout(ctx context.Context) error {
	if err := a.Cart.Flush(ctx); err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "checkout.open.flush_failed")
	}
	return a.Checkout.Open()
}
