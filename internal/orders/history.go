// Package orders pages through the buyer's order history and submits item reviews.
package orders

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
	"github.com/angelmondragon/packfinderz-storefront/pkg/pagination"
	"github.com/angelmondragon/packfinderz-storefront/pkg/validation"
)

type historyGateway interface {
	ListOrders(ctx context.Context, page, perPage int) (models.OrdersPage, error)
	SubmitReview(ctx context.Context, input gateway.ReviewInput) error
}

type sectionControl interface {
	sections.Reloader
	Invalidate(sections ...enums.Section)
}

// HistoryParams groups dependencies for the order history.
type HistoryParams struct {
	Gateway  historyGateway
	Store    *readmodel.Store
	Sections sectionControl
	Notifier notify.Notifier
	Logger   *logger.Logger
	PerPage  int
}

// History tracks the requested page of the orders section.
type History struct {
	gw       historyGateway
	store    *readmodel.Store
	sections sectionControl
	notifier notify.Notifier
	logg     *logger.Logger

	mu     sync.Mutex
	params pagination.Params
}

func NewHistory(params HistoryParams) (*History, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("read model store required")
	}
	if params.Sections == nil {
		return nil, fmt.Errorf("section control required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &History{
		gw:       params.Gateway,
		store:    params.Store,
		sections: params.Sections,
		notifier: params.Notifier,
		logg:     logg,
		params:   pagination.Params{Page: 1, PerPage: params.PerPage}.Normalize(),
	}, nil
}

// Loader fetches the currently requested page.
func (h *History) Loader() sections.Loader {
	return sections.LoaderFunc("orders", func(ctx context.Context) error {
		params := h.Params()
		page, err := h.gw.ListOrders(ctx, params.Page, params.PerPage)
		if err != nil {
			return err
		}
		h.store.SetOrders(page)
		return nil
	})
}

func (h *History) Params() pagination.Params {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.params
}

// Page requests page and reloads the orders section. A reload already in flight keeps
// the section stale so the next navigation fetches the new page.
func (h *History) Page(ctx context.Context, page int) error {
	h.mu.Lock()
	h.params = pagination.Params{Page: page, PerPage: h.params.PerPage}.Normalize()
	h.mu.Unlock()
	return h.refresh(ctx)
}

// NextPage advances when the loaded page reports a successor.
func (h *History) NextPage(ctx context.Context) (bool, error) {
	loaded := h.store.Orders().Pagination
	if !loaded.HasNext() {
		return false, nil
	}
	return true, h.Page(ctx, loaded.Page+1)
}

// PrevPage steps back when the loaded page has a predecessor.
func (h *History) PrevPage(ctx context.Context) (bool, error) {
	loaded := h.store.Orders().Pagination
	if !loaded.HasPrev() {
		return false, nil
	}
	return true, h.Page(ctx, loaded.Page-1)
}

// SetPerPage changes the page size and returns to the first page.
func (h *History) SetPerPage(ctx context.Context, perPage int) error {
	h.mu.Lock()
	h.params = pagination.Params{Page: 1, PerPage: perPage}.Normalize()
	h.mu.Unlock()
	return h.refresh(ctx)
}

// SubmitReview rates a delivered item. Local validation errors are returned without a
// notification; gateway failures are notified.
func (h *History) SubmitReview(ctx context.Context, input gateway.ReviewInput) error {
	input.Comment = strings.TrimSpace(input.Comment)
	if err := validation.Struct(input); err != nil {
		return err
	}
	ctx = h.logg.WithField(ctx, "order_id", input.OrderID.String())
	err := h.gw.SubmitReview(ctx, input)
	return sections.Settle(ctx, h.sections, h.notifier, h.logg, enums.SectionOrders, err)
}

func (h *History) refresh(ctx context.Context) error {
	h.sections.Invalidate(enums.SectionOrders)
	_, err := h.sections.Reload(ctx, enums.SectionOrders)
	return err
}
