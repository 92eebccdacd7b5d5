// Package products holds the shop listing query and add-to-cart.
package products

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/pagination"
	"github.com/angelmondragon/packfinderz-storefront/pkg/validation"
)

type catalogGateway interface {
	gateway.ProductGateway
	AddCartLine(ctx context.Context, input gateway.AddCartLineInput) error
}

// CatalogParams groups dependencies for the catalog.
type CatalogParams struct {
	Gateway  catalogGateway
	Store    *readmodel.Store
	Sections sections.Reloader
	Notifier notify.Notifier
	Logger   *logger.Logger
}

// Catalog owns the current shop query. The shop loader always reads the latest query.
type Catalog struct {
	gw       catalogGateway
	store    *readmodel.Store
	sections sections.Reloader
	notifier notify.Notifier
	logg     *logger.Logger

	mu    sync.Mutex
	query gateway.ProductQuery
}

func NewCatalog(params CatalogParams) (*Catalog, error) {
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product gateway is required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "read model store is required")
	}
	if params.Sections == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "section reloader is required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notifier is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Catalog{
		gw:       params.Gateway,
		store:    params.Store,
		sections: params.Sections,
		notifier: params.Notifier,
		logg:     logg,
		query:    gateway.ProductQuery{Page: 1, PerPage: pagination.DefaultPerPage},
	}, nil
}

// Loader lists products for the current query.
func (c *Catalog) Loader() sections.Loader {
	return sections.LoaderFunc("products", func(ctx context.Context) error {
		list, err := c.gw.ListProducts(ctx, c.Query())
		if err != nil {
			return err
		}
		c.store.SetProducts(list)
		return nil
	})
}

func (c *Catalog) Query() gateway.ProductQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// SetQuery normalizes and stores query without fetching.
func (c *Catalog) SetQuery(query gateway.ProductQuery) {
	query.Search = strings.TrimSpace(query.Search)
	query.Category = strings.TrimSpace(query.Category)
	params := pagination.Params{Page: query.Page, PerPage: query.PerPage}.Normalize()
	query.Page, query.PerPage = params.Page, params.PerPage

	c.mu.Lock()
	c.query = query
	c.mu.Unlock()
}

// Search replaces the text filter, resets to the first page and reloads the shop.
func (c *Catalog) Search(ctx context.Context, text string) error {
	query := c.Query()
	query.Search = text
	query.Page = 1
	c.SetQuery(query)
	_, err := c.sections.Reload(ctx, enums.SectionShop)
	return err
}

// AddToCart adds quantity units of productID and reloads the cart section.
func (c *Catalog) AddToCart(ctx context.Context, productID uuid.UUID, quantity int) error {
	input := gateway.AddCartLineInput{ProductID: productID, Quantity: quantity}
	if err := validation.Struct(input); err != nil {
		return err
	}
	err := c.gw.AddCartLine(ctx, input)
	return sections.Settle(ctx, c.sections, c.notifier, c.logg, enums.SectionCart, err)
}
