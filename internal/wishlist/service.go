// Package wishlist manages the favorites section.
package wishlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Gateway  gateway.FavoriteGateway
	Store    *readmodel.Store
	Sections sections.Reloader
	Notifier notify.Notifier
	Logger   *logger.Logger
}

// Service exposes favorite toggling for the buyer.
type Service interface {
	AddItem(ctx context.Context, productID uuid.UUID) error
	RemoveItem(ctx context.Context, productID uuid.UUID) error
	Toggle(ctx context.Context, productID uuid.UUID) (bool, error)
}

type service struct {
	gw       gateway.FavoriteGateway
	store    *readmodel.Store
	sections sections.Reloader
	notifier notify.Notifier
	logg     *logger.Logger
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorite gateway is required")
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
	return &service{
		gw:       params.Gateway,
		store:    params.Store,
		sections: params.Sections,
		notifier: params.Notifier,
		logg:     params.Logger,
	}, nil
}

// Loader replaces the favorites read model.
func Loader(gw gateway.FavoriteGateway, store *readmodel.Store) sections.Loader {
	return sections.LoaderFunc("favorites", func(ctx context.Context) error {
		favorites, err := gw.ListFavorites(ctx)
		if err != nil {
			return err
		}
		store.SetFavorites(favorites)
		return nil
	})
}

func (s *service) AddItem(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	err := s.gw.AddFavorite(ctx, productID)
	return sections.Settle(ctx, s.sections, s.notifier, s.logg, enums.SectionFavorites, err)
}

func (s *service) RemoveItem(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	err := s.gw.RemoveFavorite(ctx, productID)
	return sections.Settle(ctx, s.sections, s.notifier, s.logg, enums.SectionFavorites, err)
}

// Toggle adds or removes productID based on the loaded favorites and reports whether it
// is a favorite afterwards.
func (s *service) Toggle(ctx context.Context, productID uuid.UUID) (bool, error) {
	if s.store.IsFavorite(productID) {
		if err := s.RemoveItem(ctx, productID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.AddItem(ctx, productID); err != nil {
		return false, err
	}
	return true, nil
}
