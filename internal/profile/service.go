// Package profile manages the signed-in user's profile section.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/validation"
)

type ServiceParams struct {
	Gateway  gateway.ProfileGateway
	Sections sections.Reloader
	Notifier notify.Notifier
	Logger   *logger.Logger
}

type Service struct {
	gw       gateway.ProfileGateway
	sections sections.Reloader
	notifier notify.Notifier
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("profile gateway required")
	}
	if params.Sections == nil {
		return nil, fmt.Errorf("section reloader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Service{
		gw:       params.Gateway,
		sections: params.Sections,
		notifier: params.Notifier,
		logg:     params.Logger,
	}, nil
}

func Loader(gw gateway.ProfileGateway, store *readmodel.Store) sections.Loader {
	return sections.LoaderFunc("profile", func(ctx context.Context) error {
		profile, err := gw.GetProfile(ctx)
		if err != nil {
			return err
		}
		store.SetProfile(profile)
		return nil
	})
}

// Update validates input locally, then saves it and reloads the profile section.
func (s *Service) Update(ctx context.Context, input gateway.ProfileInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	if err := validation.Struct(input); err != nil {
		return err
	}
	_, err := s.gw.UpdateProfile(ctx, input)
	return sections.Settle(ctx, s.sections, s.notifier, s.logg, enums.SectionProfile, err)
}
