// Package address manages the buyer's delivery addresses section.
package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/validation"
)

type Service interface {
	Add(ctx context.Context, input gateway.AddressInput) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, input gateway.AddressInput) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups dependencies for the address service.
type ServiceParams struct {
	Gateway  gateway.AddressGateway
	Sections sections.Reloader
	Notifier notify.Notifier
	Logger   *logger.Logger
}

type service struct {
	gw       gateway.AddressGateway
	sections sections.Reloader
	notifier notify.Notifier
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("address gateway required")
	}
	if params.Sections == nil {
		return nil, fmt.Errorf("section reloader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		gw:       params.Gateway,
		sections: params.Sections,
		notifier: params.Notifier,
		logg:     params.Logger,
	}, nil
}

// Loader replaces the address book read model.
func Loader(gw gateway.AddressGateway, store *readmodel.Store) sections.Loader {
	return sections.LoaderFunc("addresses", func(ctx context.Context) error {
		addresses, err := gw.ListAddresses(ctx)
		if err != nil {
			return err
		}
		store.SetAddresses(addresses)
		return nil
	})
}

// Add validates input locally before it reaches the gateway. Local validation errors
// are returned for inline display and never notified.
func (s *service) Add(ctx context.Context, input gateway.AddressInput) (uuid.UUID, error) {
	input = normalize(input)
	if err := validation.Struct(input); err != nil {
		return uuid.Nil, err
	}
	addr, err := s.gw.AddAddress(ctx, input)
	if err := sections.Settle(ctx, s.sections, s.notifier, s.logg, enums.SectionAddresses, err); err != nil {
		return uuid.Nil, err
	}
	return addr.ID, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input gateway.AddressInput) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required").WithField("id")
	}
	input = normalize(input)
	if err := validation.Struct(input); err != nil {
		return err
	}
	_, err := s.gw.UpdateAddress(ctx, id, input)
	return sections.Settle(ctx, s.sections, s.notifier, s.logg, enums.SectionAddresses, err)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required").WithField("id")
	}
	err := s.gw.DeleteAddress(ctx, id)
	return sections.Settle(ctx, s.sections, s.notifier, s.logg, enums.SectionAddresses, err)
}

func normalize(input gateway.AddressInput) gateway.AddressInput {
	input.Label = strings.TrimSpace(input.Label)
	input.Recipient = strings.TrimSpace(input.Recipient)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Line1 = strings.TrimSpace(input.Line1)
	input.City = strings.TrimSpace(input.City)
	input.State = strings.ToUpper(strings.TrimSpace(input.State))
	input.PostalCode = strings.TrimSpace(input.PostalCode)
	input.Country = strings.ToUpper(strings.TrimSpace(input.Country))
	if input.Line2 != nil {
		line2 := strings.TrimSpace(*input.Line2)
		if line2 == "" {
			input.Line2 = nil
		} else {
			input.Line2 = &line2
		}
	}
	return input
}
