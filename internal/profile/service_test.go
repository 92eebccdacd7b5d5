package profile

import (
	"context"
	"testing"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/gateway/gatewaytest"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

func TestUpdateReloadsProfile(t *testing.T) {
	gw := gatewaytest.New()
	store := readmodel.NewStore()
	rec := &notify.Recorder{}
	coord, err := sections.NewCoordinator(sections.Params{Notifier: rec})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	if err := coord.Register(enums.SectionProfile, Loader(gw, store)); err != nil {
		t.Fatalf("register: %v", err)
	}
	svc, err := NewService(ServiceParams{Gateway: gw, Sections: coord, Notifier: rec})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	err = svc.Update(context.Background(), gateway.ProfileInput{Name: " Ada ", Email: " ADA@Example.com "})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	profile := store.Profile()
	if profile.Name != "Ada" || profile.Email != "ada@example.com" {
		t.Fatalf("unexpected reloaded profile %+v", profile)
	}
	if gw.Calls("GetProfile") != 1 {
		t.Fatalf("expected exactly one reload, got %d", gw.Calls("GetProfile"))
	}
}

func TestUpdateRejectsInvalidEmail(t *testing.T) {
	gw := gatewaytest.New()
	svc, err := NewService(ServiceParams{Gateway: gw, Sections: &noopReloader{}, Notifier: &notify.Recorder{}})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	err = svc.Update(context.Background(), gateway.ProfileInput{Name: "Ada", Email: "nope"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Field() != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}
	if gw.Calls("UpdateProfile") != 0 {
		t.Fatalf("gateway must not be called")
	}
}

type noopReloader struct{}

func (noopReloader) Reload(context.Context, enums.Section) (bool, error) { return true, nil }
