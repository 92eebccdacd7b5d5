package wishlist

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway/gatewaytest"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

func TestToggleAddsThenRemoves(t *testing.T) {
	gw := gatewaytest.New()
	store := readmodel.NewStore()
	rec := &notify.Recorder{}
	coord, err := sections.NewCoordinator(sections.Params{Notifier: rec})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	if err := coord.Register(enums.SectionFavorites, Loader(gw, store)); err != nil {
		t.Fatalf("register: %v", err)
	}
	svc, err := NewService(ServiceParams{Gateway: gw, Store: store, Sections: coord, Notifier: rec})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	productID := uuid.New()
	ctx := context.Background()

	added, err := svc.Toggle(ctx, productID)
	if err != nil || !added {
		t.Fatalf("expected add, got added=%v err=%v", added, err)
	}
	if !store.IsFavorite(productID) {
		t.Fatalf("expected reload to populate favorites")
	}

	added, err = svc.Toggle(ctx, productID)
	if err != nil || added {
		t.Fatalf("expected removal, got added=%v err=%v", added, err)
	}
	if store.IsFavorite(productID) {
		t.Fatalf("expected favorite gone after reload")
	}
	if gw.Calls("ListFavorites") != 2 {
		t.Fatalf("expected one reload per mutation, got %d", gw.Calls("ListFavorites"))
	}
}

func TestToggleFailureKeepsState(t *testing.T) {
	gw := gatewaytest.New()
	gw.FavoriteErr = errors.New("unavailable")
	store := readmodel.NewStore()
	rec := &notify.Recorder{}
	coord, _ := sections.NewCoordinator(sections.Params{Notifier: rec})
	_ = coord.Register(enums.SectionFavorites, Loader(gw, store))
	svc, err := NewService(ServiceParams{Gateway: gw, Store: store, Sections: coord, Notifier: rec})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	added, err := svc.Toggle(context.Background(), uuid.New())
	if err == nil || added {
		t.Fatalf("expected failure, got added=%v err=%v", added, err)
	}
	if len(rec.Kinds(enums.NotificationKindError)) != 1 {
		t.Fatalf("expected one error notification")
	}
}
