package readmodel

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
)

func TestAdjustLineQuantity(t *testing.T) {
	store := NewStore()
	lineID := uuid.New()
	store.SetCart(models.Cart{Lines: []models.CartLine{{LineID: lineID, Quantity: 2}}})

	if target, ok := store.AdjustLineQuantity(lineID, 3); !ok || target != 5 {
		t.Fatalf("expected target 5, got %d (ok=%v)", target, ok)
	}
	if target, ok := store.AdjustLineQuantity(lineID, -5); !ok || target != 0 {
		t.Fatalf("expected target 0, got %d (ok=%v)", target, ok)
	}
	if _, ok := store.AdjustLineQuantity(uuid.New(), 1); ok {
		t.Fatalf("expected unknown line to be refused")
	}
	line, _ := store.Line(lineID)
	if line.Quantity != 5 {
		t.Fatalf("expected non-positive target to leave quantity 5, got %d", line.Quantity)
	}
}

func TestAdjustLineQuantityConcurrentDeltas(t *testing.T) {
	store := NewStore()
	lineID := uuid.New()
	store.SetCart(models.Cart{Lines: []models.CartLine{{LineID: lineID, Quantity: 1}}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.AdjustLineQuantity(lineID, 1)
		}()
	}
	wg.Wait()

	line, _ := store.Line(lineID)
	if line.Quantity != 51 {
		t.Fatalf("expected every delta applied, got %d", line.Quantity)
	}
}

func TestCartIsCopiedOnReadAndWrite(t *testing.T) {
	store := NewStore()
	cart := models.Cart{Lines: []models.CartLine{{LineID: uuid.New(), Quantity: 1}}}
	store.SetCart(cart)
	cart.Lines[0].Quantity = 9

	read := store.Cart()
	if read.Lines[0].Quantity != 1 {
		t.Fatalf("store must not alias caller's slice")
	}
	read.Lines[0].Quantity = 7
	if store.Cart().Lines[0].Quantity != 1 {
		t.Fatalf("store must not alias returned slice")
	}
}

func TestDefaultAddress(t *testing.T) {
	store := NewStore()
	if _, ok := store.DefaultAddress(); ok {
		t.Fatalf("expected no default without addresses")
	}

	only := models.Address{ID: uuid.New()}
	store.SetAddresses([]models.Address{only})
	if got, ok := store.DefaultAddress(); !ok || got.ID != only.ID {
		t.Fatalf("expected single address to be the default")
	}

	flagged := models.Address{ID: uuid.New(), IsDefault: true}
	store.SetAddresses([]models.Address{only, flagged})
	if got, ok := store.DefaultAddress(); !ok || got.ID != flagged.ID {
		t.Fatalf("expected flagged address, got %v", got.ID)
	}
	if _, ok := store.Address(only.ID); !ok {
		t.Fatalf("expected lookup by id")
	}
}

func TestIsFavorite(t *testing.T) {
	store := NewStore()
	productID := uuid.New()
	store.SetFavorites([]models.Favorite{{ID: uuid.New(), ProductID: productID}})
	if !store.IsFavorite(productID) || store.IsFavorite(uuid.New()) {
		t.Fatalf("unexpected favorite lookup result")
	}
}
