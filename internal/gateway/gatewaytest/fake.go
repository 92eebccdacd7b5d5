// Package gatewaytest provides an in-memory gateway for exercising the orchestration core.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
)

var _ gateway.Gateway = (*Fake)(nil)

// Fake is a scriptable gateway. Every *Err field, when set, is returned by the matching call.
// Calls are counted per operation name.
type Fake struct {
	mu sync.Mutex

	Cart       models.Cart
	Products   []models.Product
	Favorites  []models.Favorite
	Addresses  []models.Address
	OrdersPage models.OrdersPage
	Profile    models.Profile

	GetCartErr       error
	SetQuantityErr   error
	RemoveLineErr    error
	AddCartLineErr   error
	ListProductsErr  error
	ListFavoritesErr error
	FavoriteErr      error
	ListAddressesErr error
	AddressErr       error
	ListOrdersErr    error
	PlaceOrderErr    error
	ReviewErr        error
	ProfileErr       error

	// Block, when non-nil, is received from before any call returns. Tests use it to hold calls in flight.
	Block chan struct{}

	calls         map[string]int
	SetQuantities []QuantityCall
	Placed        []gateway.PlaceOrderRequest
	LastQuery     gateway.ProductQuery
	LastPage      [2]int
}

// QuantityCall records one SetQuantity invocation.
type QuantityCall struct {
	LineID   uuid.UUID
	Quantity int
}

func New() *Fake {
	return &Fake{calls: map[string]int{}}
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// SetCart replaces the server-side cart.
func (f *Fake) SetCart(cart models.Cart) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cart = cart.Clone()
}

// Quantities returns the recorded SetQuantity calls.
func (f *Fake) Quantities() []QuantityCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]QuantityCall, len(f.SetQuantities))
	copy(out, f.SetQuantities)
	return out
}

// PlacedOrders returns the recorded PlaceOrder requests.
func (f *Fake) PlacedOrders() []gateway.PlaceOrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]gateway.PlaceOrderRequest, len(f.Placed))
	copy(out, f.Placed)
	return out
}

func (f *Fake) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
	block := f.Block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *Fake) ListProducts(ctx context.Context, query gateway.ProductQuery) ([]models.Product, error) {
	if err := f.enter(ctx, "ListProducts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastQuery = query
	if f.ListProductsErr != nil {
		return nil, f.ListProductsErr
	}
	return append([]models.Product(nil), f.Products...), nil
}

func (f *Fake) GetCart(ctx context.Context) (models.Cart, error) {
	if err := f.enter(ctx, "GetCart"); err != nil {
		return models.Cart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetCartErr != nil {
		return models.Cart{}, f.GetCartErr
	}
	return f.Cart.Clone(), nil
}

func (f *Fake) AddCartLine(ctx context.Context, input gateway.AddCartLineInput) error {
	if err := f.enter(ctx, "AddCartLine"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.AddCartLineErr
}

func (f *Fake) SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	if err := f.enter(ctx, "SetQuantity"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetQuantities = append(f.SetQuantities, QuantityCall{LineID: lineID, Quantity: quantity})
	if f.SetQuantityErr != nil {
		return f.SetQuantityErr
	}
	for i := range f.Cart.Lines {
		if f.Cart.Lines[i].LineID == lineID {
			f.Cart.Lines[i].Quantity = quantity
		}
	}
	return nil
}

func (f *Fake) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	if err := f.enter(ctx, "RemoveLine"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RemoveLineErr != nil {
		return f.RemoveLineErr
	}
	kept := f.Cart.Lines[:0]
	for _, line := range f.Cart.Lines {
		if line.LineID != lineID {
			kept = append(kept, line)
		}
	}
	f.Cart.Lines = kept
	return nil
}

func (f *Fake) ListFavorites(ctx context.Context) ([]models.Favorite, error) {
	if err := f.enter(ctx, "ListFavorites"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListFavoritesErr != nil {
		return nil, f.ListFavoritesErr
	}
	return append([]models.Favorite(nil), f.Favorites...), nil
}

func (f *Fake) AddFavorite(ctx context.Context, productID uuid.UUID) error {
	if err := f.enter(ctx, "AddFavorite"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FavoriteErr != nil {
		return f.FavoriteErr
	}
	f.Favorites = append(f.Favorites, models.Favorite{ID: uuid.New(), ProductID: productID})
	return nil
}

func (f *Fake) RemoveFavorite(ctx context.Context, productID uuid.UUID) error {
	if err := f.enter(ctx, "RemoveFavorite"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FavoriteErr != nil {
		return f.FavoriteErr
	}
	kept := f.Favorites[:0]
	for _, fav := range f.Favorites {
		if fav.ProductID != productID {
			kept = append(kept, fav)
		}
	}
	f.Favorites = kept
	return nil
}

func (f *Fake) ListAddresses(ctx context.Context) ([]models.Address, error) {
	if err := f.enter(ctx, "ListAddresses"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListAddressesErr != nil {
		return nil, f.ListAddressesErr
	}
	return append([]models.Address(nil), f.Addresses...), nil
}

func (f *Fake) AddAddress(ctx context.Context, input gateway.AddressInput) (models.Address, error) {
	if err := f.enter(ctx, "AddAddress"); err != nil {
		return models.Address{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddressErr != nil {
		return models.Address{}, f.AddressErr
	}
	addr := addressFromInput(uuid.New(), input)
	f.Addresses = append(f.Addresses, addr)
	return addr, nil
}

func (f *Fake) UpdateAddress(ctx context.Context, id uuid.UUID, input gateway.AddressInput) (models.Address, error) {
	if err := f.enter(ctx, "UpdateAddress"); err != nil {
		return models.Address{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddressErr != nil {
		return models.Address{}, f.AddressErr
	}
	addr := addressFromInput(id, input)
	for i := range f.Addresses {
		if f.Addresses[i].ID == id {
			f.Addresses[i] = addr
		}
	}
	return addr, nil
}

func (f *Fake) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	if err := f.enter(ctx, "DeleteAddress"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddressErr != nil {
		return f.AddressErr
	}
	kept := f.Addresses[:0]
	for _, addr := range f.Addresses {
		if addr.ID != id {
			kept = append(kept, addr)
		}
	}
	f.Addresses = kept
	return nil
}

func (f *Fake) ListOrders(ctx context.Context, page, perPage int) (models.OrdersPage, error) {
	if err := f.enter(ctx, "ListOrders"); err != nil {
		return models.OrdersPage{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastPage = [2]int{page, perPage}
	if f.ListOrdersErr != nil {
		return models.OrdersPage{}, f.ListOrdersErr
	}
	return f.OrdersPage, nil
}

func (f *Fake) PlaceOrder(ctx context.Context, req gateway.PlaceOrderRequest) (gateway.PlaceOrderResult, error) {
	if err := f.enter(ctx, "PlaceOrder"); err != nil {
		return gateway.PlaceOrderResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Placed = append(f.Placed, req)
	if f.PlaceOrderErr != nil {
		return gateway.PlaceOrderResult{}, f.PlaceOrderErr
	}
	return gateway.PlaceOrderResult{OrderIDs: []uuid.UUID{uuid.New()}}, nil
}

func (f *Fake) SubmitReview(ctx context.Context, input gateway.ReviewInput) error {
	if err := f.enter(ctx, "SubmitReview"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ReviewErr
}

func (f *Fake) GetProfile(ctx context.Context) (models.Profile, error) {
	if err := f.enter(ctx, "GetProfile"); err != nil {
		return models.Profile{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ProfileErr != nil {
		return models.Profile{}, f.ProfileErr
	}
	return f.Profile, nil
}

func (f *Fake) UpdateProfile(ctx context.Context, input gateway.ProfileInput) (models.Profile, error) {
	if err := f.enter(ctx, "UpdateProfile"); err != nil {
		return models.Profile{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ProfileErr != nil {
		return models.Profile{}, f.ProfileErr
	}
	f.Profile.Name = input.Name
	f.Profile.Email = input.Email
	f.Profile.Phone = input.Phone
	return f.Profile, nil
}

func addressFromInput(id uuid.UUID, input gateway.AddressInput) models.Address {
	return models.Address{
		ID:         id,
		Label:      input.Label,
		Recipient:  input.Recipient,
		Phone:      input.Phone,
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		IsDefault:  input.IsDefault,
	}
}
