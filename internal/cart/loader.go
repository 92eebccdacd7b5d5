package cart

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
)

// Loader replaces the cart read model with the server's cart.
func Loader(gw gateway.CartGateway, store *readmodel.Store) sections.Loader {
	return sections.LoaderFunc("cart", func(ctx context.Context) error {
		cart, err := gw.GetCart(ctx)
		if err != nil {
			return err
		}
		store.SetCart(cart)
		return nil
	})
}
