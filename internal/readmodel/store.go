// Package readmodel holds the shared read models the section loaders populate.
package readmodel

import (
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
)

// Store is the single in-memory copy of server state. Loaders replace each model
// wholesale; the only partial write is AdjustLineQuantity.
type Store struct {
	mu        sync.RWMutex
	cart      models.Cart
	addresses []models.Address
	orders    models.OrdersPage
	products  []models.Product
	favorites []models.Favorite
	profile   models.Profile
}

func NewStore() *Store {
	return &Store{}
}

// Cart returns a copy of the cart.
func (s *Store) Cart() models.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

func (s *Store) SetCart(cart models.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = cart.Clone()
}

func (s *Store) Line(lineID uuid.UUID) (models.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Line(lineID)
}

// AdjustLineQuantity shifts a line's quantity by delta and returns the resulting target.
// The read, the sum and the write happen under one lock. A target below 1 is returned
// but not applied; ok is false when the line is not in the cart.
func (s *Store) AdjustLineQuantity(lineID uuid.UUID, delta int) (target int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cart.Lines {
		if s.cart.Lines[i].LineID != lineID {
			continue
		}
		target = s.cart.Lines[i].Quantity + delta
		if target >= 1 {
			s.cart.Lines[i].Quantity = target
		}
		return target, true
	}
	return 0, false
}

func (s *Store) Addresses() []models.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Address(nil), s.addresses...)
}

func (s *Store) SetAddresses(addresses []models.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses = append([]models.Address(nil), addresses...)
}

func (s *Store) Address(id uuid.UUID) (models.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, addr := range s.addresses {
		if addr.ID == id {
			return addr, true
		}
	}
	return models.Address{}, false
}

// DefaultAddress returns the address flagged default, falling back to the only address when there is one.
func (s *Store) DefaultAddress() (models.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, addr := range s.addresses {
		if addr.IsDefault {
			return addr, true
		}
	}
	if len(s.addresses) == 1 {
		return s.addresses[0], true
	}
	return models.Address{}, false
}

func (s *Store) Orders() models.OrdersPage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page := s.orders
	page.Orders = append([]models.Order(nil), s.orders.Orders...)
	return page
}

func (s *Store) SetOrders(page models.OrdersPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page.Orders = append([]models.Order(nil), page.Orders...)
	s.orders = page
}

func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product(nil), s.products...)
}

func (s *Store) SetProducts(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]models.Product(nil), products...)
}

func (s *Store) Favorites() []models.Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Favorite(nil), s.favorites...)
}

func (s *Store) SetFavorites(favorites []models.Favorite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = append([]models.Favorite(nil), favorites...)
}

// IsFavorite reports whether productID is in the loaded favorites.
func (s *Store) IsFavorite(productID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fav := range s.favorites {
		if fav.ProductID == productID {
			return true
		}
	}
	return false
}

func (s *Store) Profile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *Store) SetProfile(profile models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
}
