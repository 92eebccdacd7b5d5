package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/pagination"
)

// Order is a placed order as listed in the orders section.
type Order struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"number"`
	Status        string              `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	AddressID     uuid.UUID           `json:"address_id"`
	Total         decimal.Decimal     `json:"total"`
	Items         []OrderItem         `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderItem is a line of a placed order.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Reviewed  bool            `json:"reviewed"`
}

// OrdersPage is one page of the buyer's order history.
type OrdersPage struct {
	Orders     []Order               `json:"orders"`
	Pagination pagination.Pagination `json:"pagination"`
}
