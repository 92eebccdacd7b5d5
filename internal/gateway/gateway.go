// Package gateway describes the remote storefront API the orchestration core consumes
// and provides an HTTP client for it.
package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
)

// Gateway is the full remote contract. Every call either succeeds or returns a
// *pkgerrors.Error carrying the server's message and, when present, the offending field.
type Gateway interface {
	ProductGateway
	CartGateway
	FavoriteGateway
	AddressGateway
	OrderGateway
	ProfileGateway
}

type ProductGateway interface {
	ListProducts(ctx context.Context, query ProductQuery) ([]models.Product, error)
}

type CartGateway interface {
	GetCart(ctx context.Context) (models.Cart, error)
	AddCartLine(ctx context.Context, input AddCartLineInput) error
	SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	RemoveLine(ctx context.Context, lineID uuid.UUID) error
}

type FavoriteGateway interface {
	ListFavorites(ctx context.Context) ([]models.Favorite, error)
	AddFavorite(ctx context.Context, productID uuid.UUID) error
	RemoveFavorite(ctx context.Context, productID uuid.UUID) error
}

type AddressGateway interface {
	ListAddresses(ctx context.Context) ([]models.Address, error)
	AddAddress(ctx context.Context, input AddressInput) (models.Address, error)
	UpdateAddress(ctx context.Context, id uuid.UUID, input AddressInput) (models.Address, error)
	DeleteAddress(ctx context.Context, id uuid.UUID) error
}

type OrderGateway interface {
	ListOrders(ctx context.Context, page, perPage int) (models.OrdersPage, error)
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error)
	SubmitReview(ctx context.Context, input ReviewInput) error
}

type ProfileGateway interface {
	GetProfile(ctx context.Context) (models.Profile, error)
	UpdateProfile(ctx context.Context, input ProfileInput) (models.Profile, error)
}

// ProductQuery filters the shop listing.
type ProductQuery struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Page     int    `json:"page,omitempty"`
	PerPage  int    `json:"per_page,omitempty"`
}

type AddCartLineInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

type AddressInput struct {
	Label      string  `json:"label,omitempty" validate:"max=40"`
	Recipient  string  `json:"recipient" validate:"required,max=120"`
	Phone      string  `json:"phone,omitempty" validate:"omitempty,e164"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=120"`
	State      string  `json:"state" validate:"required,max=120"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,len=2"`
	IsDefault  bool    `json:"is_default"`
}

type ProfileInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type ReviewInput struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	ItemID  uuid.UUID `json:"item_id" validate:"required"`
	Rating  int       `json:"rating" validate:"min=1,max=5"`
	Comment string    `json:"comment,omitempty" validate:"max=2000"`
}

// Attachment is an image captured on the device (transfer proof or identity verification).
type Attachment struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type" validate:"required"`
	Data        []byte `json:"data" validate:"required"`
}

// PlaceOrderRequest is the single atomic checkout submission.
type PlaceOrderRequest struct {
	Cart                models.Cart              `json:"cart"`
	AddressID           uuid.UUID                `json:"address_id" validate:"required"`
	PaymentMethod       enums.PaymentMethod      `json:"payment_method" validate:"required,oneof=cash_on_delivery direct_transfer"`
	ProofsBySeller      map[uuid.UUID]Attachment `json:"proofs_by_seller,omitempty" validate:"dive"`
	Verification        Attachment               `json:"verification"`
	SpecialInstructions string                   `json:"special_instructions,omitempty" validate:"max=500"`
}

// PlaceOrderResult lists the orders the server created, one per seller.
type PlaceOrderResult struct {
	OrderIDs []uuid.UUID `json:"order_ids"`
}
