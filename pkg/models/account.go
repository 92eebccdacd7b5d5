package models

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

// Address is a delivery address owned by the buyer.
type Address struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"label,omitempty"`
	Recipient  string    `json:"recipient"`
	Phone      string    `json:"phone,omitempty"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"is_default"`
}

// Profile is the signed-in user's account record.
type Profile struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Role      enums.Role `json:"role"`
	AvatarURL string     `json:"avatar_url,omitempty"`
}
