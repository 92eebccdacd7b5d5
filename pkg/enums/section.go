package enums

import "fmt"

// Section identifies a screen section with its own data-loading lifecycle.
type Section string

const (
	SectionShop      Section = "shop"
	SectionCart      Section = "cart"
	SectionOrders    Section = "orders"
	SectionFavorites Section = "favorites"
	SectionAddresses Section = "addresses"
	SectionProfile   Section = "profile"
)

var validSections = []Section{
	SectionShop,
	SectionCart,
	SectionOrders,
	SectionFavorites,
	SectionAddresses,
	SectionProfile,
}

// String implements fmt.Stringer.
func (v Section) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Section.
func (v Section) IsValid() bool {
	for _, candidate := range validSections {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSection converts raw input into a Section.
func ParseSection(value string) (Section, error) {
	for _, candidate := range validSections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid section %q", value)
}
