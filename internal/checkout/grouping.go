package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
)

// SellerGroup is the part of the cart one seller fulfils. It is always derived from the
// live cart and never stored.
type SellerGroup struct {
	SellerID   uuid.UUID         `json:"seller_id"`
	SellerName string            `json:"seller_name,omitempty"`
	Lines      []models.CartLine `json:"lines"`
	ItemCount  int               `json:"item_count"`
	Total      decimal.Decimal   `json:"total"`
}

// Label names the seller for messages, falling back to the id.
func (g SellerGroup) Label() string {
	if g.SellerName != "" {
		return g.SellerName
	}
	return g.SellerID.String()
}

// GroupBySeller partitions cart lines by seller in first-appearance order.
func GroupBySeller(cart models.Cart) []SellerGroup {
	index := make(map[uuid.UUID]int, len(cart.Lines))
	groups := make([]SellerGroup, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		i, ok := index[line.SellerID]
		if !ok {
			i = len(groups)
			index[line.SellerID] = i
			groups = append(groups, SellerGroup{
				SellerID:   line.SellerID,
				SellerName: line.SellerName,
				Total:      decimal.Zero,
			})
		}
		g := &groups[i]
		g.Lines = append(g.Lines, line)
		g.ItemCount += line.Quantity
		g.Total = g.Total.Add(line.LineTotal())
	}
	return groups
}

// missingProofs returns the groups with no entry in proofs.
func missingProofs(groups []SellerGroup, proofs map[uuid.UUID]Image) []SellerGroup {
	var missing []SellerGroup
	for _, g := range groups {
		if _, ok := proofs[g.SellerID]; !ok {
			missing = append(missing, g)
		}
	}
	return missing
}
