package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one product row of the buyer's cart as returned by the gateway.
// Quantity is always at least 1; a line that would drop to zero is removed instead.
type CartLine struct {
	LineID      uuid.UUID       `json:"line_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	SellerName  string          `json:"seller_name,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the buyer's cart read model.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Clone returns a deep copy so callers can't mutate shared state.
func (c Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// Line looks up a line by id.
func (c Cart) Line(lineID uuid.UUID) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.LineID == lineID {
			return line, true
		}
	}
	return CartLine{}, false
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount sums quantities across lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// SellerIDs returns the distinct sellers present in the cart in first-appearance order.
func (c Cart) SellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Lines))
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, line := range c.Lines {
		if _, ok := seen[line.SellerID]; ok {
			continue
		}
		seen[line.SellerID] = struct{}{}
		ids = append(ids, line.SellerID)
	}
	return ids
}
