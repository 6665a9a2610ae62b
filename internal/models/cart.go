package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLine represents one aggregated entry in the shopping cart for a single product
type CartLine struct {
	ProductID  string          `json:"id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Image      string          `json:"image,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"` // original product record, passed through untouched
}

// Subtotal returns quantity × unit price for the line
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart represents the ordered list of cart lines. Lines keep first-added order.
type Cart struct {
	Lines []CartLine
}

// MarshalJSON encodes the cart as a bare array of lines
func (c Cart) MarshalJSON() ([]byte, error) {
	lines := c.Lines
	if lines == nil {
		lines = []CartLine{}
	}
	return json.Marshal(lines)
}

// UnmarshalJSON decodes a bare array of lines. Any other shape is rejected.
// Lines without a product id are dropped; the rest of the cart is kept.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var lines []CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != "" {
			kept = append(kept, line)
		}
	}
	if lines == nil {
		kept = nil
	}
	c.Lines = kept
	return nil
}

// Find returns the index of the line for productID, or -1
func (c Cart) Find(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Total returns the sum of all line subtotals
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Clone returns a deep copy of the cart
func (c Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]CartLine, len(c.Lines))
	for i, line := range c.Lines {
		if line.Attributes != nil {
			line.Attributes = append(json.RawMessage(nil), line.Attributes...)
		}
		lines[i] = line
	}
	return Cart{Lines: lines}
}
