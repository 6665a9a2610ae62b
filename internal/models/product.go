package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue item as returned by the storefront API
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Category string          `json:"category,omitempty"`
	Stock    int             `json:"stock,omitempty"`

	// Raw holds the complete record as received, extra fields included
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the full record in Raw
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Product(decoded)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Line builds a new cart line for the product with the given quantity
func (p Product) Line(quantity int) CartLine {
	return CartLine{
		ProductID:  p.ID,
		Name:       p.Name,
		UnitPrice:  p.Price,
		Quantity:   quantity,
		Image:      p.Image,
		Attributes: p.Raw,
	}
}
