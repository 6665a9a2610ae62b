package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_JSONShape(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{ProductID: "p2", Name: "Hammer", UnitPrice: decimal.NewFromInt(15), Quantity: 1},
		{ProductID: "p1", Name: "Nails", UnitPrice: decimal.RequireFromString("0.25"), Quantity: 40},
	}}

	data, err := json.Marshal(cart)
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0], "cart is stored as a bare array")

	var decoded Cart
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Lines, 2)
	assert.Equal(t, "p2", decoded.Lines[0].ProductID)
	assert.Equal(t, "p1", decoded.Lines[1].ProductID)
	assert.True(t, decoded.Total().Equal(decimal.NewFromInt(25)))
}

func TestCart_EmptyMarshalsAsArray(t *testing.T) {
	data, err := json.Marshal(Cart{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestCart_UnmarshalRejectsOtherShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "object", input: `{"lines":[]}`},
		{name: "string", input: `"cart"`},
		{name: "array of numbers", input: `[1,2,3]`},
		{name: "truncated", input: `[{"id":"p1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cart Cart
			assert.Error(t, json.Unmarshal([]byte(tt.input), &cart))
		})
	}
}

func TestCart_UnmarshalDropsLinesWithoutID(t *testing.T) {
	input := `[{"id":"p1","price":"100","quantity":2},{"name":"Mystery","price":"5","quantity":1},{"id":"p2","price":"10","quantity":1}]`

	var cart Cart
	require.NoError(t, json.Unmarshal([]byte(input), &cart))

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, "p1", cart.Lines[0].ProductID)
	assert.Equal(t, "p2", cart.Lines[1].ProductID)
	assert.True(t, cart.Total().Equal(decimal.NewFromInt(210)))
}

func TestCart_FindAndClone(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{ProductID: "a", Quantity: 1, Attributes: json.RawMessage(`{"sku":"A-1"}`)},
		{ProductID: "b", Quantity: 2},
	}}

	assert.Equal(t, 1, cart.Find("b"))
	assert.Equal(t, -1, cart.Find("z"))

	clone := cart.Clone()
	clone.Lines[0].Quantity = 99
	clone.Lines[0].Attributes[2] = 'X'
	assert.Equal(t, 1, cart.Lines[0].Quantity)
	assert.JSONEq(t, `{"sku":"A-1"}`, string(cart.Lines[0].Attributes))
}

func TestProduct_KeepsRawRecord(t *testing.T) {
	input := `{"id":"drill-9","name":"Cordless drill","price":"129.90","voltage":"18V","brand":"Acme"}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(input), &p))
	assert.Equal(t, "drill-9", p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("129.90")))
	assert.JSONEq(t, input, string(p.Raw))

	line := p.Line(2)
	assert.Equal(t, "drill-9", line.ProductID)
	assert.Equal(t, 2, line.Quantity)
	assert.JSONEq(t, input, string(line.Attributes))
	assert.True(t, line.Subtotal().Equal(decimal.RequireFromString("259.80")))
}
