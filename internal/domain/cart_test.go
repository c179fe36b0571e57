package domain

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAdd_MergesSameKey(t *testing.T) {
	var c Cart
	now := time.Now()
	require.NoError(t, c.Add(NewLineKey("p1", ""), 2, now))
	require.NoError(t, c.Add(NewLineKey("p2", ""), 1, now))
	require.NoError(t, c.Add(NewLineKey("p1", ""), 3, now))
	require.NoError(t, c.Add(NewLineKey("p1", "blue"), 1, now))

	require.Len(t, c.Lines, 3)
	assert.Equal(t, "p1", c.Lines[0].ProductID)
	assert.Equal(t, 5, c.Lines[0].Quantity)
	assert.Equal(t, "p2", c.Lines[1].ProductID)
	assert.Equal(t, "blue", c.Lines[2].Variant)
}

func TestCartAdd_RejectsNonPositiveQuantity(t *testing.T) {
	var c Cart
	err := c.Add(NewLineKey("p1", ""), 0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.True(t, c.IsEmpty())
}

func TestCartSetQuantity(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(NewLineKey("p1", ""), 2, time.Now()))

	require.NoError(t, c.SetQuantity(NewLineKey("p1", ""), 7))
	assert.Equal(t, 7, c.Lines[0].Quantity)

	err := c.SetQuantity(NewLineKey("missing", ""), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.SetQuantity(NewLineKey("p1", ""), 0))
	assert.True(t, c.IsEmpty())
}

func TestCartRemove_AbsentIsNoop(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(NewLineKey("p1", ""), 1, time.Now()))
	c.Remove(NewLineKey("p2", ""))
	c.Remove(NewLineKey("p1", "red"))
	assert.Len(t, c.Lines, 1)
}

func TestCartItems_ReturnsCopy(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(NewLineKey("p1", ""), 1, time.Now()))
	items := c.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestCartAdd_RejectsQuantityOverflow(t *testing.T) {
	var c Cart
	now := time.Now()
	key := NewLineKey("p1", "")

	assert.ErrorIs(t, c.Add(key, math.MaxInt, now), ErrInvalidArgument)
	assert.Empty(t, c.Lines)

	require.NoError(t, c.Add(key, MaxLineQuantity, now))
	assert.ErrorIs(t, c.Add(key, 1, now), ErrInvalidArgument)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, MaxLineQuantity, c.Lines[0].Quantity)

	require.NoError(t, c.SetQuantity(key, 5))
	require.NoError(t, c.Add(key, MaxLineQuantity-5, now))
	assert.Equal(t, MaxLineQuantity, c.Lines[0].Quantity)
}

func TestCartSetQuantity_RejectsAboveMax(t *testing.T) {
	var c Cart
	key := NewLineKey("p1", "")
	require.NoError(t, c.Add(key, 2, time.Now()))

	assert.ErrorIs(t, c.SetQuantity(key, MaxLineQuantity+1), ErrInvalidArgument)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	require.NoError(t, c.SetQuantity(key, MaxLineQuantity))
	assert.Equal(t, MaxLineQuantity, c.Lines[0].Quantity)
}

func TestNewLineKey_Trims(t *testing.T) {
	assert.Equal(t, NewLineKey("p1", "blue"), NewLineKey(" p1 ", " blue"))
}

func TestPriceLines(t *testing.T) {
	c := Cart{Lines: []CartLine{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Variant: "red", Quantity: 1},
		{ProductID: "p1", Variant: "blue", Quantity: 1},
	}}
	assert.Equal(t, []string{"p1", "p2"}, c.ProductIDs())

	products := map[string]Product{
		"p1": {ID: "p1", Name: "Mug", Price: decimal.RequireFromString("10.00")},
		"p2": {ID: "p2", Name: "Vase", Price: decimal.RequireFromString("60.00")},
	}
	priced, err := PriceLines(c.Lines, products)
	require.NoError(t, err)
	require.Len(t, priced, 3)
	assert.Equal(t, "Vase", priced[1].Name)
	assert.Equal(t, "red", priced[1].Variant)
	assert.True(t, priced[2].UnitPrice.Equal(decimal.RequireFromString("10")))

	delete(products, "p2")
	_, err = PriceLines(c.Lines, products)
	assert.ErrorIs(t, err, ErrNotFound)
}
