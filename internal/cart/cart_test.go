package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeepos/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var cappuccino = MenuItem{
	ID:        1,
	Name:      "Cappuccino",
	BasePrice: dec("20000"),
	Variants: []models.ProductVariant{
		{ID: 1, Type: models.VariantTypeSize, Name: "Small", AdditionalPrice: dec("0")},
		{ID: 2, Type: models.VariantTypeSize, Name: "Medium", AdditionalPrice: dec("5000")},
		{ID: 3, Type: models.VariantTypeSize, Name: "Large", AdditionalPrice: dec("10000")},
		{ID: 4, Type: models.VariantTypeMilk, Name: "Almond", AdditionalPrice: dec("7000")},
	},
}

var tehTarik = MenuItem{
	ID:        3,
	Name:      "Teh Tarik",
	BasePrice: dec("15000"),
}

func largeAlmond() models.VariantSelections {
	return models.VariantSelections{
		{VariantID: 3, Name: "Large", PriceModifier: dec("10000")},
		{VariantID: 4, Name: "Almond", PriceModifier: dec("7000")},
	}
}

func TestAddSameItemSameSelectionMergesLines(t *testing.T) {
	c := Cart{}
	c = c.Apply(AddItem{Item: cappuccino, Selections: largeAlmond()})
	c = c.Apply(AddItem{Item: cappuccino, Selections: largeAlmond()})

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.True(t, dec("37000").Equal(c.Lines[0].FinalPrice))
}

func TestAddSameItemDifferentSelectionKeepsSeparateLines(t *testing.T) {
	c := Cart{}
	c = c.Apply(AddItem{Item: cappuccino, Selections: largeAlmond()})
	c = c.Apply(AddItem{Item: cappuccino, Selections: models.VariantSelections{
		{VariantID: 2, Name: "Medium", PriceModifier: dec("5000")},
	}})

	assert.Len(t, c.Lines, 2)
}

func TestLineKeyIgnoresSelectionOrder(t *testing.T) {
	a := models.VariantSelections{
		{VariantID: 3, Name: "Large", PriceModifier: dec("10000")},
		{VariantID: 4, Name: "Almond", PriceModifier: dec("7000")},
	}
	b := models.VariantSelections{
		{VariantID: 4, Name: "Almond", PriceModifier: dec("7000")},
		{VariantID: 3, Name: "Large", PriceModifier: dec("10000")},
	}

	assert.Equal(t, LineKey(1, a), LineKey(1, b))
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	c := Cart{}
	c = c.Apply(AddItem{Item: tehTarik})
	key := c.Lines[0].Key

	c = c.Apply(SetQuantity{Key: key, Quantity: 0})
	assert.True(t, c.Empty())
}

func TestRemoveLineByKey(t *testing.T) {
	c := Cart{}
	c = c.Apply(AddItem{Item: cappuccino, Selections: largeAlmond()})
	c = c.Apply(AddItem{Item: tehTarik})
	require.Len(t, c.Lines, 2)

	c = c.Apply(RemoveLine{Key: LineKey(cappuccino.ID, largeAlmond())})
	require.Len(t, c.Lines, 1)
	assert.Equal(t, tehTarik.ID, c.Lines[0].MenuItemID)
}

func TestItemWithoutVariantsAddsAtBasePrice(t *testing.T) {
	c := Cart{}
	c = c.Apply(AddItem{Item: tehTarik})

	require.Len(t, c.Lines, 1)
	assert.True(t, dec("15000").Equal(c.Lines[0].FinalPrice))
	assert.Empty(t, c.Lines[0].Selections)
}

func TestTotalsWorkedExample(t *testing.T) {
	c := Cart{}
	c = c.Apply(AddItem{Item: cappuccino, Selections: largeAlmond()})
	c = c.Apply(AddItem{Item: cappuccino, Selections: largeAlmond()})
	c = c.Apply(ApplyDiscount{Percentage: dec("10")})

	totals := c.Totals()
	assert.True(t, dec("74000").Equal(totals.Subtotal))
	assert.True(t, dec("7400").Equal(totals.DiscountAmount))
	assert.True(t, dec("6660").Equal(totals.Tax))
	assert.True(t, dec("73260").Equal(totals.Total))
}

func TestResetClearsEverything(t *testing.T) {
	c := Cart{}
	c = c.Apply(SetCustomer{Name: "Budi", Method: models.SalesMethodDineIn})
	c = c.Apply(AddItem{Item: tehTarik})
	c = c.Apply(ApplyDiscount{Percentage: dec("20")})
	c = c.Apply(SetNotes{Notes: "less sugar"})

	c = c.Apply(Reset{})
	assert.True(t, c.Empty())
	assert.Empty(t, c.CustomerName)
	assert.Empty(t, c.Notes)
	assert.True(t, c.DiscountPercentage.IsZero())
}

func TestToggleReplacesSameTypeVariant(t *testing.T) {
	catalog := cappuccino.Variants

	sel := models.VariantSelections{}
	sel = Toggle(sel, catalog[2], catalog) // Large
	sel = Toggle(sel, catalog[3], catalog) // Almond
	require.Len(t, sel, 2)

	// picking Medium evicts Large, keeps Almond
	sel = Toggle(sel, catalog[1], catalog)
	require.Len(t, sel, 2)

	names := []string{sel[0].Name, sel[1].Name}
	assert.Contains(t, names, "Medium")
	assert.Contains(t, names, "Almond")
	assert.NotContains(t, names, "Large")
}

func TestToggleSameVariantTwiceRemovesIt(t *testing.T) {
	catalog := cappuccino.Variants

	sel := Toggle(nil, catalog[2], catalog)
	require.Len(t, sel, 1)

	sel = Toggle(sel, catalog[2], catalog)
	assert.Empty(t, sel)
}

func TestTogglePriceReflectsSingleTypeModifier(t *testing.T) {
	catalog := cappuccino.Variants

	sel := Toggle(nil, catalog[2], catalog) // Large +10000
	sel = Toggle(sel, catalog[1], catalog)  // replaced by Medium +5000

	c := Cart{}.Apply(AddItem{Item: cappuccino, Selections: sel})
	assert.True(t, dec("25000").Equal(c.Lines[0].FinalPrice))
}

func TestStepTransitions(t *testing.T) {
	assert.True(t, CanTransition(StepCreateBill, StepCustomerInfo))
	assert.True(t, CanTransition(StepCreateBill, StepDailyReport))
	assert.True(t, CanTransition(StepMenuSelection, StepMenuSelection), "menu selection loops on itself")
	assert.True(t, CanTransition(StepPayment, StepMenuSelection), "payment can return to the menu")
	assert.True(t, CanTransition(StepConfirmation, StepCreateBill))

	assert.False(t, CanTransition(StepCreateBill, StepPayment))
	assert.False(t, CanTransition(StepDailyReport, StepPayment))
	assert.False(t, CanTransition(StepConfirmation, StepMenuSelection))
}
