package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"coffeepos/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDisplayBasePriceWithSizeVariants(t *testing.T) {
	variants := []models.ProductVariant{
		{Type: models.VariantTypeSize, Name: "Small", AdditionalPrice: dec("0")},
		{Type: models.VariantTypeSize, Name: "Medium", AdditionalPrice: dec("5000")},
		{Type: models.VariantTypeSize, Name: "Large", AdditionalPrice: dec("10000")},
		{Type: models.VariantTypeMilk, Name: "Almond", AdditionalPrice: dec("7000")},
	}

	price := DisplayBasePrice(dec("20000"), variants)
	assert.True(t, dec("20000").Equal(price), "cheapest size (+0) folds into base")

	// cheapest size above zero shifts the display price
	variants[0].AdditionalPrice = dec("2000")
	price = DisplayBasePrice(dec("20000"), variants)
	assert.True(t, dec("22000").Equal(price))
}

func TestDisplayBasePriceWithoutSizeVariants(t *testing.T) {
	variants := []models.ProductVariant{
		{Type: models.VariantTypeMilk, Name: "Soy", AdditionalPrice: dec("5000")},
		{Type: models.VariantTypeSyrup, Name: "Caramel", AdditionalPrice: dec("3000")},
	}

	price := DisplayBasePrice(dec("15000"), variants)
	assert.True(t, dec("15000").Equal(price), "non-size variants never shift the display price")
}

func TestDisplayBasePriceNoVariants(t *testing.T) {
	price := DisplayBasePrice(dec("18000"), nil)
	assert.True(t, dec("18000").Equal(price))
}

func TestLinePrice(t *testing.T) {
	selections := models.VariantSelections{
		{VariantID: 3, Name: "Large", PriceModifier: dec("10000")},
		{VariantID: 4, Name: "Almond", PriceModifier: dec("7000")},
	}

	price := LinePrice(dec("20000"), selections)
	assert.True(t, dec("37000").Equal(price))
}

func TestLinePriceEmptySelection(t *testing.T) {
	price := LinePrice(dec("25000"), nil)
	assert.True(t, dec("25000").Equal(price))
}

func TestComputeTotalsWorkedExample(t *testing.T) {
	// Cappuccino base 20000, Large +10000, Almond +7000, qty 2, 10% discount
	line := LinePrice(dec("20000"), models.VariantSelections{
		{VariantID: 3, Name: "Large", PriceModifier: dec("10000")},
		{VariantID: 4, Name: "Almond", PriceModifier: dec("7000")},
	})
	assert.True(t, dec("37000").Equal(line))

	subtotal := line.Mul(decimal.NewFromInt(2))
	totals := ComputeTotals(subtotal, dec("10"))

	assert.True(t, dec("74000").Equal(totals.Subtotal))
	assert.True(t, dec("7400").Equal(totals.DiscountAmount))
	assert.True(t, dec("66600").Equal(totals.DiscountedSubtotal))
	assert.True(t, dec("6660").Equal(totals.Tax))
	assert.True(t, dec("73260").Equal(totals.Total))
}

func TestComputeTotalsDiscountPresets(t *testing.T) {
	subtotal := dec("100000")

	for _, tc := range []struct {
		pct   string
		total string
	}{
		{"0", "110000"},
		{"10", "99000"},
		{"20", "88000"},
		{"50", "55000"},
	} {
		totals := ComputeTotals(subtotal, dec(tc.pct))
		assert.True(t, dec(tc.total).Equal(totals.Total), "discount %s%%", tc.pct)
	}
}

func TestComputeTotalsZeroSubtotal(t *testing.T) {
	totals := ComputeTotals(decimal.Zero, dec("50"))
	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.Tax.IsZero())
}
