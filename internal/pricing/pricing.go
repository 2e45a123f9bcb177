package pricing

import (
	"github.com/shopspring/decimal"

	"coffeepos/internal/models"
)

// TaxRate is the flat tax applied to the discounted subtotal. Not configurable.
var TaxRate = decimal.RequireFromString("0.10")

var oneHundred = decimal.NewFromInt(100)

// DisplayBasePrice derives the menu price shown for a product. Size variants
// are presented as "from X" pricing, so the cheapest size is folded into the
// base; products without a size variant show their raw base price.
func DisplayBasePrice(basePrice decimal.Decimal, variants []models.ProductVariant) decimal.Decimal {
	var minSize decimal.Decimal
	found := false
	for _, v := range variants {
		if v.Type != models.VariantTypeSize {
			continue
		}
		if !found || v.AdditionalPrice.LessThan(minSize) {
			minSize = v.AdditionalPrice
			found = true
		}
	}
	if !found {
		return basePrice
	}
	return basePrice.Add(minSize)
}

// LinePrice is the per-unit price of a cart line: the menu item's display
// base price plus the modifiers of every selected variant.
func LinePrice(displayBase decimal.Decimal, selections models.VariantSelections) decimal.Decimal {
	price := displayBase
	for _, s := range selections {
		price = price.Add(s.PriceModifier)
	}
	return price
}

// Totals holds the aggregate amounts of an order
type Totals struct {
	Subtotal           decimal.Decimal
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal
	DiscountedSubtotal decimal.Decimal
	Tax                decimal.Decimal
	Total              decimal.Decimal
}

// ComputeTotals derives discount, tax and total from a subtotal and a
// discount percentage. The formula is general even though the UI only offers
// 0/10/20/50 presets.
func ComputeTotals(subtotal, discountPct decimal.Decimal) Totals {
	discountAmount := subtotal.Mul(discountPct).Div(oneHundred)
	discounted := subtotal.Sub(discountAmount)
	tax := discounted.Mul(TaxRate)
	return Totals{
		Subtotal:           subtotal,
		DiscountPercentage: discountPct,
		DiscountAmount:     discountAmount,
		DiscountedSubtotal: discounted,
		Tax:                tax,
		Total:              discounted.Add(tax),
	}
}
