package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeepos/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func cappuccinoCatalog() map[int64]*models.Product {
	return map[int64]*models.Product{
		1: {
			ID:        1,
			Name:      "Cappuccino",
			BasePrice: dec("20000"),
			Variants: []models.ProductVariant{
				{ID: 1, Type: models.VariantTypeSize, Name: "Small", AdditionalPrice: dec("0")},
				{ID: 2, Type: models.VariantTypeSize, Name: "Medium", AdditionalPrice: dec("5000")},
				{ID: 3, Type: models.VariantTypeSize, Name: "Large", AdditionalPrice: dec("10000")},
				{ID: 4, Type: models.VariantTypeMilk, Name: "Almond", AdditionalPrice: dec("7000")},
			},
		},
	}
}

func workedExampleRequest() *CheckoutRequest {
	return &CheckoutRequest{
		Code:        "TRX-20250830-101500123",
		SalesMethod: "dine-in",
		Items: []CheckoutItemRequest{
			{
				MenuItemID:   1,
				MenuItemName: "Cappuccino",
				FinalPrice:   dec("37000"),
				Quantity:     2,
				SelectedVariants: models.VariantSelections{
					{VariantID: 3, Name: "Large", PriceModifier: dec("10000")},
					{VariantID: 4, Name: "Almond", PriceModifier: dec("7000")},
				},
			},
		},
		Subtotal:           dec("74000"),
		DiscountPercentage: dec("10"),
		DiscountAmount:     dec("7400"),
		Tax:                dec("6660"),
		Total:              dec("73260"),
		PaymentMethod:      "cash",
		Status:             "completed",
	}
}

func TestRecomputeTotalsWorkedExample(t *testing.T) {
	totals, fields := recomputeTotals(workedExampleRequest(), cappuccinoCatalog())

	require.Nil(t, fields)
	assert.True(t, dec("74000").Equal(totals.Subtotal))
	assert.True(t, dec("7400").Equal(totals.DiscountAmount))
	assert.True(t, dec("6660").Equal(totals.Tax))
	assert.True(t, dec("73260").Equal(totals.Total))
}

func TestRecomputeTotalsRejectsTamperedLinePrice(t *testing.T) {
	req := workedExampleRequest()
	req.Items[0].FinalPrice = dec("17000") // client claims a lower price

	_, fields := recomputeTotals(req, cappuccinoCatalog())
	require.NotNil(t, fields)
	assert.Contains(t, fields, "items.0.finalPrice")
}

func TestRecomputeTotalsRejectsTamperedTotal(t *testing.T) {
	req := workedExampleRequest()
	req.Total = dec("50000")

	_, fields := recomputeTotals(req, cappuccinoCatalog())
	require.NotNil(t, fields)
	assert.Contains(t, fields, "total")
}

func TestRecomputeTotalsUsesCatalogModifiersNotClientOnes(t *testing.T) {
	req := workedExampleRequest()
	// client understates the modifier; the catalog price still governs
	req.Items[0].SelectedVariants[0].PriceModifier = dec("1")

	totals, fields := recomputeTotals(req, cappuccinoCatalog())
	require.Nil(t, fields)
	assert.True(t, dec("73260").Equal(totals.Total))
}

func TestRecomputeTotalsRejectsForeignVariant(t *testing.T) {
	req := workedExampleRequest()
	req.Items[0].SelectedVariants = models.VariantSelections{
		{VariantID: 99, Name: "Oat", PriceModifier: dec("5000")},
	}

	_, fields := recomputeTotals(req, cappuccinoCatalog())
	require.NotNil(t, fields)
	assert.Contains(t, fields, "items.0.selectedVariants")
}

func TestRecomputeTotalsToleratesRoundingDrift(t *testing.T) {
	req := workedExampleRequest()
	req.Tax = dec("6660.004") // within the 0.01 epsilon

	_, fields := recomputeTotals(req, cappuccinoCatalog())
	assert.Nil(t, fields)
}

func TestCheckoutValidation(t *testing.T) {
	req := &CheckoutRequest{
		SalesMethod:   "drone-drop",
		PaymentMethod: "barter",
		Status:        "completed",
		Items: []CheckoutItemRequest{
			{MenuItemID: 0, Quantity: 0, FinalPrice: dec("-5")},
		},
	}

	fields := req.validate()
	require.NotNil(t, fields)
	assert.Contains(t, fields, "salesMethod")
	assert.Contains(t, fields, "paymentMethod")
	assert.Contains(t, fields, "items.0.menuItemId")
	assert.Contains(t, fields, "items.0.quantity")
	assert.Contains(t, fields, "items.0.finalPrice")
}

func TestCheckoutValidationRequiresItems(t *testing.T) {
	req := &CheckoutRequest{
		SalesMethod:   "takeaway",
		PaymentMethod: "qris",
		Status:        "pending",
	}

	fields := req.validate()
	require.NotNil(t, fields)
	assert.Contains(t, fields, "items")
}

func TestGenerateTransactionCode(t *testing.T) {
	at := time.Date(2025, 8, 30, 10, 15, 0, 123_000_000, time.UTC)
	assert.Equal(t, "TRX-20250830-101500123", GenerateTransactionCode(at))
}

func TestRefundRequiresAdmin(t *testing.T) {
	cs := &CheckoutService{}

	_, err := cs.Refund(context.Background(), models.Actor{UserID: 7, Role: models.RoleCashier}, "TRX-X")
	assert.ErrorIs(t, err, ErrForbidden)
}
