package service

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"coffeepos/internal/models"
)

func TestNewOrderViewDerivesDiscountPercentage(t *testing.T) {
	trx := &models.Transaction{
		TransactionCode: "TRX-20250830-101500123",
		SalesMethod:     models.SalesMethodDineIn,
		PaymentMethod:   models.PaymentMethodCash,
		Status:          models.TransactionStatusCompleted,
		Subtotal:        dec("74000"),
		Discount:        dec("7400"),
		Tax:             dec("6660"),
		Total:           dec("73260"),
	}

	view := NewOrderView(trx)
	assert.Equal(t, "TRX-20250830-101500123", view.ID)
	assert.True(t, dec("10").Equal(view.DiscountPercentage))
}

func TestNewOrderViewGuestAndZeroSubtotal(t *testing.T) {
	trx := &models.Transaction{
		TransactionCode: "TRX-20250830-120000000",
		CustomerName:    sql.NullString{},
		Subtotal:        dec("0"),
		Discount:        dec("0"),
	}

	view := NewOrderView(trx)
	assert.Equal(t, "Guest", view.CustomerName)
	assert.True(t, view.DiscountPercentage.IsZero())
}
