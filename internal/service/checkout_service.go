package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coffeepos/internal/broker"
	"coffeepos/internal/models"
	"coffeepos/internal/pricing"
	"coffeepos/internal/redisclient"
	"coffeepos/internal/store"
	"coffeepos/internal/util"
)

// totalEpsilon tolerates rounding drift between client and server arithmetic
var totalEpsilon = decimal.RequireFromString("0.01")

// CheckoutService persists finalized orders as transactions
type CheckoutService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *CheckoutService {
	return &CheckoutService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CheckoutItemRequest is one cart line in a checkout submission
type CheckoutItemRequest struct {
	MenuItemID       int64                    `json:"menuItemId"`
	MenuItemName     string                   `json:"menuItemName"`
	FinalPrice       decimal.Decimal          `json:"finalPrice"`
	Quantity         int                      `json:"quantity"`
	SelectedVariants models.VariantSelections `json:"selectedVariants"`
}

// CheckoutRequest is the serialized order snapshot submitted at checkout.
// The id field carries the client-generated transaction code.
type CheckoutRequest struct {
	Code               string                `json:"id"`
	CustomerName       string                `json:"customerName"`
	SalesMethod        string                `json:"salesMethod"`
	Items              []CheckoutItemRequest `json:"items"`
	Subtotal           decimal.Decimal       `json:"subtotal"`
	DiscountPercentage decimal.Decimal       `json:"discountPercentage"`
	DiscountAmount     decimal.Decimal       `json:"discountAmount"`
	Tax                decimal.Decimal       `json:"tax"`
	Total              decimal.Decimal       `json:"total"`
	PaymentMethod      string                `json:"paymentMethod"`
	Status             string                `json:"status"`
	Notes              string                `json:"notes"`
}

func (req *CheckoutRequest) validate() map[string]string {
	fields := make(map[string]string)
	if !models.SalesMethod(req.SalesMethod).Valid() {
		fields["salesMethod"] = "unknown sales method"
	}
	if !models.PaymentMethod(req.PaymentMethod).Valid() {
		fields["paymentMethod"] = "unknown payment method"
	}
	if !models.TransactionStatus(req.Status).Valid() {
		fields["status"] = "unknown status"
	}
	if len(req.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, item := range req.Items {
		if item.MenuItemID <= 0 {
			fields[fmt.Sprintf("items.%d.menuItemId", i)] = "menu item id is required"
		}
		if item.Quantity < 1 {
			fields[fmt.Sprintf("items.%d.quantity", i)] = "quantity must be at least 1"
		}
		if item.FinalPrice.IsNegative() {
			fields[fmt.Sprintf("items.%d.finalPrice", i)] = "final price must not be negative"
		}
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// RecordTransaction validates a checkout submission, recomputes every amount
// from the catalog as stored now, and persists the transaction with its
// items atomically. Client-submitted totals are cross-checked rather than
// trusted; disagreement beyond a rounding epsilon rejects the request.
func (cs *CheckoutService) RecordTransaction(ctx context.Context, req *CheckoutRequest) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.RecordTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if fields := req.validate(); fields != nil {
		util.TransactionsFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, &ValidationError{Fields: fields}
	}

	products, err := cs.loadProducts(ctx, req.Items)
	if err != nil {
		util.TransactionsFailedTotal.WithLabelValues("unknown_product").Inc()
		return nil, err
	}

	totals, fields := recomputeTotals(req, products)
	if fields != nil {
		util.TransactionsFailedTotal.WithLabelValues("total_mismatch").Inc()
		return nil, &ValidationError{Fields: fields}
	}

	code := req.Code
	if code == "" {
		code = GenerateTransactionCode(time.Now())
	} else {
		exists, err := cs.store.TransactionCodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check transaction code: %w", err)
		}
		if exists {
			util.TransactionsFailedTotal.WithLabelValues("duplicate_code").Inc()
			return nil, store.ErrDuplicateCode
		}
	}

	trx := &models.Transaction{
		TransactionCode: code,
		CustomerName:    sql.NullString{String: req.CustomerName, Valid: req.CustomerName != ""},
		TransactionDate: time.Now(),
		SalesMethod:     models.SalesMethod(req.SalesMethod),
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		Status:          models.TransactionStatus(req.Status),
		Subtotal:        totals.Subtotal,
		Discount:        totals.DiscountAmount,
		Tax:             totals.Tax,
		Total:           totals.Total,
		Notes:           sql.NullString{String: req.Notes, Valid: req.Notes != ""},
	}
	for _, item := range req.Items {
		trx.Items = append(trx.Items, models.TransactionItem{
			ProductID: item.MenuItemID,
			Variants:  item.SelectedVariants,
			Quantity:  item.Quantity,
			Price:     item.FinalPrice,
		})
	}

	if err := cs.store.CreateTransactionTx(ctx, trx); err != nil {
		if err == store.ErrDuplicateCode {
			util.TransactionsFailedTotal.WithLabelValues("duplicate_code").Inc()
			return nil, err
		}
		util.TransactionsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to persist transaction: %w", err)
	}

	util.TransactionsRecordedTotal.Inc()
	cs.logger.Info("Transaction recorded",
		zap.String("transaction_code", trx.TransactionCode),
		zap.String("total", trx.Total.String()))

	cs.publishRecorded(ctx, trx)

	return trx, nil
}

// loadProducts resolves every referenced product with its variants
func (cs *CheckoutService) loadProducts(ctx context.Context, items []CheckoutItemRequest) (map[int64]*models.Product, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if !seen[item.MenuItemID] {
			ids = append(ids, item.MenuItemID)
			seen[item.MenuItemID] = true
		}
	}

	products, err := cs.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(products) != len(ids) {
		return nil, &ValidationError{Fields: map[string]string{"items": "some products not found"}}
	}

	productMap := make(map[int64]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}
	return productMap, nil
}

// recomputeTotals re-prices every line against the catalog and rebuilds the
// order aggregates server-side. Client amounts that drift beyond the epsilon
// come back as field errors.
func recomputeTotals(req *CheckoutRequest, products map[int64]*models.Product) (pricing.Totals, map[string]string) {
	fields := make(map[string]string)
	subtotal := decimal.Zero

	for i, item := range req.Items {
		product := products[item.MenuItemID]
		if product == nil {
			fields[fmt.Sprintf("items.%d.menuItemId", i)] = "product not found"
			continue
		}

		modifiers := make(map[int64]decimal.Decimal, len(product.Variants))
		for _, v := range product.Variants {
			modifiers[v.ID] = v.AdditionalPrice
		}

		expected := pricing.DisplayBasePrice(product.BasePrice, product.Variants)
		ok := true
		for _, sel := range item.SelectedVariants {
			modifier, known := modifiers[sel.VariantID]
			if !known {
				fields[fmt.Sprintf("items.%d.selectedVariants", i)] = "variant does not belong to product"
				ok = false
				break
			}
			expected = expected.Add(modifier)
		}
		if !ok {
			continue
		}

		if expected.Sub(item.FinalPrice).Abs().GreaterThan(totalEpsilon) {
			fields[fmt.Sprintf("items.%d.finalPrice", i)] = fmt.Sprintf(
				"price does not match catalog: expected %s", expected)
			continue
		}

		subtotal = subtotal.Add(expected.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if len(fields) > 0 {
		return pricing.Totals{}, fields
	}

	totals := pricing.ComputeTotals(subtotal, req.DiscountPercentage)

	if totals.Subtotal.Sub(req.Subtotal).Abs().GreaterThan(totalEpsilon) {
		fields["subtotal"] = fmt.Sprintf("subtotal does not match: expected %s", totals.Subtotal)
	}
	if totals.Tax.Sub(req.Tax).Abs().GreaterThan(totalEpsilon) {
		fields["tax"] = fmt.Sprintf("tax does not match: expected %s", totals.Tax)
	}
	if totals.Total.Sub(req.Total).Abs().GreaterThan(totalEpsilon) {
		fields["total"] = fmt.Sprintf("total does not match: expected %s", totals.Total)
	}
	if len(fields) > 0 {
		return pricing.Totals{}, fields
	}

	return totals, nil
}

func (cs *CheckoutService) publishRecorded(ctx context.Context, trx *models.Transaction) {
	event := &models.TransactionRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTransactionRecorded,
			Timestamp: time.Now(),
		},
		TransactionCode: trx.TransactionCode,
		SalesMethod:     trx.SalesMethod,
		PaymentMethod:   trx.PaymentMethod,
		Subtotal:        trx.Subtotal,
		Discount:        trx.Discount,
		Tax:             trx.Tax,
		Total:           trx.Total,
	}
	for _, item := range trx.Items {
		event.Items = append(event.Items, models.TransactionItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	if err := cs.eventPublisher.PublishTransactionRecorded(ctx, event); err != nil {
		cs.logger.Error("Failed to publish TransactionRecorded event", zap.Error(err))
	}
}

// Refund flips a transaction's status to refunded. Requires the admin role;
// the operation changes nothing but the status label.
func (cs *CheckoutService) Refund(ctx context.Context, actor models.Actor, code string) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Refund")
	defer span.End()

	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	trx, err := cs.store.RefundTransaction(ctx, code)
	if err != nil {
		return nil, err
	}

	util.TransactionsRefundedTotal.Inc()
	cs.logger.Info("Transaction refunded",
		zap.String("transaction_code", code),
		zap.Int64("refunded_by", actor.UserID))

	event := &models.TransactionRefundedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTransactionRefunded,
			Timestamp: time.Now(),
		},
		TransactionCode: code,
		Total:           trx.Total,
		RefundedBy:      actor.UserID,
	}
	if err := cs.eventPublisher.PublishTransactionRefunded(ctx, event); err != nil {
		cs.logger.Error("Failed to publish TransactionRefunded event", zap.Error(err))
	}

	return trx, nil
}

// GenerateTransactionCode builds the human-readable fallback code used when
// a submission arrives without one: TRX-YYYYMMDD-hhmmssmmm.
func GenerateTransactionCode(now time.Time) string {
	return fmt.Sprintf("TRX-%s-%s%03d",
		now.Format("20060102"),
		now.Format("150405"),
		now.Nanosecond()/1e6)
}
