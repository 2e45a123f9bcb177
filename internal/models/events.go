package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeTransactionRecorded = "TRANSACTION_RECORDED"
	EventTypeTransactionRefunded = "TRANSACTION_REFUNDED"
	EventTypeDayClosed           = "DAY_CLOSED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionRecordedEvent published when a checkout is persisted
type TransactionRecordedEvent struct {
	BaseEvent
	TransactionCode string                `json:"transaction_code"`
	SalesMethod     SalesMethod           `json:"sales_method"`
	PaymentMethod   PaymentMethod         `json:"payment_method"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Discount        decimal.Decimal       `json:"discount"`
	Tax             decimal.Decimal       `json:"tax"`
	Total           decimal.Decimal       `json:"total"`
	Items           []TransactionItemData `json:"items"`
}

// TransactionRefundedEvent published when a transaction is refunded
type TransactionRefundedEvent struct {
	BaseEvent
	TransactionCode string          `json:"transaction_code"`
	Total           decimal.Decimal `json:"total"`
	RefundedBy      int64           `json:"refunded_by"`
}

// DayClosedEvent published when the daily closing ritual completes
type DayClosedEvent struct {
	BaseEvent
	Date              string          `json:"date"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalTransactions int             `json:"total_transactions"`
	ClosedBy          int64           `json:"closed_by"`
}

// TransactionItemData represents line data carried on events
type TransactionItemData struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
