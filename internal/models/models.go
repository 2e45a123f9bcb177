package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// VariantType groups product variants; selections are mutually exclusive per type
type VariantType string

const (
	VariantTypeSize        VariantType = "size"
	VariantTypeTemperature VariantType = "temperature"
	VariantTypeMilk        VariantType = "milk"
	VariantTypeSyrup       VariantType = "syrup"
	VariantTypeExtra       VariantType = "extra"
)

// Valid reports whether the variant type is one of the known types
func (t VariantType) Valid() bool {
	switch t {
	case VariantTypeSize, VariantTypeTemperature, VariantTypeMilk, VariantTypeSyrup, VariantTypeExtra:
		return true
	}
	return false
}

// SalesMethod is the fulfillment channel for an order
type SalesMethod string

const (
	SalesMethodDineIn         SalesMethod = "dine-in"
	SalesMethodTakeaway       SalesMethod = "takeaway"
	SalesMethodDeliveryGojek  SalesMethod = "delivery-gojek"
	SalesMethodDeliveryGrab   SalesMethod = "delivery-grab"
	SalesMethodDeliveryShopee SalesMethod = "delivery-shopee"
)

func (m SalesMethod) Valid() bool {
	switch m {
	case SalesMethodDineIn, SalesMethodTakeaway, SalesMethodDeliveryGojek,
		SalesMethodDeliveryGrab, SalesMethodDeliveryShopee:
		return true
	}
	return false
}

// PaymentMethod is how the customer settled the bill
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodQRIS     PaymentMethod = "qris"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodQRIS, PaymentMethodTransfer:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a recorded transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusCanceled  TransactionStatus = "canceled"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusConfirmed,
		TransactionStatusCanceled, TransactionStatusRefunded:
		return true
	}
	return false
}

// Role gates catalog, user management and refund operations
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

// UserStatus marks whether a staff account may be used
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// Category is a product grouping, created on demand by name
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a catalog item; deleting it cascades to its variants
type Product struct {
	ID          int64           `db:"id" json:"id"`
	ProductCode string          `db:"product_code" json:"product_code"`
	CategoryID  int64           `db:"category_id" json:"category_id"`
	Name        string          `db:"name" json:"name"`
	Status      bool            `db:"status" json:"status"`
	Description sql.NullString  `db:"description" json:"description"`
	BasePrice   decimal.Decimal `db:"base_price" json:"base_price"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`

	CategoryName string           `db:"category_name" json:"category_name,omitempty"`
	Variants     []ProductVariant `db:"-" json:"variants,omitempty"`
}

// ProductVariant is a named option with an additive price modifier
type ProductVariant struct {
	ID              int64           `db:"id" json:"id"`
	ProductID       int64           `db:"product_id" json:"product_id"`
	Type            VariantType     `db:"type" json:"type"`
	Name            string          `db:"name" json:"name"`
	AdditionalPrice decimal.Decimal `db:"additional_price" json:"additional_price"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// VariantSelection is one chosen variant on a transaction item
type VariantSelection struct {
	VariantID     int64           `json:"variantId"`
	Name          string          `json:"name"`
	PriceModifier decimal.Decimal `json:"priceModifier"`
}

// VariantSelections is stored as a JSON document on transaction_items
type VariantSelections []VariantSelection

// Value implements driver.Valuer
func (v VariantSelections) Value() (driver.Value, error) {
	if v == nil {
		v = VariantSelections{}
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner
func (v *VariantSelections) Scan(src interface{}) error {
	if src == nil {
		*v = VariantSelections{}
		return nil
	}
	var raw []byte
	switch t := src.(type) {
	case []byte:
		raw = t
	case string:
		raw = []byte(t)
	default:
		return fmt.Errorf("unsupported type for variant selections: %T", src)
	}
	return json.Unmarshal(raw, v)
}

// Transaction is a finalized order; transaction_code is the external route key
type Transaction struct {
	ID              int64             `db:"id" json:"id"`
	TransactionCode string            `db:"transaction_code" json:"transaction_code"`
	CustomerName    sql.NullString    `db:"customer_name" json:"customer_name"`
	TransactionDate time.Time         `db:"transaction_date" json:"transaction_date"`
	SalesMethod     SalesMethod       `db:"sales_method" json:"sales_method"`
	PaymentMethod   PaymentMethod     `db:"payment_method" json:"payment_method"`
	Status          TransactionStatus `db:"status" json:"status"`
	Subtotal        decimal.Decimal   `db:"subtotal" json:"subtotal"`
	Discount        decimal.Decimal   `db:"discount" json:"discount"`
	Tax             decimal.Decimal   `db:"tax" json:"tax"`
	Total           decimal.Decimal   `db:"total" json:"total"`
	Notes           sql.NullString    `db:"notes" json:"notes"`
	ClosedAt        sql.NullTime      `db:"closed_at" json:"closed_at"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`

	Items []TransactionItem `db:"-" json:"items,omitempty"`
}

// TransactionItem is one cart line as persisted; immutable after checkout
type TransactionItem struct {
	ID            int64             `db:"id" json:"id"`
	TransactionID int64             `db:"transaction_id" json:"transaction_id"`
	ProductID     int64             `db:"product_id" json:"product_id"`
	Variants      VariantSelections `db:"variants" json:"variants"`
	Quantity      int               `db:"quantity" json:"quantity"`
	Price         decimal.Decimal   `db:"price" json:"price"`
	Subtotal      decimal.Decimal   `db:"subtotal" json:"subtotal"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`

	ProductName string `db:"product_name" json:"product_name,omitempty"`
}

// DailyClosing is the immutable end-of-day snapshot; at most one per date
type DailyClosing struct {
	ID                int64           `db:"id" json:"id"`
	Date              time.Time       `db:"date" json:"date"`
	ClosedAt          time.Time       `db:"closed_at" json:"closed_at"`
	TotalSales        decimal.Decimal `db:"total_sales" json:"total_sales"`
	TotalTransactions int             `db:"total_transactions" json:"total_transactions"`
	UserID            int64           `db:"user_id" json:"user_id"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// User is a staff account
type User struct {
	ID        int64          `db:"id" json:"id"`
	Username  string         `db:"username" json:"username"`
	FullName  string         `db:"full_name" json:"full_name"`
	Email     string         `db:"email" json:"email"`
	Phone     sql.NullString `db:"phone" json:"phone"`
	Role      Role           `db:"role" json:"role"`
	Status    UserStatus     `db:"status" json:"status"`
	Password  string         `db:"password" json:"-"`
	LastLogin sql.NullTime   `db:"last_login" json:"last_login"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// SetPassword hashes and stores the password
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword reports whether the given password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Actor identifies the staff member performing a privileged operation
type Actor struct {
	UserID int64
	Role   Role
}
