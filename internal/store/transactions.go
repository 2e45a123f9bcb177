package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"coffeepos/internal/models"
)

// CreateTransactionTx persists a transaction and all its items in one
// database transaction, so a failure can never leave a header without lines.
// Each item's subtotal is recomputed here as price x quantity. A duplicate
// transaction code surfaces as ErrDuplicateCode.
func (s *Store) CreateTransactionTx(ctx context.Context, trx *models.Transaction) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO transactions
			(transaction_code, customer_name, transaction_date, sales_method,
			 payment_method, status, subtotal, discount, tax, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowxContext(ctx, query,
		trx.TransactionCode, trx.CustomerName, trx.TransactionDate, trx.SalesMethod,
		trx.PaymentMethod, trx.Status, trx.Subtotal, trx.Discount, trx.Tax,
		trx.Total, trx.Notes,
	).Scan(&trx.ID, &trx.CreatedAt, &trx.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	itemQuery := `
		INSERT INTO transaction_items (transaction_id, product_id, variants, quantity, price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	for i := range trx.Items {
		item := &trx.Items[i]
		item.TransactionID = trx.ID
		item.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))

		err = tx.QueryRowxContext(ctx, itemQuery,
			item.TransactionID, item.ProductID, item.Variants,
			item.Quantity, item.Price, item.Subtotal,
		).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create transaction item: %w", err)
		}
	}

	return tx.Commit()
}

// GetTransactionByCode retrieves a transaction and its items by the external
// transaction code
func (s *Store) GetTransactionByCode(ctx context.Context, code string) (*models.Transaction, error) {
	var trx models.Transaction
	err := s.db.GetContext(ctx, &trx, "SELECT * FROM transactions WHERE transaction_code = $1", code)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	trxs := []models.Transaction{trx}
	if err := s.attachItems(ctx, trxs); err != nil {
		return nil, err
	}
	return &trxs[0], nil
}

// GetTransactions retrieves transactions between two dates inclusive, newest
// first, with their items
func (s *Store) GetTransactions(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	var trxs []models.Transaction
	query := `
		SELECT * FROM transactions
		WHERE created_at::date BETWEEN $1::date AND $2::date
		ORDER BY created_at DESC`
	if err := s.db.SelectContext(ctx, &trxs, query, dateOf(from), dateOf(to)); err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, trxs); err != nil {
		return nil, err
	}
	return trxs, nil
}

// GetOpenOrders retrieves the given day's not-yet-closed transactions. This
// is the read model behind the cashier's running order list; closing the day
// empties it without deleting history.
func (s *Store) GetOpenOrders(ctx context.Context, day time.Time) ([]models.Transaction, error) {
	var trxs []models.Transaction
	query := `
		SELECT * FROM transactions
		WHERE created_at::date = $1::date AND closed_at IS NULL
		ORDER BY created_at`
	if err := s.db.SelectContext(ctx, &trxs, query, dateOf(day)); err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, trxs); err != nil {
		return nil, err
	}
	return trxs, nil
}

// attachItems loads the items of each transaction in place
func (s *Store) attachItems(ctx context.Context, trxs []models.Transaction) error {
	if len(trxs) == 0 {
		return nil
	}

	ids := make([]int64, len(trxs))
	index := make(map[int64]int, len(trxs))
	for i := range trxs {
		ids[i] = trxs[i].ID
		index[trxs[i].ID] = i
	}

	query, args, err := sqlx.In(`
		SELECT ti.*, COALESCE(p.name, '') AS product_name
		FROM transaction_items ti
		LEFT JOIN products p ON p.id = ti.product_id
		WHERE ti.transaction_id IN (?)
		ORDER BY ti.id`, ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var items []models.TransactionItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return err
	}

	for _, item := range items {
		i := index[item.TransactionID]
		trxs[i].Items = append(trxs[i].Items, item)
	}
	return nil
}

// RefundTransaction flips a transaction's status to refunded. Totals, items
// and any closing snapshot already taken stay untouched.
func (s *Store) RefundTransaction(ctx context.Context, code string) (*models.Transaction, error) {
	var trx models.Transaction
	query := `
		UPDATE transactions
		SET status = $1, updated_at = NOW()
		WHERE transaction_code = $2
		RETURNING *`
	err := s.db.GetContext(ctx, &trx, query, models.TransactionStatusRefunded, code)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

// TransactionCodeExists reports whether a transaction code is already taken
func (s *Store) TransactionCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM transactions WHERE transaction_code = $1)", code)
	return exists, err
}
