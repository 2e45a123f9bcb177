package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coffeepos/internal/models"
)

// CloseDayTx performs the daily closing ritual atomically: verify no closing
// exists for the date, snapshot the day's aggregates, insert the closing row
// and stamp closed_at on every one of the day's transactions, all inside one
// database transaction. The unique date column backstops the existence check
// under concurrent requests.
//
// Aggregates count every transaction created on the date regardless of
// status; refunded transactions stay in the snapshot. A day with zero
// transactions still closes with a 0/0 row.
func (s *Store) CloseDayTx(ctx context.Context, userID int64, now time.Time) (*models.DailyClosing, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	day := dateOf(now)

	var exists bool
	err = tx.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM daily_closings WHERE date = $1::date)", day)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing closing: %w", err)
	}
	if exists {
		return nil, ErrDayAlreadyClosed
	}

	var closing models.DailyClosing
	query := `
		INSERT INTO daily_closings (date, closed_at, total_sales, total_transactions, user_id)
		SELECT $1::date, $2,
			COALESCE(SUM(total), 0),
			COUNT(*),
			$3
		FROM transactions
		WHERE created_at::date = $1::date
		RETURNING *`
	if err := tx.GetContext(ctx, &closing, query, day, now, userID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDayAlreadyClosed
		}
		return nil, fmt.Errorf("failed to create daily closing: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE transactions SET closed_at = $1, updated_at = NOW() WHERE created_at::date = $2::date",
		now, day)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp closed transactions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &closing, nil
}

// GetClosingByDate retrieves the closing for a calendar date if one exists
func (s *Store) GetClosingByDate(ctx context.Context, day time.Time) (*models.DailyClosing, error) {
	var closing models.DailyClosing
	err := s.db.GetContext(ctx, &closing,
		"SELECT * FROM daily_closings WHERE date = $1::date", dateOf(day))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &closing, nil
}

// GetClosings retrieves closings newest first
func (s *Store) GetClosings(ctx context.Context, limit int) ([]models.DailyClosing, error) {
	if limit <= 0 {
		limit = 30
	}
	var closings []models.DailyClosing
	err := s.db.SelectContext(ctx, &closings,
		"SELECT * FROM daily_closings ORDER BY date DESC LIMIT $1", limit)
	return closings, err
}
