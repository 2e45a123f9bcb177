package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coffeepos/internal/broker"
	"coffeepos/internal/models"
	"coffeepos/internal/redisclient"
	"coffeepos/internal/store"
	"coffeepos/internal/util"
)

const closingLockKey = "daily-closing"

// ClosingService performs the end-of-day closing ritual
type ClosingService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
	lockTTL        time.Duration
}

// NewClosingService creates a new closing service
func NewClosingService(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher, lockTTL time.Duration) *ClosingService {
	return &ClosingService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		lockTTL:        lockTTL,
	}
}

// CloseDay snapshots today's sales into a DailyClosing row and stamps every
// one of today's transactions as closed. A Redis lock serializes concurrent
// attempts; the store's single transaction plus the unique date column make
// the operation idempotent per calendar date either way.
func (cs *ClosingService) CloseDay(ctx context.Context, actor models.Actor) (*models.DailyClosing, error) {
	ctx, span := util.StartSpan(ctx, "ClosingService.CloseDay")
	defer span.End()

	locked, err := cs.redis.AcquireLock(ctx, closingLockKey, cs.lockTTL)
	if err != nil {
		cs.logger.Warn("Closing lock unavailable, relying on database guard", zap.Error(err))
	} else if !locked {
		util.DailyClosingsRejectedTotal.Inc()
		return nil, store.ErrDayAlreadyClosed
	} else {
		defer func() {
			if err := cs.redis.ReleaseLock(ctx, closingLockKey); err != nil {
				cs.logger.Warn("Failed to release closing lock", zap.Error(err))
			}
		}()
	}

	closing, err := cs.store.CloseDayTx(ctx, actor.UserID, time.Now())
	if err != nil {
		if err == store.ErrDayAlreadyClosed {
			util.DailyClosingsRejectedTotal.Inc()
			return nil, err
		}
		return nil, fmt.Errorf("failed to close day: %w", err)
	}

	util.DailyClosingsTotal.Inc()
	cs.logger.Info("Day closed",
		zap.String("date", closing.Date.Format("2006-01-02")),
		zap.String("total_sales", closing.TotalSales.String()),
		zap.Int("total_transactions", closing.TotalTransactions),
		zap.Int64("closed_by", actor.UserID))

	event := &models.DayClosedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDayClosed,
			Timestamp: time.Now(),
		},
		Date:              closing.Date.Format("2006-01-02"),
		TotalSales:        closing.TotalSales,
		TotalTransactions: closing.TotalTransactions,
		ClosedBy:          actor.UserID,
	}
	if err := cs.eventPublisher.PublishDayClosed(ctx, event); err != nil {
		cs.logger.Error("Failed to publish DayClosed event", zap.Error(err))
	}

	return closing, nil
}

// GetClosings lists recent closings newest first
func (cs *ClosingService) GetClosings(ctx context.Context, limit int) ([]models.DailyClosing, error) {
	return cs.store.GetClosings(ctx, limit)
}
