package worker

import (
	"context"
	"log"

	"coffeepos/internal/broker"
	"coffeepos/internal/models"
	"coffeepos/internal/redisclient"
)

// ReportWorker keeps the live daily aggregates in Redis in sync with
// the sales event stream
type ReportWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	redis        *redisclient.Client
}

// NewReportWorker creates a new report worker
func NewReportWorker(
	consumer *broker.Consumer,
	redis *redisclient.Client,
) *ReportWorker {
	w := &ReportWorker{
		consumer: consumer,
		redis:    redis,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnTransactionRecorded(w.handleTransactionRecorded)
	eventHandler.OnDayClosed(w.handleDayClosed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *ReportWorker) Start(ctx context.Context) error {
	log.Println("Starting report worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReportWorker) Stop() error {
	log.Println("Stopping report worker...")
	return w.consumer.Close()
}

func (w *ReportWorker) handleTransactionRecorded(ctx context.Context, event *models.TransactionRecordedEvent) error {
	day := event.Timestamp.Format("2006-01-02")
	if err := w.redis.IncrementDailySales(ctx, day, event.Total); err != nil {
		log.Printf("Failed to update daily sales for %s: %v", day, err)
		return err
	}
	return nil
}

func (w *ReportWorker) handleDayClosed(ctx context.Context, event *models.DayClosedEvent) error {
	if err := w.redis.ResetDailySales(ctx, event.Date); err != nil {
		log.Printf("Failed to reset daily sales for %s: %v", event.Date, err)
		return err
	}
	return nil
}
