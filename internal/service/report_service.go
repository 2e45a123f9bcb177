package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coffeepos/internal/models"
	"coffeepos/internal/redisclient"
	"coffeepos/internal/store"
	"coffeepos/internal/util"
)

// ReportService serves the read-only views: open orders, history, daily
// report and the dashboard. It never writes back.
type ReportService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(store *store.Store, redis *redisclient.Client) *ReportService {
	return &ReportService{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// OrderItemView is one line of a transaction as shown on the terminal
type OrderItemView struct {
	MenuItemID       int64                    `json:"menuItemId"`
	MenuItemName     string                   `json:"menuItemName"`
	Quantity         int                      `json:"quantity"`
	SelectedVariants models.VariantSelections `json:"selectedVariants"`
	FinalPrice       decimal.Decimal          `json:"finalPrice"`
	Subtotal         decimal.Decimal          `json:"subtotal"`
}

// OrderView is a transaction as shown on the terminal and history screens.
// The external id is the transaction code, never the storage id.
type OrderView struct {
	ID                 string                   `json:"id"`
	CustomerName       string                   `json:"customerName"`
	SalesMethod        models.SalesMethod       `json:"salesMethod"`
	Items              []OrderItemView          `json:"items"`
	Subtotal           decimal.Decimal          `json:"subtotal"`
	DiscountPercentage decimal.Decimal          `json:"discountPercentage"`
	DiscountAmount     decimal.Decimal          `json:"discountAmount"`
	Tax                decimal.Decimal          `json:"tax"`
	Total              decimal.Decimal          `json:"total"`
	PaymentMethod      models.PaymentMethod     `json:"paymentMethod"`
	Status             models.TransactionStatus `json:"status"`
	CreatedAt          time.Time                `json:"createdAt"`
}

// NewOrderView maps a persisted transaction to its terminal view. The
// discount percentage is derived back from the stored amounts.
func NewOrderView(trx *models.Transaction) OrderView {
	view := OrderView{
		ID:             trx.TransactionCode,
		CustomerName:   trx.CustomerName.String,
		SalesMethod:    trx.SalesMethod,
		Subtotal:       trx.Subtotal,
		DiscountAmount: trx.Discount,
		Tax:            trx.Tax,
		Total:          trx.Total,
		PaymentMethod:  trx.PaymentMethod,
		Status:         trx.Status,
		CreatedAt:      trx.CreatedAt,
	}
	if view.CustomerName == "" {
		view.CustomerName = "Guest"
	}
	if trx.Subtotal.IsPositive() {
		view.DiscountPercentage = trx.Discount.
			Div(trx.Subtotal).
			Mul(decimal.NewFromInt(100))
	}
	for _, item := range trx.Items {
		view.Items = append(view.Items, OrderItemView{
			MenuItemID:       item.ProductID,
			MenuItemName:     item.ProductName,
			Quantity:         item.Quantity,
			SelectedVariants: item.Variants,
			FinalPrice:       item.Price,
			Subtotal:         item.Subtotal,
		})
	}
	return view
}

func orderViews(trxs []models.Transaction) []OrderView {
	views := make([]OrderView, len(trxs))
	for i := range trxs {
		views[i] = NewOrderView(&trxs[i])
	}
	return views
}

// TodayOpenOrders returns today's not-yet-closed transactions, the running
// order list on the cashier screen
func (rs *ReportService) TodayOpenOrders(ctx context.Context) ([]OrderView, error) {
	trxs, err := rs.store.GetOpenOrders(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	return orderViews(trxs), nil
}

// ListTransactions returns the transaction history between two dates
func (rs *ReportService) ListTransactions(ctx context.Context, from, to time.Time) ([]OrderView, error) {
	trxs, err := rs.store.GetTransactions(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return orderViews(trxs), nil
}

// GetTransaction returns one transaction by its external code
func (rs *ReportService) GetTransaction(ctx context.Context, code string) (*OrderView, error) {
	trx, err := rs.store.GetTransactionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	view := NewOrderView(trx)
	return &view, nil
}

// DailyReport aggregates one day's transactions
type DailyReport struct {
	Date              string                       `json:"date"`
	TotalSales        decimal.Decimal              `json:"total_sales"`
	TotalTransactions int                          `json:"total_transactions"`
	ByPaymentMethod   map[models.PaymentMethod]int `json:"by_payment_method"`
	BySalesMethod     map[models.SalesMethod]int   `json:"by_sales_method"`
	Closing           *models.DailyClosing         `json:"closing,omitempty"`
	Orders            []OrderView                  `json:"orders"`
}

// GetDailyReport builds the report for a calendar date, attaching the
// closing snapshot when the day has been closed
func (rs *ReportService) GetDailyReport(ctx context.Context, day time.Time) (*DailyReport, error) {
	trxs, err := rs.store.GetTransactions(ctx, day, day)
	if err != nil {
		return nil, err
	}

	report := &DailyReport{
		Date:            day.Format("2006-01-02"),
		TotalSales:      decimal.Zero,
		ByPaymentMethod: make(map[models.PaymentMethod]int),
		BySalesMethod:   make(map[models.SalesMethod]int),
		Orders:          orderViews(trxs),
	}
	for i := range trxs {
		report.TotalSales = report.TotalSales.Add(trxs[i].Total)
		report.TotalTransactions++
		report.ByPaymentMethod[trxs[i].PaymentMethod]++
		report.BySalesMethod[trxs[i].SalesMethod]++
	}

	closing, err := rs.store.GetClosingByDate(ctx, day)
	if err == nil {
		report.Closing = closing
	} else if err != store.ErrNotFound {
		return nil, err
	}

	return report, nil
}

// Dashboard is the live summary on the landing screen
type Dashboard struct {
	Date              string          `json:"date"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalTransactions int64           `json:"total_transactions"`
	Live              bool            `json:"live"`
}

// GetDashboard serves today's totals from the live Redis aggregates that
// the report worker maintains, falling back to the database when the cache
// is cold or unavailable
func (rs *ReportService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	now := time.Now()
	day := now.Format("2006-01-02")

	sales, count, err := rs.redis.GetDailySales(ctx, day)
	if err == nil && count > 0 {
		return &Dashboard{Date: day, TotalSales: sales, TotalTransactions: count, Live: true}, nil
	}
	if err != nil {
		rs.logger.Warn("Live aggregates unavailable, falling back to database", zap.Error(err))
	}

	trxs, err := rs.store.GetTransactions(ctx, now, now)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{Date: day, TotalSales: decimal.Zero}
	for i := range trxs {
		dashboard.TotalSales = dashboard.TotalSales.Add(trxs[i].Total)
		dashboard.TotalTransactions++
	}
	return dashboard, nil
}
