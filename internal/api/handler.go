package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"coffeepos/internal/models"
	"coffeepos/internal/service"
	"coffeepos/internal/store"
	"coffeepos/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.CatalogService
	checkout *service.CheckoutService
	closing  *service.ClosingService
	reports  *service.ReportService
	users    *service.UserService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	checkout *service.CheckoutService,
	closing *service.ClosingService,
	reports *service.ReportService,
	users *service.UserService,
) *Handler {
	return &Handler{
		catalog:  catalog,
		checkout: checkout,
		closing:  closing,
		reports:  reports,
		users:    users,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(actorMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/menu", h.getMenu)
		v1.GET("/categories", h.getCategories)

		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)

		v1.POST("/transactions", h.createTransaction)
		v1.GET("/transactions", h.listTransactions)
		v1.GET("/transactions/:code", h.getTransaction)
		v1.PATCH("/transactions/:code/refund", h.refundTransaction)

		v1.GET("/orders/today", h.openOrdersToday)
		v1.POST("/closings/close-day", h.closeDay)
		v1.GET("/closings", h.listClosings)
		v1.GET("/reports/daily", h.dailyReport)
		v1.GET("/dashboard", h.dashboard)

		v1.GET("/users", h.listUsers)
		v1.POST("/users", h.createUser)
		v1.PUT("/users/:id", h.updateUser)
		v1.DELETE("/users/:id", h.deleteUser)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getMenu returns the active menu with derived display prices
func (h *Handler) getMenu(c *gin.Context) {
	menu, err := h.catalog.GetMenu(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menuItems": menu})
}

// getCategories returns all categories
func (h *Handler) getCategories(c *gin.Context) {
	categories, err := h.catalog.GetCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// listProducts returns the full catalog including inactive products
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menuItems": products})
}

// createProduct handles product creation
func (h *Handler) createProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// updateProduct handles product edits including variant reconciliation
func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// deleteProduct handles product deletion
func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// createTransaction handles checkout submissions
func (h *Handler) createTransaction(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	trx, err := h.checkout.RecordTransaction(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":          "Transaction saved",
		"transaction_code": trx.TransactionCode,
		"total":            trx.Total,
	})
}

// listTransactions returns the transaction history for a date range
func (h *Handler) listTransactions(c *gin.Context) {
	now := time.Now()
	from := queryDate(c, "from", now.AddDate(0, -1, 0))
	to := queryDate(c, "to", now)

	views, err := h.reports.ListTransactions(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// getTransaction returns one transaction by its external code
func (h *Handler) getTransaction(c *gin.Context) {
	view, err := h.reports.GetTransaction(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// refundTransaction flips a transaction's status to refunded
func (h *Handler) refundTransaction(c *gin.Context) {
	trx, err := h.checkout.Refund(c.Request.Context(), actorFrom(c), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Transaction refunded successfully",
		"status":  trx.Status,
	})
}

// openOrdersToday returns today's not-yet-closed orders
func (h *Handler) openOrdersToday(c *gin.Context) {
	views, err := h.reports.TodayOpenOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dailySales": views})
}

// closeDay performs the daily closing ritual
func (h *Handler) closeDay(c *gin.Context) {
	closing, err := h.closing.CloseDay(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Closing day saved",
		"closing": closing,
	})
}

// listClosings returns recent daily closings
func (h *Handler) listClosings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	closings, err := h.closing.GetClosings(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"closings": closings})
}

// dailyReport returns the aggregates for one calendar date
func (h *Handler) dailyReport(c *gin.Context) {
	day := queryDate(c, "date", time.Now())
	report, err := h.reports.GetDailyReport(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// dashboard returns today's live totals
func (h *Handler) dashboard(c *gin.Context) {
	dashboard, err := h.reports.GetDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// listUsers returns all staff accounts
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// createUser handles staff account creation
func (h *Handler) createUser(c *gin.Context) {
	var req service.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// updateUser handles staff account edits
func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// deleteUser handles staff account deletion
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// pathID parses the numeric :id path parameter
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

// queryDate parses a YYYY-MM-DD query parameter with a fallback
func queryDate(c *gin.Context, name string, fallback time.Time) time.Time {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return fallback
	}
	return day
}

// respondError maps service and store errors to HTTP responses
func respondError(c *gin.Context, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"errors": ve.Fields})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, store.ErrDuplicateCode):
		c.JSON(http.StatusConflict, gin.H{"error": "Transaction code already exists"})
	case errors.Is(err, store.ErrDayAlreadyClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Closing day already saved"})
	case errors.Is(err, store.ErrDuplicateUser):
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}
}

// actorMiddleware reads the acting user's identity from the request headers.
// Authentication itself lives in front of this service; privileged
// operations re-check the role they need.
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
		c.Set("actor", models.Actor{
			UserID: userID,
			Role:   models.Role(c.GetHeader("X-User-Role")),
		})
		c.Next()
	}
}

// actorFrom retrieves the actor placed by actorMiddleware
func actorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get("actor"); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
