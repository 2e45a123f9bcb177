package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coffeepos/internal/models"
	"coffeepos/internal/pricing"
	"coffeepos/internal/redisclient"
	"coffeepos/internal/store"
	"coffeepos/internal/util"
)

// CatalogService manages products, categories and the composed menu
type CatalogService struct {
	store    *store.Store
	redis    *redisclient.Client
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store, redis *redisclient.Client, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		store:    store,
		redis:    redis,
		logger:   util.GetLogger(),
		cacheTTL: cacheTTL,
	}
}

// MenuVariant is a variant as presented on the order-taking screen
type MenuVariant struct {
	ID            int64              `json:"id"`
	Type          models.VariantType `json:"type"`
	Name          string             `json:"name"`
	PriceModifier decimal.Decimal    `json:"priceModifier"`
}

// MenuItem is a product as presented on the order-taking screen, with the
// display base price already derived
type MenuItem struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	Description  string          `json:"description"`
	Available    bool            `json:"available"`
	Variants     []MenuVariant   `json:"variants,omitempty"`
}

// GetMenu returns the active menu, served from the Redis cache when fresh
func (cs *CatalogService) GetMenu(ctx context.Context) ([]MenuItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetMenu")
	defer span.End()

	if payload, hit, err := cs.redis.GetMenu(ctx); err != nil {
		cs.logger.Warn("Menu cache read failed, composing from database", zap.Error(err))
	} else if hit {
		var menu []MenuItem
		if err := json.Unmarshal(payload, &menu); err == nil {
			util.MenuCacheHitsTotal.Inc()
			return menu, nil
		}
		cs.logger.Warn("Corrupt menu cache entry, recomposing", zap.Error(err))
	}
	util.MenuCacheMissesTotal.Inc()

	products, err := cs.store.GetProducts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load active products: %w", err)
	}

	menu := composeMenu(products)

	if payload, err := json.Marshal(menu); err == nil {
		if err := cs.redis.SetMenu(ctx, payload, cs.cacheTTL); err != nil {
			cs.logger.Warn("Failed to cache menu", zap.Error(err))
		}
	}

	return menu, nil
}

// ListProducts returns the full catalog for the admin screen, inactive
// products included
func (cs *CatalogService) ListProducts(ctx context.Context) ([]MenuItem, error) {
	products, err := cs.store.GetProducts(ctx, false)
	if err != nil {
		return nil, err
	}
	return composeMenu(products), nil
}

// composeMenu maps products to menu items with derived display base prices
func composeMenu(products []models.Product) []MenuItem {
	menu := make([]MenuItem, 0, len(products))
	for _, p := range products {
		item := MenuItem{
			ID:           p.ID,
			Name:         p.Name,
			CategoryID:   p.CategoryID,
			CategoryName: p.CategoryName,
			BasePrice:    pricing.DisplayBasePrice(p.BasePrice, p.Variants),
			Description:  p.Description.String,
			Available:    p.Status,
		}
		for _, v := range p.Variants {
			item.Variants = append(item.Variants, MenuVariant{
				ID:            v.ID,
				Type:          v.Type,
				Name:          v.Name,
				PriceModifier: v.AdditionalPrice,
			})
		}
		menu = append(menu, item)
	}
	return menu
}

// GetCategories lists all categories
func (cs *CatalogService) GetCategories(ctx context.Context) ([]models.Category, error) {
	return cs.store.GetCategories(ctx)
}

// VariantRequest is one variant definition on a product create/update
type VariantRequest struct {
	ID              int64           `json:"id"`
	Type            string          `json:"type"`
	Name            string          `json:"name"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

// ProductRequest is the payload for product create/update
type ProductRequest struct {
	Name         string           `json:"name"`
	CategoryName string           `json:"category_name"`
	BasePrice    decimal.Decimal  `json:"base_price"`
	Description  string           `json:"description"`
	Available    *bool            `json:"available"`
	Variants     []VariantRequest `json:"variants"`
}

func (req *ProductRequest) validate() map[string]string {
	fields := make(map[string]string)
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if req.CategoryName == "" {
		fields["category_name"] = "category name is required"
	}
	if req.BasePrice.IsNegative() {
		fields["base_price"] = "base price must not be negative"
	}
	for i, v := range req.Variants {
		if v.Name == "" {
			fields[fmt.Sprintf("variants.%d.name", i)] = "variant name is required"
		}
		if !models.VariantType(v.Type).Valid() {
			fields[fmt.Sprintf("variants.%d.type", i)] = "unknown variant type"
		}
		if v.AdditionalPrice.IsNegative() {
			fields[fmt.Sprintf("variants.%d.additional_price", i)] = "additional price must not be negative"
		}
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

func (req *ProductRequest) variants() []models.ProductVariant {
	variants := make([]models.ProductVariant, len(req.Variants))
	for i, v := range req.Variants {
		variants[i] = models.ProductVariant{
			ID:              v.ID,
			Type:            models.VariantType(v.Type),
			Name:            v.Name,
			AdditionalPrice: v.AdditionalPrice,
		}
	}
	return variants
}

// CreateProduct validates and persists a new product with its variants,
// creating the category on demand
func (cs *CatalogService) CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if fields := req.validate(); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	category, err := cs.store.GetOrCreateCategory(ctx, req.CategoryName)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:  category.ID,
		Name:        req.Name,
		Status:      true,
		Description: sql.NullString{String: req.Description, Valid: req.Description != ""},
		BasePrice:   req.BasePrice,
	}
	if req.Available != nil {
		product.Status = *req.Available
	}

	if err := cs.store.CreateProductTx(ctx, product, req.variants()); err != nil {
		return nil, err
	}
	product.CategoryName = category.Name

	cs.invalidateMenu(ctx)
	cs.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("product_code", product.ProductCode))
	return product, nil
}

// UpdateProduct validates and persists product changes, reconciling variants
func (cs *CatalogService) UpdateProduct(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	fields := req.validate()
	if req.Available == nil {
		if fields == nil {
			fields = make(map[string]string)
		}
		fields["available"] = "available is required"
	}
	if fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	category, err := cs.store.GetOrCreateCategory(ctx, req.CategoryName)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          id,
		CategoryID:  category.ID,
		Name:        req.Name,
		Status:      *req.Available,
		Description: sql.NullString{String: req.Description, Valid: req.Description != ""},
		BasePrice:   req.BasePrice,
	}

	if err := cs.store.UpdateProductTx(ctx, product, req.variants()); err != nil {
		return nil, err
	}
	product.CategoryName = category.Name

	cs.invalidateMenu(ctx)
	cs.logger.Info("Product updated", zap.Int64("product_id", id))
	return product, nil
}

// DeleteProduct removes a product and its variants
func (cs *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	if err := cs.store.DeleteProduct(ctx, id); err != nil {
		return err
	}

	cs.invalidateMenu(ctx)
	cs.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (cs *CatalogService) invalidateMenu(ctx context.Context) {
	if err := cs.redis.InvalidateMenu(ctx); err != nil {
		cs.logger.Warn("Failed to invalidate menu cache", zap.Error(err))
	}
}
