package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"coffeepos/internal/models"
)

// GetCategories retrieves all categories
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY name")
	return categories, err
}

// GetOrCreateCategory finds a category by name or creates it
func (s *Store) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE name = $1", name)
	if err == nil {
		return &category, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	query := `
		INSERT INTO categories (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING *`
	if err := s.db.GetContext(ctx, &category, query, name); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// GetProducts retrieves products with their variants, optionally active only
func (s *Store) GetProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	query := `
		SELECT p.*, c.name AS category_name
		FROM products p
		JOIN categories c ON c.id = p.category_id`
	if activeOnly {
		query += " WHERE p.status = true"
	}
	query += " ORDER BY p.id"

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}
	if err := s.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductByID retrieves a product with its variants
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	query := `
		SELECT p.*, c.name AS category_name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`
	err := s.db.GetContext(ctx, &product, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	products := []models.Product{product}
	if err := s.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// GetProductByCode retrieves a product with its variants by product code
func (s *Store) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	query := `
		SELECT p.*, c.name AS category_name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.product_code = $1`
	err := s.db.GetContext(ctx, &product, query, code)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	products := []models.Product{product}
	if err := s.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// GetProductsByIDs retrieves multiple products with variants by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT p.*, c.name AS category_name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	if err := s.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// attachVariants loads the variants of each product in place
func (s *Store) attachVariants(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	index := make(map[int64]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = i
	}

	query, args, err := sqlx.In("SELECT * FROM product_variants WHERE product_id IN (?) ORDER BY id", ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var variants []models.ProductVariant
	if err := s.db.SelectContext(ctx, &variants, query, args...); err != nil {
		return err
	}

	for _, v := range variants {
		i := index[v.ProductID]
		products[i].Variants = append(products[i].Variants, v)
	}
	return nil
}

// CreateProductTx creates a product with its variants in one transaction.
// The product code is generated from the next sequence value as PRD%04d.
func (s *Store) CreateProductTx(ctx context.Context, product *models.Product, variants []models.ProductVariant) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var nextID int64
	if err := tx.GetContext(ctx, &nextID, "SELECT COALESCE(MAX(id), 0) + 1 FROM products"); err != nil {
		return fmt.Errorf("failed to derive product code: %w", err)
	}
	product.ProductCode = fmt.Sprintf("PRD%04d", nextID)

	query := `
		INSERT INTO products (product_code, category_id, name, status, description, base_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	if err := tx.GetContext(ctx, product, query,
		product.ProductCode, product.CategoryID, product.Name,
		product.Status, product.Description, product.BasePrice); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	for i := range variants {
		variants[i].ProductID = product.ID
		if err := s.insertVariant(ctx, tx, &variants[i]); err != nil {
			return err
		}
	}
	product.Variants = variants

	return tx.Commit()
}

// UpdateProductTx updates a product and reconciles its variants: submitted
// variants with an ID are updated, ones without are inserted, and existing
// variants absent from the submission are deleted.
func (s *Store) UpdateProductTx(ctx context.Context, product *models.Product, variants []models.ProductVariant) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE products
		SET name = $1, category_id = $2, base_price = $3, status = $4, description = $5, updated_at = NOW()
		WHERE id = $6`
	res, err := tx.ExecContext(ctx, query,
		product.Name, product.CategoryID, product.BasePrice,
		product.Status, product.Description, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	keep := make([]int64, 0, len(variants))
	for _, v := range variants {
		if v.ID != 0 {
			keep = append(keep, v.ID)
		}
	}

	if len(keep) == 0 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM product_variants WHERE product_id = $1", product.ID); err != nil {
			return fmt.Errorf("failed to prune variants: %w", err)
		}
	} else {
		query, args, err := sqlx.In("DELETE FROM product_variants WHERE product_id = ? AND id NOT IN (?)", product.ID, keep)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to prune variants: %w", err)
		}
	}

	for i := range variants {
		variants[i].ProductID = product.ID
		if variants[i].ID != 0 {
			_, err := tx.ExecContext(ctx, `
				UPDATE product_variants
				SET type = $1, name = $2, additional_price = $3, updated_at = NOW()
				WHERE id = $4 AND product_id = $5`,
				variants[i].Type, variants[i].Name, variants[i].AdditionalPrice,
				variants[i].ID, product.ID)
			if err != nil {
				return fmt.Errorf("failed to update variant: %w", err)
			}
			continue
		}
		if err := s.insertVariant(ctx, tx, &variants[i]); err != nil {
			return err
		}
	}
	product.Variants = variants

	return tx.Commit()
}

func (s *Store) insertVariant(ctx context.Context, tx *sqlx.Tx, variant *models.ProductVariant) error {
	query := `
		INSERT INTO product_variants (product_id, type, name, additional_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	if err := tx.GetContext(ctx, variant, query,
		variant.ProductID, variant.Type, variant.Name, variant.AdditionalPrice); err != nil {
		return fmt.Errorf("failed to create variant: %w", err)
	}
	return nil
}

// DeleteProduct removes a product; its variants cascade at the database level
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
