package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/go-shop-admin/internal/database"
	"github.com/safar/go-shop-admin/internal/models"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	OwnerID     string
	Name        string
	Category    string
	Price       decimal.Decimal
	Description string
	ImageURLs   []string
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	product := &models.Product{}

	query := `
		INSERT INTO products (id, owner_id, name, category, price, description, image_urls, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, owner_id, name, category, price, description, image_urls, created_at, updated_at`

	err := db.QueryRowContext(ctx, query,
		uuid.New().String(),
		req.OwnerID,
		req.Name,
		req.Category,
		req.Price,
		req.Description,
		pq.Array(req.ImageURLs),
	).Scan(
		&product.ID,
		&product.OwnerID,
		&product.Name,
		&product.Category,
		&product.Price,
		&product.Description,
		pq.Array(&product.ImageURLs),
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

// GetProductForOwner scopes the read by owner_id so one shop owner can never
// load another owner's product.
func GetProductForOwner(ctx context.Context, db *sql.DB, id, ownerID string) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT id, owner_id, name, category, price, description, image_urls, created_at, updated_at
		FROM products
		WHERE id = $1 AND owner_id = $2`

	err := db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&product.ID,
		&product.OwnerID,
		&product.Name,
		&product.Category,
		&product.Price,
		&product.Description,
		pq.Array(&product.ImageURLs),
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func ListProductsByOwner(ctx context.Context, db *sql.DB, ownerID string, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, owner_id, name, category, price, description, image_urls, created_at, updated_at
		FROM products
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(ctx, query, ownerID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID,
			&product.OwnerID,
			&product.Name,
			&product.Category,
			&product.Price,
			&product.Description,
			pq.Array(&product.ImageURLs),
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

type UpdateProductRequest struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	Description string
	ImageURLs   []string
}

// UpdateProduct is last-write-wins; the owner_id guard is the only condition.
func UpdateProduct(ctx context.Context, db *sql.DB, id, ownerID string, req UpdateProductRequest) (*models.Product, error) {
	product := &models.Product{}

	query := `
		UPDATE products
		SET name = $1, category = $2, price = $3, description = $4, image_urls = $5, updated_at = NOW()
		WHERE id = $6 AND owner_id = $7
		RETURNING id, owner_id, name, category, price, description, image_urls, created_at, updated_at`

	err := db.QueryRowContext(ctx, query,
		req.Name,
		req.Category,
		req.Price,
		req.Description,
		pq.Array(req.ImageURLs),
		id,
		ownerID,
	).Scan(
		&product.ID,
		&product.OwnerID,
		&product.Name,
		&product.Category,
		&product.Price,
		&product.Description,
		pq.Array(&product.ImageURLs),
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}
