package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/go-shop-admin/internal/database"
	"github.com/safar/go-shop-admin/internal/models"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the buyer-side write. The admin panel never creates
// orders; this exists for the storefront and for seeding tests.
type CreateOrderRequest struct {
	ProductID        string
	Quantity         int
	DeliverToName    string
	DeliverToAddress string
	DeliverToPhone   string
	BuyerID          string
	BuyerName        string
}

func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var sellerID, productName string
		var price decimal.Decimal
		err := tx.QueryRowContext(ctx,
			`SELECT owner_id, name, price FROM products WHERE id = $1`,
			req.ProductID).Scan(&sellerID, &productName, &price)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrProductNotFound
			}
			return fmt.Errorf("load product: %w", err)
		}

		total := price.Mul(decimal.NewFromInt(int64(req.Quantity)))

		order = &models.Order{}
		query := `
			INSERT INTO orders (id, product_id, product_name, quantity, total_price, status,
			                    deliver_to_name, deliver_to_address, deliver_to_phone,
			                    seller_id, buyer_id, buyer_name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
			RETURNING id, product_id, product_name, quantity, total_price, status,
			          deliver_to_name, deliver_to_address, deliver_to_phone,
			          seller_id, buyer_id, buyer_name, created_at, updated_at`

		err = tx.QueryRowContext(ctx, query,
			uuid.New().String(),
			req.ProductID,
			productName,
			req.Quantity,
			total,
			models.OrderStatusPending,
			req.DeliverToName,
			req.DeliverToAddress,
			req.DeliverToPhone,
			sellerID,
			req.BuyerID,
			req.BuyerName,
		).Scan(
			&order.ID,
			&order.ProductID,
			&order.ProductName,
			&order.Quantity,
			&order.TotalPrice,
			&order.Status,
			&order.DeliverToName,
			&order.DeliverToAddress,
			&order.DeliverToPhone,
			&order.SellerID,
			&order.BuyerID,
			&order.BuyerName,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrderForSeller(ctx context.Context, db *sql.DB, id, sellerID string) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, product_id, product_name, quantity, total_price, status,
		       deliver_to_name, deliver_to_address, deliver_to_phone,
		       seller_id, buyer_id, buyer_name, created_at, updated_at
		FROM orders
		WHERE id = $1 AND seller_id = $2`

	err := db.QueryRowContext(ctx, query, id, sellerID).Scan(
		&order.ID,
		&order.ProductID,
		&order.ProductName,
		&order.Quantity,
		&order.TotalPrice,
		&order.Status,
		&order.DeliverToName,
		&order.DeliverToAddress,
		&order.DeliverToPhone,
		&order.SellerID,
		&order.BuyerID,
		&order.BuyerName,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return order, nil
}

// TransitionOrder moves a pending order to delivered or rejected. The write
// is conditional on status = 'pending' so two concurrent attempts cannot
// both win: the second sees zero rows affected and gets ErrOrderNotPending,
// unless it asked for the state the order already reached, which succeeds
// without a write.
func TransitionOrder(ctx context.Context, db *sql.DB, orderID, sellerID, target string) (*models.Order, error) {
	if !models.TerminalOrderStatus(target) {
		return nil, database.ErrInvalidTransition
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, updated_at = NOW()
			 WHERE id = $2
			   AND seller_id = $3
			   AND status = $4`,
			target, orderID, sellerID, models.OrderStatusPending)
		if err != nil {
			return fmt.Errorf("transition order: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			var status string
			err := tx.QueryRowContext(ctx,
				`SELECT status FROM orders WHERE id = $1 AND seller_id = $2`,
				orderID, sellerID).Scan(&status)
			if err != nil {
				if err == sql.ErrNoRows {
					return database.ErrOrderNotFound
				}
				return fmt.Errorf("check order status: %w", err)
			}
			if status != target {
				return database.ErrOrderNotPending
			}
		}

		order = &models.Order{}
		err = tx.QueryRowContext(ctx,
			`SELECT id, product_id, product_name, quantity, total_price, status,
			        deliver_to_name, deliver_to_address, deliver_to_phone,
			        seller_id, buyer_id, buyer_name, created_at, updated_at
			 FROM orders
			 WHERE id = $1 AND seller_id = $2`,
			orderID, sellerID).Scan(
			&order.ID,
			&order.ProductID,
			&order.ProductName,
			&order.Quantity,
			&order.TotalPrice,
			&order.Status,
			&order.DeliverToName,
			&order.DeliverToAddress,
			&order.DeliverToPhone,
			&order.SellerID,
			&order.BuyerID,
			&order.BuyerName,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("fetch transitioned order: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func ListOrdersBySeller(ctx context.Context, db *sql.DB, sellerID, cursor string, limit int) (*CursorPage, error) {
	cursorData, hasCursor, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	var rows *sql.Rows
	if hasCursor {
		rows, err = db.QueryContext(ctx, `
			SELECT id, product_id, product_name, quantity, total_price, status,
			       deliver_to_name, deliver_to_address, deliver_to_phone,
			       seller_id, buyer_id, buyer_name, created_at, updated_at
			FROM orders
			WHERE seller_id = $1
			  AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`,
			sellerID, cursorData.CreatedAt, cursorData.ID, limit+1)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT id, product_id, product_name, quantity, total_price, status,
			       deliver_to_name, deliver_to_address, deliver_to_phone,
			       seller_id, buyer_id, buyer_name, created_at, updated_at
			FROM orders
			WHERE seller_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`,
			sellerID, limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListOrdersByProduct backs the product-detail view. Still seller-scoped:
// the product filter alone would leak cross-tenant orders.
func ListOrdersByProduct(ctx context.Context, db *sql.DB, productID, sellerID string) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, product_id, product_name, quantity, total_price, status,
		       deliver_to_name, deliver_to_address, deliver_to_phone,
		       seller_id, buyer_id, buyer_name, created_at, updated_at
		FROM orders
		WHERE product_id = $1 AND seller_id = $2
		ORDER BY created_at DESC`,
		productID, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list orders by product: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.ProductID,
			&order.ProductName,
			&order.Quantity,
			&order.TotalPrice,
			&order.Status,
			&order.DeliverToName,
			&order.DeliverToAddress,
			&order.DeliverToPhone,
			&order.SellerID,
			&order.BuyerID,
			&order.BuyerName,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}
