package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/beverage-store/internal/database"
	"github.com/safar/beverage-store/internal/models"
	"github.com/shopspring/decimal"
)

// AddToCart creates a cart line for (user, product) or, when one already
// exists, merges by adding quantity. The price is snapshotted from the
// catalog on first add and kept on merges; the total is recomputed from the
// snapshot either way. Stock is checked against the catalog's current value
// but not reserved; stock only moves at order time.
func AddToCart(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) (*models.CartItem, error) {
	product, err := GetProduct(ctx, db, productID)
	if err != nil {
		return nil, err
	}

	if product.Stock < quantity {
		return nil, &database.InsufficientStockError{
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   quantity,
		}
	}

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, price, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT ON CONSTRAINT cart_items_user_product_key DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity,
		    total_price = cart_items.price * (cart_items.quantity + EXCLUDED.quantity),
		    updated_at = NOW()
		RETURNING id, user_id, product_id, quantity, price, total_price, created_at, updated_at`

	item := &models.CartItem{}
	err = db.QueryRowContext(ctx, query,
		userID, productID, quantity, product.Price,
		product.Price.Mul(decimal.NewFromInt(int64(quantity)))).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.Price,
		&item.TotalPrice,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	return item, nil
}

func GetCartItems(ctx context.Context, db *sql.DB, userID int64) ([]models.CartItem, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.price, c.total_price,
		       c.created_at, c.updated_at, p.name, p.price, p.image
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.TotalPrice,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.ProductName,
			&item.ProductPrice,
			&item.ProductImage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// UpdateCartItem sets an absolute quantity on the caller's own line after
// re-checking the catalog stock.
func UpdateCartItem(ctx context.Context, db *sql.DB, userID, itemID int64, quantity int) (*models.CartItem, error) {
	var productID int64
	err := db.QueryRowContext(ctx,
		`SELECT product_id FROM cart_items WHERE id = $1 AND user_id = $2`,
		itemID, userID).Scan(&productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}

	product, err := GetProduct(ctx, db, productID)
	if err != nil {
		return nil, err
	}

	if product.Stock < quantity {
		return nil, &database.InsufficientStockError{
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   quantity,
		}
	}

	query := `
		UPDATE cart_items
		SET quantity = $1, total_price = price * $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, product_id, quantity, price, total_price, created_at, updated_at`

	item := &models.CartItem{}
	err = db.QueryRowContext(ctx, query, quantity, itemID, userID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.Price,
		&item.TotalPrice,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	return item, nil
}

func RemoveFromCart(ctx context.Context, db *sql.DB, userID, itemID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

func ClearCart(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func clearCartTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
