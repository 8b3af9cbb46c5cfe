package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/beverage-store/internal/database"
	"github.com/safar/beverage-store/internal/models"
)

// AddToWishlist saves a (user, product) pair. The unique constraint makes a
// duplicate add fail with ErrAlreadyInWishlist rather than a generic error.
func AddToWishlist(ctx context.Context, db *sql.DB, userID, productID int64) (*models.WishlistItem, error) {
	if _, err := GetProduct(ctx, db, productID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO wishlist_items (user_id, product_id, added_at)
		VALUES ($1, $2, NOW())
		RETURNING id, user_id, product_id, added_at`

	item := &models.WishlistItem{}
	err := db.QueryRowContext(ctx, query, userID, productID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.AddedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "wishlist_items_user_product_key") {
			return nil, database.ErrAlreadyInWishlist
		}
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}

	return item, nil
}

func GetWishlistItems(ctx context.Context, db *sql.DB, userID int64) ([]models.WishlistItem, error) {
	query := `
		SELECT w.id, w.user_id, w.product_id, w.added_at,
		       p.name, p.price, p.image, p.description, p.category
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.added_at`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist items: %w", err)
	}
	defer rows.Close()

	items := []models.WishlistItem{}
	for rows.Next() {
		var item models.WishlistItem
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.AddedAt,
			&item.ProductName,
			&item.ProductPrice,
			&item.ProductImage,
			&item.ProductDescription,
			&item.ProductCategory,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func RemoveFromWishlist(ctx context.Context, db *sql.DB, userID, itemID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrWishlistItemNotFound
	}

	return nil
}

func ClearWishlist(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}
