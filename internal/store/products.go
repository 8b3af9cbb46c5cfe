package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/beverage-store/internal/database"
	"github.com/safar/beverage-store/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, price, description, category, stock, image,
	nutrition_calories, nutrition_sugar, nutrition_caffeine, nutrition_serving,
	rating, review_count, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Description,
		&product.Category,
		&product.Stock,
		&product.Image,
		&product.Nutrition.Calories,
		&product.Nutrition.Sugar,
		&product.Nutrition.Caffeine,
		&product.Nutrition.Serving,
		&product.Rating,
		&product.ReviewCount,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Description string
	Category    string
	Stock       int
	Image       string
	Nutrition   models.Nutrition
}

func CreateProduct(ctx context.Context, db *sql.DB, in ProductInput) (*models.Product, error) {
	query := `
		INSERT INTO products (name, price, description, category, stock, image,
			nutrition_calories, nutrition_sugar, nutrition_caffeine, nutrition_serving,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		in.Name, in.Price, in.Description, in.Category, in.Stock, in.Image,
		in.Nutrition.Calories, in.Nutrition.Sugar, in.Nutrition.Caffeine, in.Nutrition.Serving))
	if err != nil {
		if database.IsUniqueViolation(err, "products_name_key") {
			return nil, database.ErrProductExists
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, id int64, in ProductInput) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $1, price = $2, description = $3, category = $4, stock = $5,
		    image = $6, nutrition_calories = $7, nutrition_sugar = $8,
		    nutrition_caffeine = $9, nutrition_serving = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		in.Name, in.Price, in.Description, in.Category, in.Stock, in.Image,
		in.Nutrition.Calories, in.Nutrition.Sugar, in.Nutrition.Caffeine, in.Nutrition.Serving,
		id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		if database.IsUniqueViolation(err, "products_name_key") {
			return nil, database.ErrProductExists
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("delete product: %w", err)
	}

	return product, nil
}

// LockProduct reads a product row under FOR UPDATE NOWAIT so concurrent
// order placements against the same product serialize instead of racing the
// stock check.
func LockProduct(ctx context.Context, tx *sql.Tx, productID int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE NOWAIT`

	product, err := scanProduct(tx.QueryRowContext(ctx, query, productID))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "55P03" {
			return nil, database.ErrLockTimeout
		}
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}

	return product, nil
}

// DecrementStock subtracts quantity from the product's stock, guarded so
// stock never goes negative.
func DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrInsufficientStock
	}

	return nil
}

// RestoreStock returns quantity to the product's stock. Missing products are
// tolerated: a cancelled order may reference a product that was deleted.
func RestoreStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock + $1,
		     updated_at = NOW()
		 WHERE id = $2`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	return nil
}

func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}

// PreviewProduct is the trimmed product shape served to anonymous visitors.
type PreviewProduct struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

func ListPreviewProducts(ctx context.Context, db *sql.DB, limit int) ([]PreviewProduct, error) {
	query := `
		SELECT id, name, price, image, category, description
		FROM products
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list preview products: %w", err)
	}
	defer rows.Close()

	previews := []PreviewProduct{}
	for rows.Next() {
		var p PreviewProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.Category, &p.Description); err != nil {
			return nil, fmt.Errorf("scan preview product: %w", err)
		}
		previews = append(previews, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return previews, nil
}
