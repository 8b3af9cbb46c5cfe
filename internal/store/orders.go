package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/beverage-store/internal/database"
	"github.com/safar/beverage-store/internal/models"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	UserID          int64
	CustomerDetails models.CustomerDetails
	Items           []OrderItemRequest
}

// OrderItemRequest carries the client-submitted line. Price is taken as
// given rather than re-read from the catalog, matching the storefront's
// existing contract.
type OrderItemRequest struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

func generateOrderNumber() string {
	return "ORD-" + uuid.NewString()
}

// CategoryLine pairs one validated item's category with its quantity.
type CategoryLine struct {
	Category string
	Quantity int
}

// AggregateCategories folds per-item category lines into an ordered
// aggregate, preserving first-seen category order.
func AggregateCategories(lines []CategoryLine) []models.CategoryQuantity {
	index := make(map[string]int, len(lines))
	aggregate := []models.CategoryQuantity{}

	for _, line := range lines {
		if i, ok := index[line.Category]; ok {
			aggregate[i].Quantity += line.Quantity
			continue
		}
		index[line.Category] = len(aggregate)
		aggregate = append(aggregate, models.CategoryQuantity{
			Category: line.Category,
			Quantity: line.Quantity,
		})
	}

	return aggregate
}

// CreateOrder places an order as one serializable transaction: every product
// row is locked and its stock checked before any decrement, the order with
// its items and category aggregate is persisted, and the user's cart is
// cleared. Any failure rolls the whole thing back, so a rejected item never
// leaves earlier items' stock decremented.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		totalAmount := decimal.Zero
		for _, item := range req.Items {
			totalAmount = totalAmount.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		// Lines naming the same product are merged before the stock check,
		// so a combined over-ask fails up front with the real shortfall.
		type productAsk struct {
			productID int64
			quantity  int
		}
		askIndex := make(map[int64]int, len(req.Items))
		asks := make([]productAsk, 0, len(req.Items))
		for _, item := range req.Items {
			if i, ok := askIndex[item.ProductID]; ok {
				asks[i].quantity += item.Quantity
				continue
			}
			askIndex[item.ProductID] = len(asks)
			asks = append(asks, productAsk{productID: item.ProductID, quantity: item.Quantity})
		}

		lines := make([]CategoryLine, 0, len(asks))
		for _, ask := range asks {
			product, err := LockProduct(ctx, tx, ask.productID)
			if err != nil {
				return err
			}

			if product.Stock < ask.quantity {
				return &database.InsufficientStockError{
					ProductName: product.Name,
					Available:   product.Stock,
					Requested:   ask.quantity,
				}
			}

			lines = append(lines, CategoryLine{Category: product.Category, Quantity: ask.quantity})
		}

		for _, ask := range asks {
			if err := DecrementStock(ctx, tx, ask.productID, ask.quantity); err != nil {
				return err
			}
		}

		orderNumber := generateOrderNumber()
		order = &models.Order{
			OrderNumber:     orderNumber,
			UserID:          &req.UserID,
			CustomerDetails: req.CustomerDetails,
			TotalAmount:     totalAmount,
			Status:          models.OrderStatusPending,
		}

		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_number, user_id, customer_name, customer_location,
				total_amount, status, order_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), NOW())
			 RETURNING id, order_date, created_at, updated_at`,
			orderNumber, req.UserID, req.CustomerDetails.Name, req.CustomerDetails.Location,
			totalAmount, models.OrderStatusPending).Scan(
			&order.ID,
			&order.OrderDate,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range req.Items {
			var itemID int64
			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, price)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id`,
				order.ID, item.ProductID, item.Quantity, item.Price).Scan(&itemID)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}

			order.Items = append(order.Items, models.OrderItem{
				ID:        itemID,
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}

		order.CategoryQuantities = AggregateCategories(lines)
		for i, cq := range order.CategoryQuantities {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO order_categories (order_id, category, quantity, position)
				 VALUES ($1, $2, $3, $4)`,
				order.ID, cq.Category, cq.Quantity, i)
			if err != nil {
				return fmt.Errorf("create order category: %w", err)
			}
		}

		return clearCartTx(ctx, tx, req.UserID)
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

const orderColumns = `id, order_number, user_id, customer_name, customer_location,
	total_amount, status, order_date, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.CustomerDetails.Name,
		&order.CustomerDetails.Location,
		&order.TotalAmount,
		&order.Status,
		&order.OrderDate,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := attachOrderDetails(ctx, db, map[int64]*models.Order{order.ID: order}, []int64{order.ID}); err != nil {
		return nil, err
	}

	return order, nil
}

// attachOrderDetails loads items and category aggregates for the given
// orders in two batched queries rather than one round-trip per order.
func attachOrderDetails(ctx context.Context, db *sql.DB, orderMap map[int64]*models.Order, orderIDs []int64) error {
	itemRows, err := db.QueryContext(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price,
		       COALESCE(p.name, ''), COALESCE(p.image, '')
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.id`, pq.Array(orderIDs))
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.OrderItem
		var productID sql.NullInt64
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&productID,
			&item.Quantity,
			&item.Price,
			&item.ProductName,
			&item.ProductImage,
		)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		item.ProductID = productID.Int64

		order := orderMap[item.OrderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	catRows, err := db.QueryContext(ctx, `
		SELECT order_id, category, quantity
		FROM order_categories
		WHERE order_id = ANY($1)
		ORDER BY order_id, position`, pq.Array(orderIDs))
	if err != nil {
		return fmt.Errorf("get order categories: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var orderID int64
		var cq models.CategoryQuantity
		if err := catRows.Scan(&orderID, &cq.Category, &cq.Quantity); err != nil {
			return fmt.Errorf("scan order category: %w", err)
		}

		order := orderMap[orderID]
		order.CategoryQuantities = append(order.CategoryQuantities, cq)
	}

	if err := catRows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	return nil
}

// ListUserOrders returns one page of a user's order history, newest first,
// with items and category aggregates attached.
func ListUserOrders(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	if len(orders) > 0 {
		orderMap := make(map[int64]*models.Order, len(orders))
		orderIDs := make([]int64, 0, len(orders))
		for _, order := range orders {
			orderMap[order.ID] = order
			orderIDs = append(orderIDs, order.ID)
		}
		if err := attachOrderDetails(ctx, db, orderMap, orderIDs); err != nil {
			return nil, err
		}
	}

	items := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		items = append(items, *order)
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
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListAllOrders returns every order with a user summary, newest first.
func ListAllOrders(ctx context.Context, db *sql.DB) ([]models.Order, error) {
	return listOrdersWithUsers(ctx, db, `
		SELECT o.id, o.order_number, o.user_id, o.customer_name, o.customer_location,
		       o.total_amount, o.status, o.order_date, o.created_at, o.updated_at,
		       COALESCE(u.username, ''), COALESCE(u.email, '')
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC`)
}

func listOrdersWithUsers(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orderMap := make(map[int64]*models.Order)
	var orderIDs []int64

	for rows.Next() {
		order := &models.Order{}
		err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&order.UserID,
			&order.CustomerDetails.Name,
			&order.CustomerDetails.Location,
			&order.TotalAmount,
			&order.Status,
			&order.OrderDate,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.Username,
			&order.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(orderIDs) == 0 {
		return []models.Order{}, nil
	}

	if err := attachOrderDetails(ctx, db, orderMap, orderIDs); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// UserOrderSummary is the admin view of one customer's whole history.
type UserOrderSummary struct {
	Orders              []models.Order  `json:"orders"`
	TotalPurchaseAmount decimal.Decimal `json:"totalPurchaseAmount"`
	Locations           []string        `json:"locations"`
	OrderCount          int             `json:"orderCount"`
}

func GetUserOrderSummary(ctx context.Context, db *sql.DB, userID int64) (*UserOrderSummary, error) {
	orders, err := listOrdersWithUsers(ctx, db, `
		SELECT o.id, o.order_number, o.user_id, o.customer_name, o.customer_location,
		       o.total_amount, o.status, o.order_date, o.created_at, o.updated_at,
		       COALESCE(u.username, ''), COALESCE(u.email, '')
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}

	summary := &UserOrderSummary{
		Orders:              orders,
		TotalPurchaseAmount: decimal.Zero,
		Locations:           []string{},
		OrderCount:          len(orders),
	}

	seen := make(map[string]bool)
	for _, order := range orders {
		summary.TotalPurchaseAmount = summary.TotalPurchaseAmount.Add(order.TotalAmount)
		if !seen[order.CustomerDetails.Location] {
			seen[order.CustomerDetails.Location] = true
			summary.Locations = append(summary.Locations, order.CustomerDetails.Location)
		}
	}

	return summary, nil
}

// UpdateOrderStatus moves an order to a new status. A transition into
// Cancelled restores each item's quantity to its product's stock; an order
// already Cancelled is left alone, so the restock happens exactly once.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, orderID int64, status string) (*models.Order, error) {
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("get order status: %w", err)
		}

		if status == models.OrderStatusCancelled && current != models.OrderStatusCancelled {
			rows, err := tx.QueryContext(ctx,
				`SELECT product_id, quantity FROM order_items WHERE order_id = $1 AND product_id IS NOT NULL`,
				orderID)
			if err != nil {
				return fmt.Errorf("get order items: %w", err)
			}

			type restock struct {
				productID int64
				quantity  int
			}
			var restocks []restock
			for rows.Next() {
				var r restock
				if err := rows.Scan(&r.productID, &r.quantity); err != nil {
					rows.Close()
					return fmt.Errorf("scan order item: %w", err)
				}
				restocks = append(restocks, r)
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return fmt.Errorf("rows error: %w", err)
			}
			rows.Close()

			for _, r := range restocks {
				if err := RestoreStock(ctx, tx, r.productID, r.quantity); err != nil {
					return err
				}
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			status, orderID)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetOrder(ctx, db, orderID)
}
