package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/beverage-store/internal/models"
	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalUsers    int64           `json:"totalUsers"`
	TotalOrders   int64           `json:"totalOrders"`
	TotalProducts int64           `json:"totalProducts"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

func GetDashboardStats(ctx context.Context, db *sql.DB) (*DashboardStats, error) {
	stats := &DashboardStats{}

	query := `
		SELECT (SELECT COUNT(*) FROM users WHERE role = 'user'),
		       (SELECT COUNT(*) FROM orders),
		       (SELECT COUNT(*) FROM products),
		       (SELECT COALESCE(SUM(total_amount), 0) FROM orders)`

	err := db.QueryRowContext(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.TotalOrders,
		&stats.TotalProducts,
		&stats.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("get dashboard stats: %w", err)
	}

	return stats, nil
}

type MonthlyRevenue struct {
	Month   int             `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int64           `json:"count"`
}

// GetMonthlyRevenue aggregates non-cancelled order revenue per month of the
// given year. The result always has twelve entries; months without orders
// carry zero revenue.
func GetMonthlyRevenue(ctx context.Context, db *sql.DB, year int) ([]MonthlyRevenue, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	query := `
		SELECT EXTRACT(MONTH FROM order_date)::int AS month,
		       COALESCE(SUM(total_amount), 0),
		       COUNT(*)
		FROM orders
		WHERE order_date >= $1
		  AND order_date < $2
		  AND status <> $3
		GROUP BY month
		ORDER BY month`

	rows, err := db.QueryContext(ctx, query, start, start.AddDate(1, 0, 0), models.OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("get monthly revenue: %w", err)
	}
	defer rows.Close()

	var months []MonthlyRevenue
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Revenue, &m.Count); err != nil {
			return nil, fmt.Errorf("scan monthly revenue: %w", err)
		}
		months = append(months, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return FillMonths(months), nil
}

// FillMonths pads a sparse per-month series out to all twelve months.
func FillMonths(months []MonthlyRevenue) []MonthlyRevenue {
	byMonth := make(map[int]MonthlyRevenue, len(months))
	for _, m := range months {
		byMonth[m.Month] = m
	}

	filled := make([]MonthlyRevenue, 0, 12)
	for month := 1; month <= 12; month++ {
		if m, ok := byMonth[month]; ok {
			filled = append(filled, m)
			continue
		}
		filled = append(filled, MonthlyRevenue{Month: month, Revenue: decimal.Zero})
	}

	return filled
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// GetProductsByCategory sums the per-order category aggregates across all
// non-cancelled orders, busiest category first.
func GetProductsByCategory(ctx context.Context, db *sql.DB) ([]CategoryCount, error) {
	query := `
		SELECT c.category, SUM(c.quantity)
		FROM order_categories c
		JOIN orders o ON o.id = c.order_id
		WHERE o.status <> $1
		GROUP BY c.category
		ORDER BY SUM(c.quantity) DESC`

	rows, err := db.QueryContext(ctx, query, models.OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("get products by category: %w", err)
	}
	defer rows.Close()

	counts := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return counts, nil
}

// GetRecentOrders returns the latest orders with user and item detail for
// the admin dashboard.
func GetRecentOrders(ctx context.Context, db *sql.DB, limit int) ([]models.Order, error) {
	return listOrdersWithUsers(ctx, db, `
		SELECT o.id, o.order_number, o.user_id, o.customer_name, o.customer_location,
		       o.total_amount, o.status, o.order_date, o.created_at, o.updated_at,
		       COALESCE(u.username, ''), COALESCE(u.email, '')
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.order_date DESC
		LIMIT $1`, limit)
}
