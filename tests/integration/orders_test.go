package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/safar/beverage-store/internal/database"
	"github.com/safar/beverage-store/internal/models"
	"github.com/safar/beverage-store/internal/store"
	"github.com/shopspring/decimal"
)

func TestCreateOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "orderuser", "order@example.com")
	coffeeID := createTestProduct(t, db, "Cold Brew", "Coffee", 4.50, 50)
	teaID := createTestProduct(t, db, "Green Tea", "Tea", 3.00, 30)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID:          userID,
		CustomerDetails: models.CustomerDetails{Name: "Order User", Location: "Tashkent"},
		Items: []store.OrderItemRequest{
			{ProductID: coffeeID, Quantity: 5, Price: decimal.NewFromFloat(4.50)},
			{ProductID: teaID, Quantity: 3, Price: decimal.NewFromFloat(3.00)},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if order.ID == 0 {
		t.Error("Order ID should not be 0")
	}
	if order.OrderNumber == "" {
		t.Error("Order number should be generated")
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("Expected status %q, got %q", models.OrderStatusPending, order.Status)
	}

	expectedTotal := decimal.NewFromFloat(4.50).Mul(decimal.NewFromInt(5)).
		Add(decimal.NewFromFloat(3.00).Mul(decimal.NewFromInt(3)))
	if !order.TotalAmount.Equal(expectedTotal) {
		t.Errorf("Expected total %s, got %s", expectedTotal, order.TotalAmount)
	}

	if got := productStock(t, db, coffeeID); got != 45 {
		t.Errorf("Expected coffee stock 45, got %d", got)
	}
	if got := productStock(t, db, teaID); got != 27 {
		t.Errorf("Expected tea stock 27, got %d", got)
	}

	if len(order.Items) != 2 {
		t.Errorf("Expected 2 order items, got %d", len(order.Items))
	}
	if len(order.CategoryQuantities) != 2 {
		t.Errorf("Expected 2 category entries, got %d", len(order.CategoryQuantities))
	}
}

func TestCreateOrderAggregatesCategories(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "catuser", "cat@example.com")
	espressoID := createTestProduct(t, db, "Espresso", "Coffee", 2.50, 20)
	latteID := createTestProduct(t, db, "Latte", "Coffee", 3.50, 20)
	colaID := createTestProduct(t, db, "Cola", "Soft Drinks", 1.50, 20)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID:          userID,
		CustomerDetails: models.CustomerDetails{Name: "Cat User", Location: "Samarkand"},
		Items: []store.OrderItemRequest{
			{ProductID: espressoID, Quantity: 2, Price: decimal.NewFromFloat(2.50)},
			{ProductID: colaID, Quantity: 1, Price: decimal.NewFromFloat(1.50)},
			{ProductID: latteID, Quantity: 3, Price: decimal.NewFromFloat(3.50)},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if len(order.CategoryQuantities) != 2 {
		t.Fatalf("Expected 2 category entries, got %d", len(order.CategoryQuantities))
	}

	// First-seen order is preserved: Coffee before Soft Drinks.
	if order.CategoryQuantities[0].Category != "Coffee" || order.CategoryQuantities[0].Quantity != 5 {
		t.Errorf("Expected Coffee x5 first, got %s x%d",
			order.CategoryQuantities[0].Category, order.CategoryQuantities[0].Quantity)
	}
	if order.CategoryQuantities[1].Category != "Soft Drinks" || order.CategoryQuantities[1].Quantity != 1 {
		t.Errorf("Expected Soft Drinks x1 second, got %s x%d",
			order.CategoryQuantities[1].Category, order.CategoryQuantities[1].Quantity)
	}

	fetched, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if len(fetched.CategoryQuantities) != 2 || fetched.CategoryQuantities[0].Category != "Coffee" {
		t.Errorf("Persisted category aggregate does not match: %+v", fetched.CategoryQuantities)
	}
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "dupes", "dupes@example.com")
	productID := createTestProduct(t, db, "Double Shot", "Coffee", 3.00, 10)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID:          userID,
		CustomerDetails: models.CustomerDetails{Name: "Dupes", Location: "Tashkent"},
		Items: []store.OrderItemRequest{
			{ProductID: productID, Quantity: 3, Price: decimal.NewFromFloat(3.00)},
			{ProductID: productID, Quantity: 3, Price: decimal.NewFromFloat(3.00)},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	// Both lines persist but stock moves by the combined quantity.
	if len(order.Items) != 2 {
		t.Errorf("Expected 2 order lines, got %d", len(order.Items))
	}
	if got := productStock(t, db, productID); got != 4 {
		t.Errorf("Expected stock 4, got %d", got)
	}
	if len(order.CategoryQuantities) != 1 || order.CategoryQuantities[0].Quantity != 6 {
		t.Errorf("Expected Coffee x6 aggregate, got %+v", order.CategoryQuantities)
	}
}

func TestCreateOrderDuplicateLinesCombinedOverAsk(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "overask", "overask@example.com")
	productID := createTestProduct(t, db, "Single Origin", "Coffee", 5.00, 5)

	_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID:          userID,
		CustomerDetails: models.CustomerDetails{Name: "Overask", Location: "Tashkent"},
		Items: []store.OrderItemRequest{
			{ProductID: productID, Quantity: 3, Price: decimal.NewFromFloat(5.00)},
			{ProductID: productID, Quantity: 3, Price: decimal.NewFromFloat(5.00)},
		},
	})
	if err == nil {
		t.Fatal("Expected insufficient stock error")
	}

	// The check sees the combined ask, not each line alone.
	var stockErr *database.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 5 || stockErr.Requested != 6 {
		t.Errorf("Unexpected error detail: %+v", stockErr)
	}

	if got := productStock(t, db, productID); got != 5 {
		t.Errorf("Expected stock unchanged at 5, got %d", got)
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "rollback", "rollback@example.com")
	plentyID := createTestProduct(t, db, "Sparkling Water", "Water", 1.00, 100)
	scarceID := createTestProduct(t, db, "Rare Vintage", "Wine", 90.00, 2)

	_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID:          userID,
		CustomerDetails: models.CustomerDetails{Name: "Rollback", Location: "Bukhara"},
		Items: []store.OrderItemRequest{
			{ProductID: plentyID, Quantity: 10, Price: decimal.NewFromFloat(1.00)},
			{ProductID: scarceID, Quantity: 5, Price: decimal.NewFromFloat(90.00)},
		},
	})
	if err == nil {
		t.Fatal("Expected insufficient stock error")
	}

	var stockErr *database.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if stockErr.ProductName != "Rare Vintage" || stockErr.Available != 2 || stockErr.Requested != 5 {
		t.Errorf("Unexpected error detail: %+v", stockErr)
	}

	// The whole order rolled back, so the first item's stock is untouched.
	if got := productStock(t, db, plentyID); got != 100 {
		t.Errorf("Expected water stock 100 after rollback, got %d", got)
	}
	if got := productStock(t, db, scarceID); got != 2 {
		t.Errorf("Expected wine stock 2 after rollback, got %d", got)
	}

	var orderCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("Count orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("Expected no orders after rollback, got %d", orderCount)
	}
}

func TestCreateOrderConcurrentLastUnit(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	productID := createTestProduct(t, db, "Last Can", "Energy Drinks", 2.00, 1)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		userID := createTestUser(t, db, "racer", "racer"+string(rune('a'+i))+"@example.com")
		go func(userID int64) {
			defer wg.Done()
			_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
				UserID:          userID,
				CustomerDetails: models.CustomerDetails{Name: "Racer", Location: "Khiva"},
				Items: []store.OrderItemRequest{
					{ProductID: productID, Quantity: 1, Price: decimal.NewFromFloat(2.00)},
				},
			})
			results <- err
		}(userID)
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			failures++
		}
	}

	if successes != 1 || failures != 1 {
		t.Errorf("Expected exactly one success and one failure, got %d/%d", successes, failures)
	}
	if got := productStock(t, db, productID); got != 0 {
		t.Errorf("Expected stock 0, got %d", got)
	}
}

func TestCreateOrderClearsCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "cartclear", "cartclear@example.com")
	productID := createTestProduct(t, db, "Mango Smoothie", "Smoothies", 5.00, 10)

	if _, err := store.AddToCart(ctx, db, userID, productID, 2); err != nil {
		t.Fatalf("Add to cart: %v", err)
	}

	_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID:          userID,
		CustomerDetails: models.CustomerDetails{Name: "Cart Clear", Location: "Namangan"},
		Items: []store.OrderItemRequest{
			{ProductID: productID, Quantity: 2, Price: decimal.NewFromFloat(5.00)},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	items, err := store.GetCartItems(ctx, db, userID)
	if err != nil {
		t.Fatalf("Get cart items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty cart after order, got %d items", len(items))
	}
}

func TestCancelOrderRestoresStockOnce(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "cancel", "cancel@example.com")
	productID := createTestProduct(t, db, "Iced Tea", "Tea", 2.50, 20)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID:          userID,
		CustomerDetails: models.CustomerDetails{Name: "Cancel", Location: "Fergana"},
		Items: []store.OrderItemRequest{
			{ProductID: productID, Quantity: 4, Price: decimal.NewFromFloat(2.50)},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if got := productStock(t, db, productID); got != 16 {
		t.Fatalf("Expected stock 16 after order, got %d", got)
	}

	cancelled, err := store.UpdateOrderStatus(ctx, db, order.ID, models.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("Cancel order: %v", err)
	}
	if cancelled.Status != models.OrderStatusCancelled {
		t.Errorf("Expected status Cancelled, got %q", cancelled.Status)
	}
	if got := productStock(t, db, productID); got != 20 {
		t.Errorf("Expected stock restored to 20, got %d", got)
	}

	// Cancelling again must not restock a second time.
	if _, err := store.UpdateOrderStatus(ctx, db, order.ID, models.OrderStatusCancelled); err != nil {
		t.Fatalf("Cancel order again: %v", err)
	}
	if got := productStock(t, db, productID); got != 20 {
		t.Errorf("Expected stock still 20 after repeat cancel, got %d", got)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "status", "status@example.com")
	productID := createTestProduct(t, db, "Protein Shake", "Sports Drinks", 3.50, 10)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID:          userID,
		CustomerDetails: models.CustomerDetails{Name: "Status", Location: "Andijan"},
		Items: []store.OrderItemRequest{
			{ProductID: productID, Quantity: 1, Price: decimal.NewFromFloat(3.50)},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	for _, status := range []string{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		updated, err := store.UpdateOrderStatus(ctx, db, order.ID, status)
		if err != nil {
			t.Fatalf("Update status to %s: %v", status, err)
		}
		if updated.Status != status {
			t.Errorf("Expected status %q, got %q", status, updated.Status)
		}
	}

	// Non-cancel transitions never touch stock.
	if got := productStock(t, db, productID); got != 9 {
		t.Errorf("Expected stock 9, got %d", got)
	}
}

func TestListUserOrdersPagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "pager", "pager@example.com")
	productID := createTestProduct(t, db, "Berry Mocktail", "Mocktails", 4.00, 100)

	for i := 0; i < 5; i++ {
		_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
			UserID:          userID,
			CustomerDetails: models.CustomerDetails{Name: "Pager", Location: "Nukus"},
			Items: []store.OrderItemRequest{
				{ProductID: productID, Quantity: 1, Price: decimal.NewFromFloat(4.00)},
			},
		})
		if err != nil {
			t.Fatalf("Create order %d: %v", i, err)
		}
	}

	page1, err := store.ListUserOrders(ctx, db, userID, "", 2)
	if err != nil {
		t.Fatalf("List orders page 1: %v", err)
	}
	orders1 := page1.Items.([]models.Order)
	if len(orders1) != 2 {
		t.Fatalf("Expected 2 orders on page 1, got %d", len(orders1))
	}
	if !page1.HasMore || page1.NextCursor == "" {
		t.Fatal("Expected more pages after page 1")
	}

	page2, err := store.ListUserOrders(ctx, db, userID, page1.NextCursor, 2)
	if err != nil {
		t.Fatalf("List orders page 2: %v", err)
	}
	orders2 := page2.Items.([]models.Order)
	if len(orders2) != 2 {
		t.Fatalf("Expected 2 orders on page 2, got %d", len(orders2))
	}

	page3, err := store.ListUserOrders(ctx, db, userID, page2.NextCursor, 2)
	if err != nil {
		t.Fatalf("List orders page 3: %v", err)
	}
	orders3 := page3.Items.([]models.Order)
	if len(orders3) != 1 || page3.HasMore {
		t.Errorf("Expected final page with 1 order, got %d (hasMore=%v)", len(orders3), page3.HasMore)
	}

	seen := make(map[int64]bool)
	for _, orders := range [][]models.Order{orders1, orders2, orders3} {
		for _, order := range orders {
			if seen[order.ID] {
				t.Errorf("Order %d appeared on more than one page", order.ID)
			}
			seen[order.ID] = true
		}
	}
}

func TestGetUserOrderSummary(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "summary", "summary@example.com")
	productID := createTestProduct(t, db, "Lemonade", "Soft Drinks", 2.00, 100)

	locations := []string{"Tashkent", "Tashkent", "Samarkand"}
	for _, loc := range locations {
		_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
			UserID:          userID,
			CustomerDetails: models.CustomerDetails{Name: "Summary", Location: loc},
			Items: []store.OrderItemRequest{
				{ProductID: productID, Quantity: 2, Price: decimal.NewFromFloat(2.00)},
			},
		})
		if err != nil {
			t.Fatalf("Create order: %v", err)
		}
	}

	summary, err := store.GetUserOrderSummary(ctx, db, userID)
	if err != nil {
		t.Fatalf("Get summary: %v", err)
	}

	if summary.OrderCount != 3 {
		t.Errorf("Expected 3 orders, got %d", summary.OrderCount)
	}
	if !summary.TotalPurchaseAmount.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected total 12, got %s", summary.TotalPurchaseAmount)
	}
	if len(summary.Locations) != 2 {
		t.Errorf("Expected 2 distinct locations, got %v", summary.Locations)
	}
}
