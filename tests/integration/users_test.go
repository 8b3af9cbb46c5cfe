package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/beverage-store/internal/database"
	"github.com/safar/beverage-store/internal/models"
	"github.com/safar/beverage-store/internal/store"
	"github.com/shopspring/decimal"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.CreateUser(ctx, db, "first", "taken@example.com", "hash", models.RoleUser, ""); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	_, err := store.CreateUser(ctx, db, "second", "taken@example.com", "hash", models.RoleUser, "")
	if !errors.Is(err, database.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	created, err := store.CreateUser(ctx, db, "lookup", "lookup@example.com", "hash", models.RoleUser, "")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	fetched, err := store.GetUserByEmail(ctx, db, "lookup@example.com")
	if err != nil {
		t.Fatalf("Get by email: %v", err)
	}
	if fetched.ID != created.ID {
		t.Errorf("Expected user %d, got %d", created.ID, fetched.ID)
	}

	_, err = store.GetUserByEmail(ctx, db, "nobody@example.com")
	if !errors.Is(err, database.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestListUsersByRole(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.CreateUser(ctx, db, "shopper", "shopper@example.com", "hash", models.RoleUser, ""); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	if _, err := store.CreateUser(ctx, db, "boss", "boss@example.com", "hash", models.RoleAdmin, ""); err != nil {
		t.Fatalf("Create admin: %v", err)
	}

	page, err := store.ListUsers(ctx, db, models.RoleUser, 1, 20)
	if err != nil {
		t.Fatalf("List users: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Expected 1 plain user, got %d", page.Total)
	}

	all, err := store.ListUsers(ctx, db, "", 1, 20)
	if err != nil {
		t.Fatalf("List all users: %v", err)
	}
	if all.Total != 2 {
		t.Errorf("Expected 2 users total, got %d", all.Total)
	}
}

func TestDeleteUserPreservesHistory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	userID := createTestUser(t, db, "leaver", "leaver@example.com")
	productID := createTestProduct(t, db, "Farewell Brew", "Coffee", 3.00, 10)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID:          userID,
		CustomerDetails: models.CustomerDetails{Name: "Leaver", Location: "Tashkent"},
		Items: []store.OrderItemRequest{
			{ProductID: productID, Quantity: 1, Price: decimal.NewFromFloat(3.00)},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	rating := decimal.NewFromInt(4)
	review, err := store.CreateReview(ctx, db, userID, models.ReviewTypeFeedback, &rating, "Nice while it lasted")
	if err != nil {
		t.Fatalf("Create review: %v", err)
	}

	if _, err := store.AddToCart(ctx, db, userID, productID, 1); err != nil {
		t.Fatalf("Add to cart: %v", err)
	}
	if _, err := store.AddToWishlist(ctx, db, userID, productID); err != nil {
		t.Fatalf("Add to wishlist: %v", err)
	}

	if err := store.DeleteUser(ctx, db, userID); err != nil {
		t.Fatalf("Delete user: %v", err)
	}

	// Orders and reviews survive with the author detached.
	kept, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order after delete: %v", err)
	}
	if kept.UserID != nil {
		t.Errorf("Expected order user_id NULL, got %v", *kept.UserID)
	}

	keptReview, err := store.GetReview(ctx, db, review.ID)
	if err != nil {
		t.Fatalf("Get review after delete: %v", err)
	}
	if keptReview.UserID != nil {
		t.Errorf("Expected review user_id NULL, got %v", *keptReview.UserID)
	}

	// Cart and wishlist rows go with the account.
	var cartCount, wishCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID).Scan(&cartCount); err != nil {
		t.Fatalf("Count cart items: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM wishlist_items WHERE user_id = $1`, userID).Scan(&wishCount); err != nil {
		t.Fatalf("Count wishlist items: %v", err)
	}
	if cartCount != 0 || wishCount != 0 {
		t.Errorf("Expected cart and wishlist cleared, got %d/%d", cartCount, wishCount)
	}

	_, err = store.GetUser(ctx, db, userID)
	if !errors.Is(err, database.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound after delete, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user, err := store.CreateUser(ctx, db, "before", "before@example.com", "hash", models.RoleUser, "")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	updated, err := store.UpdateProfile(ctx, db, user.ID, "after", "after@example.com", "pic.png")
	if err != nil {
		t.Fatalf("Update profile: %v", err)
	}

	if updated.Username != "after" || updated.Email != "after@example.com" || updated.ProfilePic != "pic.png" {
		t.Errorf("Profile not updated: %+v", updated)
	}
}
