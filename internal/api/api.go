// Package api wires the storefront's HTTP surface: one handler set per
// resource, bearer-token middleware, and the error-to-status mapping.
package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/safar/beverage-store/internal/auth"
	"github.com/safar/beverage-store/internal/config"
	"github.com/safar/beverage-store/internal/telemetry"
)

type API struct {
	db      *sql.DB
	logger  *slog.Logger
	tokens  *auth.TokenManager
	hasher  *auth.PasswordHasher
	uploads string
	metrics *telemetry.Metrics
}

func New(db *sql.DB, logger *slog.Logger, cfg *config.Config, metrics *telemetry.Metrics) *API {
	return &API{
		db:      db,
		logger:  logger,
		tokens:  auth.NewTokenManager(cfg.Auth),
		hasher:  auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		uploads: cfg.Uploads.Dir,
		metrics: metrics,
	}
}

// Routes builds the full route table. Auth wrapping mirrors the storefront's
// access rules: public reads, authenticated storefront operations, and
// admin-only management endpoints.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("POST /register", a.handleRegister)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("GET /preview-products", a.handlePreviewProducts)
	mux.HandleFunc("GET /reviews/all", a.handleListFeedback)
	mux.HandleFunc("GET /reviews/user", a.handleListUserReviews)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(a.uploads))))
	mux.Handle("GET /metrics", a.metrics.Handler())

	// Authenticated
	mux.Handle("GET /profile", a.authenticate(a.handleGetProfile))
	mux.Handle("PUT /profile", a.authenticate(a.handleUpdateProfile))
	mux.Handle("GET /products", a.authenticate(a.handleListProducts))
	mux.Handle("GET /products/{id}", a.authenticate(a.handleGetProduct))
	mux.Handle("POST /cart/add", a.authenticate(a.handleAddToCart))
	mux.Handle("GET /cart", a.authenticate(a.handleGetCart))
	mux.Handle("PUT /cart/{itemId}", a.authenticate(a.handleUpdateCartItem))
	mux.Handle("DELETE /cart/{itemId}", a.authenticate(a.handleRemoveFromCart))
	mux.Handle("DELETE /cart", a.authenticate(a.handleClearCart))
	mux.Handle("POST /wishlist/add", a.authenticate(a.handleAddToWishlist))
	mux.Handle("GET /wishlist", a.authenticate(a.handleGetWishlist))
	mux.Handle("DELETE /wishlist/{itemId}", a.authenticate(a.handleRemoveFromWishlist))
	mux.Handle("DELETE /wishlist", a.authenticate(a.handleClearWishlist))
	mux.Handle("POST /orders", a.authenticate(a.handleCreateOrder))
	mux.Handle("GET /orders", a.authenticate(a.handleOrderHistory))
	mux.Handle("GET /orders/{id}", a.authenticate(a.handleGetOrder))
	mux.Handle("POST /reviews", a.authenticate(a.handleCreateReview))
	mux.Handle("DELETE /reviews/{reviewId}", a.authenticate(a.handleDeleteReview))

	// Admin
	mux.Handle("POST /add-product", a.admin(a.handleCreateProduct))
	mux.Handle("PUT /update-product/{id}", a.admin(a.handleUpdateProduct))
	mux.Handle("DELETE /delete-product/{id}", a.admin(a.handleDeleteProduct))
	mux.Handle("PUT /orders/{id}/status", a.admin(a.handleUpdateOrderStatus))
	mux.Handle("POST /admin/create", a.admin(a.handleCreateAdmin))
	mux.Handle("GET /admin/orders", a.admin(a.handleListAllOrders))
	mux.Handle("GET /admin/users/{userId}/orders", a.admin(a.handleUserOrderHistory))
	mux.Handle("GET /admin/users", a.admin(a.handleListUsers))
	mux.Handle("DELETE /admin/users/{id}", a.admin(a.handleDeleteUser))
	mux.Handle("GET /admin/analytics/dashboard", a.admin(a.handleDashboard))
	mux.Handle("GET /admin/analytics/monthly-revenue", a.admin(a.handleMonthlyRevenue))
	mux.Handle("GET /admin/analytics/products-by-category", a.admin(a.handleProductsByCategory))
	mux.Handle("GET /admin/analytics/recent-orders", a.admin(a.handleRecentOrders))
	mux.Handle("GET /admin/reviews", a.admin(a.handleListReviews))
	mux.Handle("PUT /admin/reviews/{reviewId}", a.admin(a.handleModerateReview))
	mux.Handle("GET /admin/reviews/stats", a.admin(a.handleReviewStats))

	return a.metrics.CountRequests(mux)
}
