package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/safar/beverage-store/internal/models"
	"github.com/safar/beverage-store/internal/store"
	"github.com/shopspring/decimal"
)

type orderRequest struct {
	CustomerDetails models.CustomerDetails `json:"customerDetails"`
	Items           []orderItemRequest     `json:"items"`
}

type orderItemRequest struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CustomerDetails.Name == "" || req.CustomerDetails.Location == "" {
		a.respondMessage(w, http.StatusBadRequest, "Customer details are required")
		return
	}
	if len(req.Items) == 0 {
		a.respondMessage(w, http.StatusBadRequest, "Order items are required")
		return
	}
	for _, item := range req.Items {
		if item.ProductID == 0 || item.Quantity < 1 {
			a.respondMessage(w, http.StatusBadRequest, "Order items are required")
			return
		}
	}

	claims := claimsFromContext(r.Context())
	storeReq := store.CreateOrderRequest{
		UserID:          claims.UserID,
		CustomerDetails: req.CustomerDetails,
	}
	for _, item := range req.Items {
		storeReq.Items = append(storeReq.Items, store.OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     decimal.NewFromFloat(item.Price),
		})
	}

	order, err := store.CreateOrder(r.Context(), a.db, storeReq)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.metrics.OrdersPlaced.Inc()
	a.logger.Info("order placed",
		slog.String("order_number", order.OrderNumber),
		slog.Int64("user_id", claims.UserID),
		slog.String("total", order.TotalAmount.String()))

	a.respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Order placed successfully",
		"order":   order,
	})
}

func (a *API) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	page, err := store.ListUserOrders(r.Context(), a.db, claims.UserID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, page)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := store.GetOrder(r.Context(), a.db, id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	claims := claimsFromContext(r.Context())
	owner := order.UserID != nil && *order.UserID == claims.UserID
	if !owner && claims.Role != models.RoleAdmin {
		a.respondMessage(w, http.StatusForbidden, "Not authorized to view this order")
		return
	}

	a.respondJSON(w, http.StatusOK, order)
}

func (a *API) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !models.ValidOrderStatus(req.Status) {
		a.respondJSON(w, http.StatusBadRequest, map[string]any{
			"message":       "Invalid status",
			"validStatuses": models.OrderStatuses,
		})
		return
	}

	order, err := store.UpdateOrderStatus(r.Context(), a.db, id, req.Status)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.logger.Info("order status updated",
		slog.Int64("order_id", id),
		slog.String("status", req.Status))

	a.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Order status updated successfully",
		"order":   order,
	})
}

func (a *API) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := store.ListAllOrders(r.Context(), a.db)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, orders)
}

func (a *API) handleUserOrderHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if _, err := store.GetUser(r.Context(), a.db, userID); err != nil {
		a.respondError(w, err)
		return
	}

	summary, err := store.GetUserOrderSummary(r.Context(), a.db, userID)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, summary)
}
