package api

import (
	"net/http"
	"strconv"

	"github.com/safar/beverage-store/internal/store"
)

type cartAddRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

func (a *API) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ProductID == 0 {
		a.respondMessage(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	if req.Quantity < 1 {
		a.respondMessage(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	claims := claimsFromContext(r.Context())
	item, err := store.AddToCart(r.Context(), a.db, claims.UserID, req.ProductID, req.Quantity)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusCreated, map[string]any{
		"message":  "Item added to cart successfully",
		"cartItem": item,
	})
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	items, err := store.GetCartItems(r.Context(), a.db, claims.UserID)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, items)
}

func (a *API) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid cart item ID")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity < 1 {
		a.respondMessage(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	claims := claimsFromContext(r.Context())
	item, err := store.UpdateCartItem(r.Context(), a.db, claims.UserID, itemID, req.Quantity)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, map[string]any{
		"message":  "Cart item updated successfully",
		"cartItem": item,
	})
}

func (a *API) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid cart item ID")
		return
	}

	claims := claimsFromContext(r.Context())
	if err := store.RemoveFromCart(r.Context(), a.db, claims.UserID, itemID); err != nil {
		a.respondError(w, err)
		return
	}

	a.respondMessage(w, http.StatusOK, "Item removed from cart successfully")
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	if err := store.ClearCart(r.Context(), a.db, claims.UserID); err != nil {
		a.respondError(w, err)
		return
	}

	a.respondMessage(w, http.StatusOK, "Cart cleared successfully")
}
