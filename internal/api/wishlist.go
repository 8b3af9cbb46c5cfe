package api

import (
	"net/http"
	"strconv"

	"github.com/safar/beverage-store/internal/store"
)

func (a *API) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID == 0 {
		a.respondMessage(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	claims := claimsFromContext(r.Context())
	item, err := store.AddToWishlist(r.Context(), a.db, claims.UserID, req.ProductID)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusCreated, map[string]any{
		"message":      "Item added to wishlist successfully",
		"wishlistItem": item,
	})
}

func (a *API) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	items, err := store.GetWishlistItems(r.Context(), a.db, claims.UserID)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, items)
}

func (a *API) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid wishlist item ID")
		return
	}

	claims := claimsFromContext(r.Context())
	if err := store.RemoveFromWishlist(r.Context(), a.db, claims.UserID, itemID); err != nil {
		a.respondError(w, err)
		return
	}

	a.respondMessage(w, http.StatusOK, "Item removed from wishlist successfully")
}

func (a *API) handleClearWishlist(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	if err := store.ClearWishlist(r.Context(), a.db, claims.UserID); err != nil {
		a.respondError(w, err)
		return
	}

	a.respondMessage(w, http.StatusOK, "Wishlist cleared successfully")
}
