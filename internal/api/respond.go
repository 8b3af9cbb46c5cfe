package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/safar/beverage-store/internal/database"
)

func (a *API) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (a *API) respondMessage(w http.ResponseWriter, status int, message string) {
	a.respondJSON(w, status, map[string]string{"message": message})
}

// respondError maps store and database errors onto the HTTP status taxonomy:
// missing entities 404, validation and duplicates 400, duplicate product
// names 406, everything else 500 with the message surfaced.
func (a *API) respondError(w http.ResponseWriter, err error) {
	var stockErr *database.InsufficientStockError
	if errors.As(err, &stockErr) {
		a.respondJSON(w, http.StatusBadRequest, map[string]any{
			"message":   "Insufficient stock for product: " + stockErr.ProductName,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
		return
	}

	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrCartItemNotFound),
		errors.Is(err, database.ErrWishlistItemNotFound),
		errors.Is(err, database.ErrReviewNotFound):
		a.respondMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrEmailTaken),
		errors.Is(err, database.ErrAlreadyInWishlist),
		errors.Is(err, database.ErrInsufficientStock):
		a.respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrProductExists):
		a.respondMessage(w, http.StatusNotAcceptable,
			"Product already exists in our collection. Please try another one!")
	default:
		a.logger.Error("request failed", slog.Any("error", err))
		a.respondMessage(w, http.StatusInternalServerError, err.Error())
	}
}
