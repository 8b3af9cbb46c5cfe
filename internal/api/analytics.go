package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/safar/beverage-store/internal/store"
)

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetDashboardStats(r.Context(), a.db)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, stats)
}

func (a *API) handleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 {
		year = time.Now().Year()
	}

	months, err := store.GetMonthlyRevenue(r.Context(), a.db, year)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, months)
}

func (a *API) handleProductsByCategory(w http.ResponseWriter, r *http.Request) {
	counts, err := store.GetProductsByCategory(r.Context(), a.db)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, counts)
}

func (a *API) handleRecentOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}

	orders, err := store.GetRecentOrders(r.Context(), a.db, limit)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, orders)
}
