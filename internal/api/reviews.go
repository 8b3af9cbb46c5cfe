package api

import (
	"net/http"
	"strconv"

	"github.com/safar/beverage-store/internal/models"
	"github.com/safar/beverage-store/internal/store"
	"github.com/shopspring/decimal"
)

type reviewRequest struct {
	Type    string   `json:"type"`
	Rating  *float64 `json:"rating"`
	Comment string   `json:"comment"`
}

func (a *API) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Type == "" || req.Comment == "" {
		a.respondMessage(w, http.StatusBadRequest, "Type and comment are required fields")
		return
	}
	if req.Type != models.ReviewTypeFeedback && req.Type != models.ReviewTypeQuestion {
		a.respondMessage(w, http.StatusBadRequest, `Type must be either "feedback" or "question"`)
		return
	}
	// Feedback carries a rating in [0, 5]; questions never do.
	if req.Type == models.ReviewTypeFeedback && (req.Rating == nil || *req.Rating < 0 || *req.Rating > 5) {
		a.respondMessage(w, http.StatusBadRequest, "Rating is required for feedback and must be between 0 and 5")
		return
	}

	var rating *decimal.Decimal
	if req.Type == models.ReviewTypeFeedback && req.Rating != nil {
		d := decimal.NewFromFloat(*req.Rating)
		rating = &d
	}

	claims := claimsFromContext(r.Context())
	review, err := store.CreateReview(r.Context(), a.db, claims.UserID, req.Type, rating, req.Comment)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Review submitted successfully",
		"review":  review,
	})
}

func (a *API) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := store.ListFeedback(r.Context(), a.db)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, entries)
}

func (a *API) handleListUserReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := store.ListReviews(r.Context(), a.db, store.ReviewFilter{})
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, reviews)
}

func (a *API) handleListReviews(w http.ResponseWriter, r *http.Request) {
	filter := store.ReviewFilter{
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
	}

	reviews, err := store.ListReviews(r.Context(), a.db, filter)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, reviews)
}

type moderateRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"adminNote"`
	Response  string `json:"response"`
}

func (a *API) handleModerateReview(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(r.PathValue("reviewId"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req moderateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Moderation is a one-way decision; a review never goes back to pending.
	switch req.Status {
	case models.ReviewStatusApproved, models.ReviewStatusRejected:
	default:
		a.respondMessage(w, http.StatusBadRequest, `Status must be either "approved" or "rejected"`)
		return
	}

	claims := claimsFromContext(r.Context())
	review, err := store.ModerateReview(r.Context(), a.db, reviewID, claims.UserID,
		req.Status, req.AdminNote, req.Response)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Review status updated successfully",
		"review":  review,
	})
}

func (a *API) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(r.PathValue("reviewId"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	review, err := store.GetReview(r.Context(), a.db, reviewID)
	if err != nil {
		a.respondError(w, err)
		return
	}

	claims := claimsFromContext(r.Context())
	owner := review.UserID != nil && *review.UserID == claims.UserID
	if !owner && claims.Role != models.RoleAdmin {
		a.respondMessage(w, http.StatusForbidden, "Not authorized to delete this review")
		return
	}

	if err := store.DeleteReview(r.Context(), a.db, reviewID); err != nil {
		a.respondError(w, err)
		return
	}

	a.respondMessage(w, http.StatusOK, "Review deleted successfully")
}

func (a *API) handleReviewStats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetReviewStats(r.Context(), a.db)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, stats)
}
