package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/beverage-store/internal/database"
	"github.com/safar/beverage-store/internal/models"
	"github.com/shopspring/decimal"
)

const reviewColumns = `r.id, r.user_id, r.type, r.rating, r.comment, r.status,
	r.admin_note, r.response, r.moderated_by, r.moderated_at, r.created_at, r.updated_at`

const reviewReturning = `id, user_id, type, rating, comment, status,
	admin_note, response, moderated_by, moderated_at, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }, withUser bool) (*models.Review, error) {
	review := &models.Review{}
	var rating decimal.NullDecimal
	var moderatedAt sql.NullTime

	dest := []any{
		&review.ID,
		&review.UserID,
		&review.Type,
		&rating,
		&review.Comment,
		&review.Status,
		&review.AdminNote,
		&review.Response,
		&review.ModeratedBy,
		&moderatedAt,
		&review.CreatedAt,
		&review.UpdatedAt,
	}
	if withUser {
		dest = append(dest, &review.Username, &review.UserEmail, &review.ProfilePic)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if rating.Valid {
		review.Rating = &rating.Decimal
	}
	if moderatedAt.Valid {
		t := moderatedAt.Time
		review.ModeratedAt = &t
	}

	return review, nil
}

func CreateReview(ctx context.Context, db *sql.DB, userID int64, reviewType string, rating *decimal.Decimal, comment string) (*models.Review, error) {
	query := `
		INSERT INTO reviews (user_id, type, rating, comment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + reviewReturning

	var ratingArg any
	if rating != nil {
		ratingArg = *rating
	}

	review, err := scanReview(db.QueryRowContext(ctx, query,
		userID, reviewType, ratingArg, comment, models.ReviewStatusPending), false)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	return review, nil
}

func GetReview(ctx context.Context, db *sql.DB, id int64) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews r WHERE r.id = $1`

	review, err := scanReview(db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return review, nil
}

// ReviewFilter narrows admin listings; empty fields match everything.
type ReviewFilter struct {
	Status string
	Type   string
}

func ListReviews(ctx context.Context, db *sql.DB, filter ReviewFilter) ([]models.Review, error) {
	query := `
		SELECT ` + reviewColumns + `,
		       COALESCE(u.username, ''), COALESCE(u.email, ''), COALESCE(u.profile_pic, '')
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE ($1 = '' OR r.status = $1)
		  AND ($2 = '' OR r.type = $2)
		ORDER BY r.created_at DESC`

	rows, err := db.QueryContext(ctx, query, filter.Status, filter.Type)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		review, err := scanReview(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return reviews, nil
}

// ModerateReview applies an admin decision, recording who moderated and when.
func ModerateReview(ctx context.Context, db *sql.DB, reviewID, adminID int64, status, adminNote, response string) (*models.Review, error) {
	query := `
		UPDATE reviews
		SET status = $1, admin_note = $2, response = $3,
		    moderated_by = $4, moderated_at = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + reviewReturning

	review, err := scanReview(db.QueryRowContext(ctx, query,
		status, adminNote, response, adminID, time.Now(), reviewID), false)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrReviewNotFound
		}
		return nil, fmt.Errorf("moderate review: %w", err)
	}

	return review, nil
}

func DeleteReview(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrReviewNotFound
	}

	return nil
}

type ReviewStats struct {
	TotalReviews  int64           `json:"totalReviews"`
	AverageRating decimal.Decimal `json:"averageRating"`
	FeedbackCount int64           `json:"feedbackCount"`
	QuestionCount int64           `json:"questionCount"`
	PendingCount  int64           `json:"pendingCount"`
}

func GetReviewStats(ctx context.Context, db *sql.DB) (*ReviewStats, error) {
	stats := &ReviewStats{}

	query := `
		SELECT COUNT(*),
		       COALESCE(AVG(rating), 0),
		       COUNT(*) FILTER (WHERE type = 'feedback'),
		       COUNT(*) FILTER (WHERE type = 'question'),
		       COUNT(*) FILTER (WHERE status = 'pending')
		FROM reviews`

	err := db.QueryRowContext(ctx, query).Scan(
		&stats.TotalReviews,
		&stats.AverageRating,
		&stats.FeedbackCount,
		&stats.QuestionCount,
		&stats.PendingCount,
	)
	if err != nil {
		return nil, fmt.Errorf("get review stats: %w", err)
	}

	return stats, nil
}

// FeedbackEntry is the public shape of one feedback review.
type FeedbackEntry struct {
	Username   string           `json:"username"`
	ProfilePic string           `json:"profilePic,omitempty"`
	Feedback   string           `json:"feedback"`
	Rating     *decimal.Decimal `json:"rating,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// ListFeedback returns every feedback review with the author's public
// profile, newest first, skipping reviews whose author was deleted.
func ListFeedback(ctx context.Context, db *sql.DB) ([]FeedbackEntry, error) {
	query := `
		SELECT u.username, u.profile_pic, r.comment, r.rating, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.type = 'feedback'
		ORDER BY r.created_at DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	entries := []FeedbackEntry{}
	for rows.Next() {
		var entry FeedbackEntry
		var rating decimal.NullDecimal
		if err := rows.Scan(&entry.Username, &entry.ProfilePic, &entry.Feedback, &rating, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		if rating.Valid {
			entry.Rating = &rating.Decimal
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return entries, nil
}
