package dto

import (
	"time"

	"github.com/spec-kit/realty-service/internal/domain"
)

// CategoryScoreRequest is one scored category.
type CategoryScoreRequest struct {
	Category domain.Category `json:"category" validate:"required,rating_category"`
	Score    int             `json:"score" validate:"min=1,max=5"`
}

// SubmitRatingRequest payload. The rater is taken from the token.
type SubmitRatingRequest struct {
	RateeID string                 `json:"rateeId" validate:"required"`
	Scores  []CategoryScoreRequest `json:"scores" validate:"required,min=1,dive"`
}

// RatingEntryResponse renders one ledger entry.
type RatingEntryResponse struct {
	ID        string                 `json:"id"`
	RaterID   string                 `json:"raterId"`
	RateeID   string                 `json:"rateeId"`
	Scores    []domain.CategoryScore `json:"scores"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// DomainScores converts the request scores preserving order.
func (r SubmitRatingRequest) DomainScores() []domain.CategoryScore {
	out := make([]domain.CategoryScore, 0, len(r.Scores))
	for _, s := range r.Scores {
		out = append(out, domain.CategoryScore{Category: s.Category, Score: s.Score})
	}
	return out
}

// NewRatingEntryResponse renders an entry.
func NewRatingEntryResponse(e *domain.RatingEntry) RatingEntryResponse {
	return RatingEntryResponse{
		ID:        e.ID,
		RaterID:   e.RaterID,
		RateeID:   e.RateeID,
		Scores:    e.Scores,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
