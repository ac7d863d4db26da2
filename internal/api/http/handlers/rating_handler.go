package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/realty-service/internal/api/dto"
	"github.com/spec-kit/realty-service/internal/observability"
	"github.com/spec-kit/realty-service/internal/service"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

// RatingHandler exposes the rating ledger.
type RatingHandler struct {
	ratings *service.RatingService
	metrics *observability.Metrics
}

// NewRatingHandler constructs handler.
func NewRatingHandler(ratings *service.RatingService, metrics *observability.Metrics) *RatingHandler {
	return &RatingHandler{ratings: ratings, metrics: metrics}
}

// Submit handles POST /ratings. The rater is the token subject.
func (h *RatingHandler) Submit(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.SubmitRatingRequest
	if err := bind(c, &req); err != nil {
		h.metrics.RecordRatingSubmission(outcome(err))
		return err
	}

	entry, err := h.ratings.SubmitRating(c.UserContext(), actor, req.RateeID, req.DomainScores())
	h.metrics.RecordRatingSubmission(outcome(err))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRatingEntryResponse(entry)})
}

// List handles GET /ratings/:rateeId?limit=&offset=.
func (h *RatingHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	if limit > 200 {
		return apperrors.NewInvalidInput("limit must not exceed 200", map[string]any{"field": "limit"})
	}

	entries, err := h.ratings.ListRatings(c.UserContext(), c.Params("rateeId"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.RatingEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewRatingEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Aggregate handles GET /ratings/:rateeId/aggregate.
func (h *RatingHandler) Aggregate(c *fiber.Ctx) error {
	agg, err := h.ratings.GetAggregate(c.UserContext(), c.Params("rateeId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agg})
}
