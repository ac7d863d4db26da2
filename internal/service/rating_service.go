package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/realty-service/internal/config"
	"github.com/spec-kit/realty-service/internal/domain"
	"github.com/spec-kit/realty-service/internal/events"
	"github.com/spec-kit/realty-service/internal/repository"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

// AggregateCache memoizes aggregates per ratee.
type AggregateCache interface {
	Get(ctx context.Context, rateeID string) (domain.Aggregate, bool, error)
	Set(ctx context.Context, agg domain.Aggregate) error
	Invalidate(ctx context.Context, rateeID string) error
}

// SubjectDirectory reports whether an id names a live company or agent.
type SubjectDirectory interface {
	SubjectExists(ctx context.Context, id string) (bool, error)
}

// RatingService maintains the rating ledger.
type RatingService struct {
	ratings    repository.RatingRepository
	subjects   SubjectDirectory
	cache      AggregateCache
	dispatcher events.Dispatcher
	operators  []string
	retry      retrier
	logger     *zap.Logger
}

// RatingDependencies bundles collaborators for the rating service. Cache may be nil.
// Operators lists the subject ids of the configured admin and superuser accounts.
type RatingDependencies struct {
	RatingRepo repository.RatingRepository
	Subjects   SubjectDirectory
	Cache      AggregateCache
	Dispatcher events.Dispatcher
	Operators  []string
	Retry      config.RetryConfig
	Logger     *zap.Logger
}

// NewRatingService constructs the service.
func NewRatingService(deps RatingDependencies) *RatingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{
		ratings:    deps.RatingRepo,
		subjects:   deps.Subjects,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		operators:  append([]string(nil), deps.Operators...),
		retry:      newRetrier(deps.Retry),
		logger:     logger,
	}
}

// SubmitRating records the rater's scores for the ratee. A second submission
// by the same rater replaces the first one in full.
func (s *RatingService) SubmitRating(ctx context.Context, actor *domain.Identity, rateeID string, scores []domain.CategoryScore) (*domain.RatingEntry, error) {
	if actor == nil || actor.SubjectID == "" {
		return nil, apperrors.NewUnauthorized("rater identity required")
	}
	rateeID = strings.TrimSpace(rateeID)
	if rateeID == "" {
		return nil, apperrors.NewInvalidInput("rateeId is required", map[string]any{"field": "rateeId"})
	}
	if rateeID == actor.SubjectID {
		return nil, apperrors.NewInvalidInput("cannot rate yourself", map[string]any{"field": "rateeId"})
	}
	if err := validateScores(scores); err != nil {
		return nil, err
	}

	live, err := s.raterLive(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, apperrors.NewUnauthorized("rater no longer exists")
	}

	exists, err := s.subjectExists(ctx, rateeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFound("ratee", map[string]any{"rateeId": rateeID})
	}

	entry := &domain.RatingEntry{
		RaterID: actor.SubjectID,
		RateeID: rateeID,
		Scores:  append([]domain.CategoryScore(nil), scores...),
	}
	if err := s.retry.do(ctx, func(ctx context.Context) error {
		return s.ratings.Upsert(ctx, entry)
	}); err != nil {
		return nil, storeError(err, "rating")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, rateeID); err != nil {
			s.logger.Warn("aggregate cache invalidation failed", zap.String("ratee_id", rateeID), zap.Error(err))
		}
	}

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventRatingSubmitted, "", eventActor(actor),
		events.RatingSubmittedPayload{EntryID: entry.ID, RaterID: entry.RaterID, RateeID: entry.RateeID, Scores: entry.Scores}))
	return entry, nil
}

// GetAggregate returns the distinct-rater count and mean score for ratee.
// Ratees with no entries, or that no longer exist, get the no-rating sentinel.
func (s *RatingService) GetAggregate(ctx context.Context, rateeID string) (domain.Aggregate, error) {
	exists, err := s.subjectExists(ctx, rateeID)
	if err != nil {
		return domain.Aggregate{}, err
	}
	if !exists {
		return domain.NoRating(rateeID), nil
	}

	if s.cache != nil {
		agg, hit, err := s.cache.Get(ctx, rateeID)
		if err != nil {
			s.logger.Warn("aggregate cache read failed", zap.String("ratee_id", rateeID), zap.Error(err))
		} else if hit {
			return agg, nil
		}
	}

	var agg domain.Aggregate
	if err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		agg, err = s.ratings.Aggregate(ctx, rateeID, s.operators)
		return err
	}); err != nil {
		return domain.Aggregate{}, storeError(err, "rating")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, agg); err != nil {
			s.logger.Warn("aggregate cache write failed", zap.String("ratee_id", rateeID), zap.Error(err))
		}
	}
	return agg, nil
}

// ListRatings returns the entries about ratee, most recently updated first.
func (s *RatingService) ListRatings(ctx context.Context, rateeID string, limit, offset int) ([]domain.RatingEntry, error) {
	if limit < 0 || offset < 0 {
		return nil, apperrors.NewInvalidInput("limit and offset must not be negative", nil)
	}
	var entries []domain.RatingEntry
	if err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		entries, err = s.ratings.ListByRatee(ctx, rateeID, limit, offset)
		return err
	}); err != nil {
		return nil, storeError(err, "rating")
	}
	if entries == nil {
		entries = []domain.RatingEntry{}
	}
	return entries, nil
}

func (s *RatingService) subjectExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		exists, err = s.subjects.SubjectExists(ctx, id)
		return err
	})
	if err != nil {
		return false, storeError(err, "ratee")
	}
	return exists, nil
}

// raterLive reports whether actor still names a rater whose entries count.
// Operators are checked against configuration, everyone else against the directory.
func (s *RatingService) raterLive(ctx context.Context, actor *domain.Identity) (bool, error) {
	if actor.Role.IsOperator() {
		return slices.Contains(s.operators, actor.SubjectID), nil
	}
	return s.subjectExists(ctx, actor.SubjectID)
}

func validateScores(scores []domain.CategoryScore) error {
	if len(scores) == 0 {
		return apperrors.NewInvalidInput("at least one category score is required", map[string]any{"field": "scores"})
	}
	seen := make(map[domain.Category]struct{}, len(scores))
	for i, sc := range scores {
		field := fmt.Sprintf("scores[%d]", i)
		if !sc.Category.Valid() {
			return apperrors.NewInvalidInput("unknown rating category", map[string]any{"field": field, "value": string(sc.Category)})
		}
		if sc.Score < domain.MinScore || sc.Score > domain.MaxScore {
			return apperrors.NewInvalidInput(
				fmt.Sprintf("score must be between %d and %d", domain.MinScore, domain.MaxScore),
				map[string]any{"field": field, "value": sc.Score})
		}
		if _, dup := seen[sc.Category]; dup {
			return apperrors.NewInvalidInput("category scored twice", map[string]any{"field": field, "value": string(sc.Category)})
		}
		seen[sc.Category] = struct{}{}
	}
	return nil
}
