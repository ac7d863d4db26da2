package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/realty-service/internal/domain"
	"github.com/spec-kit/realty-service/internal/repository"
)

type ratingKey struct {
	rater string
	ratee string
}

// RatingStore is a RatingRepository backed by process memory.
type RatingStore struct {
	mu      sync.RWMutex
	entries map[ratingKey]domain.RatingEntry
	raters  repository.SubjectChecker
	now     func() time.Time
}

// NewRatingStore creates an empty ledger. Aggregates skip entries whose rater
// raters does not know; a nil checker counts every rater.
func NewRatingStore(raters repository.SubjectChecker) *RatingStore {
	return &RatingStore{
		entries: make(map[ratingKey]domain.RatingEntry),
		raters:  raters,
		now:     time.Now,
	}
}

var _ repository.RatingRepository = (*RatingStore)(nil)

func (s *RatingStore) Upsert(_ context.Context, entry *domain.RatingEntry) error {
	key := ratingKey{rater: entry.RaterID, ratee: entry.RateeID}
	scores := append([]domain.CategoryScore(nil), entry.Scores...)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	stored, exists := s.entries[key]
	if !exists {
		stored = domain.RatingEntry{
			ID:        uuid.NewString(),
			RaterID:   entry.RaterID,
			RateeID:   entry.RateeID,
			CreatedAt: now,
		}
	}
	stored.Scores = scores
	stored.UpdatedAt = now
	s.entries[key] = stored

	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt
	entry.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *RatingStore) Get(_ context.Context, raterID, rateeID string) (*domain.RatingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[ratingKey{rater: raterID, ratee: rateeID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneEntry(entry)
	return &out, nil
}

func (s *RatingStore) ListByRatee(_ context.Context, rateeID string, limit, offset int) ([]domain.RatingEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	var result []domain.RatingEntry
	for key, entry := range s.entries {
		if key.ratee == rateeID {
			result = append(result, cloneEntry(entry))
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *RatingStore) Aggregate(ctx context.Context, rateeID string, operators []string) (domain.Aggregate, error) {
	s.mu.RLock()
	var entries []domain.RatingEntry
	for key, entry := range s.entries {
		if key.ratee == rateeID && len(entry.Scores) > 0 {
			entries = append(entries, entry)
		}
	}
	s.mu.RUnlock()

	var (
		sum    int
		scores int
		raters int
	)
	for _, entry := range entries {
		live, err := s.raterLive(ctx, entry.RaterID, operators)
		if err != nil {
			return domain.Aggregate{}, err
		}
		if !live {
			continue
		}
		raters++
		for _, cs := range entry.Scores {
			sum += cs.Score
			scores++
		}
	}
	if raters == 0 || scores == 0 {
		return domain.NoRating(rateeID), nil
	}
	mean := float64(sum) / float64(scores)
	return domain.Aggregate{RateeID: rateeID, MeanScore: &mean, Count: raters}, nil
}

func (s *RatingStore) raterLive(ctx context.Context, raterID string, operators []string) (bool, error) {
	if slices.Contains(operators, raterID) || s.raters == nil {
		return true, nil
	}
	return s.raters.SubjectExists(ctx, raterID)
}

func cloneEntry(e domain.RatingEntry) domain.RatingEntry {
	e.Scores = append([]domain.CategoryScore(nil), e.Scores...)
	return e
}
