package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/realty-service/internal/domain"
)

func TestRatingStore_UpsertReplaces(t *testing.T) {
	s := NewRatingStore(nil)
	ctx := context.Background()

	first := &domain.RatingEntry{RaterID: "u1", RateeID: "a1", Scores: []domain.CategoryScore{
		{Category: domain.CategoryProfessionalism, Score: 5},
	}}
	require.NoError(t, s.Upsert(ctx, first))

	later := time.Now().Add(time.Minute)
	s.now = func() time.Time { return later }

	second := &domain.RatingEntry{RaterID: "u1", RateeID: "a1", Scores: []domain.CategoryScore{
		{Category: domain.CategoryProfessionalism, Score: 3},
		{Category: domain.CategoryResponsiveness, Score: 4},
	}}
	require.NoError(t, s.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	entries, err := s.ListByRatee(ctx, "a1", 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second.Scores, entries[0].Scores)

	agg, err := s.Aggregate(ctx, "a1", nil)
	require.NoError(t, err)
	require.True(t, agg.Rated())
	assert.Equal(t, 1, agg.Count)
	assert.InDelta(t, 3.5, *agg.MeanScore, 1e-9)
}

func TestRatingStore_AggregateAcrossRaters(t *testing.T) {
	s := NewRatingStore(nil)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, &domain.RatingEntry{RaterID: "u1", RateeID: "c1", Scores: []domain.CategoryScore{
		{Category: domain.CategoryOverall, Score: 5},
		{Category: domain.CategoryKnowledge, Score: 4},
	}}))
	require.NoError(t, s.Upsert(ctx, &domain.RatingEntry{RaterID: "u2", RateeID: "c1", Scores: []domain.CategoryScore{
		{Category: domain.CategoryOverall, Score: 3},
	}}))
	require.NoError(t, s.Upsert(ctx, &domain.RatingEntry{RaterID: "u2", RateeID: "other", Scores: []domain.CategoryScore{
		{Category: domain.CategoryOverall, Score: 1},
	}}))

	agg, err := s.Aggregate(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Count)
	assert.InDelta(t, 4.0, *agg.MeanScore, 1e-9)
}

func TestRatingStore_NoRatingSentinel(t *testing.T) {
	agg, err := NewRatingStore(nil).Aggregate(context.Background(), "nobody", nil)
	require.NoError(t, err)
	assert.False(t, agg.Rated())
	assert.Nil(t, agg.MeanScore)
	assert.Zero(t, agg.Count)
}

func TestRatingStore_ConcurrentUpsertsKeepOneEntry(t *testing.T) {
	s := NewRatingStore(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for score := domain.MinScore; score <= domain.MaxScore; score++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			assert.NoError(t, s.Upsert(ctx, &domain.RatingEntry{RaterID: "u1", RateeID: "a1", Scores: []domain.CategoryScore{
				{Category: domain.CategoryOverall, Score: score},
			}}))
		}(score)
	}
	wg.Wait()

	entries, err := s.ListByRatee(ctx, "a1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Scores, 1)
}

func TestRatingStore_AggregateSkipsMissingRaters(t *testing.T) {
	companies := NewCompanyStore()
	ctx := context.Background()
	live := &domain.Company{Name: "Live", Email: "live@x.com"}
	require.NoError(t, companies.Create(ctx, live))

	s := NewRatingStore(companies)
	for rater, score := range map[string]int{live.ID: 4, "deleted-company": 1, "ops@x.com": 2} {
		require.NoError(t, s.Upsert(ctx, &domain.RatingEntry{RaterID: rater, RateeID: "c1", Scores: []domain.CategoryScore{
			{Category: domain.CategoryOverall, Score: score},
		}}))
	}

	agg, err := s.Aggregate(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Count)
	assert.InDelta(t, 4.0, *agg.MeanScore, 1e-9)

	agg, err = s.Aggregate(ctx, "c1", []string{"ops@x.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Count)
	assert.InDelta(t, 3.0, *agg.MeanScore, 1e-9)

	agg, err = s.Aggregate(ctx, "nobody-rated", []string{"ops@x.com"})
	require.NoError(t, err)
	assert.False(t, agg.Rated())
}
